package dig_container

import (
	"context"
	"fmt"
	"log"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/roster/apps/api/echo"
	"github.com/trezcool/roster/core"
	"github.com/trezcool/roster/core/media"
	"github.com/trezcool/roster/core/post"
	"github.com/trezcool/roster/core/school"
	"github.com/trezcool/roster/core/student"
	"github.com/trezcool/roster/core/token"
	emailsvc "github.com/trezcool/roster/services/email"
	logsvc "github.com/trezcool/roster/services/logger"
	"github.com/trezcool/roster/storage"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

type serverParams struct {
	dig.In

	Conf       *core.Config
	Logger     core.Logger
	Validate   *validator.Validate
	Translator ut.Translator
	Issuer     *token.Issuer
	Uploads    *media.Gatekeeper
	SchoolSvc  school.Service
	StudentSvc student.Service
	PostSvc    post.Service
}

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	return logsvc.NewRollbarLogger(stdLogger, conf)
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	return logsvc.NewRollbarLogger(stdLogger, conf)
}

func newRepositories(conf *core.Config, loggerParam DBLoggerParam) (
	*storage.Repositories, school.Repository, student.Repository, post.Repository,
) {
	ctx, cancel := context.WithTimeout(context.Background(), conf.Database.Timeout)
	defer cancel()

	repos, err := storage.OpenRepositories(ctx, conf, loggerParam.Logger)
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return repos, repos.Accounts, repos.Students, repos.Posts
}

func newGatekeeper(conf *core.Config, logger core.Logger) *media.Gatekeeper {
	ctx, cancel := context.WithTimeout(context.Background(), conf.Database.Timeout)
	defer cancel()

	store, err := storage.OpenMediaStore(ctx, conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up media store: %v", err), err)
	}
	return media.NewGatekeeper(store, conf.Uploads.MaxSize)
}

func newValidate() *validator.Validate {
	return validator.New()
}

func newIssuer(conf *core.Config) *token.Issuer {
	return token.NewIssuer([]byte(conf.SecretKey), conf.AppName, conf.Server.JWTExpirationDelta)
}

func newServer(p serverParams) *echoapi.Server {
	return echoapi.NewServer(echoapi.ServerDeps{
		Conf:       p.Conf,
		Logger:     p.Logger,
		Validate:   p.Validate,
		Translator: p.Translator,
		Issuer:     p.Issuer,
		Uploads:    p.Uploads,
		SchoolSvc:  p.SchoolSvc,
		StudentSvc: p.StudentSvc,
		PostSvc:    p.PostSvc,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newRepositories))
	must(c.Provide(newGatekeeper))
	must(c.Provide(emailsvc.NewService))
	must(c.Provide(newValidate))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(newIssuer))
	must(c.Provide(school.NewService))
	must(c.Provide(student.NewService))
	must(c.Provide(post.NewService))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
