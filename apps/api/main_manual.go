package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/go-playground/validator/v10"

	echoapi "github.com/trezcool/roster/apps/api/echo"
	"github.com/trezcool/roster/assets"
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

func startManual() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	defer logger.Close()

	dbLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)

	// set up stores
	ctx, cancel := context.WithTimeout(context.Background(), conf.Database.Timeout)
	repos, err := storage.OpenRepositories(ctx, conf, dbLogger)
	if err != nil {
		cancel()
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = repos.Close(context.Background()); err != nil {
			dbLogger.Error("Failed to close", err)
		}
	}()

	store, err := storage.OpenMediaStore(ctx, conf)
	cancel()
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up media store: %v", err), err)
	}

	// set up services
	mailSvc := emailsvc.NewService(conf, logger)
	schoolSvc := school.NewService(repos.Accounts, mailSvc)
	studentSvc := student.NewService(repos.Students)
	postSvc := post.NewService(repos.Posts)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)

	core.ParseEmailTemplates(assets.FS, assets.EmailTemplatesDir, conf, logger)

	// =========================================================================
	// Start Services

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:       conf,
			Logger:     logger,
			Validate:   validate,
			Translator: translator,
			Issuer:     token.NewIssuer([]byte(conf.SecretKey), conf.AppName, conf.Server.JWTExpirationDelta),
			Uploads:    media.NewGatekeeper(store, conf.Uploads.MaxSize),
			SchoolSvc:  schoolSvc,
			StudentSvc: studentSvc,
			PostSvc:    postSvc,
		},
	)

	serve(conf, logger, server)
}
