package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/roster/assets"
	"github.com/trezcool/roster/core"
	"github.com/trezcool/roster/core/school"
	emailsvc "github.com/trezcool/roster/services/email"
	logsvc "github.com/trezcool/roster/services/logger"
	"github.com/trezcool/roster/storage"
)

func main() {
	os.Exit(start())
}

func start() int {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile), conf)
	defer logger.Close()

	// set up DB
	ctx, cancel := context.WithTimeout(context.Background(), conf.Database.Timeout)
	defer cancel()
	repos, err := storage.OpenRepositories(ctx, conf, logger)
	if err != nil {
		logger.Error(fmt.Sprintf("setting up database: %v", err), err)
		return 1
	}
	defer repos.Close(context.Background())

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	core.ParseEmailTemplates(assets.FS, assets.EmailTemplatesDir, conf, logger)

	// start CLI
	cli := commandLine{
		schoolSvc:     school.NewService(repos.Accounts, emailsvc.NewService(conf, logger)),
		ensureIndexes: repos.EnsureIndexes,
		validate:      validate,
		translator:    translator,
		out:           os.Stdout,
	}
	if err = cli.run(os.Args); err != nil {
		if err != errHelp {
			fmt.Fprintf(os.Stderr, "\nerror: %s\n", err)
		}
		return 1
	}
	return 0
}
