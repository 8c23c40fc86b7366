package main

import (
	"context"
	"fmt"
	"log"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	dig_container "github.com/trezcool/roster/apps/api/di/dig"
	echoapi "github.com/trezcool/roster/apps/api/echo"
	"github.com/trezcool/roster/assets"
	"github.com/trezcool/roster/core"
	"github.com/trezcool/roster/storage"
)

func startWithDig() {
	c := dig_container.New()

	must(c.Invoke(func(
		conf *core.Config,
		apiLogger core.Logger,
		dbLoggerParam dig_container.DBLoggerParam,
		repos *storage.Repositories,
		validate *validator.Validate,
		translator ut.Translator,
		server *echoapi.Server,
	) {
		// =========================================================================
		// Initialize App

		apiLogger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))

		core.InitValidators(validate, translator)
		core.ParseEmailTemplates(assets.FS, assets.EmailTemplatesDir, conf, apiLogger)

		dbLogger := dbLoggerParam.Logger
		defer func() {
			if err := repos.Close(context.Background()); err != nil {
				dbLogger.Error("Failed to close", err)
			}
		}()
		defer apiLogger.Info("Application stopped")

		serve(conf, apiLogger, server)
	}))
}

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
