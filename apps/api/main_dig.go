package main

import (
	"context"
	"expvar"
	"fmt"
	"io"
	"log"
	"net/http"
	_ "net/http/pprof" // /debug/pprof

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	dig_container "github.com/trezcool/loo7/apps/api/di/dig"
	echoapi "github.com/trezcool/loo7/apps/api/echo"
	"github.com/trezcool/loo7/core"
	"github.com/trezcool/loo7/core/digest"
	"github.com/trezcool/loo7/core/loo7"
	"github.com/trezcool/loo7/core/sheikh"
	logsvc "github.com/trezcool/loo7/services/logger"
	schedulersvc "github.com/trezcool/loo7/services/scheduler"
)

func startWithDig() {
	c := dig_container.New()

	must(c.Invoke(func(
		conf *core.Config,
		logger *logsvc.Logger,
		store io.Closer,
		validate *validator.Validate,
		translator ut.Translator,
		sheikhSvc sheikh.Service,
		sender *digest.Sender,
		scheduler *schedulersvc.Scheduler,
		server *echoapi.Server,
	) {
		// =========================================================================
		// Initialize App

		logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
		defer logger.Sync()

		core.InitValidators(validate, translator)
		loo7.InitValidators(validate, translator)

		core.ParseEmailTemplates(conf, logger)

		defer func() {
			if err := store.Close(); err != nil {
				logger.Error(fmt.Sprintf("closing storage: %v", err), err)
			}
		}()
		defer logger.Info("Application stopped")

		if !conf.Auth.Enabled {
			if _, err := sheikhSvc.EnsureExists(context.Background(), conf.Auth.DefaultOwner, conf.AppName); err != nil {
				logger.Fatal(fmt.Sprintf("creating default sheikh: %v", err), err)
			}
			logger.Warn(fmt.Sprintf("authentication disabled: acting as sheikh %q", conf.Auth.DefaultOwner))
		}

		// =========================================================================
		// Start Debug Service
		//
		// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
		// /debug/vars - Added to the default mux by importing the expvar package.

		// Expose important info under /debug/vars.
		expvar.NewString("build").Set(conf.Build)
		expvar.NewString("env").Set(conf.Env)
		expvar.NewString("storage").Set(conf.Storage.Backend)

		go func() {
			if err := http.ListenAndServe(conf.Server.DebugAddress, http.DefaultServeMux); err != nil {
				logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
			}
		}()

		// =========================================================================
		// Start Background Jobs

		if conf.Digest.Enabled {
			err := scheduler.Add("daily_digest", conf.Digest.Schedule, func(ctx context.Context) error {
				_, err := sender.SendToday(ctx)
				return err
			})
			if err != nil {
				logger.Fatal(fmt.Sprintf("scheduling daily digest: %v", err), err)
			}
		}
		scheduler.Start()

		// =========================================================================
		// Start API Service

		go func() {
			server.Start()
		}()

		// =========================================================================
		// Shutdown

		select {
		case err := <-server.Errors():
			logger.Fatal(fmt.Sprintf("server error: %v", err), err)

		case sig := <-server.ShutdownSignal():
			logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

			// give outstanding requests a deadline for completion
			ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
			defer cancel()

			// asking listener to shut down and shed load
			if err := server.Shutdown(ctx); err != nil {
				logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

				if err = server.Close(); err != nil {
					logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
				}
			}
			scheduler.Stop(ctx)
		}
	}))
}

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
