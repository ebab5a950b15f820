package main

import (
	"fmt"
	"io"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	dig_container "github.com/trezcool/loo7/apps/api/di/dig"
	"github.com/trezcool/loo7/core"
	"github.com/trezcool/loo7/core/digest"
	"github.com/trezcool/loo7/core/loo7"
	"github.com/trezcool/loo7/core/student"
	logsvc "github.com/trezcool/loo7/services/logger"
	"github.com/trezcool/loo7/storage/database"
)

func main() {
	var code int
	c := dig_container.New()

	err := c.Invoke(func(
		conf *core.Config,
		logger *logsvc.Logger,
		store io.Closer,
		validate *validator.Validate,
		translator ut.Translator,
		studentSvc student.Service,
		loo7Svc loo7.Service,
		sender *digest.Sender,
	) {
		defer logger.Sync()
		defer store.Close()

		core.InitValidators(validate, translator)
		loo7.InitValidators(validate, translator)
		core.ParseEmailTemplates(conf, logger)

		cli := commandLine{
			conf:       conf,
			out:        os.Stdout,
			studentSvc: studentSvc,
			loo7Svc:    loo7Svc,
			sender:     sender,
		}
		if conf.Storage.Backend == core.BackendSQL {
			db, err := database.Open(conf)
			if err != nil {
				logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
			}
			defer db.Close()
			cli.db = db
		}

		if err := cli.run(os.Args); err != nil {
			if err != errHelp {
				logger.Error(fmt.Sprintf("admin %v: %v", os.Args[1:], err), err)
			}
			code = 1
		}
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		code = 1
	}
	os.Exit(code)
}
