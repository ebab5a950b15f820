package main

import (
	"context"
	"errors"

	"github.com/pressly/goose/v3"

	"github.com/trezcool/loo7/storage/database"
)

var (
	gooseRunFunc = goose.RunContext // mockable

	errNoDatabase = errors.New("migrate requires the sql storage backend")
)

func (cli *commandLine) migrate(args []string) error {
	if cli.db == nil {
		return errNoDatabase
	}
	if err := database.PrepareGoose(cli.db); err != nil {
		return err
	}
	arguments := make([]string, 0)
	if len(args) > 1 {
		arguments = append(arguments, args[1:]...)
	}
	return gooseRunFunc(context.Background(), args[0], cli.db.DB, database.MigrationsDir, arguments...)
}
