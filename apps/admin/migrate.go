package main

import (
	"errors"

	"github.com/trezcool/atlantis/storage/database"
)

var (
	gooseRunFunc = database.RunMigrations // mockable

	errNoDB = errors.New("no database configured")
)

func (cli *commandLine) migrate(args []string) error {
	if cli.db == nil {
		return errNoDB
	}
	arguments := make([]string, 0)
	if len(args) > 1 {
		arguments = append(arguments, args[1:]...)
	}
	return gooseRunFunc(cli.db, args[0], arguments...)
}
