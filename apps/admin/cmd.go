package main

import (
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/loo7/core"
	"github.com/trezcool/loo7/core/digest"
	"github.com/trezcool/loo7/core/loo7"
	"github.com/trezcool/loo7/core/student"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	conf       *core.Config
	out        io.Writer
	db         *sqlx.DB // nil unless the sql backend is configured
	studentSvc student.Service
	loo7Svc    loo7.Service
	sender     *digest.Sender
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS]                     - run a goose command (up, down, status, ...) on the sql backend")
	fmt.Fprintln(cli.out, "  backup -sheikh ID [-out FILE] [-xlsx]      - export a sheikh's students and loo7")
	fmt.Fprintln(cli.out, "  digest [-date YYYY-MM-DD]                  - email the daily digest now (default: today)")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	backupCmd := flag.NewFlagSet("backup", flag.ContinueOnError)
	backupCmd.SetOutput(cli.out)
	backupSheikh := backupCmd.String("sheikh", "", "The id of the sheikh to export.")
	backupOut := backupCmd.String("out", "", "Output file. Defaults to stdout for JSON.")
	backupXLSX := backupCmd.Bool("xlsx", false, "Write a spreadsheet instead of JSON. Requires -out.")

	digestCmd := flag.NewFlagSet("digest", flag.ContinueOnError)
	digestCmd.SetOutput(cli.out)
	digestDate := digestCmd.String("date", "", "The date to report, YYYY-MM-DD.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "backup":
		if err := backupCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *backupSheikh == "" || (*backupXLSX && *backupOut == "") {
			backupCmd.Usage()
			return errHelp
		}
		return cli.backup(*backupSheikh, *backupOut, *backupXLSX)
	case "digest":
		if err := digestCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		return cli.digest(*digestDate)
	default:
		cli.printUsage()
		return errHelp
	}
}
