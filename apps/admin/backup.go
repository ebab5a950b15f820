package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/trezcool/loo7/core/backup"
)

// backup writes everything sheikhID owns to out, or to stdout when out is empty.
func (cli *commandLine) backup(sheikhID, out string, xlsx bool) error {
	snap, err := backup.Take(context.Background(), cli.studentSvc, cli.loo7Svc, sheikhID)
	if err != nil {
		return err
	}

	if xlsx {
		f, err := snap.Workbook(cli.conf.Timezone)
		if err != nil {
			return err
		}
		defer f.Close()
		if err = f.SaveAs(out); err != nil {
			return errors.Wrapf(err, "saving %s", out)
		}
		fmt.Fprintf(cli.out, "%d student(s), %d loo7 written to %s\n", len(snap.Students), len(snap.Loo7s), out)
		return nil
	}

	var w io.Writer = cli.out
	if out != "" {
		file, err := os.Create(out)
		if err != nil {
			return errors.Wrapf(err, "creating %s", out)
		}
		defer file.Close()
		w = file
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(snap), "encoding backup")
}
