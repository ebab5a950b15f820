package main

import (
	"context"
	"fmt"

	"github.com/trezcool/loo7/core/loo7"
)

// digest sends the daily digest of date, today when empty.
func (cli *commandLine) digest(date string) error {
	ctx := context.Background()
	var (
		sent int
		err  error
	)
	if date == "" {
		sent, err = cli.sender.SendToday(ctx)
	} else {
		if _, err = loo7.ParseDate(date); err != nil {
			return err
		}
		sent, err = cli.sender.Send(ctx, date)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "%d digest(s) queued\n", sent)
	return nil
}
