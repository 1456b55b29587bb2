package main

import (
	"errors"

	"github.com/spf13/cobra"
)

var errNoSQLEngine = errors.New("migrations only apply to the sqlite3 & postgres engines")

func newMigrateCommand(cli *commandLine) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate COMMAND [ARGS]",
		Short: "Run database migrations (up, up-by-one, up-to, down, down-to, redo, reset, status, version, fix)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if cli.stores.SQL == nil {
				return errNoSQLEngine
			}
			return gooseRunFunc(cli.stores.SQL, cli.conf.Database.Engine, args[0], args[1:]...)
		},
	}
}
