package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/schedule"
	"github.com/trezcool/ratiba/core/user"
	"github.com/trezcool/ratiba/storage"
	"github.com/trezcool/ratiba/storage/database"
)

var (
	readPasswordFunc = term.ReadPassword       // mockable
	gooseRunFunc     = database.RunMigrations // mockable

	validFormats = []string{"text", "json", "yaml"}
)

type commandLine struct {
	conf     *core.Config
	stores   *storage.Stores
	usrSvc   *user.Service
	schedSvc *schedule.Service

	format string
}

func newRootCommand(cli *commandLine) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "admin",
		Short:         "Ratiba administration",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			for _, f := range validFormats {
				if f == cli.format {
					return nil
				}
			}
			return fmt.Errorf("invalid format %q: must be one of %v", cli.format, validFormats)
		},
	}
	cmd.PersistentFlags().StringVar(&cli.format, "format", "text", "output format (text|json|yaml)")

	cmd.AddCommand(
		newResetPasswordCommand(cli),
		newMigrateCommand(cli),
		newResetSchedulesCommand(cli),
		newResetChecksCommand(cli),
		newUsersCommand(cli),
		newSchedulesCommand(cli),
		newCalendarCommand(cli),
	)
	return cmd
}
