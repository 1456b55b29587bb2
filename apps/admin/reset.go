package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var errNotConfirmed = errors.New("this cannot be undone: pass --yes to confirm")

func newResetSchedulesCommand(cli *commandLine) *cobra.Command {
	var confirmed bool

	cmd := &cobra.Command{
		Use:   "reset-schedules",
		Short: "Delete every schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !confirmed {
				return errNotConfirmed
			}
			n, err := cli.schedSvc.ResetAll(context.Background())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d schedule(s) deleted\n", n)
			return nil
		},
	}
	cmd.Flags().BoolVar(&confirmed, "yes", false, "confirm the reset")
	return cmd
}

func newResetChecksCommand(cli *commandLine) *cobra.Command {
	var confirmed bool

	cmd := &cobra.Command{
		Use:   "reset-checks",
		Short: "Uncheck every schedule & clear every user's check marks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !confirmed {
				return errNotConfirmed
			}
			if err := cli.schedSvc.ResetChecks(context.Background()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "checks reset")
			return nil
		},
	}
	cmd.Flags().BoolVar(&confirmed, "yes", false, "confirm the reset")
	return cmd
}
