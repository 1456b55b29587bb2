package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var errEmptyPassword = errors.New("password cannot be empty")

func newResetPasswordCommand(cli *commandLine) *cobra.Command {
	var uname string

	cmd := &cobra.Command{
		Use:   "resetpassword",
		Short: "Reset a user's password; the new password is prompted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprint(cmd.OutOrStdout(), "Enter password:")
			pwd, err := readPasswordFunc(int(os.Stdin.Fd()))
			fmt.Fprintln(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if len(pwd) == 0 {
				return errEmptyPassword
			}
			if err = cli.usrSvc.ResetPassword(context.Background(), uname, string(pwd)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "password of %q updated\n", uname)
			return nil
		},
	}
	cmd.Flags().StringVarP(&uname, "username", "u", "", "the user's username")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}
