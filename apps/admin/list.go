package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/trezcool/ratiba/core/schedule"
	"github.com/trezcool/ratiba/core/user"
)

type (
	userRow struct {
		Username    string `json:"username" yaml:"username"`
		Role        string `json:"role" yaml:"role"`
		DisplayName string `json:"display_name,omitempty" yaml:"display_name,omitempty"`
	}

	scheduleRow struct {
		ID             int    `json:"id" yaml:"id"`
		Date           string `json:"date" yaml:"date"`
		Title          string `json:"title" yaml:"title"`
		Owner          string `json:"owner" yaml:"owner"`
		CreatorDisplay string `json:"creator_display" yaml:"creator_display"`
		Shared         bool   `json:"shared" yaml:"shared"`
		Done           bool   `json:"done" yaml:"done"`
	}
)

func newUsersCommand(cli *commandLine) *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List every account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			users, err := cli.usrSvc.QueryAll(context.Background())
			if err != nil {
				return err
			}
			rows := make([]userRow, 0, len(users))
			for _, usr := range users {
				rows = append(rows, toUserRow(usr))
			}
			return cli.print(cmd.OutOrStdout(), rows, func(tw *tabwriter.Writer) {
				fmt.Fprintln(tw, "USERNAME\tROLE\tDISPLAY NAME")
				for _, r := range rows {
					fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Username, r.Role, r.DisplayName)
				}
			})
		},
	}
}

func newSchedulesCommand(cli *commandLine) *cobra.Command {
	return &cobra.Command{
		Use:   "schedules",
		Short: "List every schedule, by date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			events, err := cli.schedSvc.QueryAll(context.Background())
			if err != nil {
				return err
			}
			rows := make([]scheduleRow, 0, len(events))
			for _, s := range events {
				rows = append(rows, toScheduleRow(s))
			}
			return cli.print(cmd.OutOrStdout(), rows, func(tw *tabwriter.Writer) {
				fmt.Fprintln(tw, "ID\tDATE\tTITLE\tCREATOR\tSHARED\tDONE")
				for _, r := range rows {
					fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
						r.ID, r.Date, r.Title, r.CreatorDisplay, yesNo(r.Shared), yesNo(r.Done))
				}
			})
		},
	}
}

func toUserRow(usr user.User) userRow {
	return userRow{Username: usr.Username, Role: usr.Role.String(), DisplayName: usr.DisplayName}
}

func toScheduleRow(s schedule.Schedule) scheduleRow {
	return scheduleRow{
		ID:             s.ID,
		Date:           s.Date.String(),
		Title:          s.Title,
		Owner:          s.Owner,
		CreatorDisplay: s.CreatorDisplay,
		Shared:         s.Shared,
		Done:           s.Done,
	}
}

// print writes `v` in the selected format; text output is delegated to `table`.
func (cli *commandLine) print(w io.Writer, v interface{}, table func(tw *tabwriter.Writer)) error {
	switch cli.format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		table(tw)
		return tw.Flush()
	}
}

func yesNo(b bool) string {
	return strconv.FormatBool(b)
}
