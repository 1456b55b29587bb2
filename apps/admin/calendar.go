package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/schedule"
	"github.com/trezcool/ratiba/core/user"
)

func newCalendarCommand(cli *commandLine) *cobra.Command {
	var (
		year, month int
		uname, role string
	)

	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Print a month of schedules, as seen by --user (every schedule when unset)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if month < 1 || month > 12 {
				return fmt.Errorf("invalid month %d", month)
			}
			ctx := context.Background()

			var m schedule.Month
			if uname == "" {
				events, err := cli.schedSvc.QueryAll(ctx)
				if err != nil {
					return err
				}
				m = schedule.ProjectMonth(events, year, time.Month(month))
			} else {
				viewer, err := cli.viewer(ctx, uname, role)
				if err != nil {
					return err
				}
				if m, err = cli.schedSvc.Calendar(ctx, viewer, year, time.Month(month)); err != nil {
					return err
				}
			}

			if cli.format != "text" {
				return cli.print(cmd.OutOrStdout(), m, nil)
			}
			return renderMonth(cmd.OutOrStdout(), m)
		},
	}

	now := core.NowUTC()
	cmd.Flags().IntVar(&year, "year", now.Year(), "calendar year")
	cmd.Flags().IntVar(&month, "month", int(now.Month()), "calendar month (1-12)")
	cmd.Flags().StringVar(&uname, "user", "", "viewer's username")
	cmd.Flags().StringVar(&role, "role", "", "viewer's role, checked against the account")
	return cmd
}

func (cli *commandLine) viewer(ctx context.Context, uname, role string) (user.User, error) {
	usr, err := cli.usrSvc.Get(ctx, uname)
	if err != nil {
		return user.User{}, err
	}
	if role != "" {
		if r, ok := user.ParseRole(role); !ok || r != usr.Role {
			return user.User{}, fmt.Errorf("%q is not a %s", uname, role)
		}
	}
	return usr, nil
}

// renderMonth prints a Sunday-first grid, days with schedules marked by `*`,
// followed by the schedules of each day.
func renderMonth(w io.Writer, m schedule.Month) error {
	var b strings.Builder

	fmt.Fprintf(&b, "%s %d\n", m.Month, m.Year)
	b.WriteString("Sun Mon Tue Wed Thu Fri Sat\n")
	for _, week := range m.Weeks {
		var line strings.Builder
		for _, day := range week {
			if !day.InMonth {
				line.WriteString("    ")
				continue
			}
			marker := " "
			if len(day.Entries) > 0 {
				marker = "*"
			}
			fmt.Fprintf(&line, "%3d%s", day.Day, marker)
		}
		b.WriteString(strings.TrimRight(line.String(), " "))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	var count int
	for _, week := range m.Weeks {
		for _, day := range week {
			for _, e := range day.Entries {
				fmt.Fprintf(&b, "%2d %-10s %s\n", day.Day, "["+string(e.Style)+"]", e.ShortTitle)
				count++
			}
		}
	}
	if count == 0 {
		b.WriteString("no schedules\n")
	}

	fmt.Fprintf(&b, "\n< %s %d | %s %d >\n", m.Prev.Month, m.Prev.Year, m.Next.Month, m.Next.Year)

	_, err := io.WriteString(w, b.String())
	return err
}
