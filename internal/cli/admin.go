package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"the-work-standard/internal/client/rolegate"
	"the-work-standard/internal/client/session"
	"the-work-standard/internal/shared/result"

	"github.com/spf13/cobra"
)

func newMenuCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "menu",
		Short: "List the screens available to you",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.start(cmd.Context()); err != nil {
				return err
			}
			printMenu(cmd.OutOrStdout(), a.ws.Gate.VisibleMenu(rolegate.DefaultMenu()), 0)
			return nil
		},
	}
}

func printMenu(w io.Writer, items []rolegate.MenuItem, depth int) {
	for _, item := range items {
		line := strings.Repeat("  ", depth) + item.Title
		if depth == 0 {
			line = titleStyle.Render(line)
		}
		fmt.Fprintf(w, "%s  %s\n", line, mutedStyle.Render(item.Path))
		printMenu(w, item.Children, depth+1)
	}
}

func newUsersCmd(a *app) *cobra.Command {
	var query string
	var refresh bool

	cmd := &cobra.Command{
		Use:   "users",
		Short: "List the company's users (admin)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := a.requireSession(ctx); err != nil {
				return err
			}

			load := a.ws.Directory.Fetch
			if refresh {
				load = a.ws.Directory.Refresh
			}
			users, res := load(ctx)
			if err := resultError(res); err != nil {
				return err
			}
			if query != "" {
				users = a.ws.Directory.Search(query)
			}

			loc, err := time.LoadLocation(a.cfg.Timezone)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tEMAIL\tROLE\tJOINED")
			for _, u := range users {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", u.ID, u.Name, u.Email, u.Role, u.CreatedAt.In(loc).Format(time.DateOnly))
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVarP(&query, "q", "q", "", "filter by name or email")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "reload instead of using the cached list")
	return cmd
}

func newSetRoleCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "set-role <user-id> <user|admin>",
		Short:   "Change a user's role (admin)",
		Args:    cobra.ExactArgs(2),
		Example: `  workdesk set-role 6f1c0c7e-0000-4000-8000-000000000001 admin`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.requireSession(ctx); err != nil {
				return err
			}
			res := a.ws.Directory.UpdateRole(ctx, args[0], session.Role(strings.ToLower(args[1])))
			if err := resultError(res); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Message)
			return nil
		},
	}
}

func newReportCmd(a *app) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show everyone's attendance for a day (admin)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := a.requireSession(ctx); err != nil {
				return err
			}
			if !a.ws.Gate.Allows(rolegate.CapViewAttendanceReport) {
				return resultError(result.Fail(result.ReasonForbidden, ""))
			}

			rows, err := a.store.Report(ctx, date)
			if err != nil {
				return resultError(result.FromError(err))
			}
			loc, err := time.LoadLocation(a.cfg.Timezone)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "NAME\tEMAIL\tIN\tOUT\tSTATUS\tWORKED")
			for _, r := range rows {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					r.UserName, r.UserEmail,
					clockTime(r.CheckInTime, loc), clockTime(r.CheckOutTime, loc),
					r.Status.Label(), minutes(r.WorkDuration))
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "day as YYYY-MM-DD (default today)")
	return cmd
}
