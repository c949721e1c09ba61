// Package cli is the workdesk command line client.
package cli

import (
	"context"
	"errors"
	"io"
	"os"

	"the-work-standard/internal/shared/result"

	"github.com/spf13/cobra"
)

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "workdesk",
		Short: "Sign in, check in and manage your team from the terminal",
		Long: `workdesk is the command line client for The Work Standard.

It keeps your session in a local file, checks you in and out, records notes
for the day and, for admins, manages the company's users.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.apiURL, "api-url", "", "API base URL (overrides WORKDESK_API_URL)")
	root.PersistentFlags().StringVar(&a.sessionFile, "session-file", "", "session file (overrides WORKDESK_SESSION_FILE)")

	root.AddCommand(
		newLoginCmd(a),
		newLogoutCmd(a),
		newSignupCmd(a),
		newWhoamiCmd(a),
		newMenuCmd(a),
		newStatusCmd(a),
		newCheckinCmd(a),
		newCheckoutCmd(a),
		newNotesCmd(a),
		newWatchCmd(a),
		newUsersCmd(a),
		newSetRoleCmd(a),
		newReportCmd(a),
	)
	return root
}

// ExecuteContext runs the command tree with ctx and then saves pending
// notes and closes the event stream, whether or not the command failed.
func ExecuteContext(ctx context.Context) error {
	return execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
}

func execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	a := &app{}
	root := newRootCommand(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	// the signal context may be done by now
	if cerr := a.close(context.WithoutCancel(ctx)); err == nil {
		err = cerr
	}
	return err
}

// resultError turns a failed Result into the error cobra prints.
func resultError(res result.Result) error {
	if res.OK() {
		return nil
	}
	return errors.New(res.Message)
}
