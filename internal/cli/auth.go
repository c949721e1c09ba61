package cli

import (
	"fmt"
	"strings"

	"the-work-standard/internal/shared/result"

	"github.com/spf13/cobra"
)

func newLoginCmd(a *app) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and remember the session on this machine",
		Example: `  workdesk login --email kim@acme.com --password secret`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if email == "" || password == "" {
				return fmt.Errorf("--email and --password are required")
			}
			ctx := cmd.Context()
			if err := a.start(ctx); err != nil {
				return err
			}

			res := a.ws.Session.SignIn(ctx, email, password)
			if err := resultError(res); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, res.Message)
			printIdentity(out, a.ws.Session.View())
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := a.start(ctx); err != nil {
				return err
			}
			res := a.ws.Session.SignOut(ctx)
			fmt.Fprintln(cmd.OutOrStdout(), res.Message)
			return resultError(res)
		},
	}
}

func newSignupCmd(a *app) *cobra.Command {
	var email, password, name, companyCode, companyID string

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account in your company",
		Long: `Create an account in your company.

Pass the code your administrator gave you with --company-code; it is checked
before the account is created. A confirmation mail may be sent before you can
sign in.`,
		Example: `  workdesk signup --email lee@acme.com --password secret --name Lee --company-code ACME`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if email == "" || password == "" || strings.TrimSpace(name) == "" {
				return fmt.Errorf("--email, --password and --name are required")
			}
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if companyID == "" {
				if companyCode == "" {
					return fmt.Errorf("--company-code is required")
				}
				verified, err := a.client.VerifyCompanyCode(ctx, companyCode)
				if err != nil {
					return resultError(result.FromError(err))
				}
				companyID = verified.CompanyID
				fmt.Fprintf(out, "회사: %s\n", verified.CompanyName)
			}

			res := a.ws.Session.SignUp(ctx, email, password, name, companyID)
			if err := resultError(res); err != nil {
				return err
			}
			fmt.Fprintln(out, res.Message)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (at least 6 characters)")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&companyCode, "company-code", "", "company code from your administrator")
	cmd.Flags().StringVar(&companyID, "company-id", "", "company id, skips the code check")
	return cmd
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.requireSession(cmd.Context()); err != nil {
				return err
			}
			printIdentity(cmd.OutOrStdout(), a.ws.Session.View())
			return nil
		},
	}
}
