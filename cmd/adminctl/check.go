package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"storefront/internal/admin/models"
)

func newCheckCmd(e *env) *cobra.Command {
	var email string
	var passwordStdin bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run the admin sign-in cascade for an account",
		Long: `check signs in with the given email and a password read from stdin,
prints the outcome kind, the lookup strategy that matched and a remediation
hint for deployment faults, then signs the session out again.`,
		Example: `  echo "$PASSWORD" | adminctl check --email owner@shop.test --password-stdin`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !passwordStdin {
				return errors.New("--password-stdin is required")
			}
			if e.cfg.Backend.URL == "" || e.cfg.Backend.AnonKey == "" {
				return errors.New("BACKEND_URL and BACKEND_ANON_KEY must be set")
			}
			password, err := readPassword(cmd)
			if err != nil {
				return err
			}

			admin := e.adminService(e.backendClient())
			cred := models.NewCredential(email, password)
			clear(password)

			ctx := cmd.Context()
			outcome, err := admin.SignIn(ctx, cred)
			if err != nil {
				return fmt.Errorf("sign-in failed: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "status:   %s\n", outcome.Status)
			if outcome.Authorized() {
				fmt.Fprintf(out, "admin:    %s (%s)\n", outcome.Record.Email, outcome.Record.Role)
				fmt.Fprintf(out, "strategy: %s\n", outcome.Strategy)
				if err := admin.SignOut(ctx, outcome.Session); err != nil {
					return fmt.Errorf("sign-out failed: %w", err)
				}
				return nil
			}
			fmt.Fprintf(out, "kind:     %s\n", outcome.Kind)
			fmt.Fprintf(out, "reason:   %s\n", outcome.Reason)
			if hint := outcome.Kind.Remediation(); hint != "" {
				fmt.Fprintf(out, "fix:      %s\n", hint)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "admin account email")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from stdin")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

// readPassword takes the first line of stdin.
func readPassword(cmd *cobra.Command) ([]byte, error) {
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return nil, fmt.Errorf("read password: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return nil, errors.New("empty password on stdin")
	}
	return []byte(line), nil
}
