package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	jwttoken "storefront/internal/jwt_token"
)

func newWhoamiCmd(e *env) *cobra.Command {
	var token string
	var offline bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Validate an access token and report admin status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if e.cfg.Backend.JWTSecret == "" {
				return errors.New("BACKEND_JWT_SECRET must be set")
			}
			sess, err := jwttoken.NewJWTService(e.cfg.Backend.JWTSecret, "").SessionFromToken(token)
			if err != nil {
				return fmt.Errorf("invalid token: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "user:    %s\n", sess.Identity.ID)
			fmt.Fprintf(out, "email:   %s\n", sess.Identity.Email)
			fmt.Fprintf(out, "expires: %s\n", sess.ExpiresAt.Format("2006-01-02T15:04:05Z07:00"))
			if offline {
				return nil
			}

			admin := e.adminService(e.backendClient())
			record, err := admin.CurrentAdmin(cmd.Context(), sess)
			if err != nil {
				return fmt.Errorf("admin lookup failed: %w", err)
			}
			if record == nil {
				fmt.Fprintln(out, "admin:   no")
				return nil
			}
			fmt.Fprintf(out, "admin:   yes (%s)\n", record.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "access token to inspect")
	cmd.Flags().BoolVar(&offline, "offline", false, "skip the backend admin lookup")
	_ = cmd.MarkFlagRequired("token")
	return cmd
}
