package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	jwttoken "storefront/internal/jwt_token"
	"storefront/internal/session"
	id "storefront/pkg/domain"
)

// newTokenCmd mints tokens signed with the configured JWT secret, for local
// backends and API tests. Production configs are refused.
func newTokenCmd(e *env) *cobra.Command {
	var userID, email string
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a development access token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if e.cfg.IsProduction() {
				return errors.New("refusing to mint tokens with a production config")
			}
			if e.cfg.Backend.JWTSecret == "" {
				return errors.New("BACKEND_JWT_SECRET must be set")
			}

			uid := id.UserID(uuid.New())
			if userID != "" {
				parsed, err := id.ParseUserID(userID)
				if err != nil {
					return fmt.Errorf("invalid --user-id: %w", err)
				}
				uid = parsed
			}

			token, err := jwttoken.NewJWTService(e.cfg.Backend.JWTSecret, "").
				GenerateAccessToken(session.Identity{ID: uid, Email: email}, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user-id", "", "user id (UUID); generated when empty")
	cmd.Flags().StringVar(&email, "email", "", "email claim")
	cmd.Flags().DurationVar(&ttl, "ttl", 15*time.Minute, "token lifetime")
	return cmd
}
