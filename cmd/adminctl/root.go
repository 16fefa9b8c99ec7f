package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	adminAdapters "storefront/internal/admin/adapters"
	adminService "storefront/internal/admin/service"
	"storefront/internal/backend"
	"storefront/internal/platform/config"
	"storefront/internal/platform/logger"
)

// env is resolved once per invocation in PersistentPreRunE.
type env struct {
	cfg    config.Server
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	e := &env{}
	var verbose bool

	root := &cobra.Command{
		Use:   "adminctl",
		Short: "Diagnose storefront admin access",
		Long: `adminctl runs the admin sign-in cascade and token checks against the
backend configured through STOREFRONT_CONFIG and the environment.

Available subcommands:
  check  - Sign in with a password and report the admin outcome
  whoami - Inspect an access token and report admin status
  token  - Mint a development access token
  schema - Print the backend SQL setup`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			e.cfg = cfg
			e.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
			if verbose {
				e.logger = logger.NewWithWriter(cmd.ErrOrStderr(), "debug")
			}
			return nil
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log backend calls to stderr")

	root.AddCommand(newCheckCmd(e), newWhoamiCmd(e), newTokenCmd(e), newSchemaCmd())
	return root
}

func (e *env) backendClient() *backend.Client {
	return backend.New(e.cfg.Backend.URL, e.cfg.Backend.AnonKey,
		backend.WithTimeout(e.cfg.Backend.Timeout),
		backend.WithLogger(e.logger),
	)
}

func (e *env) adminService(client *backend.Client) *adminService.Service {
	return adminService.New(client, adminAdapters.NewBackendDirectory(client),
		adminService.WithLogger(e.logger),
	)
}
