package main

import (
	"context"
	"fmt"
	"time"

	"portfolio-api/internal/admin"
	"portfolio-api/internal/app"
	"portfolio-api/internal/config"
	"portfolio-api/internal/logger"
	"portfolio-api/internal/metrics"

	"github.com/spf13/cobra"
)

func newSeedAdminCmd() *cobra.Command {
	var email, password, name string

	cmd := &cobra.Command{
		Use:   "seed-admin",
		Short: "Create the admin account if it does not exist",
		Long: "Creates the admin account from flags, falling back to ADMIN_EMAIL, ADMIN_PASSWORD and " +
			"ADMIN_NAME. An existing account with the same email is left untouched.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Read()
			if err != nil {
				return err
			}

			in := app.SeedInputFromConfig(cfg.Admin)
			if email != "" {
				in.Email = email
			}
			if password != "" {
				in.Password = password
			}
			if name != "" {
				in.Name = name
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			log := logger.New()
			stores, err := app.OpenStores(ctx, cfg.Database, metrics.NewMock(), log)
			if err != nil {
				return err
			}
			defer stores.Close(context.Background())

			created, err := admin.Seed(ctx, stores.Admins, in, log)
			if err != nil {
				return fmt.Errorf("seed failed: %w", err)
			}
			if created {
				fmt.Fprintf(cmd.OutOrStdout(), "Admin %s created\n", admin.NormalizeEmail(in.Email))
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Admin %s already exists\n", admin.NormalizeEmail(in.Email))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "admin email (default $ADMIN_EMAIL)")
	cmd.Flags().StringVar(&password, "password", "", "admin password (default $ADMIN_PASSWORD)")
	cmd.Flags().StringVar(&name, "name", "", "admin display name (default $ADMIN_NAME)")
	return cmd
}
