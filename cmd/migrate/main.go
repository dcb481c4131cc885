package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/k-code-yt/paystack-payments/internal/config"
	pkgdb "github.com/k-code-yt/paystack-payments/pkg/db"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	var envFile string

	rootCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back the payments schema",
		Long: `Runs the embedded schema migrations against the store selected by
DB_DRIVER (postgres or sqlite3) and DATABASE_URL / POSTGRES_* settings.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if err := godotenv.Load(envFile); err != nil {
				logrus.WithField("path", envFile).Debug("no .env file, using environment variables")
			}
		},
	}
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "path to an optional .env file")

	rootCmd.AddCommand(upCmd())
	rootCmd.AddCommand(downCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func withMigrator(fn func(m *pkgdb.Migrator) error) error {
	cfg, err := config.LoadDB()
	if err != nil {
		return err
	}
	m, err := pkgdb.NewMigrator(cfg.Driver, cfg.DSN)
	if err != nil {
		return err
	}
	defer m.Close()
	return fn(m)
}

func upCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(func(m *pkgdb.Migrator) error {
				if err := m.Up(); err != nil {
					return err
				}
				logrus.Info("MIGRATE:UP_DONE")
				return nil
			})
		},
	}
}

func downCmd() *cobra.Command {
	var steps int
	cmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		Long:  "Rolls back --steps migrations, or every migration when --steps is 0.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(func(m *pkgdb.Migrator) error {
				if err := m.Down(steps); err != nil {
					return err
				}
				logrus.WithField("steps", steps).Info("MIGRATE:DOWN_DONE")
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&steps, "steps", 0, "number of migrations to roll back (0 = all)")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(func(m *pkgdb.Migrator) error {
				version, dirty, err := m.Version()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "version=%d dirty=%t\n", version, dirty)
				return nil
			})
		},
	}
}
