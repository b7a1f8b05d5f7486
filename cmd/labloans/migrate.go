package main

import (
	migrate "github.com/rubenv/sql-migrate"
	"github.com/spf13/cobra"
)

func newMigrateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}
	cmd.AddCommand(
		migrateDirectionCmd(a, "up", "Apply pending migrations", migrate.Up),
		migrateDirectionCmd(a, "down", "Roll back applied migrations", migrate.Down),
	)
	return cmd
}

func migrateDirectionCmd(a *app, use, short string, direction migrate.MigrationDirection) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()
			return store.Migrate(direction)
		},
	}
}
