package main

import (
	migrate "github.com/rubenv/sql-migrate"
	"github.com/spf13/cobra"

	"github.com/pershin-daniil/LabLoans/pkg/notifier"
	"github.com/pershin-daniil/LabLoans/pkg/service"
)

func newSeedCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Replace all data with the demo accounts and requests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()
			if err = store.Migrate(migrate.Up); err != nil {
				return err
			}
			app := service.NewLoanService(a.log, store, notifier.New(a.log), a.tokens())
			return app.Seed(ctx)
		},
	}
}
