package main

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pershin-daniil/LabLoans/pkg/config"
	"github.com/pershin-daniil/LabLoans/pkg/logger"
	"github.com/pershin-daniil/LabLoans/pkg/pgstore"
)

// app holds what every subcommand needs once flags are parsed.
type app struct {
	configFile string
	cfg        *config.Config
	log        *logrus.Logger
}

func newRootCmd(version string) *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:           "labloans",
		Short:         "Laboratory server and Arduino kit loan service",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
	}
	cmd.PersistentFlags().StringVar(&a.configFile, "config", "", "path to a yaml config file")

	cmd.AddCommand(
		newServeCmd(a, version),
		newMigrateCmd(a),
		newSeedCmd(a),
		newVersionCmd(version),
	)
	return cmd
}

func (a *app) load() error {
	loader := config.NewLoader()
	if a.configFile != "" {
		loader.SetConfigFile(a.configFile)
	}
	cfg, err := loader.Load()
	if err != nil {
		return err
	}
	if err = cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	if used := loader.ConfigFileUsed(); used != "" {
		log.Infof("using config file %s", used)
	}
	a.cfg = cfg
	a.log = log
	return nil
}

func (a *app) openStore(ctx context.Context) (*pgstore.Store, error) {
	store, err := pgstore.NewStore(ctx, a.log, a.cfg.Database.DSN)
	if err != nil {
		return nil, err
	}
	store.SetMaxOpenConns(a.cfg.Database.MaxOpenConns)
	return store, nil
}

func newVersionCmd(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}
