package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	migrate "github.com/rubenv/sql-migrate"
	"github.com/spf13/cobra"

	"github.com/pershin-daniil/LabLoans/internal/rest"
	"github.com/pershin-daniil/LabLoans/internal/telegram"
	"github.com/pershin-daniil/LabLoans/pkg/notifier"
	"github.com/pershin-daniil/LabLoans/pkg/service"
	"github.com/pershin-daniil/LabLoans/pkg/worker"
)

func newServeCmd(a *app, version string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, the pending digest and the Telegram bot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context(), version)
		},
	}
}

func (a *app) tokens() service.TokenConfig {
	return service.TokenConfig{
		Secret: []byte(a.cfg.Auth.JWTSecret),
		TTL:    a.cfg.Auth.TokenTTL,
	}
}

func (a *app) serve(parent context.Context, version string) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()
	if err = store.Migrate(migrate.Up); err != nil {
		return err
	}

	var (
		notify service.Notifier = notifier.New(a.log)
		bot    *telegram.Telegram
	)
	if a.cfg.Telegram.Token != "" {
		tb, err := telegram.NewBot(a.cfg.Telegram.Token)
		if err != nil {
			return err
		}
		notify = telegram.NewNotifier(a.log, tb, a.cfg.Telegram.ChatID)
		bot = telegram.New(a.log, tb, a.cfg.Telegram.ChatID, store)
	} else {
		a.log.Info("telegram token not set, notifications go to the log")
	}

	app := service.NewLoanService(a.log, store, notify, a.tokens())
	server := rest.NewServer(a.log, app, rest.Config{
		Address:        a.cfg.HTTP.Address,
		Version:        version,
		JWTSecret:      []byte(a.cfg.Auth.JWTSecret),
		AllowedOrigins: a.cfg.HTTP.AllowedOrigins,
	})
	digest := worker.New(a.log, store, notify, a.cfg.Worker.Interval, a.cfg.Worker.PendingAfter)

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGHUP)
		select {
		case <-sigCh:
			a.log.Info("Received signal, shutting down...")
			cancel()
		case <-ctx.Done():
		}
	}()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		digest.Run(ctx)
	}()
	if bot != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bot.Run(ctx)
		}()
	}
	err = server.Run(ctx)
	cancel()
	wg.Wait()
	if err != nil {
		return err
	}
	a.log.Info("Server stopped")
	return nil
}
