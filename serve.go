package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-telegram/bot"
	"github.com/gorilla/handlers"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"AvailabilityBot/api"
	"AvailabilityBot/config"
	"AvailabilityBot/handler"
	"AvailabilityBot/service"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Telegram bot, the submission API and the draft sweep",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		return serve(ctx, cfg)
	},
}

func serve(ctx context.Context, cfg *config.Config) error {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	svc := service.New(store, service.WithLogger(log.Logger))

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           handlers.LoggingHandler(os.Stdout, api.NewServer(svc, cfg.IndexPath, cfg.TopN, log.Logger).Handler()),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Listen).Str("store", cfg.Store.Backend).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	if cfg.BotToken != "" {
		h := handler.NewBotHandler(svc, cfg.WebAppURL, cfg.TopN, log.Logger)
		b, err := bot.New(cfg.BotToken, bot.WithDefaultHandler(h.Handler))
		if err != nil {
			return err
		}
		go b.Start(ctx)
		log.Info().Msg("Telegram bot started")
	} else {
		log.Warn().Msg("no bot token configured, running the HTTP API only")
	}

	if cfg.DraftSweep != "" {
		c, err := startDraftSweep(ctx, cfg, svc)
		if err != nil {
			return err
		}
		defer c.Stop()
	}

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func startDraftSweep(ctx context.Context, cfg *config.Config, svc *service.Service) (*cron.Cron, error) {
	ttl, err := cfg.DraftTTLDuration()
	if err != nil {
		return nil, err
	}
	c := cron.New()
	_, err = c.AddFunc(cfg.DraftSweep, func() {
		n, err := svc.SweepDrafts(ctx, ttl)
		if err != nil {
			log.Error().Err(err).Msg("draft sweep failed")
			return
		}
		if n > 0 {
			log.Info().Int("removed", n).Msg("stale drafts removed")
		}
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	log.Info().Str("schedule", cfg.DraftSweep).Dur("ttl", ttl).Msg("draft sweep scheduled")
	return c, nil
}
