package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"AvailabilityBot/config"
	"AvailabilityBot/repo"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "availabilitybot",
	Short: "Collect group availability through Telegram and find the best slots.",
	Long: `availabilitybot runs a Telegram bot and a small HTTP API that collect
availability votes for events and rank the candidate slots.

  serve     run the bot, the submission API and the draft sweep
  results   print the ranked slots of an event`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to the YAML config file")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(resultsCmd)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}
	setupLogging(cfg)
	return cfg, nil
}

func setupLogging(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}

func openStore(ctx context.Context, cfg *config.Config) (repo.Store, error) {
	switch cfg.Store.Backend {
	case config.BackendFile:
		return repo.NewFileStore(cfg.Store.Path, log.Logger)
	case config.BackendFirebase:
		return repo.NewFirebaseStore(ctx, cfg.Store.Firebase.CredentialsFile, cfg.Store.Firebase.DatabaseURL)
	default:
		return repo.NewMemoryStore(), nil
	}
}
