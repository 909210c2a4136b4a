package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"boardhub/internal/db"
	"boardhub/internal/logger"
	"boardhub/internal/service"
	"boardhub/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		zlog.Info().Msg("no .env file found, using environment variables")
	}

	zlog.Logger = logger.New(zerolog.InfoLevel)

	database := db.InitDB(os.Getenv("DATABASE_DSN"))
	defer database.Close()

	if err := db.RunMigrations(database, "file://migrations"); err != nil {
		zlog.Fatal().Err(err).Msg("failed to run migrations")
	}

	tournamentStore := store.NewTournamentStore(database)
	matchStore := store.NewMatchStore(database)
	sweeper := service.NewSweeperService(database, tournamentStore, matchStore, zlog.Logger)

	// Time-triggered forfeiture reconciliation; sweeps also run on read.
	c := cron.New()
	if _, err := c.AddFunc("@every 1m", func() {
		if err := sweeper.SweepAll(context.Background()); err != nil {
			zlog.Error().Err(err).Msg("periodic sweep failed")
		}
	}); err != nil {
		zlog.Fatal().Err(err).Msg("failed to schedule sweeper")
	}
	c.Start()
	defer c.Stop()

	router := newRouter(sweeper)

	addr := os.Getenv("LISTEN_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	zlog.Info().Str("addr", addr).Msg("server starting")
	if err := http.ListenAndServe(addr, router); err != nil {
		zlog.Fatal().Err(err).Msg("server stopped")
	}
}
