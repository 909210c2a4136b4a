package db

import (
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
)

var database *sqlx.DB

func InitDB(dsn string) *sqlx.DB {
	if dsn == "" {
		dsn = "boardhub.db?_journal_mode=WAL"
	}

	conn, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to DB")
	}

	if _, err := conn.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		log.Fatal().Err(err).Msg("failed to enable foreign keys")
	}

	database = conn
	log.Info().Msg("database connected")
	return conn
}

func GetDB() *sqlx.DB {
	return database
}

func RunMigrations(conn *sqlx.DB, sourceURL string) error {
	driver, err := sqlite3.WithInstance(conn.DB, &sqlite3.Config{})
	if err != nil {
		return err
	}

	m, err := migrate.NewWithDatabaseInstance(sourceURL, "sqlite3", driver)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}
