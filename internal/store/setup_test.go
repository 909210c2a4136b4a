package store

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"boardhub/internal/tourney"
	users "boardhub/internal/user"
)

func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", name)

	database, err := sqlx.Connect("sqlite3", dsn)
	require.NoError(t, err, "Failed to connect to in-memory DB")
	database.SetMaxOpenConns(1)

	_, err = database.Exec("PRAGMA foreign_keys = ON;")
	require.NoError(t, err)

	driver, err := sqlite3.WithInstance(database.DB, &sqlite3.Config{})
	require.NoError(t, err, "Failed to create migrate driver instance")

	m, err := migrate.NewWithDatabaseInstance(
		"file://../../migrations",
		"sqlite3",
		driver,
	)
	require.NoError(t, err, "Failed to create migrate instance")

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		require.NoError(t, err, "Failed to apply migrations")
	}

	t.Cleanup(func() { database.Close() })
	return database
}

func createTestUser(t *testing.T, db *sqlx.DB) uuid.UUID {
	t.Helper()
	name := uuid.NewString()
	user := &users.User{
		ID:       uuid.New(),
		Email:    name + "@example.com",
		Username: name,
	}
	require.NoError(t, NewUserStore(db).CreateUser(context.Background(), user))
	return user.ID
}

func createTestGame(t *testing.T, db *sqlx.DB) *tourney.Game {
	t.Helper()
	game := &tourney.Game{
		ID:         uuid.New(),
		Name:       "game-" + uuid.NewString(),
		MinPlayers: 2,
		MaxPlayers: 4,
	}
	withTx(t, db, func(tx *sqlx.Tx) error {
		return NewGameStore(db).CreateGame(context.Background(), tx, game)
	})
	return game
}

// withTx runs fn in a committed transaction, failing the test on any error.
func withTx(t *testing.T, db *sqlx.DB, fn func(tx *sqlx.Tx) error) {
	t.Helper()
	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	require.NoError(t, fn(tx))
	require.NoError(t, tx.Commit())
}
