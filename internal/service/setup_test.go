package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"boardhub/internal/store"
	"boardhub/internal/tourney"
	users "boardhub/internal/user"
)

// setupTestDB creates an in-memory SQLite database and applies migrations.
// The database is named after the test so parallel packages do not share
// state, and the pool is pinned to one connection so transactions serialize
// the way the production WAL database does.
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

// pinClock freezes the service clock for the duration of the test.
func pinClock(t *testing.T, now time.Time) {
	t.Helper()
	timeNow = func() time.Time { return now }
	t.Cleanup(func() { timeNow = time.Now })
}

func createTestUser(t *testing.T, db *sqlx.DB, name string) uuid.UUID {
	t.Helper()
	user := &users.User{
		ID:       uuid.New(),
		Email:    name + "@example.com",
		Username: name,
	}
	require.NoError(t, store.NewUserStore(db).CreateUser(context.Background(), user))
	return user.ID
}

func createTestGame(t *testing.T, db *sqlx.DB, minPlayers, maxPlayers int) *tourney.Game {
	t.Helper()
	game := &tourney.Game{
		ID:         uuid.New(),
		Name:       fmt.Sprintf("game-%d-%d", minPlayers, maxPlayers),
		MinPlayers: minPlayers,
		MaxPlayers: maxPlayers,
	}

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	require.NoError(t, store.NewGameStore(db).CreateGame(context.Background(), tx, game))
	require.NoError(t, tx.Commit())
	return game
}

// createTestTournament persists a tournament row directly, bypassing
// creation-time validation so tests can place the clock anywhere in the
// lifecycle.
func createTestTournament(t *testing.T, db *sqlx.DB, tournament *tourney.Tournament) *tourney.Tournament {
	t.Helper()
	if tournament.ID == uuid.Nil {
		tournament.ID = uuid.New()
	}
	if tournament.Name == "" {
		tournament.Name = "Test Tournament"
	}
	if tournament.NumWinner == 0 {
		tournament.NumWinner = 1
	}

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	require.NoError(t, store.NewTournamentStore(db).CreateTournament(context.Background(), tx, tournament))
	require.NoError(t, tx.Commit())
	return tournament
}

// registrationOpenDates returns a date set whose registration window spans
// now.
func registrationOpenDates(now time.Time) (time.Time, time.Time, time.Time, time.Time) {
	return now.Add(-time.Hour), now.Add(time.Hour), now.Add(2 * time.Hour), now.Add(3 * time.Hour)
}

// inProgressDates returns a date set where the tournament is underway.
func inProgressDates(now time.Time) (time.Time, time.Time, time.Time, time.Time) {
	return now.Add(-4 * time.Hour), now.Add(-3 * time.Hour), now.Add(-time.Hour), now.Add(time.Hour)
}

// endedDates returns a date set entirely in the past.
func endedDates(now time.Time) (time.Time, time.Time, time.Time, time.Time) {
	return now.Add(-5 * time.Hour), now.Add(-4 * time.Hour), now.Add(-3 * time.Hour), now.Add(-time.Hour)
}

func addTestPlayers(t *testing.T, db *sqlx.DB, tournamentID uuid.UUID, userIDs []uuid.UUID, capacity int) {
	t.Helper()
	tournamentStore := store.NewTournamentStore(db)
	for _, userID := range userIDs {
		tx, err := db.BeginTxx(context.Background(), nil)
		require.NoError(t, err)
		added, err := tournamentStore.AddPlayer(context.Background(), tx, tournamentID, userID, capacity)
		require.NoError(t, err)
		require.True(t, added)
		require.NoError(t, tx.Commit())
	}
}
