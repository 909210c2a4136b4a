package store

import (
	"context"

	"github.com/jmoiron/sqlx"

	"boardhub/internal/tourney"
)

type GameStore struct {
	db *sqlx.DB
}

func NewGameStore(db *sqlx.DB) *GameStore {
	return &GameStore{db: db}
}

func (s *GameStore) CreateGame(ctx context.Context, tx *sqlx.Tx, game *tourney.Game) error {
	_, err := tx.NamedExecContext(ctx, `INSERT INTO games (id, name, min_players, max_players)
		VALUES (:id, :name, :min_players, :max_players)`, game)
	return err
}

func (s *GameStore) GetGame(ctx context.Context, id string) (*tourney.Game, error) {
	var game tourney.Game
	err := s.db.GetContext(ctx, &game, "SELECT * FROM games WHERE id = ?", id)
	return &game, err
}

func (s *GameStore) GetGameTx(ctx context.Context, tx *sqlx.Tx, id string) (*tourney.Game, error) {
	var game tourney.Game
	err := tx.GetContext(ctx, &game, "SELECT * FROM games WHERE id = ?", id)
	return &game, err
}

func (s *GameStore) ListGames(ctx context.Context) ([]tourney.Game, error) {
	var games []tourney.Game
	err := s.db.SelectContext(ctx, &games, "SELECT * FROM games ORDER BY name ASC")
	return games, err
}
