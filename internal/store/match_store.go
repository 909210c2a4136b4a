package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"boardhub/internal/tourney"
)

type MatchStore struct {
	db *sqlx.DB
}

func NewMatchStore(db *sqlx.DB) *MatchStore {
	return &MatchStore{db: db}
}

func (s *MatchStore) CreateLobby(ctx context.Context, tx *sqlx.Tx, lobby *tourney.Lobby) error {
	_, err := tx.NamedExecContext(ctx, `INSERT INTO lobbies (id, game_id, name, status, created_by, min_players, max_players)
		VALUES (:id, :game_id, :name, :status, :created_by, :min_players, :max_players)`, lobby)
	return err
}

func (s *MatchStore) CreateMatch(ctx context.Context, tx *sqlx.Tx, match *tourney.Match) error {
	_, err := tx.NamedExecContext(ctx, `INSERT INTO matches (id, game_id, lobby_id, date_played)
		VALUES (:id, :game_id, :lobby_id, :date_played)`, match)
	return err
}

func (s *MatchStore) CreatePlayers(ctx context.Context, tx *sqlx.Tx, players []tourney.Player) error {
	if len(players) == 0 {
		return nil
	}
	_, err := tx.NamedExecContext(ctx, `INSERT INTO players (id, match_id, user_id, outcome, team, role, victory_type)
		VALUES (:id, :match_id, :user_id, :outcome, :team, :role, :victory_type)`, players)
	return err
}

func (s *MatchStore) GetMatch(ctx context.Context, id string) (*tourney.Match, error) {
	var match tourney.Match
	err := s.db.GetContext(ctx, &match, "SELECT * FROM matches WHERE id = ?", id)
	return &match, err
}

func (s *MatchStore) GetLobby(ctx context.Context, id string) (*tourney.Lobby, error) {
	var lobby tourney.Lobby
	err := s.db.GetContext(ctx, &lobby, "SELECT * FROM lobbies WHERE id = ?", id)
	return &lobby, err
}

func (s *MatchStore) GetPlayersByMatch(ctx context.Context, matchID uuid.UUID) ([]tourney.Player, error) {
	var players []tourney.Player
	err := s.db.SelectContext(ctx, &players, "SELECT * FROM players WHERE match_id = ?", matchID)
	return players, err
}

func (s *MatchStore) GetPlayersByMatchTx(ctx context.Context, tx *sqlx.Tx, matchID uuid.UUID) ([]tourney.Player, error) {
	var players []tourney.Player
	err := tx.SelectContext(ctx, &players, "SELECT * FROM players WHERE match_id = ?", matchID)
	return players, err
}

func (s *MatchStore) GetPlayerByMatchAndUserTx(ctx context.Context, tx *sqlx.Tx, matchID, userID uuid.UUID) (*tourney.Player, error) {
	var player tourney.Player
	err := tx.GetContext(ctx, &player, "SELECT * FROM players WHERE match_id = ? AND user_id = ?", matchID, userID)
	if err != nil {
		return nil, err
	}
	return &player, nil
}

// SetOutcomeTx records a terminal outcome, but only the first time. Returns
// false when the player's outcome was already set.
func (s *MatchStore) SetOutcomeTx(ctx context.Context, tx *sqlx.Tx, playerID uuid.UUID, outcome tourney.Outcome) (bool, error) {
	res, err := tx.ExecContext(ctx, "UPDATE players SET outcome = ? WHERE id = ? AND outcome IS NULL", outcome, playerID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// ForceWithdrawalsTx marks every unresolved player in the match as withdrawn.
// Already-resolved outcomes are left alone, which keeps the sweep idempotent.
func (s *MatchStore) ForceWithdrawalsTx(ctx context.Context, tx *sqlx.Tx, matchID uuid.UUID) error {
	_, err := tx.ExecContext(ctx, "UPDATE players SET outcome = ? WHERE match_id = ? AND outcome IS NULL",
		tourney.OutcomeWithdrawal, matchID)
	return err
}

// CurrentWinnersTx collects the union of winning user ids across the
// tournament's current matches.
func (s *MatchStore) CurrentWinnersTx(ctx context.Context, tx *sqlx.Tx, tournamentID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := tx.SelectContext(ctx, &ids, `SELECT DISTINCT p.user_id FROM players p
		JOIN tournament_matches tm ON tm.match_id = p.match_id
		WHERE tm.tournament_id = ? AND p.outcome = ?`, tournamentID, tourney.OutcomeWin)
	return ids, err
}
