package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"boardhub/internal/tourney"
)

type TournamentStore struct {
	db *sqlx.DB
}

func NewTournamentStore(db *sqlx.DB) *TournamentStore {
	return &TournamentStore{db: db}
}

func (s *TournamentStore) CreateTournament(ctx context.Context, tx *sqlx.Tx, tournament *tourney.Tournament) error {
	_, err := tx.NamedExecContext(ctx, `INSERT INTO tournaments
		(id, game_id, name, registration_start_date, registration_end_date, tournament_start_date, tournament_end_date,
		 max_players, num_winner, description, rules, draw_rules, archived)
		VALUES (:id, :game_id, :name, :registration_start_date, :registration_end_date, :tournament_start_date, :tournament_end_date,
		 :max_players, :num_winner, :description, :rules, :draw_rules, :archived)`, tournament)
	return err
}

func (s *TournamentStore) UpdateTournamentInfo(ctx context.Context, tx *sqlx.Tx, tournament *tourney.Tournament) error {
	_, err := tx.NamedExecContext(ctx, `UPDATE tournaments
		SET name = :name, description = :description, rules = :rules, draw_rules = :draw_rules,
		    num_winner = :num_winner, archived = :archived
		WHERE id = :id`, tournament)
	return err
}

func (s *TournamentStore) GetTournament(ctx context.Context, id string) (*tourney.Tournament, error) {
	var tournament tourney.Tournament
	err := s.db.GetContext(ctx, &tournament, "SELECT * FROM tournaments WHERE id = ?", id)
	return &tournament, err
}

func (s *TournamentStore) GetTournamentTx(ctx context.Context, tx *sqlx.Tx, id string) (*tourney.Tournament, error) {
	var tournament tourney.Tournament
	err := tx.GetContext(ctx, &tournament, "SELECT * FROM tournaments WHERE id = ?", id)
	return &tournament, err
}

func (s *TournamentStore) ListTournaments(ctx context.Context) ([]tourney.Tournament, error) {
	var tournaments []tourney.Tournament
	err := s.db.SelectContext(ctx, &tournaments, "SELECT * FROM tournaments ORDER BY created_at DESC")
	return tournaments, err
}

// AddPlayer inserts the registration only while the player count is below
// capacity. The guard runs inside the INSERT itself so two concurrent
// sign-ups cannot both pass the check and overshoot.
func (s *TournamentStore) AddPlayer(ctx context.Context, tx *sqlx.Tx, tournamentID, userID uuid.UUID, capacity int) (bool, error) {
	res, err := tx.ExecContext(ctx, `INSERT INTO tournament_players (tournament_id, user_id)
		SELECT ?, ?
		WHERE (SELECT COUNT(*) FROM tournament_players WHERE tournament_id = ?) < ?`,
		tournamentID, userID, tournamentID, capacity)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (s *TournamentStore) RemovePlayer(ctx context.Context, tx *sqlx.Tx, tournamentID, userID uuid.UUID) (bool, error) {
	res, err := tx.ExecContext(ctx, "DELETE FROM tournament_players WHERE tournament_id = ? AND user_id = ?",
		tournamentID, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (s *TournamentStore) IsPlayerTx(ctx context.Context, tx *sqlx.Tx, tournamentID, userID uuid.UUID) (bool, error) {
	var count int
	err := tx.GetContext(ctx, &count, "SELECT COUNT(*) FROM tournament_players WHERE tournament_id = ? AND user_id = ?",
		tournamentID, userID)
	return count > 0, err
}

func (s *TournamentStore) CountPlayers(ctx context.Context, tournamentID uuid.UUID) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM tournament_players WHERE tournament_id = ?", tournamentID)
	return count, err
}

func (s *TournamentStore) GetPlayerIDs(ctx context.Context, tournamentID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := s.db.SelectContext(ctx, &ids, "SELECT user_id FROM tournament_players WHERE tournament_id = ?", tournamentID)
	return ids, err
}

func (s *TournamentStore) GetPlayerIDsTx(ctx context.Context, tx *sqlx.Tx, tournamentID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := tx.SelectContext(ctx, &ids, "SELECT user_id FROM tournament_players WHERE tournament_id = ?", tournamentID)
	return ids, err
}

// SetWinners replaces the winner set. Winners only ever go from empty to the
// final set, so a full replace keeps repeated finalization deterministic.
func (s *TournamentStore) SetWinners(ctx context.Context, tx *sqlx.Tx, tournamentID uuid.UUID, winners []uuid.UUID) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM tournament_winners WHERE tournament_id = ?", tournamentID); err != nil {
		return err
	}
	for _, userID := range winners {
		if _, err := tx.ExecContext(ctx, "INSERT INTO tournament_winners (tournament_id, user_id) VALUES (?, ?)",
			tournamentID, userID); err != nil {
			return err
		}
	}
	return nil
}

func (s *TournamentStore) GetWinnerIDs(ctx context.Context, tournamentID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := s.db.SelectContext(ctx, &ids, "SELECT user_id FROM tournament_winners WHERE tournament_id = ?", tournamentID)
	return ids, err
}

func (s *TournamentStore) GetWinnerIDsTx(ctx context.Context, tx *sqlx.Tx, tournamentID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := tx.SelectContext(ctx, &ids, "SELECT user_id FROM tournament_winners WHERE tournament_id = ?", tournamentID)
	return ids, err
}

func (s *TournamentStore) AttachMatches(ctx context.Context, tx *sqlx.Tx, tournamentID uuid.UUID, matchIDs []uuid.UUID) error {
	for _, matchID := range matchIDs {
		if _, err := tx.ExecContext(ctx, "INSERT INTO tournament_matches (tournament_id, match_id) VALUES (?, ?)",
			tournamentID, matchID); err != nil {
			return err
		}
	}
	return nil
}

// ClearCurrentMatches detaches the current round. The match rows themselves
// stay in storage for the audit trail.
func (s *TournamentStore) ClearCurrentMatches(ctx context.Context, tx *sqlx.Tx, tournamentID uuid.UUID) error {
	_, err := tx.ExecContext(ctx, "DELETE FROM tournament_matches WHERE tournament_id = ?", tournamentID)
	return err
}

func (s *TournamentStore) GetCurrentMatches(ctx context.Context, tournamentID uuid.UUID) ([]tourney.Match, error) {
	var matches []tourney.Match
	err := s.db.SelectContext(ctx, &matches, `SELECT m.* FROM matches m
		JOIN tournament_matches tm ON tm.match_id = m.id
		WHERE tm.tournament_id = ?
		ORDER BY m.created_at ASC, m.id ASC`, tournamentID)
	return matches, err
}

func (s *TournamentStore) GetCurrentMatchesTx(ctx context.Context, tx *sqlx.Tx, tournamentID uuid.UUID) ([]tourney.Match, error) {
	var matches []tourney.Match
	err := tx.SelectContext(ctx, &matches, `SELECT m.* FROM matches m
		JOIN tournament_matches tm ON tm.match_id = m.id
		WHERE tm.tournament_id = ?
		ORDER BY m.created_at ASC, m.id ASC`, tournamentID)
	return matches, err
}

// TournamentForMatchTx resolves which tournament a match currently belongs
// to, if any. Matches from superseded rounds resolve to nothing.
func (s *TournamentStore) TournamentForMatchTx(ctx context.Context, tx *sqlx.Tx, matchID uuid.UUID) (*tourney.Tournament, error) {
	var tournament tourney.Tournament
	err := tx.GetContext(ctx, &tournament, `SELECT t.* FROM tournaments t
		JOIN tournament_matches tm ON tm.tournament_id = t.id
		WHERE tm.match_id = ?`, matchID)
	if err != nil {
		return nil, err
	}
	return &tournament, nil
}
