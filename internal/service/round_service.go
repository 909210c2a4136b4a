package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"boardhub/internal/store"
	"boardhub/internal/tourney"
)

type RoundService struct {
	db          *sqlx.DB
	tournaments *store.TournamentStore
	matches     *store.MatchStore
	games       *store.GameStore
	brackets    *BracketService
}

func NewRoundService(db *sqlx.DB, tournaments *store.TournamentStore, matches *store.MatchStore, games *store.GameStore, brackets *BracketService) *RoundService {
	return &RoundService{db: db, tournaments: tournaments, matches: matches, games: games, brackets: brackets}
}

// AdvanceResult is the outcome of an advance pass: either the tournament
// finalized with its winner set, or a next round of matches was generated.
type AdvanceResult struct {
	Finalized   bool
	Winners     []uuid.UUID
	NextMatches []tourney.Match
}

// ReportOutcome records a terminal outcome for one participant of a current
// match. The match must belong to an active round, the user must be in it,
// and the outcome must not have been set before.
func (s *RoundService) ReportOutcome(ctx context.Context, matchID, userID uuid.UUID, outcome tourney.Outcome) error {
	if !tourney.ValidOutcome(outcome) {
		return ErrInvalidOutcome
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := s.tournaments.TournamentForMatchTx(ctx, tx, matchID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotCurrentMatch
		}
		return fmt.Errorf("failed to resolve match: %w", err)
	}

	player, err := s.matches.GetPlayerByMatchAndUserTx(ctx, tx, matchID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotParticipant
		}
		return fmt.Errorf("failed to get player: %w", err)
	}

	set, err := s.matches.SetOutcomeTx(ctx, tx, player.ID, outcome)
	if err != nil {
		return fmt.Errorf("failed to set outcome: %w", err)
	}
	if !set {
		return ErrOutcomeAlreadySet
	}

	return tx.Commit()
}

// AdvanceOrFinalize inspects the current round. If every match has been
// played it collects the winners and either finalizes the tournament (winner
// count within num_winner, or too few left to play the game) or brackets the
// winners into the next round. An
// entirely unplayed round is returned unchanged, which makes a repeated call
// after a NextRound transition a no-op.
func (s *RoundService) AdvanceOrFinalize(ctx context.Context, tournamentID uuid.UUID) (*AdvanceResult, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	tournament, err := s.tournaments.GetTournamentTx(ctx, tx, tournamentID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to get tournament: %w", err)
	}

	current, err := s.tournaments.GetCurrentMatchesTx(ctx, tx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get current matches: %w", err)
	}

	// No active round: report the stored winner set. Keeps the call
	// idempotent after finalization.
	if len(current) == 0 {
		winners, err := s.tournaments.GetWinnerIDsTx(ctx, tx, tournamentID)
		if err != nil {
			return nil, fmt.Errorf("failed to get winners: %w", err)
		}
		return &AdvanceResult{Finalized: true, Winners: winners}, tx.Commit()
	}

	played, unplayed := 0, 0
	for _, match := range current {
		players, err := s.matches.GetPlayersByMatchTx(ctx, tx, match.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to get match players: %w", err)
		}
		resolved := false
		for i := range players {
			if players[i].Resolved() {
				resolved = true
				break
			}
		}
		if resolved {
			played++
		} else {
			unplayed++
		}
	}

	if played == 0 {
		return &AdvanceResult{NextMatches: current}, tx.Commit()
	}
	if unplayed > 0 {
		return nil, ErrRoundInProgress
	}

	advancing, err := s.matches.CurrentWinnersTx(ctx, tx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to collect winners: %w", err)
	}

	if err := s.checkWinnersSubsetTx(ctx, tx, tournamentID, advancing); err != nil {
		return nil, err
	}

	game, err := s.games.GetGameTx(ctx, tx, tournament.GameID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}

	// A surviving set too small to play the game cannot form another round;
	// everyone left shares the win, even past num_winner. Without this a
	// sub-minimum set would bracket into an all-bye round forever.
	if len(advancing) <= tournament.NumWinner || len(advancing) < game.MinPlayers {
		if err := s.finalizeTx(ctx, tx, tournamentID, advancing); err != nil {
			return nil, err
		}
		return &AdvanceResult{Finalized: true, Winners: advancing}, tx.Commit()
	}

	if err := s.tournaments.ClearCurrentMatches(ctx, tx, tournamentID); err != nil {
		return nil, fmt.Errorf("failed to clear current matches: %w", err)
	}

	next, err := s.brackets.generateRoundTx(ctx, tx, tournament, advancing)
	if err != nil {
		return nil, err
	}

	return &AdvanceResult{NextMatches: next}, tx.Commit()
}

// finalizeTx records the winner set and detaches the last round. The
// tournament row itself is never deleted.
func (s *RoundService) finalizeTx(ctx context.Context, tx *sqlx.Tx, tournamentID uuid.UUID, winners []uuid.UUID) error {
	if err := s.tournaments.SetWinners(ctx, tx, tournamentID, winners); err != nil {
		return fmt.Errorf("failed to set winners: %w", err)
	}
	if err := s.tournaments.ClearCurrentMatches(ctx, tx, tournamentID); err != nil {
		return fmt.Errorf("failed to clear current matches: %w", err)
	}
	return nil
}

// Winners coming out of match records must already be registered players.
// Anything else means the stored data is corrupt.
func (s *RoundService) checkWinnersSubsetTx(ctx context.Context, tx *sqlx.Tx, tournamentID uuid.UUID, winners []uuid.UUID) error {
	players, err := s.tournaments.GetPlayerIDsTx(ctx, tx, tournamentID)
	if err != nil {
		return fmt.Errorf("failed to get players: %w", err)
	}
	playerSet := make(map[uuid.UUID]struct{}, len(players))
	for _, id := range players {
		playerSet[id] = struct{}{}
	}
	for _, id := range winners {
		if _, ok := playerSet[id]; !ok {
			return fmt.Errorf("%w: winner %s is not a registered player of tournament %s", ErrInvariant, id, tournamentID)
		}
	}
	return nil
}
