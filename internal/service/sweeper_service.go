package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"boardhub/internal/store"
)

type SweeperService struct {
	db          *sqlx.DB
	tournaments *store.TournamentStore
	matches     *store.MatchStore
	logger      zerolog.Logger
}

func NewSweeperService(db *sqlx.DB, tournaments *store.TournamentStore, matches *store.MatchStore, logger zerolog.Logger) *SweeperService {
	return &SweeperService{db: db, tournaments: tournaments, matches: matches, logger: logger}
}

// Sweep reconciles a tournament whose end time has passed: every current
// match that was never played has all its participants forced to WITHDRAWAL,
// then the tournament is finalized from whatever WIN outcomes exist and
// archived. Safe to run repeatedly and from concurrent callers; forcing an
// already-withdrawn outcome is a no-op and finalization is deterministic for
// the same match data. Returns true when a sweep was performed.
func (s *SweeperService) Sweep(ctx context.Context, tournamentID uuid.UUID) (bool, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	tournament, err := s.tournaments.GetTournamentTx(ctx, tx, tournamentID.String())
	if err != nil {
		return false, fmt.Errorf("failed to get tournament: %w", err)
	}

	if !tournament.EndedAt(timeNow()) {
		return false, nil
	}
	if tournament.Archived {
		return false, nil
	}

	current, err := s.tournaments.GetCurrentMatchesTx(ctx, tx, tournamentID)
	if err != nil {
		return false, fmt.Errorf("failed to get current matches: %w", err)
	}

	forfeited := 0
	for _, match := range current {
		players, err := s.matches.GetPlayersByMatchTx(ctx, tx, match.ID)
		if err != nil {
			return false, fmt.Errorf("failed to get match players: %w", err)
		}
		resolved := false
		for i := range players {
			if players[i].Resolved() {
				resolved = true
				break
			}
		}
		if !resolved {
			if err := s.matches.ForceWithdrawalsTx(ctx, tx, match.ID); err != nil {
				return false, fmt.Errorf("failed to force withdrawals: %w", err)
			}
			forfeited++
		}
	}

	// Past the end date no further rounds are played, so whatever WIN
	// outcomes exist are the final winners, even an empty set.
	winners, err := s.matches.CurrentWinnersTx(ctx, tx, tournamentID)
	if err != nil {
		return false, fmt.Errorf("failed to collect winners: %w", err)
	}

	if err := s.tournaments.SetWinners(ctx, tx, tournamentID, winners); err != nil {
		return false, fmt.Errorf("failed to set winners: %w", err)
	}
	if err := s.tournaments.ClearCurrentMatches(ctx, tx, tournamentID); err != nil {
		return false, fmt.Errorf("failed to clear current matches: %w", err)
	}

	tournament.Archived = true
	if err := s.tournaments.UpdateTournamentInfo(ctx, tx, tournament); err != nil {
		return false, fmt.Errorf("failed to archive tournament: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}

	s.logger.Info().
		Str("tournament_id", tournamentID.String()).
		Int("forfeited_matches", forfeited).
		Int("winners", len(winners)).
		Msg("tournament swept and archived")
	return true, nil
}

// SweepAll runs a sweep over every unarchived tournament. This is the entry
// point for the periodic timer; single-tournament sweeps also run on read.
func (s *SweeperService) SweepAll(ctx context.Context) error {
	tournaments, err := s.tournaments.ListTournaments(ctx)
	if err != nil {
		return fmt.Errorf("failed to list tournaments: %w", err)
	}

	for i := range tournaments {
		if tournaments[i].Archived {
			continue
		}
		if _, err := s.Sweep(ctx, tournaments[i].ID); err != nil {
			s.logger.Error().Err(err).
				Str("tournament_id", tournaments[i].ID.String()).
				Msg("sweep failed")
		}
	}
	return nil
}
