package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"boardhub/internal/store"
	"boardhub/internal/tourney"
)

type TournamentService struct {
	db          *sqlx.DB
	tournaments *store.TournamentStore
	games       *store.GameStore
	sweeper     *SweeperService
}

func NewTournamentService(db *sqlx.DB, tournaments *store.TournamentStore, games *store.GameStore, sweeper *SweeperService) *TournamentService {
	return &TournamentService{db: db, tournaments: tournaments, games: games, sweeper: sweeper}
}

type TournamentDetail struct {
	Tournament *tourney.Tournament
	Status     tourney.TournamentStatus
	Players    []uuid.UUID
	Winners    []uuid.UUID
	Matches    []tourney.Match
}

// CreateTournament validates and persists a new tournament as one unit. On a
// validation failure nothing is written.
func (s *TournamentService) CreateTournament(ctx context.Context, tournament *tourney.Tournament) (uuid.UUID, error) {
	if err := ValidateNewTournament(tournament, timeNow()); err != nil {
		return uuid.Nil, err
	}

	if _, err := s.games.GetGame(ctx, tournament.GameID.String()); err != nil {
		return uuid.Nil, fmt.Errorf("failed to get game: %w", err)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return uuid.Nil, err
	}
	defer tx.Rollback()

	if tournament.ID == uuid.Nil {
		tournament.ID = uuid.New()
	}

	if err := s.tournaments.CreateTournament(ctx, tx, tournament); err != nil {
		return uuid.Nil, fmt.Errorf("failed to create tournament: %w", err)
	}

	return tournament.ID, tx.Commit()
}

// UpdateTournament applies edits to the mutable fields. Date changes and
// premature archiving are rejected by validation before anything is written.
func (s *TournamentService) UpdateTournament(ctx context.Context, tournament *tourney.Tournament) error {
	prev, err := s.tournaments.GetTournament(ctx, tournament.ID.String())
	if err != nil {
		return fmt.Errorf("failed to get tournament: %w", err)
	}

	players, err := s.tournaments.GetPlayerIDs(ctx, tournament.ID)
	if err != nil {
		return fmt.Errorf("failed to get players: %w", err)
	}
	winners, err := s.tournaments.GetWinnerIDs(ctx, tournament.ID)
	if err != nil {
		return fmt.Errorf("failed to get winners: %w", err)
	}

	if err := ValidateTournamentUpdate(tournament, prev, players, winners, timeNow()); err != nil {
		return err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := s.tournaments.UpdateTournamentInfo(ctx, tx, tournament); err != nil {
		return fmt.Errorf("failed to update tournament: %w", err)
	}

	return tx.Commit()
}

// GetStatus derives the tournament's lifecycle status at the current instant.
func (s *TournamentService) GetStatus(ctx context.Context, tournamentID uuid.UUID) (tourney.TournamentStatus, error) {
	tournament, err := s.tournaments.GetTournament(ctx, tournamentID.String())
	if err != nil {
		return "", fmt.Errorf("failed to get tournament: %w", err)
	}
	return tournament.StatusAt(timeNow()), nil
}

// GetTournamentDetail reads the tournament with its player, winner and
// current-match sets. Reading triggers a forfeiture sweep first, so a
// tournament whose end date has passed is reconciled before it is shown.
func (s *TournamentService) GetTournamentDetail(ctx context.Context, tournamentID uuid.UUID) (*TournamentDetail, error) {
	if _, err := s.sweeper.Sweep(ctx, tournamentID); err != nil {
		return nil, err
	}

	tournament, err := s.tournaments.GetTournament(ctx, tournamentID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to get tournament: %w", err)
	}

	players, err := s.tournaments.GetPlayerIDs(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get players: %w", err)
	}
	winners, err := s.tournaments.GetWinnerIDs(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get winners: %w", err)
	}
	matches, err := s.tournaments.GetCurrentMatches(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get current matches: %w", err)
	}

	return &TournamentDetail{
		Tournament: tournament,
		Status:     tournament.StatusAt(timeNow()),
		Players:    players,
		Winners:    winners,
		Matches:    matches,
	}, nil
}
