package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"

	"boardhub/internal/store"
)

type RegistrationService struct {
	db    *sqlx.DB
	store *store.TournamentStore
}

func NewRegistrationService(db *sqlx.DB, store *store.TournamentStore) *RegistrationService {
	return &RegistrationService{db: db, store: store}
}

// SignUp registers the user for the tournament. The registration window,
// the duplicate check and the capacity check are all evaluated inside one
// transaction, and the capacity check is folded into the insert itself, so
// concurrent sign-ups can never push the player count past max_players.
func (s *RegistrationService) SignUp(ctx context.Context, tournamentID, userID uuid.UUID) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	tournament, err := s.store.GetTournamentTx(ctx, tx, tournamentID.String())
	if err != nil {
		return fmt.Errorf("failed to get tournament: %w", err)
	}

	if !tournament.RegistrationOpenAt(timeNow()) {
		return ErrRegistrationClosed
	}

	registered, err := s.store.IsPlayerTx(ctx, tx, tournamentID, userID)
	if err != nil {
		return fmt.Errorf("failed to check registration: %w", err)
	}
	if registered {
		return ErrAlreadyRegistered
	}

	added, err := s.store.AddPlayer(ctx, tx, tournamentID, userID, tournament.MaxPlayers)
	if err != nil {
		// A concurrent sign-up by the same user can slip past the
		// registered check and trip the primary key instead.
		if isDuplicateKey(err) {
			return ErrAlreadyRegistered
		}
		return fmt.Errorf("failed to add player: %w", err)
	}
	if !added {
		return ErrTournamentFull
	}

	return tx.Commit()
}

func isDuplicateKey(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

// Withdraw removes the user's registration while the window is still open.
func (s *RegistrationService) Withdraw(ctx context.Context, tournamentID, userID uuid.UUID) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	tournament, err := s.store.GetTournamentTx(ctx, tx, tournamentID.String())
	if err != nil {
		return fmt.Errorf("failed to get tournament: %w", err)
	}

	if !tournament.RegistrationOpenAt(timeNow()) {
		return ErrRegistrationClosed
	}

	removed, err := s.store.RemovePlayer(ctx, tx, tournamentID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove player: %w", err)
	}
	if !removed {
		return ErrNotRegistered
	}

	return tx.Commit()
}
