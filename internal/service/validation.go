package service

import (
	"time"

	"github.com/google/uuid"

	"boardhub/internal/tourney"
)

// ValidateNewTournament checks the field invariants for a tournament being
// created: all four dates present, strictly ordered, and strictly in the
// future relative to submission time, plus the winner-count bounds. Dates are
// immutable after creation, so this is the only point where they are checked.
func ValidateNewTournament(t *tourney.Tournament, now time.Time) error {
	violations := ValidationError{}

	checkDatesPresent(t, violations)
	if len(violations) == 0 {
		checkDateOrder(t, violations)
		if t.RegistrationStart.Before(now) || t.RegistrationStart.Equal(now) {
			violations["registration_start_date"] = "must be in the future"
		}
	}
	checkWinnerBounds(t, violations)

	if len(violations) > 0 {
		return violations
	}
	return nil
}

// ValidateTournamentUpdate checks an update against the persisted row. Date
// edits are rejected outright, winners must stay a subset of players, and the
// archived flag may only be set once the tournament has ended.
func ValidateTournamentUpdate(t, prev *tourney.Tournament, players, winners []uuid.UUID, now time.Time) error {
	violations := ValidationError{}

	if !t.RegistrationStart.Equal(prev.RegistrationStart) ||
		!t.RegistrationEnd.Equal(prev.RegistrationEnd) ||
		!t.TournamentStart.Equal(prev.TournamentStart) ||
		!t.TournamentEnd.Equal(prev.TournamentEnd) {
		violations["dates"] = "tournament dates cannot be changed after creation"
	}

	checkWinnerBounds(t, violations)

	if t.Archived && !prev.Archived && !t.EndedAt(now) {
		violations["archived"] = "tournament can only be archived after it has ended"
	}

	playerSet := make(map[uuid.UUID]struct{}, len(players))
	for _, id := range players {
		playerSet[id] = struct{}{}
	}
	for _, id := range winners {
		if _, ok := playerSet[id]; !ok {
			violations["winners"] = "winners must all be registered players"
			break
		}
	}

	if len(violations) > 0 {
		return violations
	}
	return nil
}

func checkDatesPresent(t *tourney.Tournament, violations ValidationError) {
	if t.RegistrationStart.IsZero() {
		violations["registration_start_date"] = "is required"
	}
	if t.RegistrationEnd.IsZero() {
		violations["registration_end_date"] = "is required"
	}
	if t.TournamentStart.IsZero() {
		violations["tournament_start_date"] = "is required"
	}
	if t.TournamentEnd.IsZero() {
		violations["tournament_end_date"] = "is required"
	}
}

// Equal boundaries are rejected so that no two statuses can ever claim the
// same instant.
func checkDateOrder(t *tourney.Tournament, violations ValidationError) {
	if !t.RegistrationStart.Before(t.RegistrationEnd) {
		violations["registration_end_date"] = "must be after registration start"
	}
	if !t.RegistrationEnd.Before(t.TournamentStart) {
		violations["tournament_start_date"] = "must be after registration end"
	}
	if !t.TournamentStart.Before(t.TournamentEnd) {
		violations["tournament_end_date"] = "must be after tournament start"
	}
}

func checkWinnerBounds(t *tourney.Tournament, violations ValidationError) {
	if t.MaxPlayers < 1 {
		violations["max_players"] = "must be positive"
	}
	if t.NumWinner < 1 {
		violations["num_winner"] = "must be positive"
	} else if t.MaxPlayers >= 1 && t.NumWinner > t.MaxPlayers {
		violations["num_winner"] = "cannot exceed max_players"
	}
}
