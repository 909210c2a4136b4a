package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Business-rule failures. These are expected outcomes surfaced to the caller
// as typed results, not programmer errors.
var (
	ErrRegistrationClosed = errors.New("tournament registration is not open")
	ErrAlreadyRegistered  = errors.New("user is already registered for this tournament")
	ErrTournamentFull     = errors.New("tournament registration is full")
	ErrNotRegistered      = errors.New("user is not registered for this tournament")

	ErrNoEligiblePlayers = errors.New("no eligible players for bracket generation")
	ErrBracketsNotReady  = errors.New("tournament is not ready for bracket generation")
	ErrRoundInProgress   = errors.New("current round has a mix of played and unplayed matches")

	ErrNotCurrentMatch   = errors.New("match is not part of a current round")
	ErrNotParticipant    = errors.New("user is not a participant of this match")
	ErrInvalidOutcome    = errors.New("invalid outcome value")
	ErrOutcomeAlreadySet = errors.New("player outcome is already set")
)

// ErrInvariant marks data-corruption-class failures. These indicate a bug,
// are never recovered locally, and abort the operation.
var ErrInvariant = errors.New("tournament invariant violated")

// RegistrationCode maps a sign-up/withdraw error to the wire code the
// controller layer renders. A nil error maps to OK.
func RegistrationCode(err error) string {
	switch {
	case err == nil:
		return "OK"
	case errors.Is(err, ErrRegistrationClosed):
		return "REGISTRATION_CLOSED"
	case errors.Is(err, ErrAlreadyRegistered):
		return "ALREADY_REGISTERED"
	case errors.Is(err, ErrTournamentFull):
		return "FULL"
	case errors.Is(err, ErrNotRegistered):
		return "NOT_REGISTERED"
	default:
		return "ERROR"
	}
}

// ValidationError carries one human-readable message per offending field.
type ValidationError map[string]string

func (e ValidationError) Error() string {
	fields := make([]string, 0, len(e))
	for field := range e {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, e[field]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
