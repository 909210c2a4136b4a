package tourney

import (
	"time"

	"github.com/google/uuid"
)

type TournamentStatus string

const (
	StatusPreparing          TournamentStatus = "preparing"
	StatusRegistrationOpen   TournamentStatus = "registration_open"
	StatusRegistrationClosed TournamentStatus = "registration_closed"
	StatusInProgress         TournamentStatus = "in_progress"
	StatusEnded              TournamentStatus = "ended"
)

// Tournament is a single-elimination tournament of a game. Dates are fixed at
// creation time; the player, winner and current-match sets are the only parts
// that change over its life.
type Tournament struct {
	ID     uuid.UUID `db:"id"`
	GameID uuid.UUID `db:"game_id"`
	Name   string    `db:"name"`

	RegistrationStart time.Time `db:"registration_start_date"`
	RegistrationEnd   time.Time `db:"registration_end_date"`
	TournamentStart   time.Time `db:"tournament_start_date"`
	TournamentEnd     time.Time `db:"tournament_end_date"`

	MaxPlayers int `db:"max_players"`
	NumWinner  int `db:"num_winner"`

	Description string `db:"description"`
	Rules       string `db:"rules"`
	DrawRules   string `db:"draw_rules"`

	Archived  bool      `db:"archived"`
	CreatedAt time.Time `db:"created_at"`
}

// StatusAt derives the lifecycle status from wall-clock time alone. The four
// date boundaries split time into five half-open [start, end) intervals, so
// exactly one status holds for any instant.
func (t *Tournament) StatusAt(now time.Time) TournamentStatus {
	switch {
	case now.Before(t.RegistrationStart):
		return StatusPreparing
	case now.Before(t.RegistrationEnd):
		return StatusRegistrationOpen
	case now.Before(t.TournamentStart):
		return StatusRegistrationClosed
	case now.Before(t.TournamentEnd):
		return StatusInProgress
	default:
		return StatusEnded
	}
}

func (t *Tournament) RegistrationOpenAt(now time.Time) bool {
	return t.StatusAt(now) == StatusRegistrationOpen
}

func (t *Tournament) EndedAt(now time.Time) bool {
	return t.StatusAt(now) == StatusEnded
}
