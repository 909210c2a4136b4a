package tourney

import "github.com/google/uuid"

type Outcome string

const (
	OutcomeWin        Outcome = "win"
	OutcomeDraw       Outcome = "draw"
	OutcomeLose       Outcome = "lose"
	OutcomeWithdrawal Outcome = "withdrawal"
)

// ValidOutcome reports whether o is one of the four terminal outcomes.
func ValidOutcome(o Outcome) bool {
	switch o {
	case OutcomeWin, OutcomeDraw, OutcomeLose, OutcomeWithdrawal:
		return true
	}
	return false
}

// Player is a per-match participation record. Outcome is nil until the match
// resolves, then set exactly once to a terminal outcome, either by a result
// report or by the forfeiture sweep.
type Player struct {
	ID          uuid.UUID `db:"id"`
	MatchID     uuid.UUID `db:"match_id"`
	UserID      uuid.UUID `db:"user_id"`
	Outcome     *Outcome  `db:"outcome"`
	Team        *string   `db:"team"`
	Role        *string   `db:"role"`
	VictoryType *string   `db:"victory_type"`
}

// Resolved reports whether a terminal outcome has been recorded.
func (p *Player) Resolved() bool {
	return p.Outcome != nil
}
