package tourney

import "github.com/google/uuid"

// Game is the catalog entry a tournament is played with. The player bounds
// drive bracket partitioning: each generated lobby holds at most MaxPlayers
// and is expected to hold at least MinPlayers.
type Game struct {
	ID         uuid.UUID `db:"id"`
	Name       string    `db:"name"`
	MinPlayers int       `db:"min_players"`
	MaxPlayers int       `db:"max_players"`
}
