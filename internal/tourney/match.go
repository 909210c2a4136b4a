package tourney

import (
	"time"

	"github.com/google/uuid"
)

type LobbyStatus string

const (
	LobbyLobbied    LobbyStatus = "lobbied"
	LobbyInProgress LobbyStatus = "in_progress"
	LobbyFinished   LobbyStatus = "finished"
)

// Lobby is the roster container backing a match: capacity bounds, members and
// a human-readable name. One lobby is created per bracket group each round.
type Lobby struct {
	ID         uuid.UUID   `db:"id"`
	GameID     uuid.UUID   `db:"game_id"`
	Name       string      `db:"name"`
	Status     LobbyStatus `db:"status"`
	CreatedBy  uuid.UUID   `db:"created_by"`
	MinPlayers int         `db:"min_players"`
	MaxPlayers int         `db:"max_players"`
	CreatedAt  time.Time   `db:"created_at"`
}

// Match is one bracket pairing. Matches are never deleted; when the next
// round is generated they are only detached from the tournament's current set.
type Match struct {
	ID         uuid.UUID `db:"id"`
	GameID     uuid.UUID `db:"game_id"`
	LobbyID    uuid.UUID `db:"lobby_id"`
	DatePlayed time.Time `db:"date_played"`
	CreatedAt  time.Time `db:"created_at"`
}
