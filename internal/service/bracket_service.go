package service

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/singleflight"

	"boardhub/internal/store"
	"boardhub/internal/tourney"
	"boardhub/internal/utils"
)

type BracketService struct {
	db          *sqlx.DB
	tournaments *store.TournamentStore
	matches     *store.MatchStore
	games       *store.GameStore

	// Serializes round generation per tournament so two concurrent callers
	// cannot create duplicate matches for the same players.
	group singleflight.Group
}

func NewBracketService(db *sqlx.DB, tournaments *store.TournamentStore, matches *store.MatchStore, games *store.GameStore) *BracketService {
	return &BracketService{db: db, tournaments: tournaments, matches: matches, games: games}
}

// EnsureCurrentRound idempotently creates round 1. If a current round already
// exists it is returned as-is; otherwise the full registered player set is
// bracketed. Only valid once registration has closed and before the
// tournament ends.
func (s *BracketService) EnsureCurrentRound(ctx context.Context, tournamentID uuid.UUID) ([]tourney.Match, error) {
	v, err, _ := s.group.Do(tournamentID.String(), func() (interface{}, error) {
		return s.ensureCurrentRound(ctx, tournamentID)
	})
	if err != nil {
		return nil, err
	}
	return v.([]tourney.Match), nil
}

func (s *BracketService) ensureCurrentRound(ctx context.Context, tournamentID uuid.UUID) ([]tourney.Match, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	tournament, err := s.tournaments.GetTournamentTx(ctx, tx, tournamentID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to get tournament: %w", err)
	}

	existing, err := s.tournaments.GetCurrentMatchesTx(ctx, tx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get current matches: %w", err)
	}
	if len(existing) > 0 {
		return existing, tx.Commit()
	}

	switch tournament.StatusAt(timeNow()) {
	case tourney.StatusRegistrationClosed, tourney.StatusInProgress:
	default:
		return nil, ErrBracketsNotReady
	}

	players, err := s.tournaments.GetPlayerIDsTx(ctx, tx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get players: %w", err)
	}

	matches, err := s.generateRoundTx(ctx, tx, tournament, players)
	if err != nil {
		return nil, err
	}

	return matches, tx.Commit()
}

// generateRoundTx pairs the eligible players into matches within the caller's
// transaction: shuffle uniformly, partition into consecutive groups of
// game.max_players, then create a lobby, a match and unresolved player
// records per group, and attach the matches as the tournament's current
// round. No shuffle seed is persisted, so pairings are not replayable.
func (s *BracketService) generateRoundTx(ctx context.Context, tx *sqlx.Tx, tournament *tourney.Tournament, eligible []uuid.UUID) ([]tourney.Match, error) {
	if len(eligible) == 0 {
		return nil, ErrNoEligiblePlayers
	}

	game, err := s.games.GetGameTx(ctx, tx, tournament.GameID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}

	shuffled := make([]uuid.UUID, len(eligible))
	copy(shuffled, eligible)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	var matches []tourney.Match
	var matchIDs []uuid.UUID

	for i, groupIndex := 0, 1; i < len(shuffled); i, groupIndex = i+game.MaxPlayers, groupIndex+1 {
		end := i + game.MaxPlayers
		if end > len(shuffled) {
			end = len(shuffled)
		}
		group := shuffled[i:end]

		lobby := tourney.Lobby{
			ID:         uuid.New(),
			GameID:     game.ID,
			Name:       fmt.Sprintf("%s lobby %d", tournament.Name, groupIndex),
			Status:     tourney.LobbyLobbied,
			CreatedBy:  group[0],
			MinPlayers: game.MinPlayers,
			MaxPlayers: game.MaxPlayers,
		}
		if err := s.matches.CreateLobby(ctx, tx, &lobby); err != nil {
			return nil, fmt.Errorf("failed to create lobby: %w", err)
		}

		match := tourney.Match{
			ID:         uuid.New(),
			GameID:     game.ID,
			LobbyID:    lobby.ID,
			DatePlayed: tournament.TournamentStart,
		}
		if err := s.matches.CreateMatch(ctx, tx, &match); err != nil {
			return nil, fmt.Errorf("failed to create match: %w", err)
		}

		// A trailing group too small to play the game is a bye: its members
		// advance without playing.
		bye := len(group) < game.MinPlayers

		players := make([]tourney.Player, 0, len(group))
		for _, userID := range group {
			p := tourney.Player{
				ID:      uuid.New(),
				MatchID: match.ID,
				UserID:  userID,
			}
			if bye {
				p.Outcome = utils.Ptr(tourney.OutcomeWin)
			}
			players = append(players, p)
		}
		if err := s.matches.CreatePlayers(ctx, tx, players); err != nil {
			return nil, fmt.Errorf("failed to create players: %w", err)
		}

		matches = append(matches, match)
		matchIDs = append(matchIDs, match.ID)
	}

	if err := s.tournaments.AttachMatches(ctx, tx, tournament.ID, matchIDs); err != nil {
		return nil, fmt.Errorf("failed to attach matches: %w", err)
	}

	return matches, nil
}
