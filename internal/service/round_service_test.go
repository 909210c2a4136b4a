package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boardhub/internal/store"
	"boardhub/internal/tourney"
)

func newTestRoundService(db *sqlx.DB) *RoundService {
	tournaments := store.NewTournamentStore(db)
	matches := store.NewMatchStore(db)
	games := store.NewGameStore(db)
	brackets := NewBracketService(db, tournaments, matches, games)
	return NewRoundService(db, tournaments, matches, games, brackets)
}

// reportMatchResult marks the first listed participant of the match as the
// winner and everyone else as a loser.
func reportMatchResult(t *testing.T, db *sqlx.DB, rounds *RoundService, matchID uuid.UUID) uuid.UUID {
	t.Helper()
	players, err := store.NewMatchStore(db).GetPlayersByMatch(context.Background(), matchID)
	require.NoError(t, err)
	require.NotEmpty(t, players)

	winner := players[0].UserID
	require.NoError(t, rounds.ReportOutcome(context.Background(), matchID, winner, tourney.OutcomeWin))
	for _, p := range players[1:] {
		require.NoError(t, rounds.ReportOutcome(context.Background(), matchID, p.UserID, tourney.OutcomeLose))
	}
	return winner
}

// Runs a four-player single-elimination tournament of a two-player game from
// round 1 through finalization.
func TestTournamentRunsToCompletion(t *testing.T) {
	db := setupTestDB(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	pinClock(t, now)

	game := createTestGame(t, db, 2, 2)
	regStart, regEnd, start, end := inProgressDates(now)
	tournament := createTestTournament(t, db, &tourney.Tournament{
		GameID:            game.ID,
		RegistrationStart: regStart,
		RegistrationEnd:   regEnd,
		TournamentStart:   start,
		TournamentEnd:     end,
		MaxPlayers:        4,
		NumWinner:         1,
	})

	userIDs := make([]uuid.UUID, 4)
	for i := range userIDs {
		userIDs[i] = createTestUser(t, db, uuid.NewString())
	}
	addTestPlayers(t, db, tournament.ID, userIDs, tournament.MaxPlayers)

	roundService := newTestRoundService(db)
	round1, err := roundService.brackets.EnsureCurrentRound(context.Background(), tournament.ID)
	require.NoError(t, err)
	require.Len(t, round1, 2)

	semifinalWinners := make([]uuid.UUID, 0, 2)
	for _, match := range round1 {
		semifinalWinners = append(semifinalWinners, reportMatchResult(t, db, roundService, match.ID))
	}

	result, err := roundService.AdvanceOrFinalize(context.Background(), tournament.ID)
	require.NoError(t, err)
	assert.False(t, result.Finalized)
	require.Len(t, result.NextMatches, 1)

	final := result.NextMatches[0]
	finalists, err := store.NewMatchStore(db).GetPlayersByMatch(context.Background(), final.ID)
	require.NoError(t, err)
	require.Len(t, finalists, 2)
	finalistIDs := []uuid.UUID{finalists[0].UserID, finalists[1].UserID}
	assert.ElementsMatch(t, semifinalWinners, finalistIDs)

	champion := reportMatchResult(t, db, roundService, final.ID)

	result, err = roundService.AdvanceOrFinalize(context.Background(), tournament.ID)
	require.NoError(t, err)
	assert.True(t, result.Finalized)
	assert.Equal(t, []uuid.UUID{champion}, result.Winners)

	stored, err := store.NewTournamentStore(db).GetWinnerIDs(context.Background(), tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{champion}, stored)

	// Matches older rounds played stay on record; only the current-round
	// attachment is cleared.
	current, err := store.NewTournamentStore(db).GetCurrentMatches(context.Background(), tournament.ID)
	require.NoError(t, err)
	assert.Empty(t, current)

	// Advancing a finalized tournament just reports the stored winners.
	result, err = roundService.AdvanceOrFinalize(context.Background(), tournament.ID)
	require.NoError(t, err)
	assert.True(t, result.Finalized)
	assert.Equal(t, []uuid.UUID{champion}, result.Winners)
}

func TestAdvanceOrFinalizeUnplayedRoundIsNoOp(t *testing.T) {
	db := setupTestDB(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	pinClock(t, now)

	game := createTestGame(t, db, 2, 2)
	regStart, regEnd, start, end := inProgressDates(now)
	tournament := createTestTournament(t, db, &tourney.Tournament{
		GameID:            game.ID,
		RegistrationStart: regStart,
		RegistrationEnd:   regEnd,
		TournamentStart:   start,
		TournamentEnd:     end,
		MaxPlayers:        4,
		NumWinner:         1,
	})

	userIDs := make([]uuid.UUID, 4)
	for i := range userIDs {
		userIDs[i] = createTestUser(t, db, uuid.NewString())
	}
	addTestPlayers(t, db, tournament.ID, userIDs, tournament.MaxPlayers)

	roundService := newTestRoundService(db)
	round1, err := roundService.brackets.EnsureCurrentRound(context.Background(), tournament.ID)
	require.NoError(t, err)

	result, err := roundService.AdvanceOrFinalize(context.Background(), tournament.ID)
	require.NoError(t, err)
	assert.False(t, result.Finalized)
	require.Len(t, result.NextMatches, len(round1))

	roundIDs := make([]uuid.UUID, 0, len(round1))
	for _, m := range round1 {
		roundIDs = append(roundIDs, m.ID)
	}
	returnedIDs := make([]uuid.UUID, 0, len(result.NextMatches))
	for _, m := range result.NextMatches {
		returnedIDs = append(returnedIDs, m.ID)
	}
	assert.ElementsMatch(t, roundIDs, returnedIDs, "an unplayed round is returned as-is")
}

func TestAdvanceOrFinalizePartiallyPlayedRound(t *testing.T) {
	db := setupTestDB(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	pinClock(t, now)

	game := createTestGame(t, db, 2, 2)
	regStart, regEnd, start, end := inProgressDates(now)
	tournament := createTestTournament(t, db, &tourney.Tournament{
		GameID:            game.ID,
		RegistrationStart: regStart,
		RegistrationEnd:   regEnd,
		TournamentStart:   start,
		TournamentEnd:     end,
		MaxPlayers:        4,
		NumWinner:         1,
	})

	userIDs := make([]uuid.UUID, 4)
	for i := range userIDs {
		userIDs[i] = createTestUser(t, db, uuid.NewString())
	}
	addTestPlayers(t, db, tournament.ID, userIDs, tournament.MaxPlayers)

	roundService := newTestRoundService(db)
	round1, err := roundService.brackets.EnsureCurrentRound(context.Background(), tournament.ID)
	require.NoError(t, err)
	require.Len(t, round1, 2)

	reportMatchResult(t, db, roundService, round1[0].ID)

	_, err = roundService.AdvanceOrFinalize(context.Background(), tournament.ID)
	assert.ErrorIs(t, err, ErrRoundInProgress)
}

func TestReportOutcomeValidation(t *testing.T) {
	db := setupTestDB(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	pinClock(t, now)

	game := createTestGame(t, db, 2, 2)
	regStart, regEnd, start, end := inProgressDates(now)
	tournament := createTestTournament(t, db, &tourney.Tournament{
		GameID:            game.ID,
		RegistrationStart: regStart,
		RegistrationEnd:   regEnd,
		TournamentStart:   start,
		TournamentEnd:     end,
		MaxPlayers:        2,
		NumWinner:         1,
	})

	userA := createTestUser(t, db, "gwen")
	userB := createTestUser(t, db, "hank")
	outsider := createTestUser(t, db, "ivan")
	addTestPlayers(t, db, tournament.ID, []uuid.UUID{userA, userB}, tournament.MaxPlayers)

	roundService := newTestRoundService(db)
	round1, err := roundService.brackets.EnsureCurrentRound(context.Background(), tournament.ID)
	require.NoError(t, err)
	require.Len(t, round1, 1)
	matchID := round1[0].ID

	t.Run("invalid outcome", func(t *testing.T) {
		err := roundService.ReportOutcome(context.Background(), matchID, userA, tourney.Outcome("crushed"))
		assert.ErrorIs(t, err, ErrInvalidOutcome)
	})

	t.Run("unknown match", func(t *testing.T) {
		err := roundService.ReportOutcome(context.Background(), uuid.New(), userA, tourney.OutcomeWin)
		assert.ErrorIs(t, err, ErrNotCurrentMatch)
	})

	t.Run("not a participant", func(t *testing.T) {
		err := roundService.ReportOutcome(context.Background(), matchID, outsider, tourney.OutcomeWin)
		assert.ErrorIs(t, err, ErrNotParticipant)
	})

	t.Run("outcome already set", func(t *testing.T) {
		require.NoError(t, roundService.ReportOutcome(context.Background(), matchID, userA, tourney.OutcomeWin))
		err := roundService.ReportOutcome(context.Background(), matchID, userA, tourney.OutcomeLose)
		assert.ErrorIs(t, err, ErrOutcomeAlreadySet)
	})

	t.Run("match no longer current", func(t *testing.T) {
		require.NoError(t, roundService.ReportOutcome(context.Background(), matchID, userB, tourney.OutcomeLose))
		result, err := roundService.AdvanceOrFinalize(context.Background(), tournament.ID)
		require.NoError(t, err)
		require.True(t, result.Finalized)

		err = roundService.ReportOutcome(context.Background(), matchID, userB, tourney.OutcomeWin)
		assert.ErrorIs(t, err, ErrNotCurrentMatch)
	})
}

// Two registrants for a game that needs three players can never form a real
// match: round 1 is a single bye. Advancing must end the tournament with both
// as winners instead of regenerating bye rounds forever.
func TestAdvanceOrFinalizeTooFewPlayersForAnotherRound(t *testing.T) {
	db := setupTestDB(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	pinClock(t, now)

	game := createTestGame(t, db, 3, 4)
	regStart, regEnd, start, end := inProgressDates(now)
	tournament := createTestTournament(t, db, &tourney.Tournament{
		GameID:            game.ID,
		RegistrationStart: regStart,
		RegistrationEnd:   regEnd,
		TournamentStart:   start,
		TournamentEnd:     end,
		MaxPlayers:        4,
		NumWinner:         1,
	})

	userA := createTestUser(t, db, "nora")
	userB := createTestUser(t, db, "omar")
	addTestPlayers(t, db, tournament.ID, []uuid.UUID{userA, userB}, tournament.MaxPlayers)

	roundService := newTestRoundService(db)
	round1, err := roundService.brackets.EnsureCurrentRound(context.Background(), tournament.ID)
	require.NoError(t, err)
	require.Len(t, round1, 1)

	countMatches := func() int {
		var n int
		require.NoError(t, db.Get(&n, "SELECT COUNT(*) FROM matches"))
		return n
	}
	before := countMatches()

	result, err := roundService.AdvanceOrFinalize(context.Background(), tournament.ID)
	require.NoError(t, err)
	assert.True(t, result.Finalized)
	assert.ElementsMatch(t, []uuid.UUID{userA, userB}, result.Winners)
	assert.Equal(t, before, countMatches(), "no new round is generated")

	current, err := store.NewTournamentStore(db).GetCurrentMatches(context.Background(), tournament.ID)
	require.NoError(t, err)
	assert.Empty(t, current)

	result, err = roundService.AdvanceOrFinalize(context.Background(), tournament.ID)
	require.NoError(t, err)
	assert.True(t, result.Finalized)
	assert.ElementsMatch(t, []uuid.UUID{userA, userB}, result.Winners)
	assert.Equal(t, before, countMatches())
}

func TestAdvanceOrFinalizeMultipleWinners(t *testing.T) {
	db := setupTestDB(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	pinClock(t, now)

	// Two matches of two and num_winner >= 2: the two match winners end the
	// tournament together instead of meeting in a final.
	game := createTestGame(t, db, 2, 2)
	regStart, regEnd, start, end := inProgressDates(now)
	tournament := createTestTournament(t, db, &tourney.Tournament{
		GameID:            game.ID,
		RegistrationStart: regStart,
		RegistrationEnd:   regEnd,
		TournamentStart:   start,
		TournamentEnd:     end,
		MaxPlayers:        4,
		NumWinner:         2,
	})

	userIDs := make([]uuid.UUID, 4)
	for i := range userIDs {
		userIDs[i] = createTestUser(t, db, uuid.NewString())
	}
	addTestPlayers(t, db, tournament.ID, userIDs, tournament.MaxPlayers)

	roundService := newTestRoundService(db)
	round1, err := roundService.brackets.EnsureCurrentRound(context.Background(), tournament.ID)
	require.NoError(t, err)
	require.Len(t, round1, 2)

	winners := make([]uuid.UUID, 0, 2)
	for _, match := range round1 {
		winners = append(winners, reportMatchResult(t, db, roundService, match.ID))
	}

	result, err := roundService.AdvanceOrFinalize(context.Background(), tournament.ID)
	require.NoError(t, err)
	assert.True(t, result.Finalized)
	assert.ElementsMatch(t, winners, result.Winners)
}
