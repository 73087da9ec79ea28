package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trentd187/golf-tournaments/internal/models"
	"github.com/trentd187/golf-tournaments/internal/store"
)

func TestCanTransition(t *testing.T) {
	allowed := [][2]models.TournamentStatus{
		{models.TournamentStatusPlanned, models.TournamentStatusActive},
		{models.TournamentStatusActive, models.TournamentStatusCompleted},
		{models.TournamentStatusActive, models.TournamentStatusNeedsAdjustment},
		{models.TournamentStatusNeedsAdjustment, models.TournamentStatusActive},
		{models.TournamentStatusNeedsAdjustment, models.TournamentStatusCompleted},
	}
	for _, tr := range allowed {
		assert.True(t, store.CanTransition(tr[0], tr[1]), "%s -> %s", tr[0], tr[1])
	}

	assert.False(t, store.CanTransition(models.TournamentStatusPlanned, models.TournamentStatusCompleted))
	assert.False(t, store.CanTransition(models.TournamentStatusCompleted, models.TournamentStatusActive))
	assert.False(t, store.CanTransition(models.TournamentStatusActive, models.TournamentStatusActive))
}

func TestCreateTournament_Slugs(t *testing.T) {
	st, f := setup(t)
	ctx := context.Background()
	date := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	first, err := st.CreateTournament(ctx, store.NewTournament{Name: "Club Championship", Date: date, CourseID: f.Course.ID, CreatedBy: f.Admin})
	require.NoError(t, err)
	assert.Equal(t, "club-championship-2026", first.Slug)
	assert.Equal(t, models.TournamentStatusPlanned, first.Status)
	assert.Equal(t, "Lakeside", first.Course.Name)

	second, err := st.CreateTournament(ctx, store.NewTournament{Name: "Club Championship", Date: date, CourseID: f.Course.ID, CreatedBy: f.Admin})
	require.NoError(t, err)
	assert.Equal(t, "club-championship-2026-2", second.Slug)

	bySlug, err := st.GetTournament(ctx, "club-championship-2026-2")
	require.NoError(t, err)
	assert.Equal(t, second.ID, bySlug.ID)

	byID, err := st.GetTournament(ctx, first.ID.String())
	require.NoError(t, err)
	assert.Equal(t, first.Slug, byID.Slug)

	_, err = st.GetTournament(ctx, "no-such-tournament")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = st.CreateTournament(ctx, store.NewTournament{Name: "Orphan", Date: date, CreatedBy: f.Admin})
	assert.ErrorIs(t, err, store.ErrInvalidInput)
}

func TestListTournaments(t *testing.T) {
	st, f := setup(t)
	ctx := context.Background()
	_, err := st.CreateTournament(ctx, store.NewTournament{Name: "Autumn Cup", Date: time.Now(), CourseID: f.Course.ID, CreatedBy: f.Admin})
	require.NoError(t, err)

	all, err := st.ListTournaments(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	active, err := st.ListTournaments(ctx, models.TournamentStatusActive)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, f.Tournament.ID, active[0].ID)
}

func TestUpdateTournamentStatus_CompletionAwardsWinner(t *testing.T) {
	st, f := setup(t)
	ctx := context.Background()
	for hole, strokes := range map[int]int{1: 5, 2: 3, 3: 4} {
		record(t, st, f, f.Alice, hole, strokes)
		record(t, st, f, f.Bob, hole, strokes-1)
	}

	change, err := st.UpdateTournamentStatus(ctx, f.Tournament.ID, models.TournamentStatusNeedsAdjustment)
	require.NoError(t, err)
	assert.Equal(t, models.TournamentStatusActive, change.From)
	assert.Nil(t, change.Winner)

	change, err = st.UpdateTournamentStatus(ctx, f.Tournament.ID, models.TournamentStatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, models.TournamentStatusCompleted, change.Tournament.Status)
	require.NotNil(t, change.Winner)
	assert.Equal(t, f.Bob.ID, change.Winner.PlayerID)
	assert.Equal(t, store.WinnerTitle, change.Winner.Title)

	achievements, err := st.ListAchievements(ctx, f.Bob.ID)
	require.NoError(t, err)
	require.Len(t, achievements, 1)
	require.NotNil(t, achievements[0].Tournament)
	assert.Equal(t, "Spring Open", achievements[0].Tournament.Name)

	_, err = st.UpdateTournamentStatus(ctx, f.Tournament.ID, models.TournamentStatusActive)
	assert.ErrorIs(t, err, store.ErrInvalidTransition)

	_, err = st.UpdateTournamentStatus(ctx, f.Tournament.ID, "cancelled")
	assert.ErrorIs(t, err, store.ErrInvalidInput)
}

func TestUpdateTournamentStatus_NoScoresNoWinner(t *testing.T) {
	st, f := setup(t)
	change, err := st.UpdateTournamentStatus(context.Background(), f.Tournament.ID, models.TournamentStatusCompleted)
	require.NoError(t, err)
	assert.Nil(t, change.Winner)
}

func TestUpdateTournamentStatus_WinnerNeedsCompleteRound(t *testing.T) {
	st, f := setup(t)
	ctx := context.Background()
	// Bob leads on raw strokes after one hole, but only Alice finished the course.
	for hole, strokes := range map[int]int{1: 5, 2: 3, 3: 4} {
		record(t, st, f, f.Alice, hole, strokes)
	}
	record(t, st, f, f.Bob, 1, 3)

	change, err := st.UpdateTournamentStatus(ctx, f.Tournament.ID, models.TournamentStatusCompleted)
	require.NoError(t, err)
	require.NotNil(t, change.Winner)
	assert.Equal(t, f.Alice.ID, change.Winner.PlayerID)
}

func TestUpdateTournamentStatus_NoCompleteRoundNoWinner(t *testing.T) {
	st, f := setup(t)
	record(t, st, f, f.Alice, 1, 4)
	record(t, st, f, f.Bob, 2, 3)

	change, err := st.UpdateTournamentStatus(context.Background(), f.Tournament.ID, models.TournamentStatusCompleted)
	require.NoError(t, err)
	assert.Nil(t, change.Winner)
}
