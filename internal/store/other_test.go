package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trentd187/golf-tournaments/internal/models"
	"github.com/trentd187/golf-tournaments/internal/store"
)

func TestCreateCourse(t *testing.T) {
	st, _ := setup(t)
	ctx := context.Background()
	dist := 320

	c, err := st.CreateCourse(ctx, store.NewCourse{
		Name: "Hillside",
		Holes: []store.NewHole{
			{Number: 2, Par: 3, HandicapIndex: 2},
			{Number: 1, Par: 5, HandicapIndex: 1, DistanceMeters: &dist},
		},
	})
	require.NoError(t, err)
	require.Len(t, c.Holes, 2)
	assert.Equal(t, 1, c.Holes[0].HoleNumber, "holes come back in playing order")
	assert.Equal(t, 8, *c.Par)
	assert.Equal(t, 2, *c.TotalHoles)

	courses, err := st.ListCourses(ctx)
	require.NoError(t, err)
	assert.Len(t, courses, 2)

	tests := []struct {
		name  string
		holes []store.NewHole
	}{
		{"no holes", nil},
		{"duplicate number", []store.NewHole{{Number: 1, Par: 4, HandicapIndex: 1}, {Number: 1, Par: 4, HandicapIndex: 2}}},
		{"duplicate handicap", []store.NewHole{{Number: 1, Par: 4, HandicapIndex: 1}, {Number: 2, Par: 4, HandicapIndex: 1}}},
		{"bad par", []store.NewHole{{Number: 1, Par: 9, HandicapIndex: 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := st.CreateCourse(ctx, store.NewCourse{Name: "Broken", Holes: tt.holes})
			assert.ErrorIs(t, err, store.ErrInvalidInput)
		})
	}
}

func TestProfilesAndRoles(t *testing.T) {
	st, f := setup(t)
	ctx := context.Background()
	userID := uuid.New()

	_, err := st.ProfileByUserID(ctx, userID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	p, err := st.SaveProfile(ctx, userID, store.ProfileInput{FullName: "Carla", CPF: "12345678900"})
	require.NoError(t, err)
	hcp := 12.4
	again, err := st.SaveProfile(ctx, userID, store.ProfileInput{FullName: "Carla Souza", Handicap: &hcp})
	require.NoError(t, err)
	assert.Equal(t, p.ID, again.ID)
	assert.Equal(t, "Carla Souza", again.FullName)

	role, err := st.RoleFor(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, models.AppRoleUser, role)

	role, err = st.RoleFor(ctx, f.Admin)
	require.NoError(t, err)
	assert.Equal(t, models.AppRoleAdmin, role)

	require.NoError(t, st.GrantRole(ctx, userID, models.AppRoleAdmin))
	require.NoError(t, st.GrantRole(ctx, userID, models.AppRoleAdmin))
	role, err = st.RoleFor(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, models.AppRoleAdmin, role)
}

func TestGroups(t *testing.T) {
	st, f := setup(t)
	ctx := context.Background()

	g, err := st.CreateGroup(ctx, store.NewGroup{
		TournamentID: f.Tournament.ID,
		Name:         "Group A",
		PlayerIDs:    []uuid.UUID{f.Alice.ID, f.Bob.ID},
		CaptainID:    &f.Alice.ID,
	})
	require.NoError(t, err)
	assert.Len(t, g.AccessCode, 6)
	assert.Len(t, g.Players, 2)

	ok, err := st.CanRecordScore(ctx, f.Tournament.ID, f.Alice.ID, f.Bob.ID)
	require.NoError(t, err)
	assert.True(t, ok, "captain records for the group")

	ok, err = st.CanRecordScore(ctx, f.Tournament.ID, f.Bob.ID, f.Alice.ID)
	require.NoError(t, err)
	assert.False(t, ok, "members only record for themselves")

	ok, err = st.CanRecordScore(ctx, f.Tournament.ID, f.Bob.ID, f.Bob.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	code, err := st.RegenerateAccessCode(ctx, g.ID)
	require.NoError(t, err)
	assert.Len(t, code, 6)

	_, err = st.RegenerateAccessCode(ctx, uuid.New())
	assert.ErrorIs(t, err, store.ErrNotFound)

	groups, err := st.ListGroups(ctx, f.Tournament.ID)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, code, groups[0].AccessCode)

	_, err = st.CreateGroup(ctx, store.NewGroup{TournamentID: f.Tournament.ID, Name: "B", PlayerIDs: []uuid.UUID{f.Bob.ID}, CaptainID: &f.Alice.ID})
	assert.ErrorIs(t, err, store.ErrInvalidInput)
}

func TestTrainingScores(t *testing.T) {
	st, f := setup(t)
	ctx := context.Background()
	day := func(d int) time.Time { return time.Date(2026, 5, d, 0, 0, 0, 0, time.UTC) }

	// Six completed rounds, one stroke worse each day, plus an unfinished one.
	for d := 1; d <= 6; d++ {
		_, err := st.CreateTrainingSession(ctx, store.NewTrainingSession{
			PlayerID:  f.Alice.ID,
			CourseID:  f.Course.ID,
			Date:      day(d),
			Completed: true,
			Scores:    []store.TrainingScoreInput{{HoleID: f.Hole(2).ID, Strokes: 2 + d}},
		})
		require.NoError(t, err)
	}
	_, err := st.CreateTrainingSession(ctx, store.NewTrainingSession{
		PlayerID: f.Alice.ID, CourseID: f.Course.ID, Date: day(7),
		Scores: []store.TrainingScoreInput{{HoleID: f.Hole(2).ID, Strokes: 1}},
	})
	require.NoError(t, err)

	history, err := st.RecentTraining(ctx, f.Alice.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, history.Sessions)
	require.Len(t, history.Scores, 5)
	for _, s := range history.Scores {
		assert.Equal(t, 3, s.Par)
		assert.GreaterOrEqual(t, s.Strokes, 4, "oldest and unfinished rounds are left out")
	}

	none, err := st.RecentTraining(ctx, f.Bob.ID, 5)
	require.NoError(t, err)
	assert.Zero(t, none.Sessions)
	assert.Empty(t, none.Scores)

	// A completed round with no holes entered still counts as a round.
	_, err = st.CreateTrainingSession(ctx, store.NewTrainingSession{PlayerID: f.Bob.ID, CourseID: f.Course.ID, Completed: true})
	require.NoError(t, err)
	empty, err := st.RecentTraining(ctx, f.Bob.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 1, empty.Sessions)
	assert.Empty(t, empty.Scores)

	t.Run("holes must belong to the course", func(t *testing.T) {
		other, err := st.CreateCourse(ctx, store.NewCourse{Name: "Other", Holes: []store.NewHole{{Number: 1, Par: 4, HandicapIndex: 1}}})
		require.NoError(t, err)
		_, err = st.CreateTrainingSession(ctx, store.NewTrainingSession{
			PlayerID: f.Alice.ID, CourseID: f.Course.ID,
			Scores: []store.TrainingScoreInput{{HoleID: other.Holes[0].ID, Strokes: 4}},
		})
		assert.ErrorIs(t, err, store.ErrInvalidInput)
	})
}

func TestAwardAchievement(t *testing.T) {
	st, f := setup(t)
	ctx := context.Background()

	err := st.AwardAchievement(ctx, &models.Achievement{PlayerID: f.Alice.ID, Title: "First Birdie", AchievementType: models.AchievementScore})
	require.NoError(t, err)

	err = st.AwardAchievement(ctx, &models.Achievement{PlayerID: f.Alice.ID, Title: "Odd", AchievementType: "other"})
	assert.ErrorIs(t, err, store.ErrInvalidInput)

	list, err := st.ListAchievements(ctx, f.Alice.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Nil(t, list[0].Tournament)
}

func TestListPlayers(t *testing.T) {
	st, f := setup(t)
	ctx := context.Background()

	players, err := st.ListPlayers(ctx)
	require.NoError(t, err)
	require.Len(t, players, 2, "the admin has no profile")
	assert.Equal(t, "Alice", players[0].Profile.FullName)
	assert.Equal(t, "Bob", players[1].Profile.FullName)
	assert.Equal(t, models.AppRoleUser, players[1].Role)

	require.NoError(t, st.GrantRole(ctx, f.Bob.UserID, models.AppRoleAdmin))
	players, err = st.ListPlayers(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.AppRoleAdmin, players[1].Role)

	p, err := st.GetPlayer(ctx, f.Alice.ID)
	require.NoError(t, err)
	assert.Equal(t, f.Alice.UserID, p.UserID)
	_, err = st.GetPlayer(ctx, uuid.New())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestPlayerStats(t *testing.T) {
	st, f := setup(t)
	ctx := context.Background()

	record(t, st, f, f.Alice, 1, 5)
	record(t, st, f, f.Alice, 2, 2)
	record(t, st, f, f.Bob, 1, 4)
	_, err := st.CreateTrainingSession(ctx, store.NewTrainingSession{
		PlayerID: f.Alice.ID, CourseID: f.Course.ID,
		Scores: []store.TrainingScoreInput{{HoleID: f.Hole(3).ID, Strokes: 6}},
	})
	require.NoError(t, err)

	stats, err := st.PlayerStats(ctx, f.Alice.ID)
	require.NoError(t, err)
	assert.Len(t, stats.Scores, 3, "tournament and training holes together")
	assert.EqualValues(t, 1, stats.TournamentsPlayed)
	assert.EqualValues(t, 1, stats.TrainingSessions)

	require.Len(t, stats.Recent, 2)
	assert.Equal(t, 2, stats.Recent[0].HoleNumber, "newest first")
	assert.Equal(t, 3, stats.Recent[0].Par)
	assert.Equal(t, "Spring Open", stats.Recent[0].TournamentName)
	assert.Equal(t, "2026-04-12", stats.Recent[0].TournamentDate.UTC().Format(time.DateOnly))

	none, err := st.PlayerStats(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, none.Scores)
	assert.Zero(t, none.TournamentsPlayed)
}

func TestTrainingSessionsListAndDelete(t *testing.T) {
	st, f := setup(t)
	ctx := context.Background()
	day := func(d int) time.Time { return time.Date(2026, 6, d, 0, 0, 0, 0, time.UTC) }

	older, err := st.CreateTrainingSession(ctx, store.NewTrainingSession{
		PlayerID: f.Alice.ID, CourseID: f.Course.ID, Date: day(1),
		Scores: []store.TrainingScoreInput{{HoleID: f.Hole(1).ID, Strokes: 5}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Lakeside", older.Course.Name)
	require.Len(t, older.Scores, 1)
	assert.Equal(t, 4, older.Scores[0].Hole.Par)

	newer, err := st.CreateTrainingSession(ctx, store.NewTrainingSession{
		PlayerID: f.Alice.ID, CourseID: f.Course.ID, Date: day(2), Completed: true,
		Scores: []store.TrainingScoreInput{{HoleID: f.Hole(2).ID, Strokes: 3}, {HoleID: f.Hole(3).ID, Strokes: 4}},
	})
	require.NoError(t, err)

	sessions, err := st.ListTrainingSessions(ctx, f.Alice.ID)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, newer.ID, sessions[0].ID)
	assert.Len(t, sessions[0].Scores, 2)

	err = st.DeleteTrainingSession(ctx, newer.ID, &f.Bob.ID)
	assert.ErrorIs(t, err, store.ErrNotFound, "other players' rounds are invisible")

	require.NoError(t, st.DeleteTrainingSession(ctx, newer.ID, &f.Alice.ID))
	require.NoError(t, st.DeleteTrainingSession(ctx, older.ID, nil))

	sessions, err = st.ListTrainingSessions(ctx, f.Alice.ID)
	require.NoError(t, err)
	assert.Empty(t, sessions)

	var orphans int64
	require.NoError(t, st.DB().Model(&models.TrainingScore{}).Count(&orphans).Error)
	assert.Zero(t, orphans)
}

func TestDashboard(t *testing.T) {
	st, f := setup(t)
	ctx := context.Background()

	_, err := st.CreateTrainingSession(ctx, store.NewTrainingSession{PlayerID: f.Alice.ID, CourseID: f.Course.ID})
	require.NoError(t, err)
	require.NoError(t, st.AwardAchievement(ctx, &models.Achievement{PlayerID: f.Alice.ID, Title: "First Birdie", AchievementType: models.AchievementScore}))
	_, err = st.CreateTournament(ctx, store.NewTournament{Name: "Autumn Cup", Date: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), CourseID: f.Course.ID, CreatedBy: f.Admin})
	require.NoError(t, err)

	d, err := st.Dashboard(ctx, &f.Alice.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, d.Tournaments)
	assert.EqualValues(t, 1, d.ActiveTournaments)
	assert.EqualValues(t, 1, d.TrainingSessions)
	assert.EqualValues(t, 1, d.Achievements)
	require.Len(t, d.Recent, 2)
	assert.Equal(t, "Autumn Cup", d.Recent[0].Name)
	assert.Equal(t, "Lakeside", d.Recent[0].Course.Name)

	anon, err := st.Dashboard(ctx, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 2, anon.Tournaments)
	assert.Zero(t, anon.TrainingSessions)
	assert.Zero(t, anon.Achievements)
}
