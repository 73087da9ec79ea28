package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/trentd187/golf-tournaments/internal/leaderboard"
	"github.com/trentd187/golf-tournaments/internal/models"
)

// WinnerTitle is the achievement awarded to the leader when a tournament completes.
const WinnerTitle = "Tournament Winner"

// transitions lists the allowed status changes. Anything else is rejected.
var transitions = map[models.TournamentStatus][]models.TournamentStatus{
	models.TournamentStatusPlanned:         {models.TournamentStatusActive},
	models.TournamentStatusActive:          {models.TournamentStatusCompleted, models.TournamentStatusNeedsAdjustment},
	models.TournamentStatusNeedsAdjustment: {models.TournamentStatusActive, models.TournamentStatusCompleted},
}

// CanTransition reports whether a tournament may move from one status to another.
func CanTransition(from, to models.TournamentStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// ListTournaments returns tournaments, newest first, optionally filtered by status.
func (s *Store) ListTournaments(ctx context.Context, status models.TournamentStatus) ([]models.Tournament, error) {
	q := s.db.WithContext(ctx).Preload("Course")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var ts []models.Tournament
	if err := q.Order("tournament_date DESC, created_at DESC").Find(&ts).Error; err != nil {
		return nil, translate(err, "list tournaments")
	}
	return ts, nil
}

// GetTournament looks a tournament up by id or by slug.
func (s *Store) GetTournament(ctx context.Context, ref string) (*models.Tournament, error) {
	q := s.db.WithContext(ctx).Preload("Course")
	if id, err := uuid.Parse(ref); err == nil {
		q = q.Where("id = ?", id)
	} else {
		q = q.Where("slug = ?", ref)
	}
	var t models.Tournament
	if err := q.First(&t).Error; err != nil {
		return nil, translate(err, "tournament "+ref)
	}
	return &t, nil
}

// NewTournament holds the fields needed to schedule a tournament.
type NewTournament struct {
	Name      string
	Date      time.Time
	CourseID  uuid.UUID
	CreatedBy uuid.UUID
}

// CreateTournament schedules a tournament in the planned state. The slug is derived
// from the name and year and made unique with a numeric suffix when needed.
func (s *Store) CreateTournament(ctx context.Context, in NewTournament) (*models.Tournament, error) {
	if in.Name == "" {
		return nil, invalid("name is required")
	}
	if in.Date.IsZero() {
		return nil, invalid("tournament_date is required")
	}

	var created models.Tournament
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Select("id").First(&models.Course{}, "id = ?", in.CourseID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return invalid("unknown course")
			}
			return err
		}

		base := slug.Make(fmt.Sprintf("%s %d", in.Name, in.Date.Year()))
		candidate := base
		for n := 2; ; n++ {
			var count int64
			if err := tx.Model(&models.Tournament{}).Where("slug = ?", candidate).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				break
			}
			candidate = base + "-" + strconv.Itoa(n)
		}

		created = models.Tournament{
			Name:           in.Name,
			Slug:           candidate,
			TournamentDate: in.Date,
			Status:         models.TournamentStatusPlanned,
			CourseID:       in.CourseID,
			CreatedBy:      in.CreatedBy,
		}
		if err := tx.Omit(clause.Associations).Create(&created).Error; err != nil {
			return err
		}
		return tx.Preload("Course").First(&created, "id = ?", created.ID).Error
	})
	if err != nil {
		return nil, translate(err, "create tournament")
	}
	return &created, nil
}

// StatusChange is the outcome of UpdateTournamentStatus.
type StatusChange struct {
	Tournament models.Tournament
	From       models.TournamentStatus
	// Winner is set when the change completed the tournament and a leader was awarded.
	Winner *models.Achievement
}

// UpdateTournamentStatus moves a tournament to a new status. Completing a tournament
// awards the WinnerTitle achievement to the player in first place of the final
// standings, at most once per tournament.
func (s *Store) UpdateTournamentStatus(ctx context.Context, tournamentID uuid.UUID, to models.TournamentStatus) (*StatusChange, error) {
	if !to.Valid() {
		return nil, invalid("unknown status %q", to)
	}

	var change StatusChange
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var t models.Tournament
		if err := tx.First(&t, "id = ?", tournamentID).Error; err != nil {
			return err
		}
		if !CanTransition(t.Status, to) {
			return fmt.Errorf("%s to %s: %w", t.Status, to, ErrInvalidTransition)
		}

		change.From = t.Status
		if err := tx.Model(&t).Update("status", to).Error; err != nil {
			return err
		}
		t.Status = to

		if to == models.TournamentStatusCompleted {
			winner, err := awardWinner(tx, t)
			if err != nil {
				return err
			}
			change.Winner = winner
		}

		change.Tournament = t
		return nil
	})
	if err != nil {
		return nil, translate(err, "update tournament status")
	}
	return &change, nil
}

// awardWinner gives the winner achievement to the leader of the final standings.
func awardWinner(tx *gorm.DB, t models.Tournament) (*models.Achievement, error) {
	rows, err := scoreRows(tx, t.ID)
	if err != nil {
		return nil, err
	}
	var holes int64
	if err := tx.Model(&models.Hole{}).Where("course_id = ?", t.CourseID).Count(&holes).Error; err != nil {
		return nil, err
	}

	// Only complete rounds compete for the title: the best total among players who
	// scored every hole of the course. Live standings still rank partial rounds.
	var leader *leaderboard.StandingsEntry
	for _, e := range leaderboard.ComputeStandings(rows) {
		if int64(e.HolesPlayed) == holes {
			leader = &e
			break
		}
	}
	if leader == nil {
		return nil, nil
	}
	playerID, err := uuid.Parse(leader.PlayerID)
	if err != nil {
		return nil, fmt.Errorf("leader id %q: %w", leader.PlayerID, err)
	}

	var existing int64
	err = tx.Model(&models.Achievement{}).
		Where("tournament_id = ? AND title = ?", t.ID, WinnerTitle).
		Count(&existing).Error
	if err != nil || existing > 0 {
		return nil, err
	}

	description := fmt.Sprintf("Won %s with %d strokes", t.Name, leader.TotalStrokes)
	a := models.Achievement{
		PlayerID:        playerID,
		TournamentID:    &t.ID,
		Title:           WinnerTitle,
		Description:     &description,
		AchievementType: models.AchievementTournament,
	}
	if err := tx.Omit(clause.Associations).Create(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}
