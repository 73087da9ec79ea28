package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/trentd187/golf-tournaments/internal/models"
)

// TrainingScoreInput is one hole of a practice round.
type TrainingScoreInput struct {
	HoleID  uuid.UUID
	Strokes int
}

// NewTrainingSession describes a practice round.
type NewTrainingSession struct {
	PlayerID  uuid.UUID
	CourseID  uuid.UUID
	Date      time.Time
	Completed bool
	Scores    []TrainingScoreInput
}

// CreateTrainingSession stores a practice round with its hole scores. Every hole must
// belong to the session's course.
func (s *Store) CreateTrainingSession(ctx context.Context, in NewTrainingSession) (*models.TrainingSession, error) {
	if in.Date.IsZero() {
		in.Date = time.Now()
	}
	for _, sc := range in.Scores {
		if sc.Strokes <= 0 {
			return nil, invalid("strokes must be positive")
		}
	}

	var session models.TrainingSession
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(in.Scores) > 0 {
			ids := make([]uuid.UUID, len(in.Scores))
			for i, sc := range in.Scores {
				ids[i] = sc.HoleID
			}
			var onCourse int64
			err := tx.Model(&models.Hole{}).
				Where("course_id = ? AND id IN ?", in.CourseID, ids).
				Distinct("id").
				Count(&onCourse).Error
			if err != nil {
				return err
			}
			if int(onCourse) != len(uniqueIDs(ids)) {
				return invalid("every hole must belong to the session's course")
			}
		}

		session = models.TrainingSession{
			PlayerID:    in.PlayerID,
			CourseID:    in.CourseID,
			SessionDate: in.Date,
			Completed:   in.Completed,
		}
		if err := tx.Omit(clause.Associations).Create(&session).Error; err != nil {
			return err
		}
		if len(in.Scores) == 0 {
			return nil
		}
		scores := make([]models.TrainingScore, len(in.Scores))
		for i, sc := range in.Scores {
			scores[i] = models.TrainingScore{SessionID: session.ID, HoleID: sc.HoleID, Strokes: sc.Strokes}
		}
		if err := tx.Omit(clause.Associations).Create(&scores).Error; err != nil {
			return err
		}
		session.Scores = scores
		return nil
	})
	if err != nil {
		return nil, translate(err, "create training session")
	}
	return s.trainingSession(ctx, session.ID)
}

func (s *Store) trainingSession(ctx context.Context, id uuid.UUID) (*models.TrainingSession, error) {
	var session models.TrainingSession
	err := s.db.WithContext(ctx).
		Preload("Course").
		Preload("Scores.Hole").
		First(&session, "id = ?", id).Error
	if err != nil {
		return nil, translate(err, "training session")
	}
	return &session, nil
}

// ListTrainingSessions returns a player's practice rounds with their course and scored
// holes, latest first.
func (s *Store) ListTrainingSessions(ctx context.Context, playerID uuid.UUID) ([]models.TrainingSession, error) {
	var out []models.TrainingSession
	err := s.db.WithContext(ctx).
		Preload("Course").
		Preload("Scores.Hole").
		Where("player_id = ?", playerID).
		Order("session_date DESC, created_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, translate(err, "list training sessions")
	}
	return out, nil
}

// DeleteTrainingSession removes a practice round and its scores. With a non-nil owner
// only that player's rounds can be deleted; anyone else's round is reported as not found.
func (s *Store) DeleteTrainingSession(ctx context.Context, sessionID uuid.UUID, owner *uuid.UUID) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Where("id = ?", sessionID)
		if owner != nil {
			q = q.Where("player_id = ?", *owner)
		}
		var session models.TrainingSession
		if err := q.First(&session).Error; err != nil {
			return err
		}
		if err := tx.Where("session_id = ?", session.ID).Delete(&models.TrainingScore{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.TrainingSession{}, "id = ?", session.ID).Error
	})
	return translate(err, "delete training session")
}

// ParScore is one practice hole reduced to what the advisor needs.
type ParScore struct {
	Par     int
	Strokes int
}

// TrainingHistory is a player's recent completed practice rounds: how many there were
// and every hole scored in them. Sessions can be non-zero with no Scores when rounds
// were closed before any hole was entered.
type TrainingHistory struct {
	Sessions int
	Scores   []ParScore
}

// RecentTraining loads the player's most recently logged completed practice rounds, at
// most sessions rounds.
func (s *Store) RecentTraining(ctx context.Context, playerID uuid.UUID, sessions int) (*TrainingHistory, error) {
	db := s.db.WithContext(ctx)

	var ids []uuid.UUID
	err := db.Model(&models.TrainingSession{}).
		Where("player_id = ? AND completed = ?", playerID, true).
		Order("created_at DESC").
		Limit(sessions).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, translate(err, "recent training sessions")
	}
	history := &TrainingHistory{Sessions: len(ids)}
	if len(ids) == 0 {
		return history, nil
	}

	err = db.Table("training_scores").
		Select("holes.par, training_scores.strokes").
		Joins("JOIN holes ON holes.id = training_scores.hole_id").
		Where("training_scores.session_id IN ?", ids).
		Scan(&history.Scores).Error
	if err != nil {
		return nil, translate(err, "training scores")
	}
	return history, nil
}

func uniqueIDs(ids []uuid.UUID) map[uuid.UUID]bool {
	set := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
