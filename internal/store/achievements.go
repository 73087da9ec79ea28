package store

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm/clause"

	"github.com/trentd187/golf-tournaments/internal/models"
)

// ListAchievements returns a player's achievements, most recent first.
func (s *Store) ListAchievements(ctx context.Context, playerID uuid.UUID) ([]models.Achievement, error) {
	var out []models.Achievement
	err := s.db.WithContext(ctx).
		Preload("Tournament").
		Where("player_id = ?", playerID).
		Order("earned_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, translate(err, "list achievements")
	}
	return out, nil
}

// AwardAchievement stores an achievement.
func (s *Store) AwardAchievement(ctx context.Context, a *models.Achievement) error {
	if a.Title == "" {
		return invalid("title is required")
	}
	switch a.AchievementType {
	case models.AchievementTournament, models.AchievementScore, models.AchievementConsistency:
	default:
		return invalid("unknown achievement type %q", a.AchievementType)
	}
	return translate(s.db.WithContext(ctx).Omit(clause.Associations).Create(a).Error, "award achievement")
}
