package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/trentd187/golf-tournaments/internal/leaderboard"
	"github.com/trentd187/golf-tournaments/internal/models"
)

var _ leaderboard.Source = (*Store)(nil)

// scoreRow is the fixed result shape of the leaderboard query. The hole and profile
// columns come from LEFT JOINs and are NULL when the join finds nothing.
type scoreRow struct {
	PlayerID   string
	PlayerName *string
	Strokes    int
	NetStrokes *int
	HoleNumber *int
	Par        *int
}

// FetchTournamentName returns the display name of a tournament.
func (s *Store) FetchTournamentName(ctx context.Context, tournamentID string) (string, error) {
	id, err := parseID(tournamentID, "tournament")
	if err != nil {
		return "", err
	}
	var t models.Tournament
	err = s.db.WithContext(ctx).Select("name").First(&t, "id = ?", id).Error
	if err != nil {
		return "", translate(err, "fetch tournament name")
	}
	return t.Name, nil
}

// FetchScores returns every score of a tournament joined with its hole and player.
// Rows come back in recording order, which is the order players are first seen by
// the standings tie-break.
func (s *Store) FetchScores(ctx context.Context, tournamentID string) ([]leaderboard.ScoreRow, error) {
	id, err := parseID(tournamentID, "tournament")
	if err != nil {
		return nil, err
	}
	rows, err := scoreRows(s.db.WithContext(ctx), id)
	if err != nil {
		return nil, translate(err, "fetch scores")
	}
	return rows, nil
}

func scoreRows(db *gorm.DB, tournamentID uuid.UUID) ([]leaderboard.ScoreRow, error) {
	var raw []scoreRow
	err := db.Table("scores").
		Select("scores.player_id, profiles.full_name AS player_name, scores.strokes, scores.net_strokes, holes.hole_number, holes.par").
		Joins("LEFT JOIN holes ON holes.id = scores.hole_id").
		Joins("LEFT JOIN profiles ON profiles.id = scores.player_id").
		Where("scores.tournament_id = ?", tournamentID).
		Order("scores.created_at, scores.id").
		Scan(&raw).Error
	if err != nil {
		return nil, err
	}

	rows := make([]leaderboard.ScoreRow, len(raw))
	for i, r := range raw {
		rows[i] = leaderboard.ScoreRow(r)
	}
	return rows, nil
}

// ScoreInput is one hole result to record.
type ScoreInput struct {
	TournamentID uuid.UUID
	HoleID       uuid.UUID
	PlayerID     uuid.UUID
	Strokes      int
	NetStrokes   *int
	RecordedBy   uuid.UUID
}

// UpsertScore records a score, replacing any earlier score of the same player on the
// same hole of the same tournament. Scores can only be written while the tournament
// is active or sent back for adjustment.
func (s *Store) UpsertScore(ctx context.Context, in ScoreInput) (*models.Score, error) {
	if in.Strokes <= 0 {
		return nil, invalid("strokes must be positive")
	}
	if in.NetStrokes != nil && *in.NetStrokes <= 0 {
		return nil, invalid("net_strokes must be positive")
	}

	var saved models.Score
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var t models.Tournament
		if err := tx.First(&t, "id = ?", in.TournamentID).Error; err != nil {
			return translate(err, "tournament")
		}
		if t.Status != models.TournamentStatusActive && t.Status != models.TournamentStatusNeedsAdjustment {
			return fmt.Errorf("tournament is %s: %w", t.Status, ErrInvalidTransition)
		}

		var hole models.Hole
		if err := tx.First(&hole, "id = ?", in.HoleID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return invalid("unknown hole")
			}
			return err
		}
		if hole.CourseID != t.CourseID {
			return invalid("hole %d belongs to another course", hole.HoleNumber)
		}

		if err := tx.First(&models.Profile{}, "id = ?", in.PlayerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return invalid("unknown player")
			}
			return err
		}

		score := models.Score{
			TournamentID: in.TournamentID,
			HoleID:       in.HoleID,
			PlayerID:     in.PlayerID,
			Strokes:      in.Strokes,
			NetStrokes:   in.NetStrokes,
			RecordedBy:   in.RecordedBy,
		}
		err := tx.Omit(clause.Associations).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tournament_id"}, {Name: "hole_id"}, {Name: "player_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"strokes", "net_strokes", "recorded_by", "confirmed"}),
		}).Create(&score).Error
		if err != nil {
			return err
		}

		// On conflict the row keeps its original id, so read it back.
		return tx.Preload("Hole").
			Where("tournament_id = ? AND hole_id = ? AND player_id = ?", in.TournamentID, in.HoleID, in.PlayerID).
			First(&saved).Error
	})
	if err != nil {
		return nil, translate(err, "upsert score")
	}
	return &saved, nil
}

// DeleteScore removes a score and returns it so the caller knows which tournament
// changed.
func (s *Store) DeleteScore(ctx context.Context, scoreID string) (*models.Score, error) {
	id, err := parseID(scoreID, "score")
	if err != nil {
		return nil, err
	}
	var score models.Score
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&score, "id = ?", id).Error; err != nil {
			return err
		}
		var t models.Tournament
		if err := tx.Select("status").First(&t, "id = ?", score.TournamentID).Error; err != nil {
			return err
		}
		if t.Status == models.TournamentStatusCompleted {
			return fmt.Errorf("tournament is %s: %w", t.Status, ErrInvalidTransition)
		}
		return tx.Delete(&models.Score{}, "id = ?", id).Error
	})
	if err != nil {
		return nil, translate(err, "delete score")
	}
	return &score, nil
}

// ConfirmScores marks every score of a player in a tournament as confirmed.
// It returns how many rows changed.
func (s *Store) ConfirmScores(ctx context.Context, tournamentID, playerID uuid.UUID) (int64, error) {
	res := s.db.WithContext(ctx).
		Model(&models.Score{}).
		Where("tournament_id = ? AND player_id = ? AND confirmed = ?", tournamentID, playerID, false).
		Update("confirmed", true)
	if res.Error != nil {
		return 0, translate(res.Error, "confirm scores")
	}
	return res.RowsAffected, nil
}
