package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/trentd187/golf-tournaments/internal/models"
)

// RecentScoreLimit is how many tournament holes PlayerStats lists.
const RecentScoreLimit = 10

// PlayerListing is a registered player with the global role of their auth user.
type PlayerListing struct {
	Profile models.Profile
	Role    models.AppRole
}

// ListPlayers returns every registered player ordered by name.
func (s *Store) ListPlayers(ctx context.Context) ([]PlayerListing, error) {
	db := s.db.WithContext(ctx)

	var profiles []models.Profile
	if err := db.Order("full_name, created_at").Find(&profiles).Error; err != nil {
		return nil, translate(err, "list players")
	}

	var admins []uuid.UUID
	err := db.Model(&models.UserRole{}).
		Where("role = ?", models.AppRoleAdmin).
		Pluck("user_id", &admins).Error
	if err != nil {
		return nil, translate(err, "list admins")
	}
	isAdmin := make(map[uuid.UUID]bool, len(admins))
	for _, id := range admins {
		isAdmin[id] = true
	}

	out := make([]PlayerListing, len(profiles))
	for i, p := range profiles {
		out[i] = PlayerListing{Profile: p, Role: models.AppRoleUser}
		if isAdmin[p.UserID] {
			out[i].Role = models.AppRoleAdmin
		}
	}
	return out, nil
}

// GetPlayer returns a profile by its id.
func (s *Store) GetPlayer(ctx context.Context, playerID uuid.UUID) (*models.Profile, error) {
	var p models.Profile
	if err := s.db.WithContext(ctx).First(&p, "id = ?", playerID).Error; err != nil {
		return nil, translate(err, "player")
	}
	return &p, nil
}

// RecentScore is one tournament hole from a player's history.
type RecentScore struct {
	TournamentName string
	TournamentDate time.Time
	HoleNumber     int
	Par            int
	Strokes        int
}

// PlayerStats is a player's record across tournaments and practice.
type PlayerStats struct {
	// Scores holds every hole the player has scored, tournament and training alike.
	Scores            []ParScore
	TournamentsPlayed int64
	TrainingSessions  int64
	// Recent lists the latest tournament holes, newest first.
	Recent []RecentScore
}

// PlayerStats gathers the numbers shown on a player's page.
func (s *Store) PlayerStats(ctx context.Context, playerID uuid.UUID) (*PlayerStats, error) {
	db := s.db.WithContext(ctx)
	var stats PlayerStats

	var tournament []ParScore
	err := db.Table("scores").
		Select("holes.par, scores.strokes").
		Joins("JOIN holes ON holes.id = scores.hole_id").
		Where("scores.player_id = ?", playerID).
		Scan(&tournament).Error
	if err != nil {
		return nil, translate(err, "tournament scores")
	}

	var training []ParScore
	err = db.Table("training_scores").
		Select("holes.par, training_scores.strokes").
		Joins("JOIN holes ON holes.id = training_scores.hole_id").
		Joins("JOIN training_sessions ON training_sessions.id = training_scores.session_id").
		Where("training_sessions.player_id = ?", playerID).
		Scan(&training).Error
	if err != nil {
		return nil, translate(err, "training scores")
	}
	stats.Scores = append(tournament, training...)

	err = db.Model(&models.Score{}).
		Where("player_id = ?", playerID).
		Distinct("tournament_id").
		Count(&stats.TournamentsPlayed).Error
	if err != nil {
		return nil, translate(err, "tournaments played")
	}

	err = db.Model(&models.TrainingSession{}).
		Where("player_id = ?", playerID).
		Count(&stats.TrainingSessions).Error
	if err != nil {
		return nil, translate(err, "training sessions")
	}

	err = db.Table("scores").
		Select("tournaments.name AS tournament_name, tournaments.tournament_date, holes.hole_number, holes.par, scores.strokes").
		Joins("JOIN holes ON holes.id = scores.hole_id").
		Joins("JOIN tournaments ON tournaments.id = scores.tournament_id").
		Where("scores.player_id = ?", playerID).
		Order("scores.created_at DESC").
		Limit(RecentScoreLimit).
		Scan(&stats.Recent).Error
	if err != nil {
		return nil, translate(err, "recent scores")
	}
	return &stats, nil
}

// DashboardRecent is how many tournaments the dashboard lists.
const DashboardRecent = 5

// Dashboard is the landing summary for one caller.
type Dashboard struct {
	Tournaments       int64
	ActiveTournaments int64
	TrainingSessions  int64
	Achievements      int64
	// Recent holds the most recently created tournaments, course preloaded.
	Recent []models.Tournament
}

// Dashboard counts tournaments for everyone and practice rounds and achievements for
// playerID. A nil playerID (no profile yet) leaves the personal counts at zero.
func (s *Store) Dashboard(ctx context.Context, playerID *uuid.UUID) (*Dashboard, error) {
	db := s.db.WithContext(ctx)
	var d Dashboard

	if err := db.Model(&models.Tournament{}).Count(&d.Tournaments).Error; err != nil {
		return nil, translate(err, "count tournaments")
	}
	err := db.Model(&models.Tournament{}).
		Where("status = ?", models.TournamentStatusActive).
		Count(&d.ActiveTournaments).Error
	if err != nil {
		return nil, translate(err, "count active tournaments")
	}

	if playerID != nil {
		err := db.Model(&models.TrainingSession{}).Where("player_id = ?", *playerID).Count(&d.TrainingSessions).Error
		if err != nil {
			return nil, translate(err, "count training sessions")
		}
		err = db.Model(&models.Achievement{}).Where("player_id = ?", *playerID).Count(&d.Achievements).Error
		if err != nil {
			return nil, translate(err, "count achievements")
		}
	}

	err = db.Preload("Course").
		Order("created_at DESC").
		Limit(DashboardRecent).
		Find(&d.Recent).Error
	if err != nil {
		return nil, translate(err, "recent tournaments")
	}
	return &d, nil
}
