package store

import (
	"context"
	"crypto/rand"
	"math/big"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/trentd187/golf-tournaments/internal/models"
)

const accessCodeAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// newAccessCode returns a six character code a group captain shares with the group.
func newAccessCode() (string, error) {
	code := make([]byte, 6)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(accessCodeAlphabet))))
		if err != nil {
			return "", err
		}
		code[i] = accessCodeAlphabet[n.Int64()]
	}
	return string(code), nil
}

// NewGroup describes a scorecard group.
type NewGroup struct {
	TournamentID uuid.UUID
	Name         string
	StartingHole *int
	PlayerIDs    []uuid.UUID
	CaptainID    *uuid.UUID
}

// CreateGroup creates a group with its players and a fresh access code.
// The captain, when given, must be one of the players.
func (s *Store) CreateGroup(ctx context.Context, in NewGroup) (*models.TournamentGroup, error) {
	if in.Name == "" {
		return nil, invalid("group_name is required")
	}
	if len(in.PlayerIDs) == 0 {
		return nil, invalid("a group needs at least one player")
	}
	if in.CaptainID != nil {
		found := false
		for _, p := range in.PlayerIDs {
			found = found || p == *in.CaptainID
		}
		if !found {
			return nil, invalid("captain must be one of the group's players")
		}
	}
	code, err := newAccessCode()
	if err != nil {
		return nil, err
	}

	var group models.TournamentGroup
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Select("id").First(&models.Tournament{}, "id = ?", in.TournamentID).Error; err != nil {
			return err
		}
		group = models.TournamentGroup{
			TournamentID: in.TournamentID,
			GroupName:    in.Name,
			AccessCode:   code,
			StartingHole: in.StartingHole,
			CaptainID:    in.CaptainID,
		}
		if err := tx.Omit(clause.Associations).Create(&group).Error; err != nil {
			return err
		}
		players := make([]models.GroupPlayer, len(in.PlayerIDs))
		for i, pid := range in.PlayerIDs {
			players[i] = models.GroupPlayer{
				GroupID:   group.ID,
				PlayerID:  pid,
				IsCaptain: in.CaptainID != nil && *in.CaptainID == pid,
			}
		}
		if err := tx.Create(&players).Error; err != nil {
			return err
		}
		return tx.Preload("Players").First(&group, "id = ?", group.ID).Error
	})
	if err != nil {
		return nil, translate(err, "create group")
	}
	return &group, nil
}

// ListGroups returns the groups of a tournament with their players.
func (s *Store) ListGroups(ctx context.Context, tournamentID uuid.UUID) ([]models.TournamentGroup, error) {
	var groups []models.TournamentGroup
	err := s.db.WithContext(ctx).
		Preload("Players").
		Where("tournament_id = ?", tournamentID).
		Order("group_name").
		Find(&groups).Error
	if err != nil {
		return nil, translate(err, "list groups")
	}
	return groups, nil
}

// RegenerateAccessCode replaces a group's access code.
func (s *Store) RegenerateAccessCode(ctx context.Context, groupID uuid.UUID) (string, error) {
	code, err := newAccessCode()
	if err != nil {
		return "", err
	}
	res := s.db.WithContext(ctx).Model(&models.TournamentGroup{}).Where("id = ?", groupID).Update("access_code", code)
	if res.Error != nil {
		return "", translate(res.Error, "regenerate access code")
	}
	if res.RowsAffected == 0 {
		return "", translate(gorm.ErrRecordNotFound, "group")
	}
	return code, nil
}

// CanRecordScore reports whether recorder may enter a score for player in a
// tournament: players record their own scores and captains record for their group.
func (s *Store) CanRecordScore(ctx context.Context, tournamentID, recorder, player uuid.UUID) (bool, error) {
	if recorder == player {
		return true, nil
	}
	var n int64
	err := s.db.WithContext(ctx).
		Table("group_players AS captain").
		Joins("JOIN tournament_groups ON tournament_groups.id = captain.group_id").
		Joins("JOIN group_players AS member ON member.group_id = captain.group_id").
		Where("tournament_groups.tournament_id = ?", tournamentID).
		Where("captain.player_id = ? AND captain.is_captain = ?", recorder, true).
		Where("member.player_id = ?", player).
		Count(&n).Error
	if err != nil {
		return false, translate(err, "score permission")
	}
	return n > 0, nil
}
