package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/trentd187/golf-tournaments/internal/models"
)

// ProfileInput is the registration data a player fills in.
type ProfileInput struct {
	FullName string
	CPF      string
	Phone    *string
	Handicap *float64
}

// ProfileByUserID returns the profile of an auth user.
func (s *Store) ProfileByUserID(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	var p models.Profile
	if err := s.db.WithContext(ctx).First(&p, "user_id = ?", userID).Error; err != nil {
		return nil, translate(err, "profile")
	}
	return &p, nil
}

// SaveProfile creates the profile of an auth user on first call and updates it after.
func (s *Store) SaveProfile(ctx context.Context, userID uuid.UUID, in ProfileInput) (*models.Profile, error) {
	if in.FullName == "" {
		return nil, invalid("full_name is required")
	}
	if in.Handicap != nil && (*in.Handicap < -10 || *in.Handicap > 54) {
		return nil, invalid("handicap must be between -10 and 54")
	}

	var p models.Profile
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.First(&p, "user_id = ?", userID).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			p = models.Profile{UserID: userID}
		case err != nil:
			return err
		}
		p.FullName = in.FullName
		p.CPF = in.CPF
		p.Phone = in.Phone
		p.Handicap = in.Handicap
		return tx.Save(&p).Error
	})
	if err != nil {
		return nil, translate(err, "save profile")
	}
	return &p, nil
}

// RoleFor returns the strongest role granted to an auth user. Users without any
// user_roles row are plain users.
func (s *Store) RoleFor(ctx context.Context, userID uuid.UUID) (models.AppRole, error) {
	var roles []models.AppRole
	err := s.db.WithContext(ctx).
		Model(&models.UserRole{}).
		Where("user_id = ?", userID).
		Pluck("role", &roles).Error
	if err != nil {
		return "", translate(err, "role lookup")
	}
	for _, r := range roles {
		if r == models.AppRoleAdmin {
			return models.AppRoleAdmin, nil
		}
	}
	return models.AppRoleUser, nil
}

// GrantRole gives an auth user a role. Granting a role the user already has is a no-op.
func (s *Store) GrantRole(ctx context.Context, userID uuid.UUID, role models.AppRole) error {
	if role != models.AppRoleAdmin && role != models.AppRoleUser {
		return invalid("unknown role %q", role)
	}
	err := s.db.WithContext(ctx).
		Where(models.UserRole{UserID: userID, Role: role}).
		FirstOrCreate(&models.UserRole{}).Error
	return translate(err, "grant role")
}
