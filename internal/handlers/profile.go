package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/trentd187/golf-tournaments/internal/models"
	"github.com/trentd187/golf-tournaments/internal/store"
)

// ProfileResponse is the caller's player profile plus their global role.
type ProfileResponse struct {
	ID       string   `json:"id"`
	UserID   string   `json:"user_id"`
	FullName string   `json:"full_name"`
	CPF      string   `json:"cpf"`
	Phone    *string  `json:"phone"`
	Handicap *float64 `json:"handicap"`
	Role     string   `json:"role"`
}

func newProfileResponse(p models.Profile, role models.AppRole) ProfileResponse {
	return ProfileResponse{
		ID:       p.ID.String(),
		UserID:   p.UserID.String(),
		FullName: p.FullName,
		CPF:      p.CPF,
		Phone:    p.Phone,
		Handicap: p.Handicap,
		Role:     string(role),
	}
}

// SaveProfileRequest is the JSON body expected on PUT /api/v1/profile.
type SaveProfileRequest struct {
	FullName string   `json:"full_name"`
	CPF      string   `json:"cpf"`
	Phone    *string  `json:"phone"`
	Handicap *float64 `json:"handicap"`
}

// GetProfile returns a handler for GET /api/v1/profile.
// Answers 404 until the caller has registered.
func GetProfile(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := identity(c)
		if err != nil {
			return err
		}
		p, err := st.ProfileByUserID(c.UserContext(), id.UserID)
		if err != nil {
			return storeError(err, "failed to fetch profile")
		}
		return c.JSON(newProfileResponse(*p, id.Role))
	}
}

// SaveProfile returns a handler for PUT /api/v1/profile. The first call registers the
// caller as a player; later calls update the profile.
func SaveProfile(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := identity(c)
		if err != nil {
			return err
		}
		var req SaveProfileRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid request body",
			})
		}

		p, err := st.SaveProfile(c.UserContext(), id.UserID, store.ProfileInput{
			FullName: req.FullName,
			CPF:      req.CPF,
			Phone:    req.Phone,
			Handicap: req.Handicap,
		})
		if err != nil {
			return storeError(err, "failed to save profile")
		}
		return c.JSON(newProfileResponse(*p, id.Role))
	}
}
