package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/trentd187/golf-tournaments/internal/models"
	"github.com/trentd187/golf-tournaments/internal/store"
)

// AchievementResponse is one earned badge.
type AchievementResponse struct {
	ID              string  `json:"id"`
	PlayerID        string  `json:"player_id"`
	Title           string  `json:"title"`
	Description     *string `json:"description"`
	AchievementType string  `json:"achievement_type"`
	TournamentID    *string `json:"tournament_id"`
	TournamentName  *string `json:"tournament_name"`
	EarnedAt        string  `json:"earned_at"`
}

func newAchievementResponse(a models.Achievement) AchievementResponse {
	r := AchievementResponse{
		ID:              a.ID.String(),
		PlayerID:        a.PlayerID.String(),
		Title:           a.Title,
		Description:     a.Description,
		AchievementType: string(a.AchievementType),
		EarnedAt:        a.EarnedAt.UTC().Format(time.RFC3339),
	}
	if a.TournamentID != nil {
		id := a.TournamentID.String()
		r.TournamentID = &id
	}
	if a.Tournament != nil {
		r.TournamentName = &a.Tournament.Name
	}
	return r
}

// ListAchievements returns a handler for GET /api/v1/achievements: the caller's badges,
// most recent first.
func ListAchievements(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := playerIdentity(c)
		if err != nil {
			return err
		}
		list, err := st.ListAchievements(c.UserContext(), *id.ProfileID)
		if err != nil {
			return storeError(err, "failed to fetch achievements")
		}
		response := make([]AchievementResponse, 0, len(list))
		for _, a := range list {
			response = append(response, newAchievementResponse(a))
		}
		return c.JSON(response)
	}
}
