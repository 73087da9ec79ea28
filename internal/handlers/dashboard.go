package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/trentd187/golf-tournaments/internal/store"
)

// DashboardResponse is the landing page summary.
type DashboardResponse struct {
	Tournaments       int64                `json:"tournaments"`
	ActiveTournaments int64                `json:"active_tournaments"`
	TrainingSessions  int64                `json:"training_sessions"`
	Achievements      int64                `json:"achievements"`
	Role              string               `json:"role"`
	RecentTournaments []TournamentResponse `json:"recent_tournaments"`
}

// Dashboard returns a handler for GET /api/v1/dashboard.
// Callers without a player profile get zero personal counts.
func Dashboard(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := identity(c)
		if err != nil {
			return err
		}
		d, err := st.Dashboard(c.UserContext(), id.ProfileID)
		if err != nil {
			return storeError(err, "failed to load dashboard")
		}

		response := DashboardResponse{
			Tournaments:       d.Tournaments,
			ActiveTournaments: d.ActiveTournaments,
			TrainingSessions:  d.TrainingSessions,
			Achievements:      d.Achievements,
			Role:              string(id.Role),
			RecentTournaments: make([]TournamentResponse, 0, len(d.Recent)),
		}
		for _, t := range d.Recent {
			response.RecentTournaments = append(response.RecentTournaments, newTournamentResponse(t))
		}
		return c.JSON(response)
	}
}
