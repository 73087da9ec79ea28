package handlers

// players.go handles the /api/v1/players routes: the admin player list, promoting a
// player's account and the per-player statistics page.

import (
	"github.com/gofiber/fiber/v2"

	"github.com/trentd187/golf-tournaments/internal/advisor"
	"github.com/trentd187/golf-tournaments/internal/leaderboard"
	"github.com/trentd187/golf-tournaments/internal/models"
	"github.com/trentd187/golf-tournaments/internal/store"
)

// ListPlayers returns a handler for GET /api/v1/players (admin only).
func ListPlayers(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		players, err := st.ListPlayers(c.UserContext())
		if err != nil {
			return storeError(err, "failed to fetch players")
		}
		response := make([]ProfileResponse, 0, len(players))
		for _, p := range players {
			response = append(response, newProfileResponse(p.Profile, p.Role))
		}
		return c.JSON(response)
	}
}

// GrantRoleRequest is the JSON body expected on POST /api/v1/players/:id/role.
type GrantRoleRequest struct {
	Role string `json:"role"`
}

// GrantPlayerRole returns a handler for POST /api/v1/players/:id/role (admin only).
// The role is granted to the auth user behind the player profile.
func GrantPlayerRole(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		playerID, err := parseUUID(c.Params("id"), "id")
		if err != nil {
			return err
		}
		var req GrantRoleRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid request body",
			})
		}

		ctx := c.UserContext()
		p, err := st.GetPlayer(ctx, playerID)
		if err != nil {
			return storeError(err, "failed to fetch player")
		}
		if err := st.GrantRole(ctx, p.UserID, models.AppRole(req.Role)); err != nil {
			return storeError(err, "failed to grant role")
		}
		role, err := st.RoleFor(ctx, p.UserID)
		if err != nil {
			return storeError(err, "failed to fetch role")
		}
		return c.JSON(newProfileResponse(*p, role))
	}
}

// ParAverages is the mean strokes per par category; 0 when no hole of that par was played.
type ParAverages struct {
	Par3 float64 `json:"par3"`
	Par4 float64 `json:"par4"`
	Par5 float64 `json:"par5"`
}

// RecentScoreResponse is one tournament hole on the player page.
type RecentScoreResponse struct {
	TournamentName string `json:"tournament_name"`
	TournamentDate string `json:"tournament_date"`
	HoleNumber     int    `json:"hole_number"`
	Par            int    `json:"par"`
	Strokes        int    `json:"strokes"`
	Label          string `json:"label"`
}

// PlayerStatsResponse is the player page. Contact details are left out because any
// signed-in user may view it.
type PlayerStatsResponse struct {
	PlayerID          string                `json:"player_id"`
	FullName          string                `json:"full_name"`
	Handicap          *float64              `json:"handicap"`
	TournamentsPlayed int64                 `json:"tournaments_played"`
	TrainingSessions  int64                 `json:"training_sessions"`
	Averages          ParAverages           `json:"averages"`
	RecentScores      []RecentScoreResponse `json:"recent_scores"`
	Achievements      []AchievementResponse `json:"achievements"`
}

// PlayerStats returns a handler for GET /api/v1/players/:id/stats.
// Averages cover tournament and training holes together.
func PlayerStats(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		playerID, err := parseUUID(c.Params("id"), "id")
		if err != nil {
			return err
		}

		ctx := c.UserContext()
		p, err := st.GetPlayer(ctx, playerID)
		if err != nil {
			return storeError(err, "failed to fetch player")
		}
		stats, err := st.PlayerStats(ctx, playerID)
		if err != nil {
			return storeError(err, "failed to fetch player statistics")
		}
		achievements, err := st.ListAchievements(ctx, playerID)
		if err != nil {
			return storeError(err, "failed to fetch achievements")
		}

		byPar := advisor.Summarize(stats.Scores)
		response := PlayerStatsResponse{
			PlayerID:          p.ID.String(),
			FullName:          p.FullName,
			Handicap:          p.Handicap,
			TournamentsPlayed: stats.TournamentsPlayed,
			TrainingSessions:  stats.TrainingSessions,
			Averages: ParAverages{
				Par3: byPar.Par3.Avg(),
				Par4: byPar.Par4.Avg(),
				Par5: byPar.Par5.Avg(),
			},
			RecentScores: make([]RecentScoreResponse, 0, len(stats.Recent)),
			Achievements: make([]AchievementResponse, 0, len(achievements)),
		}
		for _, r := range stats.Recent {
			response.RecentScores = append(response.RecentScores, RecentScoreResponse{
				TournamentName: r.TournamentName,
				TournamentDate: formatDate(r.TournamentDate),
				HoleNumber:     r.HoleNumber,
				Par:            r.Par,
				Strokes:        r.Strokes,
				Label:          leaderboard.ScoreToParLabel(r.Strokes, r.Par),
			})
		}
		for _, a := range achievements {
			response.Achievements = append(response.Achievements, newAchievementResponse(a))
		}
		return c.JSON(response)
	}
}
