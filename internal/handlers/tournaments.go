package handlers

// tournaments.go handles the /api/v1/tournaments routes: listing, creating and moving
// tournaments through their lifecycle.
//
// Status lifecycle (enforced by store.CanTransition):
//
//	planned -> active -> completed
//	             |  ^        ^
//	             v  |        |
//	       needs_adjustment -+
//
// Completing a tournament awards "Tournament Winner" to the leader of the final standings.

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/trentd187/golf-tournaments/internal/models"
	"github.com/trentd187/golf-tournaments/internal/store"
)

// TournamentResponse is what we send back to clients.
// A dedicated response struct (instead of the raw GORM model) controls exactly which
// fields are serialised.
type TournamentResponse struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Slug           string `json:"slug"`
	TournamentDate string `json:"tournament_date"` // "YYYY-MM-DD"
	Status         string `json:"status"`
	CourseID       string `json:"course_id"`
	CourseName     string `json:"course_name"`
	CreatedAt      string `json:"created_at"` // RFC 3339
}

func newTournamentResponse(t models.Tournament) TournamentResponse {
	return TournamentResponse{
		ID:             t.ID.String(),
		Name:           t.Name,
		Slug:           t.Slug,
		TournamentDate: formatDate(t.TournamentDate),
		Status:         string(t.Status),
		CourseID:       t.CourseID.String(),
		CourseName:     t.Course.Name,
		CreatedAt:      t.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// CreateTournamentRequest is the JSON body expected on POST /api/v1/tournaments.
type CreateTournamentRequest struct {
	Name           string  `json:"name"`
	TournamentDate *string `json:"tournament_date"` // "YYYY-MM-DD"
	CourseID       string  `json:"course_id"`
}

// UpdateStatusRequest is the JSON body expected on PATCH .../status.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// StatusChangeResponse reports a status change and, on completion, the winner.
type StatusChangeResponse struct {
	Tournament TournamentResponse   `json:"tournament"`
	From       string               `json:"from"`
	Winner     *AchievementResponse `json:"winner,omitempty"`
}

// ListTournaments returns a handler for GET /api/v1/tournaments.
// Optional query param: ?status=active to filter by status.
func ListTournaments(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		status := models.TournamentStatus(c.Query("status"))
		if status != "" && !status.Valid() {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "status must be planned, active, completed or needs_adjustment",
			})
		}

		ts, err := st.ListTournaments(c.UserContext(), status)
		if err != nil {
			return storeError(err, "failed to fetch tournaments")
		}

		response := make([]TournamentResponse, 0, len(ts))
		for _, t := range ts {
			response = append(response, newTournamentResponse(t))
		}
		return c.JSON(response)
	}
}

// GetTournament returns a handler for GET /api/v1/tournaments/:tournament.
// The :tournament parameter is either the id or the slug.
func GetTournament(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		t, err := st.GetTournament(c.UserContext(), c.Params("tournament"))
		if err != nil {
			return storeError(err, "failed to fetch tournament")
		}
		return c.JSON(newTournamentResponse(*t))
	}
}

// CreateTournament returns a handler for POST /api/v1/tournaments (admin only).
// New tournaments start out planned.
func CreateTournament(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := identity(c)
		if err != nil {
			return err
		}

		var req CreateTournamentRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid request body",
			})
		}
		date, err := parseOptionalDate(req.TournamentDate)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "tournament_date must be in YYYY-MM-DD format",
			})
		}
		courseID, err := parseUUID(req.CourseID, "course_id")
		if err != nil {
			return err
		}

		t, err := st.CreateTournament(c.UserContext(), store.NewTournament{
			Name:      req.Name,
			Date:      date,
			CourseID:  courseID,
			CreatedBy: id.UserID,
		})
		if err != nil {
			return storeError(err, "failed to create tournament")
		}
		return c.Status(fiber.StatusCreated).JSON(newTournamentResponse(*t))
	}
}

// UpdateTournamentStatus returns a handler for PATCH /api/v1/tournaments/:tournament/status
// (admin only). Disallowed transitions answer 409 Conflict.
func UpdateTournamentStatus(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req UpdateStatusRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid request body",
			})
		}

		ctx := c.UserContext()
		t, err := st.GetTournament(ctx, c.Params("tournament"))
		if err != nil {
			return storeError(err, "failed to fetch tournament")
		}
		change, err := st.UpdateTournamentStatus(ctx, t.ID, models.TournamentStatus(req.Status))
		if err != nil {
			return storeError(err, "failed to update tournament")
		}

		// The store returns the row without its course; reuse the one loaded above.
		change.Tournament.Course = t.Course
		response := StatusChangeResponse{
			Tournament: newTournamentResponse(change.Tournament),
			From:       string(change.From),
		}
		if change.Winner != nil {
			w := newAchievementResponse(*change.Winner)
			response.Winner = &w
		}
		return c.JSON(response)
	}
}
