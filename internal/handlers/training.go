package handlers

import (
	"slices"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/trentd187/golf-tournaments/internal/advisor"
	"github.com/trentd187/golf-tournaments/internal/leaderboard"
	"github.com/trentd187/golf-tournaments/internal/models"
	"github.com/trentd187/golf-tournaments/internal/store"
)

// TrainingSessionRequest is the JSON body expected on POST /api/v1/training-sessions.
type TrainingSessionRequest struct {
	CourseID    string  `json:"course_id"`
	SessionDate *string `json:"session_date"` // "YYYY-MM-DD", defaults to today
	Completed   bool    `json:"completed"`
	Scores      []struct {
		HoleID  string `json:"hole_id"`
		Strokes int    `json:"strokes"`
	} `json:"scores"`
}

// TrainingScoreResponse is one hole of a practice round.
type TrainingScoreResponse struct {
	HoleID     string `json:"hole_id"`
	HoleNumber int    `json:"hole_number"`
	Par        int    `json:"par"`
	Strokes    int    `json:"strokes"`
	Label      string `json:"label"`
}

// TrainingSessionResponse is a stored practice round with its totals.
// Differential is strokes minus the par of the holes played.
type TrainingSessionResponse struct {
	ID           string                  `json:"id"`
	CourseID     string                  `json:"course_id"`
	CourseName   string                  `json:"course_name"`
	SessionDate  string                  `json:"session_date"`
	Completed    bool                    `json:"completed"`
	Holes        int                     `json:"holes"`
	Strokes      int                     `json:"strokes"`
	Par          int                     `json:"par"`
	Differential int                     `json:"differential"`
	Scores       []TrainingScoreResponse `json:"scores"`
}

func newTrainingSessionResponse(s models.TrainingSession) TrainingSessionResponse {
	r := TrainingSessionResponse{
		ID:          s.ID.String(),
		CourseID:    s.CourseID.String(),
		CourseName:  s.Course.Name,
		SessionDate: formatDate(s.SessionDate),
		Completed:   s.Completed,
		Holes:       len(s.Scores),
		Scores:      make([]TrainingScoreResponse, 0, len(s.Scores)),
	}
	for _, sc := range s.Scores {
		r.Strokes += sc.Strokes
		r.Par += sc.Hole.Par
		r.Scores = append(r.Scores, TrainingScoreResponse{
			HoleID:     sc.HoleID.String(),
			HoleNumber: sc.Hole.HoleNumber,
			Par:        sc.Hole.Par,
			Strokes:    sc.Strokes,
			Label:      leaderboard.ScoreToParLabel(sc.Strokes, sc.Hole.Par),
		})
	}
	r.Differential = r.Strokes - r.Par
	slices.SortFunc(r.Scores, func(a, b TrainingScoreResponse) int { return a.HoleNumber - b.HoleNumber })
	return r
}

// CreateTrainingSession returns a handler for POST /api/v1/training-sessions. The
// session is always recorded for the caller.
func CreateTrainingSession(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := playerIdentity(c)
		if err != nil {
			return err
		}

		var req TrainingSessionRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid request body",
			})
		}
		courseID, err := parseUUID(req.CourseID, "course_id")
		if err != nil {
			return err
		}
		date, err := parseOptionalDate(req.SessionDate)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "session_date must be in YYYY-MM-DD format",
			})
		}

		in := store.NewTrainingSession{
			PlayerID:  *id.ProfileID,
			CourseID:  courseID,
			Date:      date,
			Completed: req.Completed,
		}
		for _, sc := range req.Scores {
			holeID, err := parseUUID(sc.HoleID, "hole_id")
			if err != nil {
				return err
			}
			in.Scores = append(in.Scores, store.TrainingScoreInput{HoleID: holeID, Strokes: sc.Strokes})
		}

		session, err := st.CreateTrainingSession(c.UserContext(), in)
		if err != nil {
			return storeError(err, "failed to save training session")
		}

		return c.Status(fiber.StatusCreated).JSON(newTrainingSessionResponse(*session))
	}
}

// ListTrainingSessions returns a handler for GET /api/v1/training-sessions: the
// caller's practice rounds, latest first.
func ListTrainingSessions(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := playerIdentity(c)
		if err != nil {
			return err
		}
		sessions, err := st.ListTrainingSessions(c.UserContext(), *id.ProfileID)
		if err != nil {
			return storeError(err, "failed to fetch training sessions")
		}
		response := make([]TrainingSessionResponse, 0, len(sessions))
		for _, s := range sessions {
			response = append(response, newTrainingSessionResponse(s))
		}
		return c.JSON(response)
	}
}

// DeleteTrainingSession returns a handler for DELETE /api/v1/training-sessions/:id.
// Players delete their own rounds; admins may delete any.
func DeleteTrainingSession(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := identity(c)
		if err != nil {
			return err
		}
		sessionID, err := parseUUID(c.Params("id"), "id")
		if err != nil {
			return err
		}

		var owner *uuid.UUID
		if !id.IsAdmin() {
			if id.ProfileID == nil {
				return fiber.NewError(fiber.StatusForbidden, "register a player profile first")
			}
			owner = id.ProfileID
		}
		if err := st.DeleteTrainingSession(c.UserContext(), sessionID, owner); err != nil {
			return storeError(err, "failed to delete training session")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// AdviceRequest is the JSON body expected on POST /api/v1/advice.
type AdviceRequest struct {
	PlayerID string `json:"player_id"`
}

// Advice returns a handler for POST /api/v1/advice.
//
// Failures answer 500 with both an error and a fallback tip, so clients always have
// something to show.
func Advice(a *advisor.Advisor) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req AdviceRequest
		if err := c.BodyParser(&req); err != nil || req.PlayerID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "player_id is required",
			})
		}
		playerID, err := parseUUID(req.PlayerID, "player_id")
		if err != nil {
			return err
		}

		advice, err := a.Advise(c.UserContext(), playerID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error":  "failed to generate advice",
				"advice": advisor.FailureMessage,
			})
		}
		return c.JSON(advice)
	}
}
