package handlers

// scores.go handles recording, confirming and deleting hole scores.
//
// --- Permission model ---
//   - admins may record a score for anyone
//   - players record their own scores
//   - a group captain records scores for the players of their group
//
// Every successful write is reported to the change feed so open leaderboards refetch.

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/trentd187/golf-tournaments/internal/changefeed"
	"github.com/trentd187/golf-tournaments/internal/leaderboard"
	"github.com/trentd187/golf-tournaments/internal/models"
	"github.com/trentd187/golf-tournaments/internal/store"
)

// RecordScoreRequest is the JSON body expected on POST .../scores.
// PlayerID defaults to the caller.
type RecordScoreRequest struct {
	HoleID     string  `json:"hole_id"`
	PlayerID   *string `json:"player_id"`
	Strokes    int     `json:"strokes"`
	NetStrokes *int    `json:"net_strokes"`
}

// ScoreResponse is a stored score with its to-par label.
type ScoreResponse struct {
	ID           string `json:"id"`
	TournamentID string `json:"tournament_id"`
	HoleID       string `json:"hole_id"`
	HoleNumber   int    `json:"hole_number"`
	PlayerID     string `json:"player_id"`
	Strokes      int    `json:"strokes"`
	NetStrokes   *int   `json:"net_strokes"`
	Confirmed    bool   `json:"confirmed"`
	Label        string `json:"label"` // "Birdie", "Par", "+3", ...
	Class        string `json:"class"` // under, even or over
}

func newScoreResponse(s models.Score) ScoreResponse {
	return ScoreResponse{
		ID:           s.ID.String(),
		TournamentID: s.TournamentID.String(),
		HoleID:       s.HoleID.String(),
		HoleNumber:   s.Hole.HoleNumber,
		PlayerID:     s.PlayerID.String(),
		Strokes:      s.Strokes,
		NetStrokes:   s.NetStrokes,
		Confirmed:    s.Confirmed,
		Label:        leaderboard.ScoreToParLabel(s.Strokes, s.Hole.Par),
		Class:        string(leaderboard.ClassifyScore(s.Strokes, s.Hole.Par)),
	}
}

// RecordScore returns a handler for POST /api/v1/tournaments/:tournament/scores.
// Recording a hole the player already has a score for replaces that score.
func RecordScore(st *store.Store, pub Publisher) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := identity(c)
		if err != nil {
			return err
		}

		var req RecordScoreRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid request body",
			})
		}
		holeID, err := parseUUID(req.HoleID, "hole_id")
		if err != nil {
			return err
		}

		var playerID uuid.UUID
		switch {
		case req.PlayerID != nil:
			if playerID, err = parseUUID(*req.PlayerID, "player_id"); err != nil {
				return err
			}
		case id.ProfileID != nil:
			playerID = *id.ProfileID
		default:
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "player_id is required",
			})
		}

		ctx := c.UserContext()
		t, err := st.GetTournament(ctx, c.Params("tournament"))
		if err != nil {
			return storeError(err, "failed to fetch tournament")
		}

		if !id.IsAdmin() {
			if id.ProfileID == nil {
				return fiber.NewError(fiber.StatusForbidden, "register a player profile first")
			}
			allowed, err := st.CanRecordScore(ctx, t.ID, *id.ProfileID, playerID)
			if err != nil {
				return storeError(err, "failed to check permissions")
			}
			if !allowed {
				return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
					"error": "only the player or their group captain can record this score",
				})
			}
		}

		score, err := st.UpsertScore(ctx, store.ScoreInput{
			TournamentID: t.ID,
			HoleID:       holeID,
			PlayerID:     playerID,
			Strokes:      req.Strokes,
			NetStrokes:   req.NetStrokes,
			RecordedBy:   id.UserID,
		})
		if err != nil {
			return storeError(err, "failed to record score")
		}

		publishScoreChange(pub, changefeed.OpInsert, t.ID)
		return c.Status(fiber.StatusCreated).JSON(newScoreResponse(*score))
	}
}

// ConfirmScores returns a handler for POST /api/v1/tournaments/:tournament/scores/confirm.
// Players confirm their own card once they have checked it.
func ConfirmScores(st *store.Store, pub Publisher) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := playerIdentity(c)
		if err != nil {
			return err
		}
		ctx := c.UserContext()
		t, err := st.GetTournament(ctx, c.Params("tournament"))
		if err != nil {
			return storeError(err, "failed to fetch tournament")
		}

		n, err := st.ConfirmScores(ctx, t.ID, *id.ProfileID)
		if err != nil {
			return storeError(err, "failed to confirm scores")
		}
		if n > 0 {
			publishScoreChange(pub, changefeed.OpUpdate, t.ID)
		}
		return c.JSON(fiber.Map{"confirmed": n})
	}
}

// DeleteScore returns a handler for DELETE /api/v1/scores/:id (admin only).
// Scores of completed tournaments are final and answer 409.
func DeleteScore(st *store.Store, pub Publisher) fiber.Handler {
	return func(c *fiber.Ctx) error {
		score, err := st.DeleteScore(c.UserContext(), c.Params("id"))
		if err != nil {
			return storeError(err, "failed to delete score")
		}
		publishScoreChange(pub, changefeed.OpDelete, score.TournamentID)
		return c.SendStatus(fiber.StatusNoContent)
	}
}
