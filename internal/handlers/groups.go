package handlers

// groups.go handles scorecard groups. A group's captain may record scores for every
// player in the group; the access code is what the captain shares to let players join
// the group's scorecard on their own device.

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/trentd187/golf-tournaments/internal/models"
	"github.com/trentd187/golf-tournaments/internal/store"
)

// GroupResponse is a group with its players.
type GroupResponse struct {
	ID           string   `json:"id"`
	TournamentID string   `json:"tournament_id"`
	GroupName    string   `json:"group_name"`
	AccessCode   string   `json:"access_code"`
	StartingHole *int     `json:"starting_hole"`
	CaptainID    *string  `json:"captain_id"`
	PlayerIDs    []string `json:"player_ids"`
}

func newGroupResponse(g models.TournamentGroup) GroupResponse {
	r := GroupResponse{
		ID:           g.ID.String(),
		TournamentID: g.TournamentID.String(),
		GroupName:    g.GroupName,
		AccessCode:   g.AccessCode,
		StartingHole: g.StartingHole,
		PlayerIDs:    make([]string, 0, len(g.Players)),
	}
	if g.CaptainID != nil {
		id := g.CaptainID.String()
		r.CaptainID = &id
	}
	for _, p := range g.Players {
		r.PlayerIDs = append(r.PlayerIDs, p.PlayerID.String())
	}
	return r
}

// CreateGroupRequest is the JSON body expected on POST .../groups.
type CreateGroupRequest struct {
	GroupName    string   `json:"group_name"`
	StartingHole *int     `json:"starting_hole"`
	PlayerIDs    []string `json:"player_ids"`
	CaptainID    *string  `json:"captain_id"`
}

// ListGroups returns a handler for GET /api/v1/tournaments/:tournament/groups.
func ListGroups(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		t, err := st.GetTournament(ctx, c.Params("tournament"))
		if err != nil {
			return storeError(err, "failed to fetch tournament")
		}
		groups, err := st.ListGroups(ctx, t.ID)
		if err != nil {
			return storeError(err, "failed to fetch groups")
		}
		response := make([]GroupResponse, 0, len(groups))
		for _, g := range groups {
			response = append(response, newGroupResponse(g))
		}
		return c.JSON(response)
	}
}

// CreateGroup returns a handler for POST /api/v1/tournaments/:tournament/groups (admin only).
func CreateGroup(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req CreateGroupRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid request body",
			})
		}

		in := store.NewGroup{Name: req.GroupName, StartingHole: req.StartingHole}
		for _, raw := range req.PlayerIDs {
			id, err := parseUUID(raw, "player_ids")
			if err != nil {
				return err
			}
			in.PlayerIDs = append(in.PlayerIDs, id)
		}
		if req.CaptainID != nil {
			id, err := parseUUID(*req.CaptainID, "captain_id")
			if err != nil {
				return err
			}
			in.CaptainID = &id
		}

		ctx := c.UserContext()
		t, err := st.GetTournament(ctx, c.Params("tournament"))
		if err != nil {
			return storeError(err, "failed to fetch tournament")
		}
		in.TournamentID = t.ID

		group, err := st.CreateGroup(ctx, in)
		if err != nil {
			return storeError(err, "failed to create group")
		}
		return c.Status(fiber.StatusCreated).JSON(newGroupResponse(*group))
	}
}

// RegenerateAccessCode returns a handler for POST /api/v1/groups/:id/access-code (admin only).
func RegenerateAccessCode(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "id must be a UUID")
		}
		code, err := st.RegenerateAccessCode(c.UserContext(), id)
		if err != nil {
			return storeError(err, "failed to regenerate access code")
		}
		return c.JSON(fiber.Map{"access_code": code})
	}
}
