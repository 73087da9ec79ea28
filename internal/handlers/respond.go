// Package handlers contains the HTTP route handler functions for the golf tournaments API.
// Each handler corresponds to one API endpoint and is responsible for reading the
// request, calling the store and writing a response.
//
// Every exported function follows the "handler factory" pattern: it takes its
// dependencies (the store, the change feed, ...) and returns a fiber.Handler. This lets
// us inject them without global variables.
//
// Handlers either write an error body themselves or return a *fiber.Error, which
// ErrorHandler turns into the same {"error": "..."} body.
package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/trentd187/golf-tournaments/internal/changefeed"
	"github.com/trentd187/golf-tournaments/internal/middleware"
	"github.com/trentd187/golf-tournaments/internal/store"
)

// ErrorHandler is the fiber.Config ErrorHandler of the API. It renders errors returned
// from handlers as {"error": "..."}; anything that isn't a *fiber.Error becomes a 500
// without leaking its text.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code, msg := fiber.StatusInternalServerError, "internal server error"
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code, msg = fe.Code, fe.Message
	}
	return c.Status(code).JSON(fiber.Map{"error": msg})
}

// Publisher receives score changes made through the API. With the in-process feed
// driver it is the broker; with a database-driven feed it is nil, because the database
// reports the change itself.
type Publisher interface {
	Publish(ev changefeed.Event)
}

func publishScoreChange(pub Publisher, op changefeed.Op, tournamentID uuid.UUID) {
	if pub == nil {
		return
	}
	pub.Publish(changefeed.Event{
		Table:  "scores",
		Op:     op,
		Values: map[string]string{"tournament_id": tournamentID.String()},
	})
}

// storeError maps a store error onto an HTTP error. Validation and conflict messages
// are safe to show; anything unexpected is reported as msg.
func storeError(err error, msg string) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, "not found")
	case errors.Is(err, store.ErrInvalidInput):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrInvalidTransition), errors.Is(err, store.ErrConflict):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, msg)
	}
}

// identity reads the caller resolved by middleware.Auth.
func identity(c *fiber.Ctx) (middleware.Identity, error) {
	id, ok := middleware.CurrentIdentity(c)
	if !ok {
		return id, fiber.NewError(fiber.StatusUnauthorized, "not authenticated")
	}
	return id, nil
}

// playerIdentity is identity for routes that need a registered player profile.
func playerIdentity(c *fiber.Ctx) (middleware.Identity, error) {
	id, err := identity(c)
	if err != nil {
		return id, err
	}
	if id.ProfileID == nil {
		return id, fiber.NewError(fiber.StatusForbidden, "register a player profile first")
	}
	return id, nil
}

// parseUUID reads a uuid from a request field.
func parseUUID(raw, field string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, field+" must be a UUID")
	}
	return id, nil
}

// formatDate converts a date to "2006-01-02".
func formatDate(t time.Time) string {
	return t.UTC().Format(time.DateOnly)
}

// parseOptionalDate parses an optional date string ("YYYY-MM-DD").
// Returns the zero time if the input is nil or empty.
func parseOptionalDate(s *string) (time.Time, error) {
	if s == nil || *s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.DateOnly, *s)
}
