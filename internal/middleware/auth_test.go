package middleware_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trentd187/golf-tournaments/internal/config"
	"github.com/trentd187/golf-tournaments/internal/middleware"
	"github.com/trentd187/golf-tournaments/internal/models"
	"github.com/trentd187/golf-tournaments/internal/store"
	"github.com/trentd187/golf-tournaments/internal/store/storetest"
)

const secret = "test-secret"

func sign(t *testing.T, key string, sub string) string {
	t.Helper()
	claims := middleware.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Email: "player@example.com",
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	require.NoError(t, err)
	return tok
}

// newApp mounts Auth in front of a handler that echoes the resolved identity.
func newApp(t *testing.T, cfg *config.Config) (*fiber.App, storetest.Fixture) {
	t.Helper()
	db := storetest.Open(t)
	f := storetest.Seed(t, db)
	st := store.New(db)

	app := fiber.New()
	app.Use(middleware.Auth(cfg, st, log.New(io.Discard)))
	app.Get("/whoami", func(c *fiber.Ctx) error {
		id, ok := middleware.CurrentIdentity(c)
		if !ok {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		profile := ""
		if id.ProfileID != nil {
			profile = id.ProfileID.String()
		}
		return c.JSON(fiber.Map{"user": id.UserID, "role": id.Role, "profile": profile, "email": id.Email})
	})
	app.Get("/admin", middleware.RequireRole(models.AppRoleAdmin), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app, f
}

func get(t *testing.T, app *fiber.App, path, token string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestAuth_VerifiesSignature(t *testing.T) {
	app, f := newApp(t, &config.Config{JWTSecret: secret})

	resp := get(t, app, "/whoami", sign(t, secret, f.Alice.UserID.String()))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), f.Alice.ID.String())
	assert.Contains(t, string(body), `"role":"user"`)

	resp = get(t, app, "/whoami", sign(t, "some-other-secret", f.Alice.UserID.String()))
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAuth_RejectsMissingOrBadTokens(t *testing.T) {
	app, _ := newApp(t, &config.Config{JWTSecret: secret})

	assert.Equal(t, fiber.StatusUnauthorized, get(t, app, "/whoami", "").StatusCode)
	assert.Equal(t, fiber.StatusUnauthorized, get(t, app, "/whoami", "not-a-jwt").StatusCode)
	assert.Equal(t, fiber.StatusUnauthorized, get(t, app, "/whoami", sign(t, secret, "not-a-uuid")).StatusCode)
}

func TestAuth_TokenInQuery(t *testing.T) {
	app, f := newApp(t, &config.Config{JWTSecret: secret})

	resp := get(t, app, "/whoami?access_token="+sign(t, secret, f.Bob.UserID.String()), "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestAuth_UserWithoutProfile(t *testing.T) {
	app, _ := newApp(t, &config.Config{JWTSecret: secret})

	resp := get(t, app, "/whoami", sign(t, secret, uuid.NewString()))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), `"profile":""`)
}

func TestAuth_UnverifiedInDevelopment(t *testing.T) {
	app, f := newApp(t, &config.Config{})

	resp := get(t, app, "/whoami", sign(t, "anything", f.Alice.UserID.String()))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRequireRole(t *testing.T) {
	app, f := newApp(t, &config.Config{JWTSecret: secret})

	resp := get(t, app, "/admin", sign(t, secret, f.Alice.UserID.String()))
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = get(t, app, "/admin", sign(t, secret, f.Admin.String()))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
