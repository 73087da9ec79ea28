package handlers

import (
	"github.com/charmbracelet/log"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/trentd187/golf-tournaments/internal/advisor"
	"github.com/trentd187/golf-tournaments/internal/config"
	"github.com/trentd187/golf-tournaments/internal/metrics"
	"github.com/trentd187/golf-tournaments/internal/middleware"
	"github.com/trentd187/golf-tournaments/internal/models"
	"github.com/trentd187/golf-tournaments/internal/store"
)

// Deps is everything the routes need.
type Deps struct {
	Config  *config.Config
	Store   *store.Store
	Advisor *advisor.Advisor
	Live    Live
	// Publisher is nil unless the API's own writes drive the change feed.
	Publisher Publisher
	// Gatherer serves /metrics; nil leaves the route out.
	Gatherer prometheus.Gatherer
	Logger   *log.Logger
}

// Register mounts every route on app.
func Register(app *fiber.App, d Deps) {
	st := d.Store

	// --- Public routes (no auth required) ---
	app.Get("/health", HealthCheck(st.DB()))
	if d.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(metrics.NewMetricsHandler(d.Gatherer)))
	}

	// --- Authenticated API routes ---
	// Route group pattern: the Auth middleware applies to every route registered on api.
	api := app.Group("/api/v1", middleware.Auth(d.Config, st, d.Logger))
	admin := middleware.RequireRole(models.AppRoleAdmin)

	// Profile
	// GET /api/v1/profile: the caller's player profile (404 until registered)
	// PUT /api/v1/profile: register or update
	api.Get("/profile", GetProfile(st))
	api.Put("/profile", SaveProfile(st))

	// Dashboard
	api.Get("/dashboard", Dashboard(st))

	// Players
	api.Get("/players", admin, ListPlayers(st))
	api.Get("/players/:id/stats", PlayerStats(st))
	api.Post("/players/:id/role", admin, GrantPlayerRole(st))

	// Courses
	api.Get("/courses", ListCourses(st))
	api.Get("/courses/:id", GetCourse(st))
	api.Post("/courses", admin, CreateCourse(st))

	// Tournaments; :tournament is an id or a slug
	api.Get("/tournaments", ListTournaments(st))
	api.Post("/tournaments", admin, CreateTournament(st))
	api.Get("/tournaments/:tournament", GetTournament(st))
	api.Patch("/tournaments/:tournament/status", admin, UpdateTournamentStatus(st))

	// Leaderboard
	api.Get("/tournaments/:tournament/leaderboard", GetLeaderboard(st))
	api.Get("/tournaments/:tournament/leaderboard/stream", StreamLeaderboard(st, d.Live))

	// Groups
	api.Get("/tournaments/:tournament/groups", ListGroups(st))
	api.Post("/tournaments/:tournament/groups", admin, CreateGroup(st))
	api.Post("/groups/:id/access-code", admin, RegenerateAccessCode(st))

	// Scores
	api.Post("/tournaments/:tournament/scores", RecordScore(st, d.Publisher))
	api.Post("/tournaments/:tournament/scores/confirm", ConfirmScores(st, d.Publisher))
	api.Delete("/scores/:id", admin, DeleteScore(st, d.Publisher))

	// Training and achievements
	api.Get("/training-sessions", ListTrainingSessions(st))
	api.Post("/training-sessions", CreateTrainingSession(st))
	api.Delete("/training-sessions/:id", DeleteTrainingSession(st))
	api.Get("/achievements", ListAchievements(st))
	api.Post("/advice", Advice(d.Advisor))
}
