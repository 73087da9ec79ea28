// Package models defines the data structures (models) that map to database tables.
// GORM uses these structs to generate SQL queries and map database rows back to Go values.
// The struct field tags (the backtick strings like `gorm:"..."`) tell GORM how to handle
// each field: its column type, constraints, default values, and relationships.
//
// The data model represents a golf tournament platform where:
//   - Profiles are the players (one per authenticated user)
//   - Tournaments are played on a Course, and a Course has Holes
//   - Scores record one player's strokes on one hole of one tournament
//   - Players can be placed into TournamentGroups (scorecard groups)
//   - TrainingSessions are practice rounds used by the advice generator
//   - Achievements are awarded to players (tournament wins, good scores, ...)
//
// The schema itself is owned by the SQL files in migrations/. The structs here must stay
// in sync with those files; tests build the same tables with AutoMigrate on SQLite.
package models

import (
	"time"

	// uuid provides universally unique identifiers for primary keys.
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- Enums ---
// Go doesn't have a built-in enum keyword, so we simulate them using a named string type
// plus constants.

// AppRole is a user's global permission level, stored in user_roles.
type AppRole string

const (
	AppRoleAdmin AppRole = "admin" // Can manage courses, tournaments and tournament status
	AppRoleUser  AppRole = "user"  // Regular player
)

// TournamentStatus tracks the lifecycle of a tournament.
type TournamentStatus string

const (
	TournamentStatusPlanned         TournamentStatus = "planned"          // Scheduled, no scores yet
	TournamentStatusActive          TournamentStatus = "active"           // Being played; scores are coming in
	TournamentStatusCompleted       TournamentStatus = "completed"        // Confirmed and final
	TournamentStatusNeedsAdjustment TournamentStatus = "needs_adjustment" // Sent back for score corrections
)

// Valid reports whether s is one of the known statuses.
func (s TournamentStatus) Valid() bool {
	switch s {
	case TournamentStatusPlanned, TournamentStatusActive, TournamentStatusCompleted, TournamentStatusNeedsAdjustment:
		return true
	}
	return false
}

// AchievementType groups achievements for display.
type AchievementType string

const (
	AchievementTournament  AchievementType = "tournament"
	AchievementScore       AchievementType = "score"
	AchievementConsistency AchievementType = "consistency"
)

// ensureID assigns a fresh UUID when the caller did not set one.
// Postgres could generate it with gen_random_uuid(), but generating it in Go keeps the
// models portable to the SQLite database used in tests.
func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

// --- Models ---

// Profile is a registered player. UserID links it to the auth provider's user id.
type Profile struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	FullName  string    `gorm:"not null"`
	CPF       string    `gorm:"column:cpf;not null;default:''"` // National id number collected at registration
	Phone     *string
	Handicap  *float64 `gorm:"type:decimal(4,1)"` // Nullable until the player has one
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (p *Profile) BeforeCreate(*gorm.DB) error { ensureID(&p.ID); return nil }

// UserRole grants a global role to an auth user.
type UserRole struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Role      AppRole   `gorm:"not null;default:'user'"`
	CreatedAt time.Time
}

func (r *UserRole) BeforeCreate(*gorm.DB) error { ensureID(&r.ID); return nil }

// Course represents a golf course where tournaments and training sessions are played.
type Course struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name       string    `gorm:"not null"`
	Location   *string
	Par        *int // Total par for the course
	TotalHoles *int // 9 or 18 in practice
	CreatedAt  time.Time
	Holes      []Hole `gorm:"foreignKey:CourseID"` // One-to-many: the holes of this course
}

func (c *Course) BeforeCreate(*gorm.DB) error { ensureID(&c.ID); return nil }

// Hole stores per-hole details for a course.
// HoleNumber and HandicapIndex are each unique within a course.
type Hole struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	CourseID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_holes_course_number;uniqueIndex:idx_holes_course_handicap"`
	HoleNumber     int       `gorm:"not null;uniqueIndex:idx_holes_course_number"`   // 1-based
	Par            int       `gorm:"not null"`                                       // Typically 3, 4 or 5
	HandicapIndex  int       `gorm:"not null;uniqueIndex:idx_holes_course_handicap"` // Difficulty rank: 1 = hardest
	DistanceMeters *int
}

func (h *Hole) BeforeCreate(*gorm.DB) error { ensureID(&h.ID); return nil }

// Tournament is a single competitive event on one course.
type Tournament struct {
	ID             uuid.UUID        `gorm:"type:uuid;primaryKey"`
	Name           string           `gorm:"not null"`
	Slug           string           `gorm:"not null;uniqueIndex"` // URL-friendly name, e.g. "club-championship-2026"
	TournamentDate time.Time        `gorm:"type:date;not null"`
	Status         TournamentStatus `gorm:"not null;default:'planned'"`
	CourseID       uuid.UUID        `gorm:"type:uuid;not null"`
	Course         Course           `gorm:"foreignKey:CourseID"`
	CreatedBy      uuid.UUID        `gorm:"type:uuid;not null"`
	CreatedAt      time.Time
}

func (t *Tournament) BeforeCreate(*gorm.DB) error { ensureID(&t.ID); return nil }

// TournamentGroup is a scorecard group: players who play (and record scores) together.
type TournamentGroup struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey"`
	TournamentID uuid.UUID  `gorm:"type:uuid;not null;index"`
	GroupName    string     `gorm:"not null"`
	AccessCode   string     `gorm:"not null"`
	StartingHole *int       // Shotgun starts begin on different holes
	CaptainID    *uuid.UUID `gorm:"type:uuid"`
	CreatedAt    time.Time
	Players      []GroupPlayer `gorm:"foreignKey:GroupID"`
}

func (g *TournamentGroup) BeforeCreate(*gorm.DB) error { ensureID(&g.ID); return nil }

// GroupPlayer places a player into a tournament group.
type GroupPlayer struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	GroupID   uuid.UUID `gorm:"type:uuid;not null;index"`
	PlayerID  uuid.UUID `gorm:"type:uuid;not null"`
	IsCaptain bool      `gorm:"not null;default:false"`
	CreatedAt time.Time
}

func (g *GroupPlayer) BeforeCreate(*gorm.DB) error { ensureID(&g.ID); return nil }

// Score records the strokes a player took on a single hole during a tournament.
// The composite unique index allows one score per player per hole per tournament.
type Score struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	TournamentID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_scores_tournament_hole_player"`
	HoleID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_scores_tournament_hole_player"`
	Hole         Hole      `gorm:"foreignKey:HoleID"`
	PlayerID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_scores_tournament_hole_player"`
	Strokes      int       `gorm:"not null"`
	NetStrokes   *int      // Handicap-adjusted strokes; informational only
	Confirmed    bool      `gorm:"not null;default:false"`
	RecordedBy   uuid.UUID `gorm:"type:uuid;not null"` // Who entered the score (player or group captain)
	CreatedAt    time.Time
}

func (s *Score) BeforeCreate(*gorm.DB) error { ensureID(&s.ID); return nil }

// TrainingSession is a practice round logged by a player.
type TrainingSession struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	PlayerID    uuid.UUID `gorm:"type:uuid;not null;index"`
	CourseID    uuid.UUID `gorm:"type:uuid;not null"`
	Course      Course    `gorm:"foreignKey:CourseID"`
	SessionDate time.Time `gorm:"type:date;not null"`
	Completed   bool      `gorm:"not null;default:false"`
	CreatedAt   time.Time
	Scores      []TrainingScore `gorm:"foreignKey:SessionID"`
}

func (s *TrainingSession) BeforeCreate(*gorm.DB) error { ensureID(&s.ID); return nil }

// TrainingScore is one hole of a training session.
type TrainingScore struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	SessionID uuid.UUID `gorm:"type:uuid;not null;index"`
	HoleID    uuid.UUID `gorm:"type:uuid;not null"`
	Hole      Hole      `gorm:"foreignKey:HoleID"`
	Strokes   int       `gorm:"not null"`
	CreatedAt time.Time
}

func (s *TrainingScore) BeforeCreate(*gorm.DB) error { ensureID(&s.ID); return nil }

// Achievement is a badge earned by a player, optionally tied to a tournament.
type Achievement struct {
	ID              uuid.UUID   `gorm:"type:uuid;primaryKey"`
	PlayerID        uuid.UUID   `gorm:"type:uuid;not null;index"`
	TournamentID    *uuid.UUID  `gorm:"type:uuid"`
	Tournament      *Tournament `gorm:"foreignKey:TournamentID"`
	Title           string      `gorm:"not null"`
	Description     *string
	AchievementType AchievementType `gorm:"not null"`
	EarnedAt        time.Time       `gorm:"autoCreateTime"`
}

func (a *Achievement) BeforeCreate(*gorm.DB) error { ensureID(&a.ID); return nil }

// All lists every model, in dependency order. Used by tests to build the schema.
func All() []any {
	return []any{
		&Profile{}, &UserRole{}, &Course{}, &Hole{}, &Tournament{},
		&TournamentGroup{}, &GroupPlayer{}, &Score{},
		&TrainingSession{}, &TrainingScore{}, &Achievement{},
	}
}
