// Package storetest opens throwaway databases for tests.
package storetest

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/trentd187/golf-tournaments/internal/models"
)

// Open returns an in-memory SQLite database with every model's table created.
// Each call gets its own database, closed when the test ends.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// One connection keeps every query on the same in-memory database.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

// Fixture is a small, fully populated tournament: one 3-hole course and two players.
type Fixture struct {
	Course     models.Course
	Tournament models.Tournament
	Alice, Bob models.Profile
	Admin      uuid.UUID // auth user id holding the admin role
}

// Seed inserts a Fixture. The tournament starts active so scores can be recorded.
func Seed(t *testing.T, db *gorm.DB) Fixture {
	t.Helper()
	var f Fixture

	par, holes := 11, 3
	f.Course = models.Course{Name: "Lakeside", Par: &par, TotalHoles: &holes}
	require.NoError(t, db.Omit("Holes").Create(&f.Course).Error)
	for i, p := range []int{4, 3, 4} {
		h := models.Hole{CourseID: f.Course.ID, HoleNumber: i + 1, Par: p, HandicapIndex: i + 1}
		require.NoError(t, db.Create(&h).Error)
		f.Course.Holes = append(f.Course.Holes, h)
	}

	f.Alice = models.Profile{UserID: uuid.New(), FullName: "Alice"}
	f.Bob = models.Profile{UserID: uuid.New(), FullName: "Bob"}
	require.NoError(t, db.Create(&f.Alice).Error)
	require.NoError(t, db.Create(&f.Bob).Error)

	f.Admin = uuid.New()
	require.NoError(t, db.Create(&models.UserRole{UserID: f.Admin, Role: models.AppRoleAdmin}).Error)

	f.Tournament = models.Tournament{
		Name:           "Spring Open",
		Slug:           "spring-open-2026",
		TournamentDate: time.Date(2026, 4, 12, 0, 0, 0, 0, time.UTC),
		Status:         models.TournamentStatusActive,
		CourseID:       f.Course.ID,
		CreatedBy:      f.Admin,
	}
	require.NoError(t, db.Omit("Course").Create(&f.Tournament).Error)
	return f
}

// Hole returns the fixture hole with the given number.
func (f Fixture) Hole(number int) models.Hole {
	for _, h := range f.Course.Holes {
		if h.HoleNumber == number {
			return h
		}
	}
	panic(fmt.Sprintf("fixture has no hole %d", number))
}
