package store

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/trentd187/golf-tournaments/internal/models"
)

// NewHole describes one hole of a course being created.
type NewHole struct {
	Number         int
	Par            int
	HandicapIndex  int
	DistanceMeters *int
}

// NewCourse describes a course and its holes.
type NewCourse struct {
	Name     string
	Location *string
	Holes    []NewHole
}

func (c NewCourse) validate() error {
	if c.Name == "" {
		return invalid("name is required")
	}
	if len(c.Holes) == 0 {
		return invalid("a course needs at least one hole")
	}
	numbers := make(map[int]bool, len(c.Holes))
	handicaps := make(map[int]bool, len(c.Holes))
	for _, h := range c.Holes {
		if h.Number < 1 {
			return invalid("hole numbers start at 1")
		}
		if h.Par < 3 || h.Par > 6 {
			return invalid("hole %d: par must be between 3 and 6", h.Number)
		}
		if numbers[h.Number] {
			return invalid("hole %d listed twice", h.Number)
		}
		if h.HandicapIndex < 1 || h.HandicapIndex > len(c.Holes) {
			return invalid("hole %d: handicap index must be between 1 and %d", h.Number, len(c.Holes))
		}
		if handicaps[h.HandicapIndex] {
			return invalid("handicap index %d used twice", h.HandicapIndex)
		}
		numbers[h.Number] = true
		handicaps[h.HandicapIndex] = true
	}
	return nil
}

// CreateCourse inserts a course and its holes in one transaction. The course par and
// hole count are derived from the holes.
func (s *Store) CreateCourse(ctx context.Context, in NewCourse) (*models.Course, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	par, total := 0, len(in.Holes)
	for _, h := range in.Holes {
		par += h.Par
	}

	var course models.Course
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		course = models.Course{
			Name:       in.Name,
			Location:   in.Location,
			Par:        &par,
			TotalHoles: &total,
		}
		if err := tx.Omit(clause.Associations).Create(&course).Error; err != nil {
			return err
		}

		holes := make([]models.Hole, len(in.Holes))
		for i, h := range in.Holes {
			holes[i] = models.Hole{
				CourseID:       course.ID,
				HoleNumber:     h.Number,
				Par:            h.Par,
				HandicapIndex:  h.HandicapIndex,
				DistanceMeters: h.DistanceMeters,
			}
		}
		if err := tx.Create(&holes).Error; err != nil {
			return err
		}
		return tx.Preload("Holes", orderHoles).First(&course, "id = ?", course.ID).Error
	})
	if err != nil {
		return nil, translate(err, "create course")
	}
	return &course, nil
}

// ListCourses returns every course with its holes in playing order.
func (s *Store) ListCourses(ctx context.Context) ([]models.Course, error) {
	var courses []models.Course
	err := s.db.WithContext(ctx).Preload("Holes", orderHoles).Order("name").Find(&courses).Error
	if err != nil {
		return nil, translate(err, "list courses")
	}
	return courses, nil
}

// GetCourse returns one course with its holes.
func (s *Store) GetCourse(ctx context.Context, id uuid.UUID) (*models.Course, error) {
	var c models.Course
	if err := s.db.WithContext(ctx).Preload("Holes", orderHoles).First(&c, "id = ?", id).Error; err != nil {
		return nil, translate(err, "course")
	}
	return &c, nil
}

func orderHoles(db *gorm.DB) *gorm.DB {
	return db.Order("hole_number")
}
