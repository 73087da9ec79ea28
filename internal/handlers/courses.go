package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/trentd187/golf-tournaments/internal/models"
	"github.com/trentd187/golf-tournaments/internal/store"
)

// HoleResponse is one hole of a course.
type HoleResponse struct {
	ID             string `json:"id"`
	HoleNumber     int    `json:"hole_number"`
	Par            int    `json:"par"`
	HandicapIndex  int    `json:"handicap_index"`
	DistanceMeters *int   `json:"distance_meters"`
}

// CourseResponse is a course with its holes in playing order.
type CourseResponse struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Location   *string        `json:"location"`
	Par        *int           `json:"par"`
	TotalHoles *int           `json:"total_holes"`
	Holes      []HoleResponse `json:"holes"`
}

func newCourseResponse(c models.Course) CourseResponse {
	r := CourseResponse{
		ID:         c.ID.String(),
		Name:       c.Name,
		Location:   c.Location,
		Par:        c.Par,
		TotalHoles: c.TotalHoles,
		Holes:      make([]HoleResponse, 0, len(c.Holes)),
	}
	for _, h := range c.Holes {
		r.Holes = append(r.Holes, HoleResponse{
			ID:             h.ID.String(),
			HoleNumber:     h.HoleNumber,
			Par:            h.Par,
			HandicapIndex:  h.HandicapIndex,
			DistanceMeters: h.DistanceMeters,
		})
	}
	return r
}

// CreateCourseRequest is the JSON body expected on POST /api/v1/courses.
type CreateCourseRequest struct {
	Name     string  `json:"name"`
	Location *string `json:"location"`
	Holes    []struct {
		HoleNumber     int  `json:"hole_number"`
		Par            int  `json:"par"`
		HandicapIndex  int  `json:"handicap_index"`
		DistanceMeters *int `json:"distance_meters"`
	} `json:"holes"`
}

// ListCourses returns a handler for GET /api/v1/courses.
func ListCourses(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		courses, err := st.ListCourses(c.UserContext())
		if err != nil {
			return storeError(err, "failed to fetch courses")
		}
		response := make([]CourseResponse, 0, len(courses))
		for _, course := range courses {
			response = append(response, newCourseResponse(course))
		}
		return c.JSON(response)
	}
}

// GetCourse returns a handler for GET /api/v1/courses/:id.
func GetCourse(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseUUID(c.Params("id"), "id")
		if err != nil {
			return err
		}
		course, err := st.GetCourse(c.UserContext(), id)
		if err != nil {
			return storeError(err, "failed to fetch course")
		}
		return c.JSON(newCourseResponse(*course))
	}
}

// CreateCourse returns a handler for POST /api/v1/courses (admin only).
// The course and all of its holes are created together or not at all.
func CreateCourse(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req CreateCourseRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid request body",
			})
		}

		in := store.NewCourse{Name: req.Name, Location: req.Location}
		for _, h := range req.Holes {
			in.Holes = append(in.Holes, store.NewHole{
				Number:         h.HoleNumber,
				Par:            h.Par,
				HandicapIndex:  h.HandicapIndex,
				DistanceMeters: h.DistanceMeters,
			})
		}

		course, err := st.CreateCourse(c.UserContext(), in)
		if err != nil {
			return storeError(err, "failed to create course")
		}
		return c.Status(fiber.StatusCreated).JSON(newCourseResponse(*course))
	}
}
