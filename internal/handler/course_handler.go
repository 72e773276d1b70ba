package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/turmas-api/internal/models"
	"github.com/noah-isme/turmas-api/pkg/response"
)

type courseService interface {
	List(ctx context.Context) ([]models.Course, error)
	Detail(ctx context.Context, id string) (*models.CourseDetail, error)
}

// CourseHandler serves the course catalog.
type CourseHandler struct {
	service courseService
}

// NewCourseHandler constructs a CourseHandler.
func NewCourseHandler(svc courseService) *CourseHandler {
	return &CourseHandler{service: svc}
}

// List godoc
// @Summary List courses
// @Tags Courses
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *CourseHandler) List(c *gin.Context) {
	courses, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, courses)
}

// Get godoc
// @Summary Course detail
// @Description Course with the sections offered for it
// @Tags Courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{id} [get]
func (h *CourseHandler) Get(c *gin.Context) {
	detail, err := h.service.Detail(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, detail)
}

// Sections godoc
// @Summary Course sections
// @Tags Courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{id}/sections [get]
func (h *CourseHandler) Sections(c *gin.Context) {
	detail, err := h.service.Detail(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, detail.Sections)
}
