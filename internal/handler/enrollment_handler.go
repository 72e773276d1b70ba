package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/turmas-api/internal/models"
	"github.com/noah-isme/turmas-api/pkg/response"
)

type enrollmentService interface {
	Enroll(ctx context.Context, sectionID, userID string) (*models.ClassSection, error)
	Unenroll(ctx context.Context, sectionID, userID string) (*models.ClassSection, error)
}

// EnrollmentHandler lets the signed-in user join or leave a section.
type EnrollmentHandler struct {
	service enrollmentService
}

// NewEnrollmentHandler constructs an EnrollmentHandler.
func NewEnrollmentHandler(svc enrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{service: svc}
}

// Enroll godoc
// @Summary Enroll in section
// @Tags Enrollment
// @Produce json
// @Param id path string true "Section ID"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /sections/{id}/enroll [post]
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	claims := currentUser(c)
	if claims == nil {
		return
	}
	section, err := h.service.Enroll(c.Request.Context(), c.Param("id"), claims.Email)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, section)
}

// Unenroll godoc
// @Summary Leave section
// @Tags Enrollment
// @Produce json
// @Param id path string true "Section ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /sections/{id}/enroll [delete]
func (h *EnrollmentHandler) Unenroll(c *gin.Context) {
	claims := currentUser(c)
	if claims == nil {
		return
	}
	section, err := h.service.Unenroll(c.Request.Context(), c.Param("id"), claims.Email)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, section)
}
