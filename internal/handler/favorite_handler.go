package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/turmas-api/internal/models"
	"github.com/noah-isme/turmas-api/pkg/response"
)

type favoriteService interface {
	Toggle(ctx context.Context, email, courseID string) (*models.FavoriteToggle, error)
	List(ctx context.Context, email string) ([]models.Course, error)
}

// FavoriteHandler manages the signed-in user's favorite courses.
type FavoriteHandler struct {
	service favoriteService
}

// NewFavoriteHandler constructs a FavoriteHandler.
func NewFavoriteHandler(svc favoriteService) *FavoriteHandler {
	return &FavoriteHandler{service: svc}
}

// List godoc
// @Summary Favorite courses
// @Tags Favorites
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /me/favorites [get]
func (h *FavoriteHandler) List(c *gin.Context) {
	claims := currentUser(c)
	if claims == nil {
		return
	}
	courses, err := h.service.List(c.Request.Context(), claims.Email)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, courses)
}

// Toggle godoc
// @Summary Toggle favorite
// @Description Add the course to favorites, or remove it when already there
// @Tags Favorites
// @Produce json
// @Param courseId path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /me/favorites/{courseId} [post]
func (h *FavoriteHandler) Toggle(c *gin.Context) {
	claims := currentUser(c)
	if claims == nil {
		return
	}
	res, err := h.service.Toggle(c.Request.Context(), claims.Email, c.Param("courseId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, res)
}
