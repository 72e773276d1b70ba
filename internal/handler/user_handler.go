package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/turmas-api/internal/models"
	"github.com/noah-isme/turmas-api/internal/service"
	"github.com/noah-isme/turmas-api/pkg/response"
)

type userService interface {
	List(ctx context.Context) ([]models.UserInfo, error)
	Get(ctx context.Context, email string) (*models.UserInfo, error)
	UpdateProfile(ctx context.Context, email string, req service.UpdateProfileRequest) (*models.UserInfo, error)
	Remove(ctx context.Context, email string) error
}

// UserHandler handles profile and account administration endpoints.
type UserHandler struct {
	service userService
}

// NewUserHandler creates a new user handler.
func NewUserHandler(svc userService) *UserHandler {
	return &UserHandler{service: svc}
}

// Me godoc
// @Summary Current profile
// @Tags Profile
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /me [get]
func (h *UserHandler) Me(c *gin.Context) {
	claims := currentUser(c)
	if claims == nil {
		return
	}
	user, err := h.service.Get(c.Request.Context(), claims.Email)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, user)
}

// UpdateMe godoc
// @Summary Update profile
// @Description Change name, avatar or CPF. An empty avatar clears it.
// @Tags Profile
// @Accept json
// @Produce json
// @Param payload body service.UpdateProfileRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /me [patch]
func (h *UserHandler) UpdateMe(c *gin.Context) {
	claims := currentUser(c)
	if claims == nil {
		return
	}
	var req service.UpdateProfileRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.service.UpdateProfile(c.Request.Context(), claims.Email, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, user)
}

// List godoc
// @Summary List users
// @Tags Users
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /users [get]
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, users, map[string]interface{}{"total": len(users)})
}

// Remove godoc
// @Summary Delete user
// @Description Delete an account, releasing its seats and favorites
// @Tags Users
// @Param email path string true "User email"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /users/{email} [delete]
func (h *UserHandler) Remove(c *gin.Context) {
	if err := h.service.Remove(c.Request.Context(), c.Param("email")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
