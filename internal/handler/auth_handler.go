package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/turmas-api/internal/models"
	"github.com/noah-isme/turmas-api/internal/service"
	"github.com/noah-isme/turmas-api/pkg/response"
)

type authService interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
}

type registrationService interface {
	Register(ctx context.Context, req service.RegisterRequest) (*models.UserInfo, error)
}

// AuthHandler exposes registration and login.
type AuthHandler struct {
	auth  authService
	users registrationService
}

// NewAuthHandler constructs an auth handler.
func NewAuthHandler(auth authService, users registrationService) *AuthHandler {
	return &AuthHandler{auth: auth, users: users}
}

// Register godoc
// @Summary Register
// @Description Create an account. Guardians and students must supply a valid CPF.
// @Tags Auth
// @Accept json
// @Produce json
// @Param payload body service.RegisterRequest true "Account"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req service.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.users.Register(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, user)
}

// Login godoc
// @Summary Login
// @Description Authenticate with an email or a CPF and receive an access token
// @Tags Auth
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Credentials"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.auth.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, res)
}
