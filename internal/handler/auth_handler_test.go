package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/turmas-api/internal/middleware"
	"github.com/noah-isme/turmas-api/internal/models"
	"github.com/noah-isme/turmas-api/internal/service"
	appErrors "github.com/noah-isme/turmas-api/pkg/errors"
)

type authServiceMock struct {
	req  models.LoginRequest
	resp *models.LoginResponse
	err  error
}

func (m *authServiceMock) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	m.req = req
	return m.resp, m.err
}

type userServiceMock struct {
	registered service.RegisterRequest
	profile    service.UpdateProfileRequest
	email      string
	user       *models.UserInfo
	err        error
}

func (m *userServiceMock) Register(ctx context.Context, req service.RegisterRequest) (*models.UserInfo, error) {
	m.registered = req
	return m.user, m.err
}

func (m *userServiceMock) List(ctx context.Context) ([]models.UserInfo, error) {
	if m.user == nil {
		return nil, m.err
	}
	return []models.UserInfo{*m.user}, m.err
}

func (m *userServiceMock) Get(ctx context.Context, email string) (*models.UserInfo, error) {
	m.email = email
	return m.user, m.err
}

func (m *userServiceMock) UpdateProfile(ctx context.Context, email string, req service.UpdateProfileRequest) (*models.UserInfo, error) {
	m.email = email
	m.profile = req
	return m.user, m.err
}

func (m *userServiceMock) Remove(ctx context.Context, email string) error {
	m.email = email
	return m.err
}

func TestAuthHandlerRegister(t *testing.T) {
	users := &userServiceMock{user: &models.UserInfo{Name: "Ana", Email: "ana@x.com", Role: models.RoleStudent}}
	h := NewAuthHandler(&authServiceMock{}, users)
	c, w := newGinContext(http.MethodPost, "/auth/register", []byte(`{"name":"Ana","email":"ana@x.com","password":"segredo","confirmPassword":"segredo","cpf":"529.982.247-25"}`))

	h.Register(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "529.982.247-25", users.registered.CPF)
	assert.Equal(t, "segredo", users.registered.ConfirmPassword)
}

func TestAuthHandlerLoginFailure(t *testing.T) {
	auth := &authServiceMock{err: appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid identifier or password")}
	h := NewAuthHandler(auth, &userServiceMock{})
	c, w := newGinContext(http.MethodPost, "/auth/login", []byte(`{"identifier":"ana@x.com","password":"wrong"}`))

	h.Login(c)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "ana@x.com", auth.req.Identifier)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, decodeError(t, w).Code)
}

func TestAuthHandlerLoginSuccess(t *testing.T) {
	auth := &authServiceMock{resp: &models.LoginResponse{AccessToken: "token", ExpiresIn: 3600}}
	h := NewAuthHandler(auth, &userServiceMock{})
	c, w := newGinContext(http.MethodPost, "/auth/login", []byte(`{"identifier":"52998224725","password":"segredo"}`))

	h.Login(c)

	require.Equal(t, http.StatusOK, w.Code)
	var env struct {
		Data models.LoginResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Equal(t, "token", env.Data.AccessToken)
}

func TestUserHandlerUpdateMe(t *testing.T) {
	users := &userServiceMock{user: &models.UserInfo{Name: "Ana Souza", Email: "ana@x.com"}}
	h := NewUserHandler(users)
	c, w := newGinContext(http.MethodPatch, "/me", []byte(`{"name":"Ana Souza","avatar":""}`))
	c.Set(middleware.ContextUserKey, &models.JWTClaims{Email: "ana@x.com"})

	h.UpdateMe(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ana@x.com", users.email)
	require.NotNil(t, users.profile.Name)
	require.NotNil(t, users.profile.Avatar)
	assert.Equal(t, "", *users.profile.Avatar)
	assert.Nil(t, users.profile.CPF)
}

func TestUserHandlerRemove(t *testing.T) {
	users := &userServiceMock{}
	h := NewUserHandler(users)
	c, w := newGinContext(http.MethodDelete, "/users/bia@x.com", nil)
	c.Params = gin.Params{{Key: "email", Value: "bia@x.com"}}

	h.Remove(c)
	c.Writer.WriteHeaderNow()

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "bia@x.com", users.email)
}

func TestCPFHandler(t *testing.T) {
	h := NewCPFHandler()
	c, w := newGinContext(http.MethodGet, "/cpf/validate?value=529.982.247-24", nil)

	h.Validate(c)

	require.Equal(t, http.StatusOK, w.Code)
	var env struct {
		Data CPFResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Equal(t, "52998224724", env.Data.Digits)
	assert.Equal(t, "529.982.247-24", env.Data.Formatted)
	assert.False(t, env.Data.Valid)
}
