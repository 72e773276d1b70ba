package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/turmas-api/internal/middleware"
	"github.com/noah-isme/turmas-api/internal/models"
	appErrors "github.com/noah-isme/turmas-api/pkg/errors"
	"github.com/noah-isme/turmas-api/pkg/response"
	"github.com/noah-isme/turmas-api/pkg/validation"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// currentUser writes 401 and returns nil when the request carries no claims.
func currentUser(c *gin.Context) *models.JWTClaims {
	claims := claimsFromContext(c)
	if claims == nil || claims.Email == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil
	}
	return claims
}

// bindJSON decodes the body into dst, writing a validation error on failure.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.Error(c, appErrors.Validation(err, "invalid request body", validation.Fields(err)))
		return false
	}
	return true
}
