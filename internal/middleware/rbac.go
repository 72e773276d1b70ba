package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/turmas-api/internal/models"
	appErrors "github.com/noah-isme/turmas-api/pkg/errors"
	"github.com/noah-isme/turmas-api/pkg/response"
)

// Self allows the account named by the :email route parameter.
const Self = "SELF"

// RBAC enforces role-based access control for routes.
func RBAC(allowed ...string) gin.HandlerFunc {
	allowSelf := false
	allowedRoles := make(map[models.UserRole]struct{})
	for _, a := range allowed {
		if a == Self {
			allowSelf = true
			continue
		}
		allowedRoles[models.UserRole(a)] = struct{}{}
	}

	return func(c *gin.Context) {
		claimsValue, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		claims, ok := claimsValue.(*models.JWTClaims)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		if _, ok := allowedRoles[claims.Role]; ok {
			c.Next()
			return
		}

		if allowSelf {
			if target := c.Param("email"); target != "" && models.NormalizeEmail(target) == models.NormalizeEmail(claims.Email) {
				c.Next()
				return
			}
		}

		response.Error(c, appErrors.ErrForbidden)
		c.Abort()
	}
}

// RequireRoles is a helper that accepts a list of roles. It panics on a role
// outside models.UserRole so a typo fails at route setup.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make([]string, len(roles))
	for i, r := range roles {
		if !r.Valid() {
			panic(fmt.Sprintf("middleware: unknown role %q", r))
		}
		allowed[i] = string(r)
	}
	return RBAC(allowed...)
}
