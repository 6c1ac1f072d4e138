package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/sanzad/portal-api/internal/models"
	appErrors "github.com/sanzad/portal-api/pkg/errors"
	"github.com/sanzad/portal-api/pkg/response"
)

// RequireRoles enforces role-based access control for routes. Roles are
// matched on the stored labels, space and all.
func RequireRoles(roles ...models.AccountRole) gin.HandlerFunc {
	allowed := make(map[models.AccountRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(c *gin.Context) {
		claimsValue, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		claims := claimsValue.(*models.JWTClaims)

		if _, ok := allowed[claims.Role]; !ok {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}

		c.Next()
	}
}
