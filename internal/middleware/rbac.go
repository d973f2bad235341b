package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/classgrid/timetable-api/internal/models"
	appErrors "github.com/classgrid/timetable-api/pkg/errors"
	"github.com/classgrid/timetable-api/pkg/response"
)

// RequireRoles blocks requests whose JWT role is not in the allowed set.
// The grid's write surface is admin-only; read surfaces admit teachers.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
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

		if _, ok := allowed[claims.Role]; !ok {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}
