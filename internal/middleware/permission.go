package middleware

import (
	"github.com/gin-gonic/gin"

	autherrors "github.com/DesignCorporation/Beauty-Platform-sub005/pkg/errors"
	"github.com/DesignCorporation/Beauty-Platform-sub005/pkg/logger"
)

// RequirePermission gates a handler behind one capability. It must run after
// an authentication middleware; without an identity it refuses with 401. The
// wildcard permission short-circuits the check.
func (a *Auth) RequirePermission(permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := IdentityFrom(c)
		if !ok {
			a.reject(c, autherrors.ErrAuthRequired(), "", "")
			return
		}

		if !identity.HasPermission(permission) {
			a.log.Warn(c.Request.Context(), "permission denied", logger.Fields{
				"userId":   identity.UserID,
				"required": permission,
				"path":     c.Request.URL.Path,
				"method":   c.Request.Method,
			})
			authErr := autherrors.ErrInsufficientPermissions(permission, identity.Permissions)
			c.AbortWithStatusJSON(authErr.HTTPStatus(), authErr)
			return
		}

		c.Next()
	}
}
