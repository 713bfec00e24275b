package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"

	"github.com/gin-gonic/gin"

	autherrors "github.com/DesignCorporation/Beauty-Platform-sub005/pkg/errors"
	"github.com/DesignCorporation/Beauty-Platform-sub005/pkg/logger"
)

// maxTenantBodyBytes caps how much of a request body is read while looking
// for a tenant id.
const maxTenantBodyBytes = 1 << 20

// RequireTenant ensures the authenticated identity carries a tenant.
// SUPER_ADMIN passes unconditionally; every other role without a tenant is
// refused.
func (a *Auth) RequireTenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := IdentityFrom(c)
		if !ok {
			a.reject(c, autherrors.ErrAuthRequired(), "", "")
			return
		}

		if identity.IsSuperAdmin() {
			c.Next()
			return
		}

		if identity.TenantID == "" {
			a.log.Warn(c.Request.Context(), "identity missing tenant", logger.Fields{
				"userId": identity.UserID,
				"role":   string(identity.Role),
				"path":   c.Request.URL.Path,
				"method": c.Request.Method,
			})
			authErr := autherrors.ErrTenantRequired()
			c.AbortWithStatusJSON(authErr.HTTPStatus(), authErr)
			return
		}

		c.Next()
	}
}

// ValidateTenantAccess compares the identity's tenant against a tenant id
// named by the request itself, looked up in the path parameters, then the
// JSON body, then the query string. The comparison is an exact string match;
// a near-miss fails. SUPER_ADMIN passes for any requested tenant, and a
// request that names no tenant passes through.
func (a *Auth) ValidateTenantAccess() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := IdentityFrom(c)
		if !ok {
			a.reject(c, autherrors.ErrAuthRequired(), "", "")
			return
		}

		if identity.IsSuperAdmin() {
			c.Next()
			return
		}

		requested := requestedTenantID(c)
		if requested != "" && identity.TenantID != requested {
			a.log.Warn(c.Request.Context(), "tenant access denied", logger.Fields{
				"userId":          identity.UserID,
				"userTenant":      identity.TenantID,
				"requestedTenant": requested,
				"path":            c.Request.URL.Path,
				"method":          c.Request.Method,
			})
			authErr := autherrors.ErrTenantAccessDenied(identity.TenantID, requested)
			c.AbortWithStatusJSON(authErr.HTTPStatus(), authErr)
			return
		}

		c.Next()
	}
}

// requestedTenantID resolves the tenant id the request names, in precedence
// order: path parameter, body, query string.
func requestedTenantID(c *gin.Context) string {
	if v := c.Param("tenantId"); v != "" {
		return v
	}
	if v := tenantIDFromBody(c); v != "" {
		return v
	}
	return c.Query("tenantId")
}

// tenantIDFromBody peeks at a JSON body for a top-level tenantId field and
// restores the body, including any unread remainder past the peek limit, so
// the handler still sees every byte.
func tenantIDFromBody(c *gin.Context) string {
	if c.Request.Body == nil {
		return ""
	}
	contentType := c.GetHeader("Content-Type")
	if !strings.Contains(contentType, "application/json") {
		return ""
	}

	rest := c.Request.Body
	raw, err := io.ReadAll(io.LimitReader(rest, maxTenantBodyBytes))
	c.Request.Body = io.NopCloser(io.MultiReader(bytes.NewReader(raw), rest))
	if err != nil || len(raw) == 0 {
		return ""
	}

	var body struct {
		TenantID string `json:"tenantId"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	return body.TenantID
}
