// Package middleware implements the request authentication chain: credential
// extraction, token verification, tenant and permission gates, and the
// degraded-mode variant backed by the fallback manager.
package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/DesignCorporation/Beauty-Platform-sub005/internal/fallback"
	"github.com/DesignCorporation/Beauty-Platform-sub005/internal/token"
	"github.com/DesignCorporation/Beauty-Platform-sub005/pkg/constants"
)

// identityContextKey is where the authenticated identity lives on the gin
// context.
const identityContextKey = "auth.identity"

// TenantRef is the request-scoped view of the identity's tenant.
type TenantRef struct {
	ID   string `json:"id"`
	Slug string `json:"slug,omitempty"`
}

// Identity is the request-scoped authentication context. It is constructed
// once per request by the authentication middleware and read-only afterward.
type Identity struct {
	UserID      string
	Email       string
	Role        constants.Role
	TenantID    string
	Permissions []string
	MFAVerified bool
	Tenant      *TenantRef
	Source      constants.TokenSource

	// Fallback marks an identity established through the degraded-mode path.
	Fallback bool
}

// HasPermission reports whether the identity carries the permission, with the
// wildcard short-circuiting every check.
func (id *Identity) HasPermission(permission string) bool {
	for _, p := range id.Permissions {
		if p == constants.PermissionWildcard || p == permission {
			return true
		}
	}
	return false
}

// IsSuperAdmin reports whether the identity is the platform operator role.
func (id *Identity) IsSuperAdmin() bool {
	return id.Role == constants.RoleSuperAdmin
}

// identityFromClaims builds the request identity from verified token claims.
func identityFromClaims(claims *token.Claims, source constants.TokenSource) *Identity {
	id := &Identity{
		UserID:      claims.UserID,
		Email:       claims.Email,
		Role:        claims.Role,
		TenantID:    claims.TenantID,
		Permissions: claims.Permissions,
		MFAVerified: claims.MFAVerified,
		Source:      source,
	}
	if claims.TenantID != "" {
		id.Tenant = &TenantRef{ID: claims.TenantID}
	}
	return id
}

// identityFromFallback builds the request identity from a degraded-mode
// fallback identity.
func identityFromFallback(fb *fallback.Identity, source constants.TokenSource) *Identity {
	id := &Identity{
		UserID:      fb.UserID,
		Email:       fb.Email,
		Role:        fb.Role,
		TenantID:    fb.TenantID,
		Permissions: fb.Permissions,
		Source:      source,
		Fallback:    true,
	}
	if fb.TenantID != "" {
		id.Tenant = &TenantRef{ID: fb.TenantID}
	}
	return id
}

// setIdentity attaches the identity to the request context.
func setIdentity(c *gin.Context, id *Identity) {
	c.Set(identityContextKey, id)
}

// IdentityFrom returns the authenticated identity for the request, if any.
func IdentityFrom(c *gin.Context) (*Identity, bool) {
	v, ok := c.Get(identityContextKey)
	if !ok {
		return nil, false
	}
	id, ok := v.(*Identity)
	return id, ok
}
