// Package token implements the identity token codec and the request token
// extractor. Tokens are compact HS256 JWTs signed with the platform-wide
// shared secret; every service behind the gateway verifies them locally
// without calling back into the auth service.
package token

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/DesignCorporation/Beauty-Platform-sub005/pkg/constants"
)

// Claims is the identity token payload. A decoded payload missing UserID,
// Role, or Email is invalid and is rejected by the codec before any identity
// context is attached to a request.
type Claims struct {
	UserID      string              `json:"userId"`
	TenantID    string              `json:"tenantId,omitempty"`
	Role        constants.Role      `json:"role"`
	Email       string              `json:"email"`
	Type        constants.TokenType `json:"type"`
	Permissions []string            `json:"permissions,omitempty"`
	MFAVerified bool                `json:"mfaVerified,omitempty"`

	jwt.RegisteredClaims
}

// HasPermission reports whether the claim set carries the given capability.
// The wildcard permission matches everything.
func (c *Claims) HasPermission(permission string) bool {
	for _, p := range c.Permissions {
		if p == constants.PermissionWildcard || p == permission {
			return true
		}
	}
	return false
}

// IsSuperAdmin reports whether the identity is a platform operator. It is the
// only role permitted to operate without a tenant.
func (c *Claims) IsSuperAdmin() bool {
	return c.Role == constants.RoleSuperAdmin
}
