// Package constants defines system-wide constants for the Beauty Platform
// identity core. This package provides type-safe constant definitions used
// across all modules.
package constants

import "time"

// ================================================================================
// Role Constants
// ================================================================================

// Role represents a platform user role.
type Role string

const (
	// RoleSuperAdmin is the platform-level operator role. It is the only role
	// permitted to operate without a tenant across tenant-gated operations.
	RoleSuperAdmin Role = "SUPER_ADMIN"

	// RoleSalonOwner owns exactly one tenant (salon).
	RoleSalonOwner Role = "SALON_OWNER"

	// RoleManager manages day-to-day salon operations.
	RoleManager Role = "MANAGER"

	// RoleStaffMember provides services and views their own schedule.
	RoleStaffMember Role = "STAFF_MEMBER"

	// RoleReceptionist handles the front desk and bookings.
	RoleReceptionist Role = "RECEPTIONIST"

	// RoleAccountant has read access to financial records.
	RoleAccountant Role = "ACCOUNTANT"

	// RoleClient is an end customer of a salon.
	RoleClient Role = "CLIENT"
)

// Valid reports whether r is one of the defined platform roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleSalonOwner, RoleManager, RoleStaffMember,
		RoleReceptionist, RoleAccountant, RoleClient:
		return true
	}
	return false
}

// ================================================================================
// Token Type Constants
// ================================================================================

// TokenType represents the type of authentication token.
type TokenType string

const (
	// TokenTypeAccess represents a short-lived access token.
	TokenTypeAccess TokenType = "access"

	// TokenTypeRefresh represents a long-lived refresh token.
	TokenTypeRefresh TokenType = "refresh"
)

// ================================================================================
// Token Transport Constants
// ================================================================================

const (
	// CookieAccessToken is the primary httpOnly session cookie.
	CookieAccessToken = "beauty_access_token"

	// CookieClientAccessToken is the client-portal specific cookie, set on a
	// separate client-facing origin.
	CookieClientAccessToken = "beauty_client_access_token"

	// CookieLegacyToken is the legacy cookie name retained for backward
	// compatibility with pre-rebrand deployments.
	CookieLegacyToken = "beauty_token"

	// CookieRefreshToken carries the refresh token for the token refresh flow.
	CookieRefreshToken = "beauty_refresh_token"
)

// TokenSource identifies where an inbound credential was found.
type TokenSource string

const (
	// TokenSourceCookie means the credential came from one of the session cookies.
	TokenSourceCookie TokenSource = "cookie"

	// TokenSourceHeader means the credential came from the Authorization header.
	TokenSourceHeader TokenSource = "header"

	// TokenSourceNone means no credential was found on the request.
	TokenSourceNone TokenSource = "none"
)

// ================================================================================
// JWT Claim Constants
// ================================================================================

const (
	// JWTIssuer is the issuer claim stamped on every token.
	JWTIssuer = "beauty-platform-auth"

	// JWTAudience is the audience claim shared by all platform services.
	JWTAudience = "beauty-platform"

	// PermissionWildcard short-circuits every permission check. Reserved for
	// SUPER_ADMIN tokens.
	PermissionWildcard = "*"
)

// ================================================================================
// Token Lifetime Constants
// ================================================================================

const (
	// AccessTokenDefaultTTL is the default lifetime for access tokens (12 hours).
	AccessTokenDefaultTTL = 12 * time.Hour

	// RefreshTokenDefaultTTL is the default lifetime for refresh tokens (7 days).
	RefreshTokenDefaultTTL = 7 * 24 * time.Hour
)

// ================================================================================
// Fallback Auth Constants
// ================================================================================

const (
	// FallbackCacheKeyPrefix namespaces fallback identity entries in the shared
	// cache store so they never collide with unrelated cache usage.
	FallbackCacheKeyPrefix = "fallback:user:"

	// FallbackCacheDefaultTTL is the default lifetime for cached fallback
	// identities (15 minutes).
	FallbackCacheDefaultTTL = 15 * time.Minute

	// FallbackMaxOfflineAge bounds degraded-mode access by the token's original
	// issue time (1 hour). A valid signature older than this is still refused.
	FallbackMaxOfflineAge = 1 * time.Hour

	// FallbackCacheOpTimeout caps every fallback cache read/write so a slow
	// cache backend degrades to local verification instead of blocking.
	FallbackCacheOpTimeout = 2 * time.Second
)

// ================================================================================
// MFA Constants
// ================================================================================

const (
	// MFADefaultIssuer is the issuer shown in authenticator apps.
	MFADefaultIssuer = "Beauty Platform"

	// MFADefaultWindow is the TOTP validation tolerance in 30-second steps.
	MFADefaultWindow = 1

	// MFATimeStep is the TOTP interval length in seconds.
	MFATimeStep = 30

	// MFASecretBytes is the entropy of a generated TOTP secret.
	MFASecretBytes = 32

	// MFABackupCodeCount is the number of one-time backup codes issued per setup.
	MFABackupCodeCount = 10

	// MFABackupCodeLength is the length of each backup code in hex characters.
	MFABackupCodeLength = 8

	// MFAPendingSetupTTL bounds how long an unconfirmed setup stays valid.
	MFAPendingSetupTTL = 10 * time.Minute
)
