// Package errors defines the structured error types shared by the identity
// core. Every authentication and authorization failure is rendered with the
// same JSON shape so the frontends and gateway can branch on the machine code
// instead of parsing human text.
package errors

import "net/http"

// ================================================================================
// Machine Codes
// ================================================================================

// Code is a machine-readable error code, stable across releases.
type Code string

const (
	// CodeMissingToken means no credential was found on the request.
	CodeMissingToken Code = "MISSING_TOKEN"

	// CodeTokenExpired means the credential verified but is past its expiry.
	// Clients should attempt the refresh flow.
	CodeTokenExpired Code = "TOKEN_EXPIRED"

	// CodeInvalidToken means the credential is malformed or its signature does
	// not verify. Clients should force a re-login.
	CodeInvalidToken Code = "INVALID_TOKEN"

	// CodeAuthFailed is the generic authentication failure for decode errors
	// that are neither expiry nor signature failures.
	CodeAuthFailed Code = "AUTH_FAILED"

	// CodeAuthRequired means a guard that needs an identity ran without one.
	CodeAuthRequired Code = "AUTH_REQUIRED"

	// CodeTenantRequired means the authenticated identity carries no tenant but
	// the operation is tenant-scoped.
	CodeTenantRequired Code = "TENANT_REQUIRED"

	// CodeTenantAccessDenied means the identity's tenant does not match the
	// tenant named by the request.
	CodeTenantAccessDenied Code = "TENANT_ACCESS_DENIED"

	// CodeInsufficientPermissions means the identity lacks a required capability.
	CodeInsufficientPermissions Code = "INSUFFICIENT_PERMISSIONS"

	// CodeNoToken is the fallback-path variant of a missing credential.
	CodeNoToken Code = "NO_TOKEN"

	// CodeFallbackAuthFailed means the degraded-mode path could not establish
	// an identity from any of its sources.
	CodeFallbackAuthFailed Code = "FALLBACK_AUTH_FAILED"

	// CodeFallbackAuthError means the degraded-mode path itself failed
	// unexpectedly. Maps to a 500, not a 401.
	CodeFallbackAuthError Code = "FALLBACK_AUTH_ERROR"

	// CodeOfflineModeNotAllowed means the token's signature verified but its
	// issue time is older than the configured maximum offline duration.
	CodeOfflineModeNotAllowed Code = "OFFLINE_MODE_NOT_ALLOWED"
)

// ================================================================================
// Auth Error
// ================================================================================

// AuthError is the uniform response body for authentication and authorization
// failures across every service behind the gateway.
type AuthError struct {
	Success bool                   `json:"success"`
	Message string                 `json:"error"`
	Code    Code                   `json:"code"`
	Details map[string]interface{} `json:"details,omitempty"`

	status int
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	return string(e.Code) + ": " + e.Message
}

// HTTPStatus returns the HTTP status the error should be rendered with.
func (e *AuthError) HTTPStatus() int {
	if e.status == 0 {
		return http.StatusUnauthorized
	}
	return e.status
}

// WithDetails attaches diagnostic detail to the error and returns it.
func (e *AuthError) WithDetails(details map[string]interface{}) *AuthError {
	e.Details = details
	return e
}

// New creates an AuthError with an explicit HTTP status.
func New(status int, code Code, message string) *AuthError {
	return &AuthError{
		Success: false,
		Message: message,
		Code:    code,
		status:  status,
	}
}

// ================================================================================
// Predefined Constructors
// ================================================================================

// ErrMissingToken reports an absent credential on a protected route.
func ErrMissingToken() *AuthError {
	return New(http.StatusUnauthorized, CodeMissingToken, "Authentication required")
}

// ErrTokenExpired reports an expired credential.
func ErrTokenExpired() *AuthError {
	return New(http.StatusUnauthorized, CodeTokenExpired, "Token expired")
}

// ErrInvalidToken reports a malformed or forged credential.
func ErrInvalidToken() *AuthError {
	return New(http.StatusUnauthorized, CodeInvalidToken, "Invalid token")
}

// ErrAuthFailed reports a generic authentication failure.
func ErrAuthFailed(message string) *AuthError {
	if message == "" {
		message = "Authentication failed"
	}
	return New(http.StatusUnauthorized, CodeAuthFailed, message)
}

// ErrAuthRequired reports a guard running without an authenticated identity.
func ErrAuthRequired() *AuthError {
	return New(http.StatusUnauthorized, CodeAuthRequired, "Authentication required")
}

// ErrTenantRequired reports a tenant-scoped operation hit by an identity with
// no tenant.
func ErrTenantRequired() *AuthError {
	return New(http.StatusForbidden, CodeTenantRequired, "Tenant access required")
}

// ErrTenantAccessDenied reports a cross-tenant access attempt. Both tenant ids
// are included so support can diagnose mismatches without guessing.
func ErrTenantAccessDenied(userTenant, requestedTenant string) *AuthError {
	return New(http.StatusForbidden, CodeTenantAccessDenied, "Tenant access denied").
		WithDetails(map[string]interface{}{
			"userTenant":      userTenant,
			"requestedTenant": requestedTenant,
		})
}

// ErrInsufficientPermissions reports a missing capability, echoing the
// required permission and the identity's actual set for debuggability.
func ErrInsufficientPermissions(required string, userPermissions []string) *AuthError {
	return New(http.StatusForbidden, CodeInsufficientPermissions, "Insufficient permissions").
		WithDetails(map[string]interface{}{
			"required":        required,
			"userPermissions": userPermissions,
		})
}

// ErrNoToken reports an absent credential on the fallback path.
func ErrNoToken() *AuthError {
	return New(http.StatusUnauthorized, CodeNoToken, "Authentication token required")
}

// ErrFallbackAuthFailed reports that no degraded-mode source produced an identity.
func ErrFallbackAuthFailed() *AuthError {
	return New(http.StatusUnauthorized, CodeFallbackAuthFailed,
		"Authentication failed - service temporarily unavailable")
}

// ErrFallbackAuthError reports an internal failure inside the fallback path.
func ErrFallbackAuthError() *AuthError {
	return New(http.StatusInternalServerError, CodeFallbackAuthError,
		"Authentication service error")
}

// ErrOfflineModeNotAllowed reports a token too old for degraded-mode access.
func ErrOfflineModeNotAllowed() *AuthError {
	return New(http.StatusUnauthorized, CodeOfflineModeNotAllowed,
		"Offline mode not allowed - token too old")
}

// ================================================================================
// Utilities
// ================================================================================

// AsAuthError attempts to cast an error to *AuthError.
func AsAuthError(err error) (*AuthError, bool) {
	authErr, ok := err.(*AuthError)
	return authErr, ok
}
