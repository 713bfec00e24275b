package middleware

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/DesignCorporation/Beauty-Platform-sub005/internal/fallback"
	"github.com/DesignCorporation/Beauty-Platform-sub005/internal/token"
	"github.com/DesignCorporation/Beauty-Platform-sub005/pkg/constants"
	autherrors "github.com/DesignCorporation/Beauty-Platform-sub005/pkg/errors"
	"github.com/DesignCorporation/Beauty-Platform-sub005/pkg/logger"
)

// Metrics receives authentication outcomes. Implementations must be cheap
// and must never fail the request.
type Metrics interface {
	ObserveAuth(outcome string, source constants.TokenSource)
	ObserveFallback(outcome string)
}

// Auth bundles the authentication middleware chain around one codec and,
// optionally, the fallback manager and a metrics sink.
type Auth struct {
	codec    *token.Codec
	fallback *fallback.Manager
	metrics  Metrics
	log      logger.Logger
}

// NewAuth builds the middleware set. fallbackManager and metrics may be nil.
func NewAuth(codec *token.Codec, fallbackManager *fallback.Manager, metrics Metrics, log logger.Logger) *Auth {
	return &Auth{
		codec:    codec,
		fallback: fallbackManager,
		metrics:  metrics,
		log:      log.WithComponent("auth-middleware"),
	}
}

// Authenticate verifies the request credential and attaches the identity
// context, rejecting the request otherwise. Every outcome is written to the
// audit log with path, method, user id when known, and token source.
func (a *Auth) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, source := token.Extract(c.Request)
		if raw == "" {
			a.reject(c, autherrors.ErrMissingToken(), source, "")
			return
		}

		claims, err := a.codec.Decode(raw)
		if err != nil {
			a.reject(c, decodeError(err), source, knownUserID(claims))
			return
		}

		identity := identityFromClaims(claims, source)
		setIdentity(c, identity)
		a.audit(c, "authenticated", identity)
		a.observe("success", source)

		// Write-through so a later outage can replay this success. Detached
		// from the request lifecycle; failures are the manager's problem.
		if a.fallback != nil {
			go a.fallback.CacheIdentity(context.WithoutCancel(c.Request.Context()), raw, fallback.Identity{
				UserID:      identity.UserID,
				Email:       identity.Email,
				Role:        identity.Role,
				TenantID:    identity.TenantID,
				Permissions: identity.Permissions,
				IssuedAt:    issuedAtMillis(claims),
			})
		}

		c.Next()
	}
}

// OptionalAuth attaches an identity when a valid credential is present and
// silently continues without one otherwise. Used for public endpoints with
// optional personalization.
func (a *Auth) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, source := token.Extract(c.Request)
		if raw == "" {
			c.Next()
			return
		}

		claims, err := a.codec.Decode(raw)
		if err != nil {
			a.log.Debug(c.Request.Context(), "optional auth ignored invalid credential", logger.Fields{
				"path":   c.Request.URL.Path,
				"method": c.Request.Method,
				"error":  err.Error(),
			})
			c.Next()
			return
		}

		identity := identityFromClaims(claims, source)
		setIdentity(c, identity)
		a.audit(c, "authenticated optionally", identity)
		c.Next()
	}
}

// AuthenticateWithFallback verifies the credential against the primary path
// and, when that fails, runs the degraded-mode state machine instead of
// hard-rejecting. For services that opted into resilience mode.
func (a *Auth) AuthenticateWithFallback() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, source := token.Extract(c.Request)
		if raw == "" {
			a.reject(c, autherrors.ErrNoToken(), source, "")
			return
		}

		claims, err := a.codec.Decode(raw)
		if err == nil {
			identity := identityFromClaims(claims, source)
			setIdentity(c, identity)
			a.audit(c, "authenticated", identity)
			a.observe("success", source)
			if a.fallback != nil {
				go a.fallback.CacheIdentity(context.WithoutCancel(c.Request.Context()), raw, fallback.Identity{
					UserID:      identity.UserID,
					Email:       identity.Email,
					Role:        identity.Role,
					TenantID:    identity.TenantID,
					Permissions: identity.Permissions,
					IssuedAt:    issuedAtMillis(claims),
				})
			}
			c.Next()
			return
		}

		if a.fallback == nil {
			a.reject(c, decodeError(err), source, knownUserID(claims))
			return
		}

		fbIdentity, fbErr := a.fallback.Authenticate(c.Request.Context(), raw)
		if fbErr != nil {
			if a.metrics != nil {
				a.metrics.ObserveFallback("failure")
			}
			if authErr, ok := autherrors.AsAuthError(fbErr); ok {
				a.reject(c, authErr, source, knownUserID(claims))
				return
			}
			a.reject(c, autherrors.ErrFallbackAuthError(), source, knownUserID(claims))
			return
		}

		identity := identityFromFallback(fbIdentity, source)
		setIdentity(c, identity)
		a.audit(c, "authenticated via fallback", identity)
		if a.metrics != nil {
			a.metrics.ObserveFallback("success")
		}
		c.Next()
	}
}

// knownUserID pulls the user id out of claims the codec returned alongside an
// expiry error. The signature verified, so the id is trustworthy for audit
// logging even though the request is rejected.
func knownUserID(claims *token.Claims) string {
	if claims == nil {
		return ""
	}
	return claims.UserID
}

// issuedAtMillis extracts the iat claim for the fallback cache's offline-age
// anchor. Zero when the token carries no issue time.
func issuedAtMillis(claims *token.Claims) int64 {
	if claims.IssuedAt == nil {
		return 0
	}
	return claims.IssuedAt.UnixMilli()
}

// decodeError maps codec failures onto the stable machine codes.
func decodeError(err error) *autherrors.AuthError {
	switch {
	case errors.Is(err, token.ErrTokenExpired):
		return autherrors.ErrTokenExpired()
	case errors.Is(err, token.ErrTokenInvalid):
		return autherrors.ErrInvalidToken()
	default:
		return autherrors.ErrAuthFailed(err.Error())
	}
}

// reject writes the structured error and aborts the chain.
func (a *Auth) reject(c *gin.Context, authErr *autherrors.AuthError, source constants.TokenSource, userID string) {
	fields := logger.Fields{
		"path":   c.Request.URL.Path,
		"method": c.Request.Method,
		"code":   string(authErr.Code),
		"source": string(source),
	}
	if userID != "" {
		fields["userId"] = userID
	}
	a.log.Warn(c.Request.Context(), "request rejected", fields)
	a.observe(string(authErr.Code), source)

	c.AbortWithStatusJSON(authErr.HTTPStatus(), authErr)
}

// audit records a successful authentication outcome.
func (a *Auth) audit(c *gin.Context, msg string, identity *Identity) {
	a.log.Info(c.Request.Context(), msg, logger.Fields{
		"path":     c.Request.URL.Path,
		"method":   c.Request.Method,
		"userId":   identity.UserID,
		"tenantId": identity.TenantID,
		"role":     string(identity.Role),
		"source":   string(identity.Source),
	})
}

func (a *Auth) observe(outcome string, source constants.TokenSource) {
	if a.metrics != nil {
		a.metrics.ObserveAuth(outcome, source)
	}
}
