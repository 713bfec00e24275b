package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/DesignCorporation/Beauty-Platform-sub005/internal/config"
	"github.com/DesignCorporation/Beauty-Platform-sub005/pkg/constants"
)

// Sentinel decode failures. Callers branch on these because the remediation
// differs: expiry prompts a refresh flow, invalidity forces a re-login.
var (
	// ErrTokenExpired means signature and shape verified but the token is past
	// its expiry.
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenInvalid means the token is malformed, forged, signed with a
	// different secret, or missing required claims.
	ErrTokenInvalid = errors.New("invalid token")
)

// Codec encodes and verifies identity tokens with the shared HS256 secret.
// Verification checks signature, expiry, issuer, and audience atomically, and
// rejects structurally incomplete payloads even when the signature verifies.
type Codec struct {
	secret     []byte
	issuer     string
	audience   string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewCodec creates a Codec from the JWT configuration.
func NewCodec(cfg *config.JWTConfig) *Codec {
	return &Codec{
		secret:     []byte(cfg.Secret),
		issuer:     cfg.Issuer,
		audience:   cfg.Audience,
		accessTTL:  cfg.AccessTokenTTL,
		refreshTTL: cfg.RefreshTokenTTL,
	}
}

// Encode signs the claim set. Registered claims (iat, exp, iss, aud) are
// stamped from the codec configuration unless the caller already set them,
// which keeps issuance deterministic in tests.
func (c *Codec) Encode(claims *Claims) (string, error) {
	if claims.UserID == "" || claims.Role == "" || claims.Email == "" {
		return "", fmt.Errorf("%w: userId, role and email are required", ErrTokenInvalid)
	}
	if claims.Type == "" {
		claims.Type = constants.TokenTypeAccess
	}

	now := time.Now()
	if claims.IssuedAt == nil {
		claims.IssuedAt = jwt.NewNumericDate(now)
	}
	if claims.ExpiresAt == nil {
		ttl := c.accessTTL
		if claims.Type == constants.TokenTypeRefresh {
			ttl = c.refreshTTL
		}
		claims.ExpiresAt = jwt.NewNumericDate(claims.IssuedAt.Add(ttl))
	}
	if claims.Issuer == "" {
		claims.Issuer = c.issuer
	}
	if len(claims.Audience) == 0 {
		claims.Audience = jwt.ClaimStrings{c.audience}
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Decode parses and verifies a token string. It returns ErrTokenExpired for
// tokens whose only defect is expiry, ErrTokenInvalid for malformed or forged
// tokens and for valid signatures over incomplete payloads, and the raw parse
// error for anything else. On expiry the parsed claims are returned alongside
// the error: the signature verified, so the identity is known and callers may
// use it for audit logging. Every other failure returns nil claims.
func (c *Codec) Decode(tokenString string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
			}
			return c.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(c.issuer),
		jwt.WithAudience(c.audience),
	)

	if err != nil {
		switch {
		// A forged token must never be reported as merely expired, so the
		// signature and shape checks take precedence over the expiry check.
		case errors.Is(err, jwt.ErrTokenSignatureInvalid),
			errors.Is(err, jwt.ErrTokenMalformed),
			errors.Is(err, jwt.ErrTokenUnverifiable),
			errors.Is(err, jwt.ErrTokenInvalidIssuer),
			errors.Is(err, jwt.ErrTokenInvalidAudience):
			return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
		case errors.Is(err, jwt.ErrTokenExpired):
			return claims, ErrTokenExpired
		default:
			return nil, err
		}
	}

	if !parsed.Valid {
		return nil, ErrTokenInvalid
	}

	// Defense against schema drift: a valid signature over an incomplete
	// payload is still rejected.
	if claims.UserID == "" || claims.Role == "" || claims.Email == "" {
		return nil, fmt.Errorf("%w: missing required claims", ErrTokenInvalid)
	}
	if claims.Type == "" {
		claims.Type = constants.TokenTypeAccess
	}

	return claims, nil
}

// IssueAccess encodes an access token for the given identity.
func (c *Codec) IssueAccess(claims Claims) (string, error) {
	claims.Type = constants.TokenTypeAccess
	return c.Encode(&claims)
}

// IssueRefresh encodes a refresh token for the given identity.
func (c *Codec) IssueRefresh(claims Claims) (string, error) {
	claims.Type = constants.TokenTypeRefresh
	claims.Permissions = nil
	return c.Encode(&claims)
}

// AccessTTL exposes the configured access token lifetime for cookie Max-Age
// and response bodies.
func (c *Codec) AccessTTL() time.Duration { return c.accessTTL }

// RefreshTTL exposes the configured refresh token lifetime.
func (c *Codec) RefreshTTL() time.Duration { return c.refreshTTL }
