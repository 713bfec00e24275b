package token

import (
	"net/http"
	"strings"

	"github.com/DesignCorporation/Beauty-Platform-sub005/pkg/constants"
)

// cookiePriority is the deterministic order candidate cookies are checked in.
// The legacy name stays until the last pre-rebrand mobile build is retired.
var cookiePriority = []string{
	constants.CookieAccessToken,
	constants.CookieClientAccessToken,
	constants.CookieLegacyToken,
}

// Extract pulls a candidate credential out of an inbound request.
//
// Priority order, evaluated until first hit: the primary httpOnly session
// cookie, the client-portal cookie, the legacy cookie, then the
// Authorization Bearer header. Query-string tokens are never trusted.
// Absence of any candidate yields an empty token and TokenSourceNone; the
// caller decides whether that is an error.
func Extract(r *http.Request) (string, constants.TokenSource) {
	for _, name := range cookiePriority {
		if cookie, err := r.Cookie(name); err == nil && cookie.Value != "" {
			return cookie.Value, constants.TokenSourceCookie
		}
	}

	if bearer := extractBearer(r.Header.Get("Authorization")); bearer != "" {
		return bearer, constants.TokenSourceHeader
	}

	return "", constants.TokenSourceNone
}

// ExtractRefresh pulls the refresh token from its dedicated cookie.
func ExtractRefresh(r *http.Request) string {
	if cookie, err := r.Cookie(constants.CookieRefreshToken); err == nil {
		return cookie.Value
	}
	return ""
}

// extractBearer parses an Authorization header value of the form
// "Bearer <token>".
func extractBearer(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
