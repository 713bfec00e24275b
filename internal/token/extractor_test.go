package token

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/DesignCorporation/Beauty-Platform-sub005/pkg/constants"
)

func TestExtractCookieTakesPrecedenceOverHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/appointments", nil)
	req.AddCookie(&http.Cookie{Name: constants.CookieAccessToken, Value: "cookie-token"})
	req.Header.Set("Authorization", "Bearer header-token")

	tok, source := Extract(req)
	assert.Equal(t, "cookie-token", tok)
	assert.Equal(t, constants.TokenSourceCookie, source)
}

func TestExtractCookiePriorityOrder(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: constants.CookieLegacyToken, Value: "legacy"})
	req.AddCookie(&http.Cookie{Name: constants.CookieClientAccessToken, Value: "portal"})

	tok, source := Extract(req)
	assert.Equal(t, "portal", tok)
	assert.Equal(t, constants.TokenSourceCookie, source)
}

func TestExtractLegacyCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: constants.CookieLegacyToken, Value: "legacy"})

	tok, source := Extract(req)
	assert.Equal(t, "legacy", tok)
	assert.Equal(t, constants.TokenSourceCookie, source)
}

func TestExtractBearerHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer header-token")

	tok, source := Extract(req)
	assert.Equal(t, "header-token", tok)
	assert.Equal(t, constants.TokenSourceHeader, source)
}

func TestExtractBearerIsCaseInsensitive(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer header-token")

	tok, _ := Extract(req)
	assert.Equal(t, "header-token", tok)
}

func TestExtractIgnoresNonBearerSchemes(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")

	tok, source := Extract(req)
	assert.Empty(t, tok)
	assert.Equal(t, constants.TokenSourceNone, source)
}

func TestExtractNeverTrustsQueryString(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?token=query-token&access_token=query-token", nil)

	tok, source := Extract(req)
	assert.Empty(t, tok)
	assert.Equal(t, constants.TokenSourceNone, source)
}

func TestExtractAbsenceYieldsEmpty(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	tok, source := Extract(req)
	assert.Empty(t, tok)
	assert.Equal(t, constants.TokenSourceNone, source)
}

func TestExtractRefreshCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: constants.CookieRefreshToken, Value: "refresh-token"})

	assert.Equal(t, "refresh-token", ExtractRefresh(req))
}
