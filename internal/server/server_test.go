package server

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/DesignCorporation/Beauty-Platform-sub005/internal/config"
	"github.com/DesignCorporation/Beauty-Platform-sub005/internal/domain/models"
	"github.com/DesignCorporation/Beauty-Platform-sub005/internal/fallback"
	"github.com/DesignCorporation/Beauty-Platform-sub005/internal/mfa"
	"github.com/DesignCorporation/Beauty-Platform-sub005/internal/middleware"
	"github.com/DesignCorporation/Beauty-Platform-sub005/internal/tenantgate"
	"github.com/DesignCorporation/Beauty-Platform-sub005/internal/token"
	"github.com/DesignCorporation/Beauty-Platform-sub005/pkg/constants"
	autherrors "github.com/DesignCorporation/Beauty-Platform-sub005/pkg/errors"
	"github.com/DesignCorporation/Beauty-Platform-sub005/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	server *Server
	gate   *tenantgate.Factory
	codec  *token.Codec
	redis  *miniredis.Miniredis
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))

	mr := miniredis.RunT(t)
	redisClient := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})

	cfg := &config.Config{
		Server: config.ServerConfig{Host: "127.0.0.1", Port: 0},
		JWT: config.JWTConfig{
			Secret:          "server-test-secret",
			AccessTokenTTL:  12 * time.Hour,
			RefreshTokenTTL: 7 * 24 * time.Hour,
			Issuer:          constants.JWTIssuer,
			Audience:        constants.JWTAudience,
		},
		MFA: config.MFAConfig{Issuer: constants.MFADefaultIssuer, Window: 1},
		Fallback: config.FallbackConfig{
			EnableCache:      true,
			CacheTTL:         15 * time.Minute,
			AllowOfflineMode: true,
			MaxOfflineAge:    time.Hour,
			CacheOpTimeout:   2 * time.Second,
		},
	}

	log := logger.NewNoopLogger()
	codec := token.NewCodec(&cfg.JWT)
	manager := fallback.NewManager(redisClient, codec, cfg.Fallback, log)
	auth := middleware.NewAuth(codec, manager, nil, log)
	mfaService := mfa.NewService(&cfg.MFA, log)
	gate := tenantgate.NewFactory(db)

	srv := New(cfg, codec, auth, manager, mfaService, gate, nil, log)
	return &testEnv{server: srv, gate: gate, codec: codec, redis: mr}
}

func (e *testEnv) seedUser(t *testing.T, email, password, role, tenantID string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{
		ID:           "user-" + email,
		TenantID:     tenantID,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     true,
	}
	require.NoError(t, e.gate.Global().Users().Create(context.Background(), user))
	return user
}

func (e *testEnv) do(method, path string, body interface{}, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	e.server.Engine().ServeHTTP(w, req)
	return w
}

func (e *testEnv) accessCookie(t *testing.T, claims *token.Claims) *http.Cookie {
	t.Helper()
	signed, err := e.codec.Encode(claims)
	require.NoError(t, err)
	return &http.Cookie{Name: constants.CookieAccessToken, Value: signed}
}

func bodyMap(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m))
	return m
}

func cookieByName(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// ================================================================================
// Login / Refresh / Logout
// ================================================================================

func TestLoginSuccessIssuesTokens(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "owner@salon-a.com", "secret-pass", "SALON_OWNER", "tenant-a")

	w := env.do(http.MethodPost, "/auth/login", gin.H{
		"email":    "owner@salon-a.com",
		"password": "secret-pass",
	})
	require.Equal(t, http.StatusOK, w.Code)

	body := bodyMap(t, w)
	assert.Equal(t, true, body["success"])
	assert.NotEmpty(t, body["accessToken"])
	user := body["user"].(map[string]interface{})
	assert.Equal(t, "tenant-a", user["tenantId"])

	require.NotNil(t, cookieByName(w, constants.CookieAccessToken))
	require.NotNil(t, cookieByName(w, constants.CookieRefreshToken))

	// Login wrote through to the fallback cache.
	require.Eventually(t, func() bool {
		return len(env.redis.Keys()) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestLoginRejectsBadPassword(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "owner@salon-a.com", "secret-pass", "SALON_OWNER", "tenant-a")

	w := env.do(http.MethodPost, "/auth/login", gin.H{
		"email":    "owner@salon-a.com",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Unknown accounts get the identical response.
	w2 := env.do(http.MethodPost, "/auth/login", gin.H{
		"email":    "nobody@salon-a.com",
		"password": "wrong",
	})
	assert.Equal(t, w.Body.String(), w2.Body.String())
}

func TestLoginRejectsInactiveAccount(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "gone@salon-a.com", "secret-pass", "STAFF_MEMBER", "tenant-a")
	_, err := env.gate.Global().Users().Update(context.Background(),
		tenantgate.Filter{"id": user.ID}, tenantgate.Filter{"is_active": false})
	require.NoError(t, err)

	w := env.do(http.MethodPost, "/auth/login", gin.H{
		"email":    "gone@salon-a.com",
		"password": "secret-pass",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRefreshFlow(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "owner@salon-a.com", "secret-pass", "SALON_OWNER", "tenant-a")

	login := env.do(http.MethodPost, "/auth/login", gin.H{
		"email":    "owner@salon-a.com",
		"password": "secret-pass",
	})
	require.Equal(t, http.StatusOK, login.Code)
	refreshCookie := cookieByName(login, constants.CookieRefreshToken)
	require.NotNil(t, refreshCookie)

	w := env.do(http.MethodPost, "/auth/refresh", nil, refreshCookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, bodyMap(t, w)["accessToken"])
	assert.NotNil(t, cookieByName(w, constants.CookieAccessToken))
}

func TestRefreshRejectsGarbageToken(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/auth/refresh", nil,
		&http.Cookie{Name: constants.CookieRefreshToken, Value: "garbage"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var authErr autherrors.AuthError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &authErr))
	assert.Equal(t, autherrors.CodeInvalidToken, authErr.Code)
}

func TestRefreshRejectsAccessTokenInRefreshCookie(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "owner@salon-a.com", "secret-pass", "SALON_OWNER", "tenant-a")

	login := env.do(http.MethodPost, "/auth/login", gin.H{
		"email":    "owner@salon-a.com",
		"password": "secret-pass",
	})
	accessCookie := cookieByName(login, constants.CookieAccessToken)
	require.NotNil(t, accessCookie)

	w := env.do(http.MethodPost, "/auth/refresh", nil,
		&http.Cookie{Name: constants.CookieRefreshToken, Value: accessCookie.Value})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogoutRevokesRefreshToken(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "owner@salon-a.com", "secret-pass", "SALON_OWNER", "tenant-a")

	login := env.do(http.MethodPost, "/auth/login", gin.H{
		"email":    "owner@salon-a.com",
		"password": "secret-pass",
	})
	refreshCookie := cookieByName(login, constants.CookieRefreshToken)
	require.NotNil(t, refreshCookie)

	logout := env.do(http.MethodPost, "/auth/logout", nil, refreshCookie)
	require.Equal(t, http.StatusOK, logout.Code)

	w := env.do(http.MethodPost, "/auth/refresh", nil, refreshCookie)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// ================================================================================
// MFA Enrollment and Login Gating
// ================================================================================

func TestMFAEnrollmentAndLoginFlow(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "admin@platform.com", "secret-pass", "SUPER_ADMIN", "")

	login := env.do(http.MethodPost, "/auth/login", gin.H{
		"email":    "admin@platform.com",
		"password": "secret-pass",
	})
	require.Equal(t, http.StatusOK, login.Code)
	assert.Equal(t, true, bodyMap(t, login)["mfaSetupRequired"])
	accessCookie := cookieByName(login, constants.CookieAccessToken)
	require.NotNil(t, accessCookie)

	// Start enrollment.
	setupResp := env.do(http.MethodPost, "/auth/mfa/setup", gin.H{}, accessCookie)
	require.Equal(t, http.StatusOK, setupResp.Code)

	var setup mfa.Setup
	require.NoError(t, json.Unmarshal(setupResp.Body.Bytes(), &setup))
	require.Len(t, setup.BackupCodes, constants.MFABackupCodeCount)
	assert.Contains(t, setup.QRCodeDataURL, "data:image/png;base64,")

	// Confirm with a backup code.
	verify := env.do(http.MethodPost, "/auth/mfa/verify",
		gin.H{"code": setup.BackupCodes[0]}, accessCookie)
	require.Equal(t, http.StatusOK, verify.Code)
	verifyBody := bodyMap(t, verify)
	assert.Equal(t, true, verifyBody["verified"])
	assert.Equal(t, true, verifyBody["usedBackupCode"])

	stored, err := env.gate.Global().Users().FindByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.True(t, stored.MFAEnabled)
	assert.NotEmpty(t, stored.MFASecret)
	assert.NotContains(t, stored.MFABackupCodes, setup.BackupCodes[0])

	// Login now demands a second factor.
	gated := env.do(http.MethodPost, "/auth/login", gin.H{
		"email":    "admin@platform.com",
		"password": "secret-pass",
	})
	require.Equal(t, http.StatusOK, gated.Code)
	assert.Equal(t, true, bodyMap(t, gated)["requiresMFA"])

	// A fresh backup code completes the login.
	completed := env.do(http.MethodPost, "/auth/login", gin.H{
		"email":    "admin@platform.com",
		"password": "secret-pass",
		"mfaCode":  setup.BackupCodes[1],
	})
	require.Equal(t, http.StatusOK, completed.Code)
	assert.NotEmpty(t, bodyMap(t, completed)["accessToken"])

	// The consumed codes are single-use.
	for _, code := range []string{setup.BackupCodes[0], setup.BackupCodes[1]} {
		replay := env.do(http.MethodPost, "/auth/login", gin.H{
			"email":    "admin@platform.com",
			"password": "secret-pass",
			"mfaCode":  code,
		})
		assert.Equal(t, http.StatusUnauthorized, replay.Code)
	}
}

func TestMFAVerifyWithoutSetupInProgress(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "staff@salon-a.com", "secret-pass", "STAFF_MEMBER", "tenant-a")

	login := env.do(http.MethodPost, "/auth/login", gin.H{
		"email":    "staff@salon-a.com",
		"password": "secret-pass",
	})
	accessCookie := cookieByName(login, constants.CookieAccessToken)
	require.NotNil(t, accessCookie)

	w := env.do(http.MethodPost, "/auth/mfa/verify", gin.H{"code": "123456"}, accessCookie)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// ================================================================================
// Tenant-Scoped API
// ================================================================================

func seedClientsAcrossTenants(t *testing.T, env *testEnv) {
	t.Helper()
	ctx := context.Background()
	a, err := env.gate.ForTenant("tenant-a")
	require.NoError(t, err)
	b, err := env.gate.ForTenant("tenant-b")
	require.NoError(t, err)
	require.NoError(t, a.Clients().Create(ctx, &models.Client{ID: "c-a1", FirstName: "Anna"}))
	require.NoError(t, b.Clients().Create(ctx, &models.Client{ID: "c-b1", FirstName: "Bella"}))
}

func staffClaimsFor(tenantID string) *token.Claims {
	return &token.Claims{
		UserID:      "staff-" + tenantID,
		TenantID:    tenantID,
		Role:        constants.RoleStaffMember,
		Email:       "staff@" + tenantID + ".com",
		Permissions: PermissionsForRole(constants.RoleStaffMember),
	}
}

func TestAPIListClientsIsTenantScoped(t *testing.T) {
	env := newTestEnv(t)
	seedClientsAcrossTenants(t, env)

	w := env.do(http.MethodGet, "/api/clients", nil,
		env.accessCookie(t, staffClaimsFor("tenant-a")))
	require.Equal(t, http.StatusOK, w.Code)

	assert.Contains(t, w.Body.String(), "c-a1")
	assert.NotContains(t, w.Body.String(), "c-b1")
}

func TestAPIForeignTenantPathIsRefused(t *testing.T) {
	env := newTestEnv(t)
	seedClientsAcrossTenants(t, env)

	w := env.do(http.MethodGet, "/api/tenants/tenant-b/appointments", nil,
		env.accessCookie(t, staffClaimsFor("tenant-a")))
	assert.Equal(t, http.StatusForbidden, w.Code)

	var authErr autherrors.AuthError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &authErr))
	assert.Equal(t, autherrors.CodeTenantAccessDenied, authErr.Code)
	assert.Equal(t, "tenant-a", authErr.Details["userTenant"])
	assert.Equal(t, "tenant-b", authErr.Details["requestedTenant"])
}

func TestAPICreateAppointmentStampsTenant(t *testing.T) {
	env := newTestEnv(t)

	claims := staffClaimsFor("tenant-a")
	claims.Role = constants.RoleReceptionist
	claims.Permissions = PermissionsForRole(constants.RoleReceptionist)

	w := env.do(http.MethodPost, "/api/appointments", gin.H{
		"clientId":  "c-a1",
		"serviceId": "svc-1",
		"staffId":   "staff-1",
		"startsAt":  time.Now().Add(time.Hour).Format(time.RFC3339),
		"endsAt":    time.Now().Add(2 * time.Hour).Format(time.RFC3339),
	}, env.accessCookie(t, claims))
	require.Equal(t, http.StatusCreated, w.Code)

	handle, err := env.gate.ForTenant("tenant-a")
	require.NoError(t, err)
	appointments, err := handle.Appointments().FindMany(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, appointments, 1)
	assert.Equal(t, "tenant-a", appointments[0].TenantID)
}

func TestAPIForgedBodyTenantIsRefused(t *testing.T) {
	env := newTestEnv(t)

	claims := staffClaimsFor("tenant-a")
	claims.Role = constants.RoleReceptionist
	claims.Permissions = PermissionsForRole(constants.RoleReceptionist)

	// The body names tenant-b; the tenant gate middleware refuses before the
	// handler runs.
	w := env.do(http.MethodPost, "/api/appointments", gin.H{
		"tenantId":  "tenant-b",
		"clientId":  "c-b1",
		"serviceId": "svc-1",
		"staffId":   "staff-1",
		"startsAt":  time.Now().Add(time.Hour).Format(time.RFC3339),
		"endsAt":    time.Now().Add(2 * time.Hour).Format(time.RFC3339),
	}, env.accessCookie(t, claims))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAPIPermissionGate(t *testing.T) {
	env := newTestEnv(t)

	// STAFF_MEMBER has no clients.create.
	w := env.do(http.MethodPost, "/api/clients", gin.H{
		"firstName": "Nina",
	}, env.accessCookie(t, staffClaimsFor("tenant-a")))
	assert.Equal(t, http.StatusForbidden, w.Code)

	var authErr autherrors.AuthError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &authErr))
	assert.Equal(t, autherrors.CodeInsufficientPermissions, authErr.Code)
	assert.Equal(t, "clients.create", authErr.Details["required"])
}

func TestAPISuperAdminSeesAllTenants(t *testing.T) {
	env := newTestEnv(t)
	seedClientsAcrossTenants(t, env)

	admin := &token.Claims{
		UserID:      "admin-1",
		Role:        constants.RoleSuperAdmin,
		Email:       "admin@platform.com",
		Permissions: PermissionsForRole(constants.RoleSuperAdmin),
	}
	w := env.do(http.MethodGet, "/api/clients", nil, env.accessCookie(t, admin))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "c-a1")
	assert.Contains(t, w.Body.String(), "c-b1")
}

// fallbackKeyFor mirrors the fallback manager's token fingerprint scheme.
func fallbackKeyFor(rawToken string) string {
	sum := sha256.Sum256([]byte(rawToken))
	return constants.FallbackCacheKeyPrefix + hex.EncodeToString(sum[:])[:16]
}

func TestAPIFallbackModeServesCachedIdentity(t *testing.T) {
	env := newTestEnv(t)
	seedClientsAcrossTenants(t, env)

	// An opaque token with a cached identity: primary decode fails, the
	// fallback cache answers.
	rawToken := "opaque-degraded-token"
	entry := fallback.Identity{
		UserID:      "cached-manager",
		Email:       "manager@tenant-a.com",
		Role:        constants.RoleManager,
		TenantID:    "tenant-a",
		Permissions: fallback.OfflinePermissions(constants.RoleManager),
		CachedAt:    time.Now().UnixMilli(),
		ExpiresAt:   time.Now().Add(10 * time.Minute).UnixMilli(),
	}
	payload, err := json.Marshal(entry)
	require.NoError(t, err)
	require.NoError(t, env.redis.Set(fallbackKeyFor(rawToken), string(payload)))

	w := env.do(http.MethodGet, "/api/clients", nil,
		&http.Cookie{Name: constants.CookieAccessToken, Value: rawToken})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "c-a1")
	assert.NotContains(t, w.Body.String(), "c-b1")
}
