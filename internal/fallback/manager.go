// Package fallback keeps authenticated operations available in a bounded,
// reduced-trust way when the primary identity verification path is degraded.
// The order of preference is a cached prior success, then a local signature
// check, then a role-based reduced permission set capped by a maximum
// offline age. The manager fails closed on anything else.
package fallback

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/DesignCorporation/Beauty-Platform-sub005/internal/config"
	"github.com/DesignCorporation/Beauty-Platform-sub005/internal/token"
	"github.com/DesignCorporation/Beauty-Platform-sub005/pkg/constants"
	autherrors "github.com/DesignCorporation/Beauty-Platform-sub005/pkg/errors"
	"github.com/DesignCorporation/Beauty-Platform-sub005/pkg/logger"
)

// redisRecheckInterval is how long the manager waits before re-probing a
// cache backend it has marked unhealthy.
const redisRecheckInterval = 30 * time.Second

// Identity is the ephemeral record cached per token fingerprint after a
// successful primary authentication, and synthesized locally in offline mode.
// IssuedAt mirrors the token's iat claim; the maximum-offline-age cap is
// measured from it, not from the cache write.
type Identity struct {
	UserID      string         `json:"userId"`
	Email       string         `json:"email"`
	Role        constants.Role `json:"role"`
	TenantID    string         `json:"tenantId,omitempty"`
	Permissions []string       `json:"permissions"`
	IssuedAt    int64          `json:"issuedAt,omitempty"`
	CachedAt    int64          `json:"cachedAt"`
	ExpiresAt   int64          `json:"expiresAt"`
	// Offline marks an identity produced by local verification rather than a
	// mirrored prior success.
	Offline bool `json:"offline,omitempty"`
}

// offlinePermissions is the conservative per-role capability set granted in
// degraded mode instead of the token's own permissions claim.
var offlinePermissions = map[constants.Role][]string{
	constants.RoleSuperAdmin:   {constants.PermissionWildcard},
	constants.RoleSalonOwner:   {"salons.read", "salons.update", "appointments.read", "clients.read"},
	constants.RoleManager:      {"appointments.read", "appointments.create", "clients.read"},
	constants.RoleStaffMember:  {"appointments.read", "clients.read"},
	constants.RoleReceptionist: {"appointments.read", "appointments.create", "clients.read"},
	constants.RoleAccountant:   {"reports.read", "invoices.read", "appointments.read"},
	constants.RoleClient:       {"appointments.read"},
}

// OfflinePermissions returns the reduced capability set for a role. Unknown
// roles get a minimal read-only grant.
func OfflinePermissions(role constants.Role) []string {
	if perms, ok := offlinePermissions[role]; ok {
		return append([]string(nil), perms...)
	}
	return []string{"basic.read"}
}

// Manager is the degraded-mode authenticator. It tracks cache backend
// connectivity itself: a failed operation marks the backend unhealthy and
// step 1 is skipped until a later probe succeeds.
type Manager struct {
	redis *goredis.Client
	codec *token.Codec
	cfg   config.FallbackConfig
	log   logger.Logger

	mu           sync.Mutex
	redisHealthy bool
	lastProbe    time.Time

	// now is a test seam.
	now func() time.Time
}

// NewManager builds the manager and probes the cache backend once.
func NewManager(redisClient *goredis.Client, codec *token.Codec, cfg config.FallbackConfig, log logger.Logger) *Manager {
	m := &Manager{
		redis: redisClient,
		codec: codec,
		cfg:   cfg,
		log:   log.WithComponent("fallback-auth"),
		now:   time.Now,
	}
	if redisClient != nil {
		m.probe(context.Background())
	}
	return m
}

// Authenticate runs the degraded-mode state machine for a raw token.
//
// It returns the identity to act as, or an AuthError: FALLBACK_AUTH_FAILED
// when the token cannot be trusted, OFFLINE_MODE_NOT_ALLOWED when the token
// verified but is past the maximum offline age.
func (m *Manager) Authenticate(ctx context.Context, rawToken string) (*Identity, error) {
	// Step 1: mirrored prior success.
	if cached := m.cachedIdentity(ctx, rawToken); cached != nil {
		m.log.Debug(ctx, "fallback auth served from cache", logger.Fields{"userId": cached.UserID})
		return cached, nil
	}

	// Step 2: local signature check, no network.
	claims, err := m.codec.Decode(rawToken)
	if err != nil {
		m.log.Warn(ctx, "fallback local verification failed", logger.Fields{"error": err.Error()})
		return nil, autherrors.ErrFallbackAuthFailed()
	}

	// Step 3: a stale token must not grant indefinite degraded access.
	if !m.withinOfflineWindow(claims) {
		m.log.Warn(ctx, "offline mode rejected, token too old", logger.Fields{"userId": claims.UserID})
		return nil, autherrors.ErrOfflineModeNotAllowed()
	}

	// Step 4: reduced permission set for the role, never the token's own
	// permissions claim.
	now := m.now()
	identity := &Identity{
		UserID:      claims.UserID,
		Email:       claims.Email,
		Role:        claims.Role,
		TenantID:    claims.TenantID,
		Permissions: OfflinePermissions(claims.Role),
		IssuedAt:    claims.IssuedAt.UnixMilli(),
		CachedAt:    now.UnixMilli(),
		ExpiresAt:   now.Add(m.cfg.CacheTTL).UnixMilli(),
		Offline:     true,
	}
	m.log.Info(ctx, "fallback auth using offline mode", logger.Fields{
		"userId": identity.UserID,
		"role":   string(identity.Role),
	})
	return identity, nil
}

// CacheIdentity writes an identity through to the fallback cache after a
// successful primary authentication. Failures are logged and swallowed; a
// cache write must never fail the request that triggered it.
func (m *Manager) CacheIdentity(ctx context.Context, rawToken string, identity Identity) {
	if !m.cfg.EnableCache || !m.redisAvailable(ctx) {
		return
	}
	now := m.now()
	identity.CachedAt = now.UnixMilli()
	identity.ExpiresAt = now.Add(m.cfg.CacheTTL).UnixMilli()
	if identity.IssuedAt == 0 {
		// Anchor the offline-age cap to the token's issue time.
		if claims, err := m.codec.Decode(rawToken); err == nil && claims.IssuedAt != nil {
			identity.IssuedAt = claims.IssuedAt.UnixMilli()
		} else {
			identity.IssuedAt = now.UnixMilli()
		}
	}
	if len(identity.Permissions) == 0 {
		identity.Permissions = OfflinePermissions(identity.Role)
	}

	payload, err := json.Marshal(identity)
	if err != nil {
		m.log.Warn(ctx, "failed to encode fallback identity", logger.Fields{"error": err.Error()})
		return
	}

	opCtx, cancel := context.WithTimeout(ctx, m.cfg.CacheOpTimeout)
	defer cancel()
	if err := m.redis.Set(opCtx, m.cacheKey(rawToken), payload, m.cfg.CacheTTL).Err(); err != nil {
		m.markUnhealthy(ctx, err)
		return
	}
	m.log.Debug(ctx, "identity cached for fallback auth", logger.Fields{"userId": identity.UserID})
}

// cachedIdentity is step 1. Any cache failure degrades silently to a miss.
func (m *Manager) cachedIdentity(ctx context.Context, rawToken string) *Identity {
	if !m.cfg.EnableCache || !m.redisAvailable(ctx) {
		return nil
	}

	opCtx, cancel := context.WithTimeout(ctx, m.cfg.CacheOpTimeout)
	defer cancel()

	key := m.cacheKey(rawToken)
	raw, err := m.redis.Get(opCtx, key).Bytes()
	if err == goredis.Nil {
		return nil
	}
	if err != nil {
		m.markUnhealthy(ctx, err)
		return nil
	}

	var identity Identity
	if err := json.Unmarshal(raw, &identity); err != nil {
		m.log.Warn(ctx, "corrupt fallback cache entry dropped", logger.Fields{"error": err.Error()})
		m.redis.Del(opCtx, key)
		return nil
	}

	nowMillis := m.now().UnixMilli()
	expired := nowMillis > identity.ExpiresAt
	// Hard cap, anchored to the token's original issue time: a present entry
	// must not be honored past the offline window. Entries written before the
	// issue time was recorded fall back to their write time.
	issued := identity.IssuedAt
	if issued == 0 {
		issued = identity.CachedAt
	}
	tooOld := nowMillis-issued > m.cfg.MaxOfflineAge.Milliseconds()
	if expired || tooOld {
		m.redis.Del(opCtx, key)
		return nil
	}
	return &identity
}

// withinOfflineWindow is step 3: elapsed time since the token's original
// issue is bounded by the configured maximum. A token without an issue time
// fails closed.
func (m *Manager) withinOfflineWindow(claims *token.Claims) bool {
	if !m.cfg.AllowOfflineMode {
		return false
	}
	if claims.IssuedAt == nil {
		return false
	}
	return m.now().Sub(claims.IssuedAt.Time) <= m.cfg.MaxOfflineAge
}

// cacheKey derives the namespaced cache key from a token fingerprint. The
// fingerprint is a truncated SHA-256 so raw token material never becomes a
// key in a shared store.
func (m *Manager) cacheKey(rawToken string) string {
	sum := sha256.Sum256([]byte(rawToken))
	return constants.FallbackCacheKeyPrefix + hex.EncodeToString(sum[:])[:16]
}

// ================================================================================
// Cache Connectivity Tracking
// ================================================================================

// redisAvailable reports whether step 1 should be attempted, re-probing an
// unhealthy backend at most once per recheck interval.
func (m *Manager) redisAvailable(ctx context.Context) bool {
	if m.redis == nil {
		return false
	}
	m.mu.Lock()
	healthy := m.redisHealthy
	due := m.now().Sub(m.lastProbe) >= redisRecheckInterval
	m.mu.Unlock()

	if healthy {
		return true
	}
	if !due {
		return false
	}
	return m.probe(ctx)
}

// probe pings the cache backend and records the outcome.
func (m *Manager) probe(ctx context.Context) bool {
	opCtx, cancel := context.WithTimeout(ctx, m.cfg.CacheOpTimeout)
	defer cancel()
	err := m.redis.Ping(opCtx).Err()

	m.mu.Lock()
	m.lastProbe = m.now()
	wasHealthy := m.redisHealthy
	m.redisHealthy = err == nil
	m.mu.Unlock()

	if err != nil {
		if wasHealthy {
			m.log.Warn(ctx, "fallback cache backend unreachable", logger.Fields{"error": err.Error()})
		}
		return false
	}
	if !wasHealthy {
		m.log.Info(ctx, "fallback cache backend reachable")
	}
	return true
}

// markUnhealthy records an operation failure so later requests skip the
// cache until the next probe succeeds.
func (m *Manager) markUnhealthy(ctx context.Context, err error) {
	m.mu.Lock()
	wasHealthy := m.redisHealthy
	m.redisHealthy = false
	m.lastProbe = m.now()
	m.mu.Unlock()
	if wasHealthy {
		m.log.Warn(ctx, "fallback cache operation failed, marking backend unhealthy",
			logger.Fields{"error": err.Error()})
	}
}
