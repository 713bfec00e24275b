package tenantgate

import (
	"context"

	"gorm.io/gorm"

	"github.com/DesignCorporation/Beauty-Platform-sub005/internal/domain/models"
)

// Factory builds scoped handles. One factory is shared process-wide; handles
// are cheap per-request values.
type Factory struct {
	db *gorm.DB
}

// NewFactory wraps the database connection.
func NewFactory(db *gorm.DB) *Factory {
	return &Factory{db: db}
}

// ForTenant returns a handle whose every tenant-owned operation is pinned to
// the given tenant.
func (f *Factory) ForTenant(tenantID string) (*Handle, error) {
	if tenantID == "" {
		return nil, ErrTenantRequired
	}
	return &Handle{db: f.db, tenantID: &tenantID}, nil
}

// Global returns a handle with no tenant constraint. Reserved for
// platform-level operations running under SUPER_ADMIN.
func (f *Factory) Global() *Handle {
	return &Handle{db: f.db}
}

// Tenants exposes the platform tenant registry, unwrapped.
func (f *Factory) Tenants() *Global[models.Tenant] {
	return &Global[models.Tenant]{db: f.db}
}

// RefreshTokens exposes the refresh token store, unwrapped. Refresh tokens
// are resolved before any tenant context exists.
func (f *Factory) RefreshTokens() *Global[models.RefreshToken] {
	return &Global[models.RefreshToken]{db: f.db}
}

// Handle is a tenant-pinned (or explicitly global) view over the tenant-owned
// entity set.
type Handle struct {
	db       *gorm.DB
	tenantID *string
}

// TenantID reports the tenant the handle is pinned to, or empty in global
// mode.
func (h *Handle) TenantID() string {
	if h.tenantID == nil {
		return ""
	}
	return *h.tenantID
}

// Transaction runs fn inside a database transaction. The handle passed to fn
// keeps the same tenant scope.
func (h *Handle) Transaction(ctx context.Context, fn func(*Handle) error) error {
	return h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Handle{db: tx, tenantID: h.tenantID})
	})
}

func (h *Handle) Users() *Scoped[models.User, *models.User] {
	return &Scoped[models.User, *models.User]{db: h.db, tenantID: h.tenantID}
}

func (h *Handle) Clients() *Scoped[models.Client, *models.Client] {
	return &Scoped[models.Client, *models.Client]{db: h.db, tenantID: h.tenantID}
}

func (h *Handle) Services() *Scoped[models.Service, *models.Service] {
	return &Scoped[models.Service, *models.Service]{db: h.db, tenantID: h.tenantID}
}

func (h *Handle) Appointments() *Scoped[models.Appointment, *models.Appointment] {
	return &Scoped[models.Appointment, *models.Appointment]{db: h.db, tenantID: h.tenantID}
}

func (h *Handle) AuditLogs() *Scoped[models.AuditLog, *models.AuditLog] {
	return &Scoped[models.AuditLog, *models.AuditLog]{db: h.db, tenantID: h.tenantID}
}

// Entity builds a scoped gate for any tenant-owned model not covered by the
// named accessors.
func Entity[T any, P TenantOwned[T]](h *Handle) *Scoped[T, P] {
	return &Scoped[T, P]{db: h.db, tenantID: h.tenantID}
}
