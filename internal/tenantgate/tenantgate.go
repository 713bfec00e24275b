// Package tenantgate wraps the database handle so that every operation on a
// tenant-owned entity is automatically constrained to one tenant. Handlers
// never query those tables directly; they obtain a scoped handle from the
// Factory and the gate injects the tenant filter itself. Platform-level
// entities (tenant registry, refresh token store) are exposed unwrapped.
package tenantgate

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// ErrTenantRequired is returned when a scoped handle is requested with an
// empty tenant id. Global access must be asked for explicitly.
var ErrTenantRequired = errors.New("tenantgate: tenant id required")

// TenantOwned constrains the gate to pointer types that expose a tenant
// foreign key. The compiler enforces that only tenant-owned models can pass
// through the scoped operations.
type TenantOwned[T any] interface {
	*T
	SetTenantID(string)
}

// Filter is a column-keyed query filter. Keys are database column names.
type Filter map[string]interface{}

// ================================================================================
// Scoped Handle
// ================================================================================

// Scoped is the per-entity gate. When tenantID is non-nil every read, write,
// and count carries the tenant filter; the filter is merged after the
// caller's own criteria so a caller-supplied tenant_id can never widen the
// scope. A nil tenantID means explicit global mode and filters pass through
// unmodified.
type Scoped[T any, P TenantOwned[T]] struct {
	db       *gorm.DB
	tenantID *string
}

// scope returns the effective filter: a copy of the caller's criteria with
// the gate's tenant id merged last.
func (s *Scoped[T, P]) scope(filter Filter) Filter {
	merged := make(Filter, len(filter)+1)
	for k, v := range filter {
		merged[k] = v
	}
	if s.tenantID != nil {
		merged["tenant_id"] = *s.tenantID
	}
	return merged
}

// FindMany returns every row matching the filter within the gate's scope.
func (s *Scoped[T, P]) FindMany(ctx context.Context, filter Filter) ([]T, error) {
	var out []T
	err := s.db.WithContext(ctx).Where(map[string]interface{}(s.scope(filter))).Find(&out).Error
	return out, err
}

// FindFirst returns the first matching row or gorm.ErrRecordNotFound.
func (s *Scoped[T, P]) FindFirst(ctx context.Context, filter Filter) (*T, error) {
	var out T
	err := s.db.WithContext(ctx).Where(map[string]interface{}(s.scope(filter))).First(&out).Error
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// FindByID looks a row up by primary key, still within the tenant scope. A
// row belonging to another tenant is indistinguishable from a missing one.
func (s *Scoped[T, P]) FindByID(ctx context.Context, id string) (*T, error) {
	return s.FindFirst(ctx, Filter{"id": id})
}

// Create persists the record. In tenant mode the gate stamps the tenant id
// onto the payload, overwriting whatever the caller set.
func (s *Scoped[T, P]) Create(ctx context.Context, record P) error {
	if s.tenantID != nil {
		record.SetTenantID(*s.tenantID)
	}
	return s.db.WithContext(ctx).Create(record).Error
}

// Update applies the change set to every row matching the filter within the
// gate's scope and reports how many rows changed. The tenant column is
// stripped from the change set so an update can never move a row across
// tenants.
func (s *Scoped[T, P]) Update(ctx context.Context, filter Filter, changes Filter) (int64, error) {
	sanitized := make(Filter, len(changes))
	for k, v := range changes {
		if k == "tenant_id" {
			continue
		}
		sanitized[k] = v
	}
	var model T
	res := s.db.WithContext(ctx).
		Model(&model).
		Where(map[string]interface{}(s.scope(filter))).
		Updates(map[string]interface{}(sanitized))
	return res.RowsAffected, res.Error
}

// Delete removes every row matching the filter within the gate's scope and
// reports how many rows were removed.
func (s *Scoped[T, P]) Delete(ctx context.Context, filter Filter) (int64, error) {
	var model T
	res := s.db.WithContext(ctx).Where(map[string]interface{}(s.scope(filter))).Delete(&model)
	return res.RowsAffected, res.Error
}

// Count counts rows matching the filter within the gate's scope.
func (s *Scoped[T, P]) Count(ctx context.Context, filter Filter) (int64, error) {
	var model T
	var n int64
	err := s.db.WithContext(ctx).
		Model(&model).
		Where(map[string]interface{}(s.scope(filter))).
		Count(&n).Error
	return n, err
}

// ================================================================================
// Global Handle
// ================================================================================

// Global is the unwrapped counterpart of Scoped for entities that are
// intentionally platform-level.
type Global[T any] struct {
	db *gorm.DB
}

// FindMany returns every row matching the filter.
func (g *Global[T]) FindMany(ctx context.Context, filter Filter) ([]T, error) {
	var out []T
	err := g.db.WithContext(ctx).Where(map[string]interface{}(filter)).Find(&out).Error
	return out, err
}

// FindFirst returns the first matching row or gorm.ErrRecordNotFound.
func (g *Global[T]) FindFirst(ctx context.Context, filter Filter) (*T, error) {
	var out T
	err := g.db.WithContext(ctx).Where(map[string]interface{}(filter)).First(&out).Error
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Create persists the record as-is.
func (g *Global[T]) Create(ctx context.Context, record *T) error {
	return g.db.WithContext(ctx).Create(record).Error
}

// Update applies the change set to every matching row.
func (g *Global[T]) Update(ctx context.Context, filter Filter, changes Filter) (int64, error) {
	var model T
	res := g.db.WithContext(ctx).
		Model(&model).
		Where(map[string]interface{}(filter)).
		Updates(map[string]interface{}(changes))
	return res.RowsAffected, res.Error
}

// Delete removes every matching row.
func (g *Global[T]) Delete(ctx context.Context, filter Filter) (int64, error) {
	var model T
	res := g.db.WithContext(ctx).Where(map[string]interface{}(filter)).Delete(&model)
	return res.RowsAffected, res.Error
}
