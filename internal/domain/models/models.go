// Package models defines the persistence models for the identity core and the
// tenant-owned entity set it guards. Every tenant-owned row carries a TenantID
// foreign key; queries against those tables go through the tenant gate, never
// straight to the database handle.
package models

import "time"

// ================================================================================
// Global Entities (not tenant-scoped)
// ================================================================================

// Tenant is one isolated customer organization (a salon). The tenant registry
// itself is platform-level and is exposed unwrapped by the data gate.
type Tenant struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	Slug      string    `gorm:"uniqueIndex;size:64" json:"slug"`
	Name      string    `gorm:"size:255" json:"name"`
	Status    string    `gorm:"size:32;default:active" json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// RefreshToken is the server-side record of an issued refresh token. It is a
// global model: refresh tokens are looked up by their hash before any tenant
// context exists.
type RefreshToken struct {
	ID        string     `gorm:"primaryKey;type:uuid" json:"id"`
	UserID    string     `gorm:"index;type:uuid" json:"userId"`
	TokenHash string     `gorm:"uniqueIndex;size:64" json:"-"`
	ExpiresAt time.Time  `json:"expiresAt"`
	RevokedAt *time.Time `json:"revokedAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// ================================================================================
// Tenant-Owned Entities
// ================================================================================

// User is a platform account. Users with role SUPER_ADMIN have no tenant;
// every other role belongs to exactly one.
type User struct {
	ID           string `gorm:"primaryKey;type:uuid" json:"id"`
	TenantID     string `gorm:"index;type:uuid" json:"tenantId"`
	Email        string `gorm:"uniqueIndex;size:255" json:"email"`
	PasswordHash string `gorm:"size:255" json:"-"`
	Role         string `gorm:"size:32" json:"role"`
	FirstName    string `gorm:"size:128" json:"firstName"`
	LastName     string `gorm:"size:128" json:"lastName"`
	IsActive     bool   `gorm:"default:true" json:"isActive"`

	// MFA enrollment. The secret is stored as issued and never serialized to
	// responses; backup codes are stored only as one-way hashes, with used
	// hashes kept separately to enforce single use.
	MFAEnabled         bool       `json:"mfaEnabled"`
	MFASecret          string     `gorm:"size:512" json:"-"`
	MFABackupCodes     string     `gorm:"type:text" json:"-"`
	MFAUsedBackupCodes string     `gorm:"type:text" json:"-"`
	MFASetupAt         *time.Time `json:"mfaSetupAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SetTenantID implements tenantgate ownership for User.
func (u *User) SetTenantID(id string) { u.TenantID = id }

// Client is an end customer of a salon.
type Client struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	TenantID  string    `gorm:"index;type:uuid" json:"tenantId"`
	Email     string    `gorm:"index;size:255" json:"email"`
	Phone     string    `gorm:"size:32" json:"phone"`
	FirstName string    `gorm:"size:128" json:"firstName"`
	LastName  string    `gorm:"size:128" json:"lastName"`
	Notes     string    `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SetTenantID implements tenantgate ownership for Client.
func (c *Client) SetTenantID(id string) { c.TenantID = id }

// Service is a bookable salon offering (haircut, manicure, ...).
type Service struct {
	ID          string    `gorm:"primaryKey;type:uuid" json:"id"`
	TenantID    string    `gorm:"index;type:uuid" json:"tenantId"`
	Name        string    `gorm:"size:255" json:"name"`
	DurationMin int       `json:"durationMin"`
	PriceCents  int64     `json:"priceCents"`
	Currency    string    `gorm:"size:3" json:"currency"`
	IsActive    bool      `gorm:"default:true" json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// SetTenantID implements tenantgate ownership for Service.
func (s *Service) SetTenantID(id string) { s.TenantID = id }

// Appointment is a booked slot between a client and a staff member.
type Appointment struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	TenantID  string    `gorm:"index;type:uuid" json:"tenantId"`
	ClientID  string    `gorm:"index;type:uuid" json:"clientId"`
	ServiceID string    `gorm:"index;type:uuid" json:"serviceId"`
	StaffID   string    `gorm:"index;type:uuid" json:"staffId"`
	StartsAt  time.Time `gorm:"index" json:"startsAt"`
	EndsAt    time.Time `json:"endsAt"`
	Status    string    `gorm:"size:32;default:pending" json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SetTenantID implements tenantgate ownership for Appointment.
func (a *Appointment) SetTenantID(id string) { a.TenantID = id }

// AuditLog records security-relevant events per tenant.
type AuditLog struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	TenantID  string    `gorm:"index;type:uuid" json:"tenantId"`
	UserID    string    `gorm:"index;type:uuid" json:"userId"`
	Action    string    `gorm:"size:128" json:"action"`
	Detail    string    `gorm:"type:text" json:"detail,omitempty"`
	IP        string    `gorm:"size:64" json:"ip,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// SetTenantID implements tenantgate ownership for AuditLog.
func (l *AuditLog) SetTenantID(id string) { l.TenantID = id }

// All lists every model for migration.
func All() []interface{} {
	return []interface{}{
		&Tenant{},
		&RefreshToken{},
		&User{},
		&Client{},
		&Service{},
		&Appointment{},
		&AuditLog{},
	}
}
