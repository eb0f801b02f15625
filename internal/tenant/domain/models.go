// Package domain contains the tenant model and the contracts of the tenant
// lifecycle manager.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Tenant is one organization's metadata record, the authoritative existence
// source of truth. Name, partition id and admin email are each globally
// unique; the metadata store's constraints enforce it.
type Tenant struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	Name         string       `gorm:"type:text;not null;uniqueIndex:ux_tenants_name" json:"name"`
	PartitionID  string       `gorm:"column:partition_id;type:text;not null;uniqueIndex:ux_tenants_partition_id" json:"partition_id"`
	AdminID      snowflake.ID `gorm:"column:admin_id;not null" json:"admin_id"`
	AdminEmail   string       `gorm:"column:admin_email;type:text;not null;uniqueIndex:ux_tenants_admin_email" json:"admin_email"`
	PasswordHash string       `gorm:"column:password_hash;type:text;not null" json:"-"`
	CreatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Tenant) TableName() string { return "tenants" }

// Projection is the cache-safe subset of a tenant. It never carries the
// credential hash and is always disposable: losing it is a cache miss, not an
// error.
type Projection struct {
	ID               string          `json:"id"`
	OrganizationName string          `json:"organization_name"`
	PartitionID      string          `json:"partition_id"`
	Admin            AdminProjection `json:"admin"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

type AdminProjection struct {
	AdminID string `json:"admin_id"`
	Email   string `json:"email"`
}

// Projection builds the cache-safe view of the tenant.
func (t *Tenant) Projection() *Projection {
	return &Projection{
		ID:               t.ID.String(),
		OrganizationName: t.Name,
		PartitionID:      t.PartitionID,
		Admin: AdminProjection{
			AdminID: t.AdminID.String(),
			Email:   t.AdminEmail,
		},
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}
