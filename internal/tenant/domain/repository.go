package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository is the metadata store contract. All names and emails passed in
// are already case-folded by the service.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	// FindByName returns ErrNotFound when the tenant is absent.
	FindByName(ctx context.Context, name string) (*Tenant, error)

	// FindByEmail returns ErrNotFound when no tenant has the admin email.
	FindByEmail(ctx context.Context, email string) (*Tenant, error)

	// FindByNameOrEmail is the single disjunctive collision probe used by
	// Create. It returns (nil, nil) when neither field matches.
	FindByNameOrEmail(ctx context.Context, name, email string) (*Tenant, error)

	// Create inserts the tenant, relying on the store's unique indexes. A
	// duplicate-key violation surfaces as ErrAlreadyExists.
	Create(ctx context.Context, tenant *Tenant) error

	// Update applies a partial update by id. A duplicate-key violation
	// surfaces as ErrAlreadyExists.
	Update(ctx context.Context, id snowflake.ID, fields map[string]any) error

	Delete(ctx context.Context, id snowflake.ID) error
}
