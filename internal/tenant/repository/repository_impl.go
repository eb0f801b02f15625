package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tenantd/internal/tenant/domain"
	dbpkg "github.com/smallbiznis/tenantd/pkg/db"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) domain.Repository {
	return &repository{db: tx}
}

func (r *repository) FindByName(ctx context.Context, name string) (*domain.Tenant, error) {
	var tenant domain.Tenant
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&tenant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find tenant by name: %w", err)
	}
	return &tenant, nil
}

func (r *repository) FindByEmail(ctx context.Context, email string) (*domain.Tenant, error) {
	var tenant domain.Tenant
	err := r.db.WithContext(ctx).Where("admin_email = ?", email).First(&tenant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find tenant by email: %w", err)
	}
	return &tenant, nil
}

// FindByNameOrEmail is one disjunctive query on purpose: two independent
// probes would race a concurrent create colliding on the other field.
func (r *repository) FindByNameOrEmail(ctx context.Context, name, email string) (*domain.Tenant, error) {
	var tenant domain.Tenant
	err := r.db.WithContext(ctx).
		Where("name = ? OR admin_email = ?", name, email).
		First(&tenant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find tenant by name or email: %w", err)
	}
	return &tenant, nil
}

func (r *repository) Create(ctx context.Context, tenant *domain.Tenant) error {
	if err := r.db.WithContext(ctx).Create(tenant).Error; err != nil {
		if dbpkg.IsDuplicateKeyErr(err) {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("insert tenant: %w", err)
	}
	return nil
}

func (r *repository) Update(ctx context.Context, id snowflake.ID, fields map[string]any) error {
	result := r.db.WithContext(ctx).
		Model(&domain.Tenant{}).
		Where("id = ?", id).
		Updates(fields)
	if result.Error != nil {
		if dbpkg.IsDuplicateKeyErr(result.Error) {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("update tenant: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id snowflake.ID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Tenant{})
	if result.Error != nil {
		return fmt.Errorf("delete tenant: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
