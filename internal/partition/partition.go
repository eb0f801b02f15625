// Package partition manages the per-tenant storage partitions. Each tenant
// owns exactly one partition, a dedicated table holding opaque records; the
// core never looks inside the payloads it moves.
package partition

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrAlreadyExists = errors.New("partition_already_exists")
	ErrInvalidID     = errors.New("partition_invalid_id")
)

// Provisioner is the capability surface the lifecycle manager depends on.
// Implementations are storage specific; core logic never is.
type Provisioner interface {
	Exists(ctx context.Context, id string) (bool, error)
	Create(ctx context.Context, id string) error
	Drop(ctx context.Context, id string) error
	Migrate(ctx context.Context, oldID, newID string) (int64, error)
}

// Record is one opaque row inside a partition. The payload is schema-less.
type Record struct {
	ID      int64          `gorm:"primaryKey" json:"id"`
	Payload datatypes.JSON `gorm:"type:json" json:"payload"`
}

const idPrefix = "org_"

// IDFor derives the partition identifier from an organization name. The
// mapping is pure: lowercase, prefix with "org_", and replace every character
// outside [a-z0-9_-] with an underscore.
func IDFor(organizationName string) string {
	folded := strings.ToLower(organizationName)
	var b strings.Builder
	b.Grow(len(idPrefix) + len(folded))
	b.WriteString(idPrefix)
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

func validID(id string) bool {
	if !strings.HasPrefix(id, idPrefix) || len(id) == len(idPrefix) {
		return false
	}
	for _, r := range id[len(idPrefix):] {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
		default:
			return false
		}
	}
	return true
}

// Manager provisions partitions as dynamically created tables.
type Manager struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewManager(db *gorm.DB, log *zap.Logger) *Manager {
	return &Manager{db: db, log: log}
}

func (m *Manager) Exists(ctx context.Context, id string) (bool, error) {
	if !validID(id) {
		return false, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return m.db.WithContext(ctx).Migrator().HasTable(id), nil
}

// Create provisions an empty partition. The existence pre-check is not
// atomic; serialization of concurrent creates is delegated to the metadata
// store's uniqueness constraint on partition_id upstream.
func (m *Manager) Create(ctx context.Context, id string) error {
	exists, err := m.Exists(ctx, id)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %q", ErrAlreadyExists, id)
	}

	if err := m.db.WithContext(ctx).Table(id).AutoMigrate(&Record{}); err != nil {
		return fmt.Errorf("create partition %q: %w", id, err)
	}

	m.log.Info("partition created", zap.String("partition_id", id))
	return nil
}

// Drop removes a partition. Dropping an absent partition is a no-op so the
// delete saga can be re-run after a crash.
func (m *Manager) Drop(ctx context.Context, id string) error {
	exists, err := m.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		m.log.Info("partition absent, skipping drop", zap.String("partition_id", id))
		return nil
	}

	if err := m.db.WithContext(ctx).Migrator().DropTable(id); err != nil {
		return fmt.Errorf("drop partition %q: %w", id, err)
	}

	m.log.Info("partition dropped", zap.String("partition_id", id))
	return nil
}

// Migrate moves every record from oldID into a freshly created newID and
// drops oldID. It is not transactional: a crash mid-way can leave both
// partitions present or the new one partially populated.
func (m *Manager) Migrate(ctx context.Context, oldID, newID string) (int64, error) {
	if !validID(oldID) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidID, oldID)
	}

	var records []Record
	if err := m.db.WithContext(ctx).Table(oldID).Find(&records).Error; err != nil {
		return 0, fmt.Errorf("read partition %q: %w", oldID, err)
	}

	if err := m.Create(ctx, newID); err != nil {
		return 0, err
	}

	if len(records) > 0 {
		if err := m.db.WithContext(ctx).Table(newID).CreateInBatches(records, 500).Error; err != nil {
			return 0, fmt.Errorf("copy into partition %q: %w", newID, err)
		}
	}

	if err := m.Drop(ctx, oldID); err != nil {
		return 0, err
	}

	moved := int64(len(records))
	m.log.Info("partition migrated",
		zap.String("from", oldID),
		zap.String("to", newID),
		zap.Int64("records", moved),
	)
	return moved, nil
}
