package partition

import (
	"context"
	"errors"
	"testing"

	dbpkg "github.com/smallbiznis/tenantd/pkg/db"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	conn, err := dbpkg.NewTest()
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	return NewManager(conn, zap.NewNop())
}

func TestIDFor(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"Acme", "org_acme"},
		{"acme-corp", "org_acme-corp"},
		{"My Org!", "org_my_org_"},
		{"snake_case", "org_snake_case"},
		{"UPPER123", "org_upper123"},
	}
	for _, tc := range cases {
		if got := IDFor(tc.name); got != tc.want {
			t.Errorf("IDFor(%q) = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestCreateAndExists(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	id := IDFor("acme")
	exists, err := m.Exists(ctx, id)
	if err != nil {
		t.Fatalf("exists failed: %v", err)
	}
	if exists {
		t.Fatal("partition should not exist before create")
	}

	if err := m.Create(ctx, id); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	exists, err = m.Exists(ctx, id)
	if err != nil {
		t.Fatalf("exists failed: %v", err)
	}
	if !exists {
		t.Fatal("partition should exist after create")
	}

	if err := m.Create(ctx, id); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestDropIsIdempotent(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	id := IDFor("ghost")
	if err := m.Drop(ctx, id); err != nil {
		t.Fatalf("drop of absent partition should succeed, got %v", err)
	}
	if err := m.Drop(ctx, id); err != nil {
		t.Fatalf("second drop should behave identically, got %v", err)
	}

	if err := m.Create(ctx, id); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := m.Drop(ctx, id); err != nil {
		t.Fatalf("drop failed: %v", err)
	}
	if err := m.Drop(ctx, id); err != nil {
		t.Fatalf("drop after drop should succeed, got %v", err)
	}
}

func TestMigrateMovesRecords(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	oldID := IDFor("acme")
	newID := IDFor("acme-corp")

	if err := m.Create(ctx, oldID); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	seed := []Record{
		{ID: 1, Payload: datatypes.JSON([]byte(`{"k":"a"}`))},
		{ID: 2, Payload: datatypes.JSON([]byte(`{"k":"b"}`))},
		{ID: 3, Payload: datatypes.JSON([]byte(`{"k":"c"}`))},
	}
	if err := m.db.Table(oldID).Create(&seed).Error; err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	moved, err := m.Migrate(ctx, oldID, newID)
	if err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	if moved != 3 {
		t.Fatalf("expected 3 records moved, got %d", moved)
	}

	oldExists, _ := m.Exists(ctx, oldID)
	if oldExists {
		t.Fatal("old partition should be dropped after migration")
	}
	newExists, _ := m.Exists(ctx, newID)
	if !newExists {
		t.Fatal("new partition should exist after migration")
	}

	var rows []Record
	if err := m.db.Table(newID).Find(&rows).Error; err != nil {
		t.Fatalf("read migrated rows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows in new partition, got %d", len(rows))
	}
}

func TestMigrateEmptyPartition(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	oldID := IDFor("empty")
	if err := m.Create(ctx, oldID); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	moved, err := m.Migrate(ctx, oldID, IDFor("empty-renamed"))
	if err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	if moved != 0 {
		t.Fatalf("expected 0 records moved, got %d", moved)
	}
}

func TestInvalidIDRejected(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	if _, err := m.Exists(ctx, "tenants; DROP TABLE tenants"); !errors.Is(err, ErrInvalidID) {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
	if _, err := m.Exists(ctx, "org_"); !errors.Is(err, ErrInvalidID) {
		t.Fatalf("expected ErrInvalidID for bare prefix, got %v", err)
	}
}
