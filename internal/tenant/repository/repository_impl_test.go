package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tenantd/internal/tenant/domain"
	dbpkg "github.com/smallbiznis/tenantd/pkg/db"
)

func newTestRepo(t *testing.T) domain.Repository {
	t.Helper()
	conn, err := dbpkg.NewTest()
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	if err := conn.AutoMigrate(&domain.Tenant{}); err != nil {
		t.Fatalf("failed to migrate tenants: %v", err)
	}
	return NewRepository(conn)
}

func seedTenant(t *testing.T, repo domain.Repository, id int64, name, email string) *domain.Tenant {
	t.Helper()
	tenant := &domain.Tenant{
		ID:           snowflake.ID(id),
		Name:         name,
		PartitionID:  "org_" + name,
		AdminEmail:   email,
		PasswordHash: "x",
	}
	if err := repo.Create(context.Background(), tenant); err != nil {
		t.Fatalf("seed %s: %v", name, err)
	}
	return tenant
}

func TestFindByNameOrEmail(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	seedTenant(t, repo, 1, "acme", "a@x.com")

	cases := []struct {
		desc  string
		name  string
		email string
		want  bool
	}{
		{"both match", "acme", "a@x.com", true},
		{"name only", "acme", "other@x.com", true},
		{"email only", "other", "a@x.com", true},
		{"neither", "other", "other@x.com", false},
	}
	for _, tc := range cases {
		got, err := repo.FindByNameOrEmail(ctx, tc.name, tc.email)
		if err != nil {
			t.Fatalf("%s: %v", tc.desc, err)
		}
		if (got != nil) != tc.want {
			t.Errorf("%s: found=%v, want %v", tc.desc, got != nil, tc.want)
		}
	}
}

func TestCreateMapsDuplicates(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	seedTenant(t, repo, 1, "acme", "a@x.com")

	err := repo.Create(ctx, &domain.Tenant{
		ID: snowflake.ID(2), Name: "acme", PartitionID: "org_acme2",
		AdminEmail: "b@y.com", PasswordHash: "x",
	})
	if !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("duplicate name: expected ErrAlreadyExists, got %v", err)
	}

	err = repo.Create(ctx, &domain.Tenant{
		ID: snowflake.ID(3), Name: "beta", PartitionID: "org_beta",
		AdminEmail: "a@x.com", PasswordHash: "x",
	})
	if !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("duplicate email: expected ErrAlreadyExists, got %v", err)
	}
}

func TestUpdateAndDeleteMissingRows(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	tenant := seedTenant(t, repo, 1, "acme", "a@x.com")

	if err := repo.Update(ctx, tenant.ID, map[string]any{"admin_email": "new@x.com"}); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	got, err := repo.FindByEmail(ctx, "new@x.com")
	if err != nil {
		t.Fatalf("find after update: %v", err)
	}
	if got.ID != tenant.ID {
		t.Fatalf("expected updated row for same tenant, got %v", got.ID)
	}

	if err := repo.Update(ctx, snowflake.ID(99), map[string]any{"admin_email": "x@x.com"}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("update missing: expected ErrNotFound, got %v", err)
	}
	if err := repo.Delete(ctx, snowflake.ID(99)); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("delete missing: expected ErrNotFound, got %v", err)
	}
	if err := repo.Delete(ctx, tenant.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := repo.FindByName(ctx, "acme"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("find after delete: expected ErrNotFound, got %v", err)
	}
}

func TestUpdateRenameCollision(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	seedTenant(t, repo, 1, "acme", "a@x.com")
	other := seedTenant(t, repo, 2, "beta", "b@y.com")

	err := repo.Update(ctx, other.ID, map[string]any{"name": "acme"})
	if !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("rename onto taken name: expected ErrAlreadyExists, got %v", err)
	}
}
