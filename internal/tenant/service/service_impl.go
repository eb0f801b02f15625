package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tenantd/internal/auth/password"
	"github.com/smallbiznis/tenantd/internal/auth/token"
	cachepkg "github.com/smallbiznis/tenantd/internal/cache"
	"github.com/smallbiznis/tenantd/internal/clock"
	"github.com/smallbiznis/tenantd/internal/config"
	"github.com/smallbiznis/tenantd/internal/partition"
	"github.com/smallbiznis/tenantd/internal/tenant/domain"
	"go.uber.org/zap"
)

// mutateLockTTL bounds how long a crashed rename/delete can hold the
// best-effort per-tenant lock.
const mutateLockTTL = 30 * time.Second

type service struct {
	repo       domain.Repository
	partitions partition.Provisioner
	cache      cachepkg.Store
	locker     *cachepkg.Locker
	hasher     password.Hasher
	tokens     *token.Issuer
	clock      clock.Clock
	genID      *snowflake.Node
	log        *zap.Logger
	orgTTL     time.Duration
}

func NewService(
	cfg config.Config,
	repo domain.Repository,
	partitions partition.Provisioner,
	store cachepkg.Store,
	locker *cachepkg.Locker,
	hasher password.Hasher,
	tokens *token.Issuer,
	clk clock.Clock,
	genID *snowflake.Node,
	log *zap.Logger,
) domain.Service {
	return &service{
		repo:       repo,
		partitions: partitions,
		cache:      store,
		locker:     locker,
		hasher:     hasher,
		tokens:     tokens,
		clock:      clk,
		genID:      genID,
		log:        log,
		orgTTL:     cfg.CacheOrgTTL,
	}
}

func fold(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func mutateLockKey(name string) string {
	return "tenant:mutate:" + name
}

// Create provisions a new tenant. The metadata insert precedes partition
// creation: the metadata store is the existence source of truth, so a crash
// between the two steps leaves an orphaned tenant record, never a partition
// without an owner.
func (s *service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Projection, error) {
	name := fold(req.OrganizationName)
	email := fold(req.Email)

	existing, err := s.repo.FindByNameOrEmail(ctx, name, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.Name == name {
			return nil, domain.ErrNameTaken
		}
		return nil, domain.ErrEmailTaken
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.clock.Now()
	tenant := &domain.Tenant{
		ID:           s.genID.Generate(),
		Name:         name,
		PartitionID:  partition.IDFor(name),
		AdminID:      s.genID.Generate(),
		AdminEmail:   email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	saga := s.log.With(zap.String("saga", "create"), zap.String("tenant", name))

	saga.Info("step start", zap.String("step", "insert_metadata"))
	if err := s.repo.Create(ctx, tenant); err != nil {
		return nil, err
	}

	saga.Info("step start", zap.String("step", "provision_partition"), zap.String("partition_id", tenant.PartitionID))
	if err := s.partitions.Create(ctx, tenant.PartitionID); err != nil {
		// Accepted degraded state: the tenant record exists without its
		// partition. Surfaced for the external reconciler, not rolled back.
		saga.Error("partition provisioning failed after metadata insert",
			zap.String("partition_id", tenant.PartitionID), zap.Error(err))
		return nil, fmt.Errorf("provision partition: %w", err)
	}

	projection := tenant.Projection()
	s.cache.Set(ctx, cachepkg.OrgKey(name), projection, s.orgTTL)

	saga.Info("tenant created", zap.String("partition_id", tenant.PartitionID))
	return projection, nil
}

// Get reads through the cache. Unavailable is treated exactly like a miss.
func (s *service) Get(ctx context.Context, organizationName string) (*domain.Projection, error) {
	name := fold(organizationName)
	key := cachepkg.OrgKey(name)

	var cached domain.Projection
	if s.cache.Get(ctx, key, &cached) == cachepkg.Hit {
		return &cached, nil
	}

	tenant, err := s.repo.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}

	projection := tenant.Projection()
	s.cache.Set(ctx, key, projection, s.orgTTL)
	return projection, nil
}

// Update mutates a tenant; a changed name migrates its partition. Step order
// is load-bearing: invalidate old cache entry, migrate partition, commit
// metadata, populate new cache entry. A crash mid-sequence leaves a stale
// cache that forces a re-read instead of a cache entry referencing a dropped
// partition.
func (s *service) Update(ctx context.Context, req domain.UpdateRequest) (*domain.Projection, error) {
	name := fold(req.OrganizationName)

	lockToken, locked, err := s.locker.TryLock(ctx, mutateLockKey(name), mutateLockTTL)
	if err != nil {
		return nil, err
	}
	if !locked {
		return nil, domain.ErrMutationInProgress
	}
	defer func() {
		_ = s.locker.Release(ctx, mutateLockKey(name), lockToken)
	}()

	tenant, err := s.repo.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	newName := fold(req.NewOrganizationName)
	renaming := newName != "" && newName != tenant.Name
	newPartitionID := tenant.PartitionID

	if renaming {
		if _, err := s.repo.FindByName(ctx, newName); err == nil {
			return nil, domain.ErrNameTaken
		} else if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		newPartitionID = partition.IDFor(newName)
		updates["name"] = newName
		updates["partition_id"] = newPartitionID
	}

	if email := fold(req.Email); email != "" && email != tenant.AdminEmail {
		if _, err := s.repo.FindByEmail(ctx, email); err == nil {
			return nil, domain.ErrEmailTaken
		} else if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		updates["admin_email"] = email
		tenant.AdminEmail = email
	}

	if req.Password != "" {
		hash, err := s.hasher.Hash(req.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		updates["password_hash"] = hash
		tenant.PasswordHash = hash
	}

	if len(updates) == 0 {
		return s.Get(ctx, name)
	}

	now := s.clock.Now()
	updates["updated_at"] = now

	saga := s.log.With(zap.String("saga", "update"), zap.String("tenant", name))

	saga.Info("step start", zap.String("step", "invalidate_cache"))
	s.cache.Delete(ctx, cachepkg.OrgKey(name))

	if renaming {
		saga.Info("step start", zap.String("step", "migrate_partition"),
			zap.String("from", tenant.PartitionID), zap.String("to", newPartitionID))
		moved, err := s.partitions.Migrate(ctx, tenant.PartitionID, newPartitionID)
		if err != nil {
			saga.Error("partition migration failed", zap.Error(err))
			return nil, fmt.Errorf("migrate partition: %w", err)
		}
		saga.Info("partition migrated", zap.Int64("records", moved))
		tenant.Name = newName
		tenant.PartitionID = newPartitionID
	}

	saga.Info("step start", zap.String("step", "commit_metadata"))
	if err := s.repo.Update(ctx, tenant.ID, updates); err != nil {
		if renaming {
			// Partition already migrated but metadata still points at the
			// old one. Accepted orphaned state, left to the reconciler.
			saga.Error("metadata commit failed after partition migration",
				zap.String("partition_id", newPartitionID), zap.Error(err))
		}
		return nil, err
	}

	tenant.UpdatedAt = now
	projection := tenant.Projection()
	s.cache.Set(ctx, cachepkg.OrgKey(tenant.Name), projection, s.orgTTL)

	saga.Info("tenant updated", zap.Bool("renamed", renaming))
	return projection, nil
}

// Delete removes the tenant and its partition: invalidate cache, drop the
// partition (idempotent), then delete the metadata record. A crash after the
// drop leaves a metadata record pointing at a missing partition; that
// orphaned state is logged, not auto-healed.
func (s *service) Delete(ctx context.Context, organizationName string) (*domain.DeleteResult, error) {
	name := fold(organizationName)

	lockToken, locked, err := s.locker.TryLock(ctx, mutateLockKey(name), mutateLockTTL)
	if err != nil {
		return nil, err
	}
	if !locked {
		return nil, domain.ErrMutationInProgress
	}
	defer func() {
		_ = s.locker.Release(ctx, mutateLockKey(name), lockToken)
	}()

	tenant, err := s.repo.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}

	saga := s.log.With(zap.String("saga", "delete"), zap.String("tenant", name))

	saga.Info("step start", zap.String("step", "invalidate_cache"))
	s.cache.Delete(ctx, cachepkg.OrgKey(name))

	saga.Info("step start", zap.String("step", "drop_partition"), zap.String("partition_id", tenant.PartitionID))
	if err := s.partitions.Drop(ctx, tenant.PartitionID); err != nil {
		saga.Error("partition drop failed", zap.Error(err))
		return nil, fmt.Errorf("drop partition: %w", err)
	}

	saga.Info("step start", zap.String("step", "delete_metadata"))
	if err := s.repo.Delete(ctx, tenant.ID); err != nil {
		saga.Error("metadata delete failed after partition drop",
			zap.String("partition_id", tenant.PartitionID), zap.Error(err))
		return nil, err
	}

	saga.Info("tenant deleted")
	return &domain.DeleteResult{OrganizationName: tenant.Name, Deleted: true}, nil
}

// Login authenticates a tenant admin. Unknown email and wrong password are
// indistinguishable to the caller so accounts cannot be enumerated.
func (s *service) Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResult, error) {
	email := fold(req.Email)

	tenant, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if !s.hasher.Verify(req.Password, tenant.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}

	raw, expiresAt, err := s.tokens.Issue(tenant.AdminID.String(), tenant.Name)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	return &domain.LoginResult{
		Token:            raw,
		ExpiresAt:        expiresAt,
		AdminID:          tenant.AdminID.String(),
		Email:            tenant.AdminEmail,
		OrganizationName: tenant.Name,
	}, nil
}
