package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound           = errors.New("org_not_found")
	ErrNameTaken          = errors.New("org_name_taken")
	ErrEmailTaken         = errors.New("email_taken")
	ErrAlreadyExists      = errors.New("org_already_exists")
	ErrInvalidCredentials = errors.New("invalid_credentials")

	// ErrMutationInProgress reports that another rename or delete currently
	// holds the tenant's mutation lock.
	ErrMutationInProgress = errors.New("mutation_in_progress")
)

// Service is the tenant lifecycle manager. Every operation returns either a
// value or exactly one typed error; no operation fails because the cache
// layer is down.
type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Projection, error)
	Get(ctx context.Context, organizationName string) (*Projection, error)
	Update(ctx context.Context, req UpdateRequest) (*Projection, error)
	Delete(ctx context.Context, organizationName string) (*DeleteResult, error)
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
}

type CreateRequest struct {
	OrganizationName string
	Email            string
	Password         string
}

// UpdateRequest mutates a tenant; empty fields are left unchanged. A
// differing NewOrganizationName triggers a partition migration.
type UpdateRequest struct {
	OrganizationName    string
	NewOrganizationName string
	Email               string
	Password            string
}

type DeleteResult struct {
	OrganizationName string `json:"organization_name"`
	Deleted          bool   `json:"deleted"`
}

type LoginRequest struct {
	Email    string
	Password string
}

type LoginResult struct {
	Token            string    `json:"token"`
	ExpiresAt        time.Time `json:"expires_at"`
	AdminID          string    `json:"admin_id"`
	Email            string    `json:"email"`
	OrganizationName string    `json:"organization_name"`
}
