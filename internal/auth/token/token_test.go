package token

import (
	"errors"
	"testing"
	"time"

	"github.com/smallbiznis/tenantd/internal/clock"
)

func TestIssueAndVerify(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	issuer := NewIssuer("test-secret", time.Hour, clk)

	raw, expiresAt, err := issuer.Issue("1001", "acme")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if want := clk.Now().Add(time.Hour); !expiresAt.Equal(want) {
		t.Fatalf("expected expiry %v, got %v", want, expiresAt)
	}

	claims, err := issuer.Verify(raw)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if claims.AdminID != "1001" {
		t.Fatalf("expected admin_id 1001, got %q", claims.AdminID)
	}
	if claims.OrganizationName != "acme" {
		t.Fatalf("expected organization_name acme, got %q", claims.OrganizationName)
	}
}

func TestVerifyExpired(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	issuer := NewIssuer("test-secret", time.Minute, clk)

	raw, _, err := issuer.Issue("1001", "acme")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	clk.Advance(2 * time.Minute)

	if _, err := issuer.Verify(raw); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
}

func TestVerifyMalformedAndMissing(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	issuer := NewIssuer("test-secret", time.Hour, clk)

	if _, err := issuer.Verify("not-a-token"); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
	if _, err := issuer.Verify(""); !errors.Is(err, ErrMissing) {
		t.Fatalf("expected ErrMissing, got %v", err)
	}

	other := NewIssuer("other-secret", time.Hour, clk)
	raw, _, err := other.Issue("1001", "acme")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if _, err := issuer.Verify(raw); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed for wrong signature, got %v", err)
	}
}
