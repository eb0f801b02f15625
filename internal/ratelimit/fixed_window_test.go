package ratelimit

import (
	"context"
	"testing"

	cachepkg "github.com/smallbiznis/tenantd/internal/cache"
	"github.com/smallbiznis/tenantd/internal/config"
	"go.uber.org/zap"
)

func newDisconnectedLimiter() *Limiter {
	c := cachepkg.New(config.Config{}, zap.NewNop())
	c.Connect(context.Background())
	return NewLimiter(c, zap.NewNop())
}

func TestFailOpenWhenCacheDisconnected(t *testing.T) {
	limiter := newDisconnectedLimiter()
	ctx := context.Background()

	// Far more checks than any class limit; all must be admitted.
	for i := 0; i < ClassAuth.Limit*3; i++ {
		decision := limiter.Check(ctx, ClassAuth, "203.0.113.7")
		if !decision.Allowed {
			t.Fatalf("check %d rejected with cache disconnected", i)
		}
	}
}

func TestFailOpenDecisionCarriesClassLimit(t *testing.T) {
	limiter := newDisconnectedLimiter()

	decision := limiter.Check(context.Background(), ClassCreate, "203.0.113.7")
	if decision.Limit != ClassCreate.Limit {
		t.Fatalf("expected limit %d, got %d", ClassCreate.Limit, decision.Limit)
	}
	if decision.RetryAfter != 0 {
		t.Fatalf("admitted decision must not carry retry-after, got %v", decision.RetryAfter)
	}
}

func TestAdmissionClassesAreDistinct(t *testing.T) {
	classes := []Class{ClassAuth, ClassCreate, ClassRead, ClassGeneral}
	prefixes := make(map[string]string, len(classes))
	for _, class := range classes {
		if class.Limit <= 0 || class.Window <= 0 {
			t.Fatalf("class %q has no usable window/limit", class.Name)
		}
		if owner, dup := prefixes[class.Prefix]; dup {
			t.Fatalf("classes %q and %q share prefix %q", owner, class.Name, class.Prefix)
		}
		prefixes[class.Prefix] = class.Name
	}
}
