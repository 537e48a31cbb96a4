package tenancy

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestContextSetOnce(t *testing.T) {
	tc := NewContext()
	tenant := uuid.New()

	if _, ok := tc.TenantID(); ok {
		t.Fatal("fresh context should be unresolved")
	}

	if err := tc.Set(tenant); err != nil {
		t.Fatalf("first set should succeed, got %v", err)
	}

	got, ok := tc.TenantID()
	if !ok || got != tenant {
		t.Fatalf("expected resolved tenant %s, got %s (resolved=%v)", tenant, got, ok)
	}

	if err := tc.Set(uuid.New()); !errors.Is(err, ErrAlreadyResolved) {
		t.Fatalf("second set should fail with ErrAlreadyResolved, got %v", err)
	}

	// Re-setting the same value is still a hard error, not a no-op.
	if err := tc.Set(tenant); !errors.Is(err, ErrAlreadyResolved) {
		t.Fatalf("re-set with same tenant should fail with ErrAlreadyResolved, got %v", err)
	}

	got, _ = tc.TenantID()
	if got != tenant {
		t.Fatalf("failed set must not change the resolved tenant, got %s", got)
	}
}

func TestContextRejectsNilTenant(t *testing.T) {
	tc := NewContext()
	if err := tc.Set(uuid.Nil); !errors.Is(err, ErrInvalidTenant) {
		t.Fatalf("nil tenant should be rejected, got %v", err)
	}
	if _, ok := tc.TenantID(); ok {
		t.Fatal("context must stay unresolved after rejected set")
	}
}

func TestResolvedTenant(t *testing.T) {
	if _, ok := ResolvedTenant(context.Background()); ok {
		t.Fatal("bare context should carry no tenant")
	}

	tc := NewContext()
	ctx := WithContext(context.Background(), tc)
	if _, ok := ResolvedTenant(ctx); ok {
		t.Fatal("unresolved tenant context should report no tenant")
	}

	tenant := uuid.New()
	if err := tc.Set(tenant); err != nil {
		t.Fatal(err)
	}
	got, ok := ResolvedTenant(ctx)
	if !ok || got != tenant {
		t.Fatalf("expected %s from context, got %s (ok=%v)", tenant, got, ok)
	}
}
