// Package tenancy provides the tenant isolation core: the request-scoped
// tenant context, the resolver that populates it, and the data-access guard
// that applies the tenant predicate to every scoped query.
package tenancy

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

var (
	// ErrAlreadyResolved is returned when Set is called on a context that
	// already holds a tenant. Reassigning the tenant mid-request is treated
	// as a programming or security error, never a silent overwrite.
	ErrAlreadyResolved = errors.New("tenancy: context already resolved")

	// ErrInvalidTenant is returned when Set is called with the nil UUID.
	ErrInvalidTenant = errors.New("tenancy: invalid tenant id")
)

// Context holds the resolved tenant for exactly one request. It is created
// by the resolver middleware, carried through context.Context, and never
// shared across or reused between requests.
type Context struct {
	mu       sync.Mutex
	tenantID uuid.UUID
	resolved bool
}

// NewContext creates an unresolved tenant context.
func NewContext() *Context {
	return &Context{}
}

// Set resolves the context to the given tenant. It succeeds exactly once;
// a second call fails with ErrAlreadyResolved even if the id is the same.
func (c *Context) Set(tenantID uuid.UUID) error {
	if tenantID == uuid.Nil {
		return ErrInvalidTenant
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.resolved {
		return ErrAlreadyResolved
	}
	c.tenantID = tenantID
	c.resolved = true
	return nil
}

// TenantID returns the resolved tenant id, and whether one has been set.
func (c *Context) TenantID() (uuid.UUID, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tenantID, c.resolved
}

type ctxKey struct{}

// WithContext attaches a tenant context to the request context.
func WithContext(ctx context.Context, tc *Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, tc)
}

// FromContext extracts the tenant context, if any.
func FromContext(ctx context.Context) (*Context, bool) {
	tc, ok := ctx.Value(ctxKey{}).(*Context)
	return tc, ok
}

// ResolvedTenant returns the tenant id carried by ctx, if one is resolved.
func ResolvedTenant(ctx context.Context) (uuid.UUID, bool) {
	tc, ok := FromContext(ctx)
	if !ok {
		return uuid.Nil, false
	}
	return tc.TenantID()
}
