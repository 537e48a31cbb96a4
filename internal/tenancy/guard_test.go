package tenancy

import (
	"context"
	"errors"
	"testing"

	"timebank_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// captureDB records the SQL the guard composes. Query fails after capture so
// tests never need real rows.
type captureDB struct {
	lastSQL  string
	lastArgs []any
}

var errCaptured = errors.New("captured")

func (c *captureDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	c.lastSQL, c.lastArgs = sql, args
	return pgconn.NewCommandTag("UPDATE 1"), nil
}

func (c *captureDB) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	c.lastSQL, c.lastArgs = sql, args
	return nil, errCaptured
}

func (c *captureDB) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	c.lastSQL, c.lastArgs = sql, args
	return nil
}

func resolvedGuard(t *testing.T, db DB, tenant uuid.UUID) (*Guard, context.Context) {
	t.Helper()
	tc := NewContext()
	if err := tc.Set(tenant); err != nil {
		t.Fatal(err)
	}
	ctx := WithContext(context.Background(), tc)
	return NewGuard(db, ctx, logger.New("development")), ctx
}

func TestScopeAppendsTenantPredicate(t *testing.T) {
	tenant := uuid.New()
	g, _ := resolvedGuard(t, &captureDB{}, tenant)

	cond, args := g.scope("listings", "owner_id = $1", []any{uuid.New()}, "select")
	if cond != "(owner_id = $1) AND tenant_id = $2" {
		t.Fatalf("unexpected scoped condition: %s", cond)
	}
	if len(args) != 2 || args[1] != tenant {
		t.Fatalf("tenant id should be appended as the last argument, got %v", args)
	}
}

func TestScopeWithoutConditionFiltersByTenantOnly(t *testing.T) {
	tenant := uuid.New()
	g, _ := resolvedGuard(t, &captureDB{}, tenant)

	cond, args := g.scope("members", "", nil, "select")
	if cond != "tenant_id = $1" {
		t.Fatalf("unexpected condition: %s", cond)
	}
	if len(args) != 1 || args[0] != tenant {
		t.Fatalf("expected single tenant argument, got %v", args)
	}
}

func TestScopeUnresolvedAppliesNoFilter(t *testing.T) {
	g := NewGuard(&captureDB{}, context.Background(), logger.New("development"))

	cond, args := g.scope("members", "id = $1", []any{uuid.New()}, "select")
	if cond != "id = $1" {
		t.Fatalf("unresolved context must not alter the condition, got %s", cond)
	}
	if len(args) != 1 {
		t.Fatalf("unresolved context must not append arguments, got %v", args)
	}
}

func TestSelectComposesScopedQuery(t *testing.T) {
	tenant := uuid.New()
	db := &captureDB{}
	g, _ := resolvedGuard(t, db, tenant)

	_, err := g.Select(context.Background(), "wallet_entries", "id, amount", "sender_id = $1", "ORDER BY created_at DESC", uuid.New())
	if !errors.Is(err, errCaptured) {
		t.Fatalf("expected capture error, got %v", err)
	}

	want := "SELECT id, amount FROM wallet_entries WHERE (sender_id = $1) AND tenant_id = $2 ORDER BY created_at DESC"
	if db.lastSQL != want {
		t.Fatalf("unexpected SQL:\n got: %s\nwant: %s", db.lastSQL, want)
	}
}

func TestInsertStampsTenant(t *testing.T) {
	tenant := uuid.New()
	db := &captureDB{}
	g, _ := resolvedGuard(t, db, tenant)

	_, err := g.Insert(context.Background(), "listings",
		[]string{"owner_id", "title"}, []any{uuid.New(), "bike repair"}, "id")
	if !errors.Is(err, errCaptured) {
		t.Fatalf("expected capture error, got %v", err)
	}

	want := "INSERT INTO listings (owner_id, title, tenant_id) VALUES ($1, $2, $3) RETURNING id"
	if db.lastSQL != want {
		t.Fatalf("unexpected SQL: %s", db.lastSQL)
	}
	if db.lastArgs[len(db.lastArgs)-1] != tenant {
		t.Fatalf("tenant id should be stamped as the last value, got %v", db.lastArgs)
	}
}

func TestInsertFailsWithoutResolvedTenant(t *testing.T) {
	db := &captureDB{}
	g := NewGuard(db, context.Background(), logger.New("development"))

	_, err := g.Insert(context.Background(), "listings", []string{"title"}, []any{"x"}, "id")
	if !errors.Is(err, ErrUnresolvedInsert) {
		t.Fatalf("expected ErrUnresolvedInsert, got %v", err)
	}
	if db.lastSQL != "" {
		t.Fatal("no SQL may reach the database for an unresolved insert")
	}
}

func TestUpdateScopesByTenant(t *testing.T) {
	tenant := uuid.New()
	db := &captureDB{}
	g, _ := resolvedGuard(t, db, tenant)

	rows, err := g.Update(context.Background(), "listings", "status = $1", "id = $2", "closed", uuid.New())
	if err != nil {
		t.Fatal(err)
	}
	if rows != 1 {
		t.Fatalf("expected 1 affected row, got %d", rows)
	}

	want := "UPDATE listings SET status = $1 WHERE (id = $2) AND tenant_id = $3"
	if db.lastSQL != want {
		t.Fatalf("unexpected SQL: %s", db.lastSQL)
	}
}

func TestWithTxKeepsScope(t *testing.T) {
	tenant := uuid.New()
	g, _ := resolvedGuard(t, &captureDB{}, tenant)

	txDB := &captureDB{}
	txGuard := g.WithTx(txDB)

	got, ok := txGuard.Tenant()
	if !ok || got != tenant {
		t.Fatalf("transaction guard must keep the tenant scope, got %s (ok=%v)", got, ok)
	}

	cond, _ := txGuard.scope("wallet_entries", "", nil, "select")
	if cond != "tenant_id = $1" {
		t.Fatalf("transaction guard must keep filtering, got %s", cond)
	}
}
