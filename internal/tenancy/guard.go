package tenancy

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"timebank_backend/platform/apperr"
	"timebank_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrUnresolvedInsert is returned when a tenant-scoped entity is inserted
// without a resolved tenant context. Persisting an orphan row is never
// acceptable, so this fails hard instead of falling back.
var ErrUnresolvedInsert = errors.New("tenancy: insert into tenant-scoped table requires a resolved tenant")

// DB is the querier subset the guard needs. It is satisfied by both
// *pgxpool.Pool and pgx.Tx, so the same guard logic applies inside and
// outside explicit transactions.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Scoped is the capability interface implemented by every tenant-scoped
// entity type. Declaring the table here is what lets the guard be written
// once instead of repeating a tenant filter at each call site.
type Scoped interface {
	TenantTable() string
}

// Guard wraps a querier and injects the tenant predicate into every read and
// write against tenant-scoped tables, and stamps the tenant on inserts. All
// repository access to scoped tables goes through it.
type Guard struct {
	db     DB
	tc     *Context
	bypass bool
	log    *logger.Logger
}

// NewGuard creates a guard bound to the tenant context carried by ctx.
// An absent or unresolved context leaves reads unfiltered (the inherited
// tooling fallback); such reads are logged as unscoped.
func NewGuard(db DB, ctx context.Context, log *logger.Logger) *Guard {
	tc, _ := FromContext(ctx)
	return &Guard{db: db, tc: tc, log: log}
}

// Bypass creates a guard that deliberately applies no tenant filter. It
// exists for migration and tooling contexts only; construction is logged so
// unscoped access stays auditable.
func Bypass(db DB, log *logger.Logger, reason string) *Guard {
	log.Warn("tenancy guard bypass constructed", "reason", reason)
	return &Guard{db: db, bypass: true, log: log}
}

// WithTx rebinds the guard's scope to a transaction. The tenant context and
// bypass flag carry over; only the querier changes.
func (g *Guard) WithTx(tx DB) *Guard {
	return &Guard{db: tx, tc: g.tc, bypass: g.bypass, log: g.log}
}

// Tenant returns the tenant the guard filters by, if resolved.
func (g *Guard) Tenant() (uuid.UUID, bool) {
	if g.tc == nil {
		return uuid.Nil, false
	}
	return g.tc.TenantID()
}

// scope appends the tenant predicate to cond, renumbering from the next free
// placeholder. Unresolved contexts apply no filter.
func (g *Guard) scope(table, cond string, args []any, op string) (string, []any) {
	tenantID, ok := g.Tenant()
	if !ok {
		if !g.bypass && g.log != nil {
			g.log.UnscopedAccess(table, op)
		}
		return cond, args
	}

	predicate := fmt.Sprintf("tenant_id = $%d", len(args)+1)
	args = append(args, tenantID)
	if cond == "" {
		return predicate, args
	}
	return "(" + cond + ") AND " + predicate, args
}

// Select runs a read over a tenant-scoped table. cond may be empty and uses
// placeholders $1..$n matching args; the tenant predicate is appended by the
// guard. suffix carries trailing clauses (ORDER BY, LIMIT) verbatim.
func (g *Guard) Select(ctx context.Context, table, columns, cond string, suffix string, args ...any) (pgx.Rows, error) {
	where, scopedArgs := g.scope(table, cond, args, "select")

	sql := fmt.Sprintf("SELECT %s FROM %s", columns, table)
	if where != "" {
		sql += " WHERE " + where
	}
	if suffix != "" {
		sql += " " + suffix
	}
	return g.db.Query(ctx, sql, scopedArgs...)
}

// QueryRow runs a single-row read (typically an aggregate) over a
// tenant-scoped table with the tenant predicate applied.
func (g *Guard) QueryRow(ctx context.Context, table, columns, cond string, args ...any) pgx.Row {
	where, scopedArgs := g.scope(table, cond, args, "query_row")

	sql := fmt.Sprintf("SELECT %s FROM %s", columns, table)
	if where != "" {
		sql += " WHERE " + where
	}
	return g.db.QueryRow(ctx, sql, scopedArgs...)
}

// Insert writes a row into a tenant-scoped table, stamping tenant_id from
// the resolved context. Inserting without a resolved tenant fails.
func (g *Guard) Insert(ctx context.Context, table string, cols []string, vals []any, returning string) (pgx.Rows, error) {
	if len(cols) != len(vals) {
		return nil, fmt.Errorf("tenancy: insert into %s: %d columns, %d values", table, len(cols), len(vals))
	}

	tenantID, ok := g.Tenant()
	if !ok {
		return nil, ErrUnresolvedInsert
	}

	allCols := append(append(make([]string, 0, len(cols)+1), cols...), "tenant_id")
	allVals := append(append(make([]any, 0, len(vals)+1), vals...), tenantID)

	placeholders := make([]string, len(allVals))
	for i := range allVals {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(allCols, ", "), strings.Join(placeholders, ", "))
	if returning != "" {
		sql += " RETURNING " + returning
	}
	return g.db.Query(ctx, sql, allVals...)
}

// Update mutates rows in a tenant-scoped table. set and cond share the
// placeholder numbering of args; the tenant predicate is appended.
func (g *Guard) Update(ctx context.Context, table, set, cond string, args ...any) (int64, error) {
	where, scopedArgs := g.scope(table, cond, args, "update")

	sql := fmt.Sprintf("UPDATE %s SET %s", table, set)
	if where != "" {
		sql += " WHERE " + where
	}
	tag, err := g.db.Exec(ctx, sql, scopedArgs...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// =============================================================================
// Typed helpers
// =============================================================================

// GetByID loads one entity by primary key. A row that exists under another
// tenant is indistinguishable from a missing row: both return not found.
func GetByID[T Scoped](ctx context.Context, g *Guard, id uuid.UUID) (T, error) {
	var zero T
	rows, err := g.Select(ctx, zero.TenantTable(), "*", "id = $1", "", id)
	if err != nil {
		return zero, err
	}
	entity, err := pgx.CollectOneRow(rows, pgx.RowToStructByNameLax[T])
	if errors.Is(err, pgx.ErrNoRows) {
		return zero, apperr.NotFound(zero.TenantTable() + " entry not found")
	}
	return entity, err
}

// One loads a single entity matching cond.
func One[T Scoped](ctx context.Context, g *Guard, cond string, args ...any) (T, error) {
	var zero T
	rows, err := g.Select(ctx, zero.TenantTable(), "*", cond, "", args...)
	if err != nil {
		return zero, err
	}
	entity, err := pgx.CollectOneRow(rows, pgx.RowToStructByNameLax[T])
	if errors.Is(err, pgx.ErrNoRows) {
		return zero, apperr.NotFound(zero.TenantTable() + " entry not found")
	}
	return entity, err
}

// List loads all entities matching cond, with suffix for ORDER BY / LIMIT.
func List[T Scoped](ctx context.Context, g *Guard, cond, suffix string, args ...any) ([]T, error) {
	var zero T
	rows, err := g.Select(ctx, zero.TenantTable(), "*", cond, suffix, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByNameLax[T])
}

// Exists reports whether any row matches cond within the tenant scope.
func Exists[T Scoped](ctx context.Context, g *Guard, cond string, args ...any) (bool, error) {
	var zero T
	rows, err := g.Select(ctx, zero.TenantTable(), "1", cond, "LIMIT 1", args...)
	if err != nil {
		return false, err
	}
	defer rows.Close()
	found := rows.Next()
	if err := rows.Err(); err != nil {
		return false, err
	}
	return found, nil
}

// Count returns the number of rows matching cond within the tenant scope.
func Count[T Scoped](ctx context.Context, g *Guard, cond string, args ...any) (int, error) {
	var zero T
	var count int
	err := g.QueryRow(ctx, zero.TenantTable(), "COUNT(*)", cond, args...).Scan(&count)
	return count, err
}

// InsertOne writes one entity row and returns the stored row, stamped with
// the guard's tenant.
func InsertOne[T Scoped](ctx context.Context, g *Guard, cols []string, vals []any) (T, error) {
	var zero T
	rows, err := g.Insert(ctx, zero.TenantTable(), cols, vals, "*")
	if err != nil {
		return zero, err
	}
	return pgx.CollectOneRow(rows, pgx.RowToStructByNameLax[T])
}
