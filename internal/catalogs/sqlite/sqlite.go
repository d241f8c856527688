// Package sqlite queries the worker catalog (catalog B) stored in SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"strings"

	_ "github.com/mattn/go-sqlite3" // register the sqlite3 driver

	"github.com/agentstation/servicemap/pkg/errors"
	"github.com/agentstation/servicemap/pkg/federation"
	"github.com/agentstation/servicemap/pkg/logging"
	"github.com/agentstation/servicemap/pkg/providers"
	"github.com/agentstation/servicemap/pkg/query"
)

// Name identifies the gateway in logs.
const Name = "sqlite"

// Schema creates the employee table the gateway reads.
const Schema = `CREATE TABLE IF NOT EXISTS employee (
	employee_id INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT,
	phone TEXT,
	specialization TEXT,
	certification_level TEXT,
	experience_years REAL,
	rating REAL DEFAULT 0,
	total_completed_orders INTEGER DEFAULT 0,
	bio TEXT,
	avg_cost_per_hour REAL,
	preferred_regions TEXT,
	emergency_service INTEGER DEFAULT 0,
	avg_response_time_hours REAL,
	availability_status TEXT DEFAULT 'Available'
)`

const selectColumns = `SELECT e.employee_id, e.name, e.email, e.phone, e.specialization,
       e.certification_level, e.experience_years, e.rating, e.total_completed_orders,
       e.bio, e.avg_cost_per_hour, e.preferred_regions, e.emergency_service,
       e.avg_response_time_hours, e.availability_status
FROM employee e`

const orderBy = ` ORDER BY e.rating DESC, e.total_completed_orders DESC`

// Gateway searches the employee table.
type Gateway struct {
	db     *sql.DB
	rowCap int
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithRowCap limits the rows a search returns.
func WithRowCap(n int) Option {
	return func(g *Gateway) {
		if n > 0 {
			g.rowCap = n
		}
	}
}

// Open opens the database file at path.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.WrapSource(Name, "open", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.WrapSource(Name, "ping", err)
	}
	return db, nil
}

// New creates a Gateway over db.
func New(db *sql.DB, opts ...Option) *Gateway {
	g := &Gateway{db: db, rowCap: federation.DefaultRowCap}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Name implements federation.Gateway.
func (g *Gateway) Name() string {
	return Name
}

// Query implements federation.Gateway. Only available workers are returned.
// Any term may match the specialization or bio; the region hint must appear
// in the preferred regions.
func (g *Gateway) Query(ctx context.Context, spec query.Spec) ([]federation.Row, error) {
	var (
		b    strings.Builder
		args []any
	)
	b.WriteString(selectColumns)
	b.WriteString(" WHERE e.availability_status = 'Available'")

	if terms := spec.Terms(); len(terms) > 0 {
		clauses := make([]string, 0, len(terms))
		for _, t := range terms {
			clauses = append(clauses, "e.specialization LIKE ? OR e.bio LIKE ?")
			args = append(args, "%"+t+"%", "%"+t+"%")
		}
		b.WriteString(" AND (" + strings.Join(clauses, " OR ") + ")")
	}
	if spec.RegionHint != "" {
		b.WriteString(" AND e.preferred_regions LIKE ?")
		args = append(args, "%"+spec.RegionHint+"%")
	}
	b.WriteString(orderBy + " LIMIT ?")
	args = append(args, g.rowCap)

	logging.FromContext(ctx).Debug().
		Str("gateway", Name).
		Int("args", len(args)).
		Msg("Querying employees")

	out, err := g.query(ctx, b.String(), args...)
	if err != nil {
		return nil, errors.WrapSource(Name, "search", err)
	}
	return out, nil
}

// All returns every worker regardless of availability, for offline audits.
func (g *Gateway) All(ctx context.Context) ([]providers.Provider, error) {
	raw, err := g.query(ctx, selectColumns+orderBy)
	if err != nil {
		return nil, errors.WrapSource(Name, "list", err)
	}
	out := make([]providers.Provider, 0, len(raw))
	for _, r := range raw {
		out = append(out, federation.MapWorkerRow(r))
	}
	return out, nil
}

func (g *Gateway) query(ctx context.Context, q string, args ...any) ([]federation.Row, error) {
	rows, err := g.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []federation.Row
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(federation.Row, len(cols))
		for i, c := range cols {
			row[c] = values[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
