// Package postgres queries the company catalog (catalog A) stored in
// PostgreSQL.
package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agentstation/servicemap/pkg/errors"
	"github.com/agentstation/servicemap/pkg/federation"
	"github.com/agentstation/servicemap/pkg/logging"
	"github.com/agentstation/servicemap/pkg/providers"
	"github.com/agentstation/servicemap/pkg/query"
)

// Name identifies the gateway in logs.
const Name = "postgres"

// Querier is the subset of pgxpool.Pool the gateway needs.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

const selectColumns = `SELECT c.company_id::text AS company_id,
       c.company_name,
       COALESCE(c.business_type, '') AS business_type,
       COALESCE(c.rating, 0)::float8 AS rating,
       COALESCE(c.description, '') AS description,
       COALESCE(c.service_regions, '') AS service_regions,
       c.avg_hourly_rate::float8 AS avg_hourly_rate,
       COALESCE(c.specialization_areas, '') AS specialization_areas,
       COALESCE(c.total_reviews, 0)::int8 AS total_reviews,
       COALESCE(c.phone, '') AS phone,
       COALESCE(c.email, '') AS email
FROM companies c`

const orderBy = ` ORDER BY c.rating DESC NULLS LAST, c.total_reviews DESC NULLS LAST`

// Gateway searches the companies table.
type Gateway struct {
	db     Querier
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

// New creates a Gateway over db.
func New(db Querier, opts ...Option) *Gateway {
	g := &Gateway{db: db, rowCap: federation.DefaultRowCap}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Connect opens a connection pool for dsn and verifies it with a ping.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, &errors.ConfigError{Component: "catalog_a", Message: "invalid postgres dsn", Err: err}
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, errors.WrapSource(Name, "connect", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.WrapSource(Name, "ping", err)
	}
	return pool, nil
}

// Name implements federation.Gateway.
func (g *Gateway) Name() string {
	return Name
}

// Query implements federation.Gateway. Any term may match the business
// type, specialization areas or description; the region hint must appear in
// the service regions.
func (g *Gateway) Query(ctx context.Context, spec query.Spec) ([]federation.Row, error) {
	sql, args := buildSearch(spec, g.rowCap)

	logging.FromContext(ctx).Debug().
		Str("gateway", Name).
		Int("args", len(args)).
		Msg("Querying companies")

	rows, err := g.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, errors.WrapSource(Name, "search", err)
	}
	out, err := collect(rows)
	if err != nil {
		return nil, errors.WrapSource(Name, "search", err)
	}
	return out, nil
}

// All returns every company, for offline audits.
func (g *Gateway) All(ctx context.Context) ([]providers.Provider, error) {
	rows, err := g.db.Query(ctx, selectColumns+orderBy)
	if err != nil {
		return nil, errors.WrapSource(Name, "list", err)
	}
	raw, err := collect(rows)
	if err != nil {
		return nil, errors.WrapSource(Name, "list", err)
	}
	out := make([]providers.Provider, 0, len(raw))
	for _, r := range raw {
		out = append(out, federation.MapCompanyRow(r))
	}
	return out, nil
}

func buildSearch(spec query.Spec, rowCap int) (string, []any) {
	var (
		b    strings.Builder
		args []any
	)
	b.WriteString(selectColumns)
	b.WriteString(" WHERE 1=1")

	if terms := spec.Terms(); len(terms) > 0 {
		patterns := make([]string, len(terms))
		for i, t := range terms {
			patterns[i] = "%" + t + "%"
		}
		args = append(args, patterns)
		n := len(args)
		fmt.Fprintf(&b, " AND (c.business_type ILIKE ANY($%d) OR c.specialization_areas ILIKE ANY($%d) OR c.description ILIKE ANY($%d))", n, n, n)
	}
	if spec.RegionHint != "" {
		args = append(args, "%"+spec.RegionHint+"%")
		fmt.Fprintf(&b, " AND c.service_regions ILIKE $%d", len(args))
	}

	b.WriteString(orderBy)
	args = append(args, rowCap)
	fmt.Fprintf(&b, " LIMIT $%d", len(args))
	return b.String(), args
}

func collect(rows pgx.Rows) ([]federation.Row, error) {
	defer rows.Close()

	fields := rows.FieldDescriptions()
	var out []federation.Row
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		row := make(federation.Row, len(fields))
		for i, fd := range fields {
			if i < len(values) {
				row[fd.Name] = values[i]
			}
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
