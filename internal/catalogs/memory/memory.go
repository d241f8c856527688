// Package memory serves a catalog from rows held in memory, typically loaded
// from a YAML file. It filters and orders rows the same way the SQL gateways
// do.
package memory

import (
	"context"
	"os"
	"sort"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/servicemap/pkg/errors"
	"github.com/agentstation/servicemap/pkg/federation"
	"github.com/agentstation/servicemap/pkg/providers"
	"github.com/agentstation/servicemap/pkg/query"
)

// Layout describes which columns of a row play which role.
type Layout struct {
	Origin       providers.Origin
	TextColumns  []string
	RegionColumn string
	VolumeColumn string
	// AvailabilityColumn, when set, restricts searches to rows whose value
	// is "Available".
	AvailabilityColumn string
	Map                func(federation.Row) providers.Provider
}

// Companies is the catalog A layout.
var Companies = Layout{
	Origin:       providers.CatalogA,
	TextColumns:  []string{federation.ColBusinessType, federation.ColSpecializations, federation.ColDescription},
	RegionColumn: federation.ColServiceRegions,
	VolumeColumn: federation.ColTotalReviews,
	Map:          federation.MapCompanyRow,
}

// Workers is the catalog B layout.
var Workers = Layout{
	Origin:             providers.CatalogB,
	TextColumns:        []string{federation.ColSpecialization, federation.ColBio},
	RegionColumn:       federation.ColPreferredRegions,
	VolumeColumn:       federation.ColCompletedOrders,
	AvailabilityColumn: federation.ColAvailability,
	Map:                federation.MapWorkerRow,
}

// LayoutFor returns the layout of origin.
func LayoutFor(origin providers.Origin) Layout {
	if origin == providers.CatalogB {
		return Workers
	}
	return Companies
}

// file is the on-disk shape of a catalog file.
type file struct {
	Rows []federation.Row `yaml:"rows"`
}

// Gateway searches rows in memory.
type Gateway struct {
	name   string
	layout Layout
	rows   []federation.Row
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

// New creates a Gateway over rows.
func New(name string, layout Layout, rows []federation.Row, opts ...Option) *Gateway {
	g := &Gateway{name: name, layout: layout, rows: rows, rowCap: federation.DefaultRowCap}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Load reads a catalog file from path.
func Load(path string, layout Layout, opts ...Option) (*Gateway, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}
	rows, err := Parse(data)
	if err != nil {
		return nil, errors.WrapParse("yaml", path, err)
	}
	return New(path, layout, rows, opts...), nil
}

// Parse decodes the rows of a catalog file.
//
//	rows:
//	  - company_id: 1
//	    company_name: Blue Peak Plumbing Co.
func Parse(data []byte) ([]federation.Row, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return f.Rows, nil
}

// Name implements federation.Gateway.
func (g *Gateway) Name() string {
	return g.name
}

// Query implements federation.Gateway.
func (g *Gateway) Query(ctx context.Context, spec query.Spec) ([]federation.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.WrapSource(g.name, "search", err)
	}

	terms := spec.Terms()
	region := strings.ToLower(spec.RegionHint)

	var out []federation.Row
	for _, r := range g.rows {
		if g.layout.AvailabilityColumn != "" && !strings.EqualFold(strings.TrimSpace(r.String(g.layout.AvailabilityColumn)), "available") {
			continue
		}
		if len(terms) > 0 && !g.matchesAny(r, terms) {
			continue
		}
		if region != "" && !strings.Contains(strings.ToLower(r.String(g.layout.RegionColumn)), region) {
			continue
		}
		out = append(out, r)
	}

	g.sort(out)
	if len(out) > g.rowCap {
		out = out[:g.rowCap]
	}
	return out, nil
}

// All returns every row as a provider, ignoring availability.
func (g *Gateway) All(ctx context.Context) ([]providers.Provider, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.WrapSource(g.name, "list", err)
	}
	rows := append([]federation.Row(nil), g.rows...)
	g.sort(rows)

	out := make([]providers.Provider, 0, len(rows))
	for _, r := range rows {
		out = append(out, g.layout.Map(r))
	}
	return out, nil
}

func (g *Gateway) matchesAny(r federation.Row, terms []string) bool {
	for _, col := range g.layout.TextColumns {
		text := strings.ToLower(r.String(col))
		for _, t := range terms {
			if strings.Contains(text, strings.ToLower(t)) {
				return true
			}
		}
	}
	return false
}

func (g *Gateway) sort(rows []federation.Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		ri, rj := rows[i].Float(federation.ColRating), rows[j].Float(federation.ColRating)
		if ri != rj {
			return ri > rj
		}
		return rows[i].Int(g.layout.VolumeColumn) > rows[j].Int(g.layout.VolumeColumn)
	})
}
