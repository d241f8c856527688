package federation

import (
	"context"

	"github.com/agentstation/servicemap/pkg/providers"
	"github.com/agentstation/servicemap/pkg/query"
)

//go:generate go run go.uber.org/mock/mockgen -source=gateway.go -destination=../../internal/mocks/gateway_mock.go -package=mocks

// DefaultRowCap is the number of rows a gateway returns unless configured otherwise.
const DefaultRowCap = 50

// Row is a raw catalog row keyed by column name.
type Row map[string]any

// Gateway runs a search against one catalog.
//
// Implementations filter by Spec.Terms over their category and
// specialization columns, apply the region hint when present, order by
// rating then volume descending, and cap the number of rows. A failed query
// returns an error; the Coordinator turns it into an empty result.
type Gateway interface {
	// Name identifies the catalog in logs and notes.
	Name() string

	// Query returns the rows matching spec.
	Query(ctx context.Context, spec query.Spec) ([]Row, error)
}

// Fallback supplies seed providers when a catalog returns nothing.
type Fallback interface {
	// Sample returns up to n providers for origin relevant to spec.
	// Returned records must carry Seeded and a "seed-" identifier.
	Sample(origin providers.Origin, spec query.Spec, n int) []providers.Provider
}

// GatewayFunc adapts a function to the Gateway interface.
type GatewayFunc func(ctx context.Context, spec query.Spec) ([]Row, error)

// Name implements Gateway.
func (f GatewayFunc) Name() string {
	return "func"
}

// Query implements Gateway.
func (f GatewayFunc) Query(ctx context.Context, spec query.Spec) ([]Row, error) {
	return f(ctx, spec)
}
