// Package routing resolves (connector, endpoint) pairs against the
// configured routing table.
package routing

import "github.com/appswitch-io/appswitch/pkg/types"

// Target is a resolved destination on the bus.
type Target struct {
	Connector string
	Endpoint  string
}

// Table is an immutable lookup over a routing table snapshot. It is
// rebuilt whenever the configuration changes; it never mutates.
type Table struct {
	routes types.RoutingTable
}

// New wraps a routing table snapshot.
func New(routes types.RoutingTable) Table {
	return Table{routes: routes}
}

// Resolve looks up the target for an endpoint on a connector. A miss at
// either level returns ok=false; the caller decides whether to drop.
func (t Table) Resolve(connector, endpoint string) (Target, bool) {
	endpoints, ok := t.routes[connector]
	if !ok {
		return Target{}, false
	}
	pair, ok := endpoints[endpoint]
	if !ok || len(pair) != 2 {
		return Target{}, false
	}
	return Target{Connector: pair[0], Endpoint: pair[1]}, true
}
