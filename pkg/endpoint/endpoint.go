// Package endpoint defines the probed targets and the immutable registry
// that holds them for the lifetime of the process.
package endpoint

import (
	"fmt"
	"strings"
)

// Endpoint is a single network target to probe. Identity is the
// (Name, Address) pair; Location is an optional free-form tag.
type Endpoint struct {
	Name     string `mapstructure:"name"`
	Address  string `mapstructure:"address"`
	Location string `mapstructure:"location,omitempty"`
}

// String returns a display form of the endpoint for logs and errors.
func (e Endpoint) String() string {
	return e.Name + " (" + e.Address + ")"
}

// Registry is a fixed, validated set of endpoints. It is built once at
// startup and never modified afterwards; each endpoint occupies a stable
// index that downstream components use to address per-endpoint state.
type Registry struct {
	endpoints []Endpoint
	hasLoc    bool
}

// NewRegistry validates the endpoint list and builds a registry from it.
// The list must be non-empty, every endpoint needs a name and an address,
// and (name, address) pairs must be unique.
func NewRegistry(endpoints []Endpoint) (*Registry, error) {
	if len(endpoints) == 0 {
		return nil, fmt.Errorf("no endpoints configured")
	}

	// Keyed on the pair itself, not a joined string: names may contain
	// any separator.
	seen := make(map[[2]string]struct{}, len(endpoints))
	hasLoc := false
	eps := make([]Endpoint, len(endpoints))
	for i, ep := range endpoints {
		ep.Name = strings.TrimSpace(ep.Name)
		ep.Address = strings.TrimSpace(ep.Address)
		if ep.Name == "" {
			return nil, fmt.Errorf("endpoint %d: name is required", i)
		}
		if ep.Address == "" {
			return nil, fmt.Errorf("endpoint %q: address is required", ep.Name)
		}
		key := [2]string{ep.Name, ep.Address}
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("duplicate endpoint %q (address %s)", ep.Name, ep.Address)
		}
		seen[key] = struct{}{}
		if ep.Location != "" {
			hasLoc = true
		}
		eps[i] = ep
	}

	return &Registry{endpoints: eps, hasLoc: hasLoc}, nil
}

// Len returns the number of registered endpoints.
func (r *Registry) Len() int { return len(r.endpoints) }

// At returns the endpoint at index i.
func (r *Registry) At(i int) Endpoint { return r.endpoints[i] }

// All returns a copy of the endpoint list in registration order.
func (r *Registry) All() []Endpoint {
	out := make([]Endpoint, len(r.endpoints))
	copy(out, r.endpoints)
	return out
}

// HasLocations reports whether any registered endpoint carries a location.
func (r *Registry) HasLocations() bool { return r.hasLoc }
