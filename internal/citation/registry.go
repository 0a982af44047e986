package citation

import (
	"fmt"
	"sync"
)

// Registry is a read-only mapping from citation id to target location.
// It is built once at startup and is safe for concurrent reads.
type Registry struct {
	targets map[ID]Target
}

// NewRegistry validates and copies the given table.
func NewRegistry(table map[ID]Target) (*Registry, error) {
	targets := make(map[ID]Target, len(table))
	for id, t := range table {
		if id < 1 {
			return nil, fmt.Errorf("citation id %d must be >= 1", id)
		}
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("citation %d: %w", id, err)
		}
		targets[id] = t
	}
	return &Registry{targets: targets}, nil
}

// Lookup returns the target for id. Unknown ids report ok=false; callers
// treat that as a no-op, never a fault.
func (r *Registry) Lookup(id ID) (Target, bool) {
	if r == nil {
		return Target{}, false
	}
	t, ok := r.targets[id]
	return t, ok
}

// IDs returns all registered ids in ascending order.
func (r *Registry) IDs() []ID {
	if r == nil {
		return nil
	}
	ids := make([]ID, 0, len(r.targets))
	for id := range r.targets {
		ids = append(ids, id)
	}
	sortIDs(ids)
	return ids
}

// Len returns the number of registered citations.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.targets)
}

// Default returns the citation table for the bundled interim report.
var Default = sync.OnceValue(func() *Registry {
	reg, err := NewRegistry(map[ID]Target{
		// Highlights Q2 2025, EBITDA paragraph.
		1: {PageNumber: 3, Area: Area("21.5%", "10%", "80%", "5%")},
		// Review Q2 2025, EBITDA by segment.
		2: {PageNumber: 5, Area: Area("25%", "10%", "80%", "5%")},
		// Condensed income statement, "Gain on sale of non-current assets" row.
		3: {PageNumber: 15, Area: Area("29.8%", "8%", "84%", "2.2%")},
	})
	if err != nil {
		panic(err)
	}
	return reg
})
