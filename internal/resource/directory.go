package resource

import (
	"errors"
	"fmt"
	"sort"
)

// ErrDuplicateResource is returned when two resources share an ID.
var ErrDuplicateResource = errors.New("resource: duplicate id")

// Directory is an immutable lookup of configured resources by ID.
type Directory struct {
	byID map[string]*Resource
	ids  []string
}

// NewDirectory builds a Directory. Every resource must have a unique, non-empty ID.
func NewDirectory(resources []*Resource) (*Directory, error) {
	d := &Directory{byID: make(map[string]*Resource, len(resources))}
	for i, r := range resources {
		if r == nil || r.ID == "" {
			return nil, fmt.Errorf("resource %d: id is required", i)
		}
		if _, ok := d.byID[r.ID]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateResource, r.ID)
		}
		d.byID[r.ID] = r
		d.ids = append(d.ids, r.ID)
	}
	sort.Strings(d.ids)
	return d, nil
}

// Get returns the resource with the given ID.
func (d *Directory) Get(id string) (*Resource, bool) {
	r, ok := d.byID[id]
	return r, ok
}

// List returns all resources ordered by ID.
func (d *Directory) List() []*Resource {
	out := make([]*Resource, 0, len(d.ids))
	for _, id := range d.ids {
		out = append(out, d.byID[id])
	}
	return out
}

// Len returns the number of resources.
func (d *Directory) Len() int {
	return len(d.ids)
}
