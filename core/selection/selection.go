// Package selection keeps track of which rows of a list view are selected,
// independently of the page currently on screen.
package selection

import (
	"sort"

	"github.com/asaidimu/go-tableview/core/query"
	"github.com/asaidimu/go-tableview/core/schema"
)

// DefaultIdentityField is the record field that identifies a row.
const DefaultIdentityField = "Id"

// Set is the set of selected row identifiers. The zero value is not usable;
// create one with New.
type Set struct {
	field string
	ids   map[string]struct{}
}

// New creates an empty selection keyed on identityField. An empty
// identityField falls back to DefaultIdentityField.
func New(identityField string) *Set {
	if identityField == "" {
		identityField = DefaultIdentityField
	}
	return &Set{
		field: identityField,
		ids:   make(map[string]struct{}),
	}
}

// IdentityField returns the field rows are identified by.
func (s *Set) IdentityField() string {
	return s.field
}

// ID returns the identifier of a record and whether it has one. Records
// without the identity field, or with a nil value in it, cannot be selected.
func (s *Set) ID(r schema.Record) (string, bool) {
	v, ok := r.Lookup(s.field)
	if !ok || v == nil {
		return "", false
	}
	id := query.Format(v)
	return id, id != ""
}

// Select adds ids to the selection.
func (s *Set) Select(ids ...string) {
	for _, id := range ids {
		if id != "" {
			s.ids[id] = struct{}{}
		}
	}
}

// Deselect removes ids from the selection.
func (s *Set) Deselect(ids ...string) {
	for _, id := range ids {
		delete(s.ids, id)
	}
}

// Toggle flips the selection state of id and returns the new state.
func (s *Set) Toggle(id string) bool {
	if s.Contains(id) {
		delete(s.ids, id)
		return false
	}
	s.Select(id)
	return s.Contains(id)
}

// Replace makes ids the whole selection.
func (s *Set) Replace(ids ...string) {
	s.ids = make(map[string]struct{}, len(ids))
	s.Select(ids...)
}

// Clear empties the selection.
func (s *Set) Clear() {
	s.ids = make(map[string]struct{})
}

// Contains reports whether id is selected.
func (s *Set) Contains(id string) bool {
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of selected rows.
func (s *Set) Len() int {
	return len(s.ids)
}

// IDs returns the selected identifiers in sorted order.
func (s *Set) IDs() []string {
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Displayed returns the identifiers of the rows on page that are selected, in
// page order. This is what a table needs to re-check its boxes after the page
// changes.
func (s *Set) Displayed(page []schema.Record) []string {
	out := make([]string, 0)
	for _, r := range page {
		if id, ok := s.ID(r); ok && s.Contains(id) {
			out = append(out, id)
		}
	}
	return out
}

// Reconcile applies the selection reported by a table for the rows of page:
// rows of page listed in selectedIDs become selected, the other rows of page
// become unselected, and rows on other pages keep their state. It returns
// whether anything changed.
func (s *Set) Reconcile(page []schema.Record, selectedIDs []string) bool {
	reported := make(map[string]struct{}, len(selectedIDs))
	for _, id := range selectedIDs {
		reported[id] = struct{}{}
	}

	changed := false
	for _, r := range page {
		id, ok := s.ID(r)
		if !ok {
			continue
		}
		_, want := reported[id]
		if want != s.Contains(id) {
			changed = true
			if want {
				s.ids[id] = struct{}{}
			} else {
				delete(s.ids, id)
			}
		}
	}
	return changed
}

// Clone returns an independent copy of the selection.
func (s *Set) Clone() *Set {
	c := New(s.field)
	for id := range s.ids {
		c.ids[id] = struct{}{}
	}
	return c
}
