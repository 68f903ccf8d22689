package model

import (
	"sort"

	"github.com/gofrs/uuid/v5"
)

// ScopeSet is the set of notification types enabled for a subscription. Each
// element names one notification type. Order is irrelevant; duplicates are
// impossible by construction.
type ScopeSet map[uuid.UUID]struct{}

// NewScopeSet builds a ScopeSet from the given ids.
func NewScopeSet(ids ...uuid.UUID) ScopeSet {
	s := make(ScopeSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Add inserts an id into the set.
func (s ScopeSet) Add(id uuid.UUID) { s[id] = struct{}{} }

// Contains reports whether id is in the set.
func (s ScopeSet) Contains(id uuid.UUID) bool {
	_, ok := s[id]
	return ok
}

// Strings returns the scope ids as canonical UUID strings, sorted so that
// repeated calls over the same set produce identical output.
func (s ScopeSet) Strings() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id.String())
	}
	sort.Strings(out)
	return out
}

// ParseScopeNames decodes stored scope values into a ScopeSet. Values that do
// not parse as UUIDs are dropped rather than failing the read: scope rows
// written by earlier deployments may hold free-form names, and one bad row must
// not make a subscriber unreadable. Writers are expected to store only valid
// scope ids, so a dropped value here points at data written outside this
// service.
func ParseScopeNames(names []string) ScopeSet {
	s := make(ScopeSet, len(names))
	for _, n := range names {
		id, err := uuid.FromString(n)
		if err != nil {
			continue
		}
		s[id] = struct{}{}
	}
	return s
}
