package selection

import (
	"sort"
	"strconv"
	"strings"
)

// Set holds the project ids the user has marked for processing.
// Membership is idempotent: adding a present id or removing an absent
// id is a no-op.
type Set struct {
	ids map[string]struct{}
}

func NewSet() *Set {
	return &Set{ids: make(map[string]struct{})}
}

// FromIDs builds a set from a slice, ignoring empty strings.
func FromIDs(ids []string) *Set {
	s := NewSet()
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

func (s *Set) Add(id string) {
	id = strings.TrimSpace(id)
	if id == "" {
		return
	}
	s.ids[id] = struct{}{}
}

func (s *Set) Remove(id string) {
	delete(s.ids, strings.TrimSpace(id))
}

// Toggle flips membership and reports whether the id is selected afterwards.
func (s *Set) Toggle(id string) bool {
	if s.Has(id) {
		s.Remove(id)
		return false
	}
	s.Add(id)
	return true
}

func (s *Set) Has(id string) bool {
	_, ok := s.ids[strings.TrimSpace(id)]
	return ok
}

func (s *Set) Len() int {
	return len(s.ids)
}

// IDs returns the members in deterministic order: numeric ids ascending
// by value, then any non-numeric ids lexically.
func (s *Set) IDs() []string {
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool {
		ni, iErr := strconv.ParseInt(out[i], 10, 64)
		nj, jErr := strconv.ParseInt(out[j], 10, 64)
		switch {
		case iErr == nil && jErr == nil:
			if ni != nj {
				return ni < nj
			}
			return out[i] < out[j]
		case iErr == nil:
			return true
		case jErr == nil:
			return false
		default:
			return out[i] < out[j]
		}
	})
	return out
}

func (s *Set) Clone() *Set {
	c := NewSet()
	for id := range s.ids {
		c.ids[id] = struct{}{}
	}
	return c
}

func (s *Set) Equal(other *Set) bool {
	if other == nil || len(s.ids) != len(other.ids) {
		return false
	}
	for id := range s.ids {
		if _, ok := other.ids[id]; !ok {
			return false
		}
	}
	return true
}
