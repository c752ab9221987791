package application

import "sort"

// SelectionSet holds the ids picked for a batch operation.
type SelectionSet struct {
	ids map[int]struct{}
}

func NewSelectionSet() *SelectionSet {
	return &SelectionSet{ids: make(map[int]struct{})}
}

// Toggle adds id when absent and removes it when present. It returns the
// new membership.
func (s *SelectionSet) Toggle(id int) bool {
	if _, ok := s.ids[id]; ok {
		delete(s.ids, id)
		return false
	}
	s.ids[id] = struct{}{}
	return true
}

func (s *SelectionSet) IsSelected(id int) bool {
	_, ok := s.ids[id]
	return ok
}

func (s *SelectionSet) Clear() {
	s.ids = make(map[int]struct{})
}

func (s *SelectionSet) Len() int {
	return len(s.ids)
}

// IDs returns the selected ids in ascending order.
func (s *SelectionSet) IDs() []int {
	out := make([]int, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}

// Set returns a copy of the selection keyed by id.
func (s *SelectionSet) Set() map[int]struct{} {
	out := make(map[int]struct{}, len(s.ids))
	for id := range s.ids {
		out[id] = struct{}{}
	}
	return out
}
