package model

import "sort"

// History maps a participant id to the set of roles already held.
// A participant missing from the map has an empty history.
type History map[string]map[string]struct{}

// Has reports whether the participant already held role.
func (h History) Has(id, role string) bool {
	_, ok := h[id][role]
	return ok
}

// Add records role for the participant. Role sets only grow.
func (h History) Add(id, role string) {
	set, ok := h[id]
	if !ok {
		set = make(map[string]struct{})
		h[id] = set
	}
	set[role] = struct{}{}
}

// Clone returns a deep copy sharing no sets with h.
func (h History) Clone() History {
	out := make(History, len(h))
	for id, set := range h {
		cp := make(map[string]struct{}, len(set))
		for r := range set {
			cp[r] = struct{}{}
		}
		out[id] = cp
	}
	return out
}

// Merge folds every assignment of entries into the history.
func (h History) Merge(entries []AssignmentEntry) {
	for _, e := range entries {
		for _, r := range e.Roles {
			h.Add(r.Participant.ID, r.Role)
		}
	}
}

// Roles lists the roles held by the participant in sorted order.
func (h History) Roles(id string) []string {
	set := h[id]
	out := make([]string, 0, len(set))
	for r := range set {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}
