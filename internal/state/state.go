// Package state holds the shared record threaded through graph execution and
// the key sets derived for it at compile time.
package state

import (
	"maps"
	"slices"
)

// RouteKey is the reserved state field consulted by conditional edges.
const RouteKey = "route"

// State is the mutable record passed from node to node. Nodes return partial
// updates which the engine merges into its canonical instance.
type State map[string]any

// Clone returns a shallow copy of s. A nil State clones to an empty one.
func (s State) Clone() State {
	out := make(State, len(s))
	maps.Copy(out, s)
	return out
}

// Merge writes every key of update into s, overwriting existing values.
func (s State) Merge(update State) {
	maps.Copy(s, update)
}

// Route returns the current routing label and whether one is set.
func (s State) Route() (string, bool) {
	v, ok := s[RouteKey]
	if !ok || v == nil {
		return "", false
	}
	label, ok := v.(string)
	return label, ok
}

// KeySet is the set of state keys a graph reads or writes.
type KeySet map[string]struct{}

// NewKeySet creates a KeySet containing keys.
func NewKeySet(keys ...string) KeySet {
	ks := make(KeySet, len(keys))
	ks.Add(keys...)
	return ks
}

// Add inserts keys, ignoring empty strings.
func (ks KeySet) Add(keys ...string) {
	for _, k := range keys {
		if k != "" {
			ks[k] = struct{}{}
		}
	}
}

// Union adds every key from other.
func (ks KeySet) Union(other KeySet) {
	for k := range other {
		ks[k] = struct{}{}
	}
}

// Has reports whether key is in the set.
func (ks KeySet) Has(key string) bool {
	_, ok := ks[key]
	return ok
}

// Sorted returns the keys in lexical order.
func (ks KeySet) Sorted() []string {
	return slices.Sorted(maps.Keys(ks))
}
