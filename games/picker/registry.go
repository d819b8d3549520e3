/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package picker

import (
	"fmt"
	"slices"
)

// TouchID identifies one finger for as long as it stays on the surface.
type TouchID int64

// Touch is a single entry of an input batch.
type Touch struct {
	ID TouchID `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

// TouchState is what the registry keeps for each pressed finger.
type TouchState struct {
	ID    TouchID
	Color Color
	X     float64
	Y     float64
}

// Violation records an event for an identifier the registry never saw begin.
type Violation struct {
	Kind string
	ID   TouchID
}

func (v Violation) Error() string {
	return fmt.Sprintf("touch %s for untracked id %d", v.Kind, v.ID)
}

// Registry maps active touch identifiers to their state.
type Registry struct {
	touches map[TouchID]*TouchState
	colors  *assigner
}

func newRegistry(colors *assigner) *Registry {
	return &Registry{
		touches: make(map[TouchID]*TouchState),
		colors:  colors,
	}
}

// Began inserts every untracked touch of the batch and returns the ids added.
// A repeated begin for a tracked id is a no-op and keeps its color.
func (r *Registry) Began(batch []Touch) []TouchID {
	var added []TouchID
	for _, t := range batch {
		if _, ok := r.touches[t.ID]; ok {
			continue
		}

		r.touches[t.ID] = &TouchState{
			ID:    t.ID,
			Color: r.colors.Next(),
			X:     t.X,
			Y:     t.Y,
		}
		added = append(added, t.ID)
	}

	return added
}

// Moved updates positions in batch order.
func (r *Registry) Moved(batch []Touch) []Violation {
	var bad []Violation
	for _, t := range batch {
		ts, ok := r.touches[t.ID]
		if !ok {
			bad = append(bad, Violation{Kind: "move", ID: t.ID})
			continue
		}

		ts.X, ts.Y = t.X, t.Y
	}

	return bad
}

// Ended removes released touches.
func (r *Registry) Ended(batch []Touch) []Violation {
	var bad []Violation
	for _, t := range batch {
		if _, ok := r.touches[t.ID]; !ok {
			bad = append(bad, Violation{Kind: "end", ID: t.ID})
			continue
		}

		delete(r.touches, t.ID)
	}

	return bad
}

func (r *Registry) Len() int {
	return len(r.touches)
}

// Get returns a copy of the state for id.
func (r *Registry) Get(id TouchID) (TouchState, bool) {
	ts, ok := r.touches[id]
	if !ok {
		return TouchState{}, false
	}

	return *ts, true
}

// IDs returns the tracked identifiers in ascending order.
func (r *Registry) IDs() []TouchID {
	ids := make([]TouchID, 0, len(r.touches))
	for id := range r.touches {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	return ids
}

// States returns copies of every tracked touch, ordered by id.
func (r *Registry) States() []TouchState {
	out := make([]TouchState, 0, len(r.touches))
	for _, id := range r.IDs() {
		out = append(out, *r.touches[id])
	}

	return out
}

func (r *Registry) clear() {
	clear(r.touches)
}
