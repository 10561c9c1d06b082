// Package runs keeps the two labeled A/B run snapshots used for side-by-side
// comparison. Slots are overwritten in place on recapture and only cleared by
// an explicit reset; nothing accumulates and nothing persists.
package runs

import (
	"errors"
	"time"

	"github.com/san-kum/hydrolab/internal/chem"
)

// Slot names one of the two comparison positions.
type Slot string

const (
	SlotA Slot = "A"
	SlotB Slot = "B"
)

// Snapshot is a captured run: the chemistry at capture time plus enough
// context to label the comparison.
type Snapshot struct {
	Slot        Slot
	Timestamp   time.Time
	TargetID    string
	TargetName  string
	HealthLabel string
	Chemistry   chem.Snapshot
}

// ErrIncomplete is returned by Compare until both slots hold a snapshot.
var ErrIncomplete = errors.New("run comparison needs both slots captured")

// Store holds at most one snapshot per slot.
type Store struct {
	a, b *Snapshot
}

func NewStore() *Store {
	return &Store{}
}

// Capture stores the snapshot into its slot, replacing any previous capture.
// Snapshots with an unknown slot are ignored.
func (s *Store) Capture(snap Snapshot) {
	switch snap.Slot {
	case SlotA:
		s.a = &snap
	case SlotB:
		s.b = &snap
	}
}

// Get returns the snapshot in a slot, if captured.
func (s *Store) Get(slot Slot) (Snapshot, bool) {
	switch slot {
	case SlotA:
		if s.a != nil {
			return *s.a, true
		}
	case SlotB:
		if s.b != nil {
			return *s.b, true
		}
	}
	return Snapshot{}, false
}

// Clear empties both slots.
func (s *Store) Clear() {
	s.a, s.b = nil, nil
}

// Ready reports whether a comparison is possible.
func (s *Store) Ready() bool {
	return s.a != nil && s.b != nil
}

// FieldDelta is one field's A/B pair and difference.
type FieldDelta struct {
	Field string
	A, B  float64
	Delta float64
}

// Comparison is the per-field B-minus-A view of the two captured runs.
// CrossTarget is set when the runs were captured against different targets;
// the deltas are still computed but span different baselines.
type Comparison struct {
	A, B        Snapshot
	Fields      []FieldDelta
	CrossTarget bool
}

// Compare computes per-field deltas. Field order follows chem.Fields.
func (s *Store) Compare() (Comparison, error) {
	if !s.Ready() {
		return Comparison{}, ErrIncomplete
	}
	cmp := Comparison{
		A:           *s.a,
		B:           *s.b,
		CrossTarget: s.a.TargetID != s.b.TargetID,
		Fields:      make([]FieldDelta, 0, len(chem.Fields)),
	}
	for _, f := range chem.Fields {
		a := s.a.Chemistry.Value(f)
		b := s.b.Chemistry.Value(f)
		cmp.Fields = append(cmp.Fields, FieldDelta{Field: f, A: a, B: b, Delta: b - a})
	}
	return cmp, nil
}
