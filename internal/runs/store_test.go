package runs

import (
	"testing"
	"time"

	"github.com/san-kum/hydrolab/internal/chem"
)

func snap(slot Slot, target string, do float64) Snapshot {
	c, err := chem.FromMap(map[string]float64{
		"nutrient": 5, "phytoplankton": 1, "zooplankton": 0.5,
		"detritus": 0.1, "dissolved_oxygen": do, "ph": 8.1,
		"bod": 1, "temperature": 20,
	})
	if err != nil {
		panic(err)
	}
	return Snapshot{
		Slot: slot, Timestamp: time.Now(), TargetID: target,
		TargetName: target, HealthLabel: "Good", Chemistry: c,
	}
}

func TestCompare_RequiresBothSlots(t *testing.T) {
	s := NewStore()
	if _, err := s.Compare(); err != ErrIncomplete {
		t.Errorf("expected ErrIncomplete, got %v", err)
	}
	s.Capture(snap(SlotA, "urban_lake", 7.0))
	if _, err := s.Compare(); err != ErrIncomplete {
		t.Errorf("expected ErrIncomplete with one slot, got %v", err)
	}
	s.Capture(snap(SlotB, "urban_lake", 6.0))
	if _, err := s.Compare(); err != nil {
		t.Errorf("unexpected error with both slots: %v", err)
	}
}

func TestCompare_DeltasExact(t *testing.T) {
	s := NewStore()
	s.Capture(snap(SlotA, "urban_lake", 7.25))
	s.Capture(snap(SlotB, "urban_lake", 6.5))

	cmp, err := s.Compare()
	if err != nil {
		t.Fatalf("compare failed: %v", err)
	}
	if cmp.CrossTarget {
		t.Error("same target must not flag cross-target")
	}
	for _, fd := range cmp.Fields {
		if fd.A+fd.Delta != fd.B {
			t.Errorf("field %s: a + delta != b (%f + %f != %f)", fd.Field, fd.A, fd.Delta, fd.B)
		}
	}
	if len(cmp.Fields) != len(chem.Fields) {
		t.Errorf("expected %d fields, got %d", len(chem.Fields), len(cmp.Fields))
	}
}

func TestCompare_CrossTargetFlag(t *testing.T) {
	s := NewStore()
	s.Capture(snap(SlotA, "urban_lake", 7.0))
	s.Capture(snap(SlotB, "coastal_estuary", 8.5))

	cmp, err := s.Compare()
	if err != nil {
		t.Fatalf("compare failed: %v", err)
	}
	if !cmp.CrossTarget {
		t.Error("different targets must flag cross-target")
	}
	// deltas are still computed
	found := false
	for _, fd := range cmp.Fields {
		if fd.Field == "dissolved_oxygen" {
			found = true
			if fd.Delta != 1.5 {
				t.Errorf("expected DO delta 1.5, got %f", fd.Delta)
			}
		}
	}
	if !found {
		t.Error("dissolved_oxygen missing from comparison")
	}
}

func TestCapture_OverwritesSlot(t *testing.T) {
	s := NewStore()
	s.Capture(snap(SlotA, "urban_lake", 7.0))
	s.Capture(snap(SlotA, "urban_lake", 5.0))

	got, ok := s.Get(SlotA)
	if !ok {
		t.Fatal("slot A should be populated")
	}
	if got.Chemistry.DissolvedOxygen != 5.0 {
		t.Errorf("recapture should overwrite, got DO %f", got.Chemistry.DissolvedOxygen)
	}
}

func TestClear(t *testing.T) {
	s := NewStore()
	s.Capture(snap(SlotA, "urban_lake", 7.0))
	s.Capture(snap(SlotB, "urban_lake", 6.0))
	s.Clear()
	if s.Ready() {
		t.Error("clear should empty both slots")
	}
	if _, ok := s.Get(SlotA); ok {
		t.Error("slot A should be empty after clear")
	}
}
