// Package chem defines the water chemistry snapshot exchanged with the
// simulation service and its validity rules. A snapshot is only usable when
// every monitored field arrived as a number; partial readings are rejected
// rather than defaulted, so downstream consumers never attribute a change to
// a field that was simply missing.
package chem

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// Fields lists the monitored quantities in canonical order. Ranking ties in
// the attribution engine are broken by this order.
var Fields = []string{
	"nutrient",
	"phytoplankton",
	"zooplankton",
	"detritus",
	"dissolved_oxygen",
	"ph",
	"bod",
	"temperature",
}

var labels = map[string]string{
	"nutrient":         "nutrient",
	"phytoplankton":    "phytoplankton",
	"zooplankton":      "zooplankton",
	"detritus":         "detritus",
	"dissolved_oxygen": "dissolved oxygen",
	"ph":               "pH",
	"bod":              "bod",
	"temperature":      "temperature",
}

// Label returns the human-readable name for a field key.
func Label(field string) string {
	if l, ok := labels[field]; ok {
		return l
	}
	return field
}

// Snapshot is one time-sampled reading of the ecosystem's scalar state.
type Snapshot struct {
	Nutrient        float64 `json:"nutrient"`
	Phytoplankton   float64 `json:"phytoplankton"`
	Zooplankton     float64 `json:"zooplankton"`
	Detritus        float64 `json:"detritus"`
	DissolvedOxygen float64 `json:"dissolved_oxygen"`
	PH              float64 `json:"ph"`
	BOD             float64 `json:"bod"`
	Temperature     float64 `json:"temperature"`
}

// ValidationError reports a snapshot field that was missing or not numeric.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("chemistry snapshot: field %q missing or not numeric", e.Field)
}

// Value returns the reading for a field key, or 0 for an unknown key.
func (s Snapshot) Value(field string) float64 {
	switch field {
	case "nutrient":
		return s.Nutrient
	case "phytoplankton":
		return s.Phytoplankton
	case "zooplankton":
		return s.Zooplankton
	case "detritus":
		return s.Detritus
	case "dissolved_oxygen":
		return s.DissolvedOxygen
	case "ph":
		return s.PH
	case "bod":
		return s.BOD
	case "temperature":
		return s.Temperature
	}
	return 0
}

// FromMap builds a validated snapshot. Every field in Fields must be present
// and finite.
func FromMap(m map[string]float64) (Snapshot, error) {
	var s Snapshot
	for _, f := range Fields {
		v, ok := m[f]
		if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
			return Snapshot{}, &ValidationError{Field: f}
		}
		switch f {
		case "nutrient":
			s.Nutrient = v
		case "phytoplankton":
			s.Phytoplankton = v
		case "zooplankton":
			s.Zooplankton = v
		case "detritus":
			s.Detritus = v
		case "dissolved_oxygen":
			s.DissolvedOxygen = v
		case "ph":
			s.PH = v
		case "bod":
			s.BOD = v
		case "temperature":
			s.Temperature = v
		}
	}
	return s, nil
}

// UnmarshalJSON enforces the validity invariant on the wire: a flat object
// with all eight fields numeric, anything else is a ValidationError.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	raw := make(map[string]*float64)
	if err := json.Unmarshal(data, &raw); err != nil {
		// a field of the wrong JSON type is still a snapshot validity
		// failure, not a malformed response
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return &ValidationError{Field: typeErr.Field}
		}
		return err
	}
	m := make(map[string]float64, len(Fields))
	for _, f := range Fields {
		v, ok := raw[f]
		if !ok || v == nil {
			return &ValidationError{Field: f}
		}
		m[f] = *v
	}
	snap, err := FromMap(m)
	if err != nil {
		return err
	}
	*s = snap
	return nil
}

// Deltas returns next-minus-prev per field, keyed by field name.
func Deltas(prev, next Snapshot) map[string]float64 {
	d := make(map[string]float64, len(Fields))
	for _, f := range Fields {
		d[f] = next.Value(f) - prev.Value(f)
	}
	return d
}
