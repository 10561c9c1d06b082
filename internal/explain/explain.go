// Package explain turns two chemistry snapshots and the action between them
// into a short, ranked explanation of what moved and why. The rules are
// heuristic screening logic, not a causal model; given identical inputs the
// output is byte-identical.
package explain

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/san-kum/hydrolab/internal/chem"
)

// Explanation is the derived attribution for one action.
type Explanation struct {
	Title    string
	Subtitle string
	Bullets  []string
	Deltas   map[string]float64
}

const (
	// deltas smaller than this are treated as noise
	threshold = 0.01
	// temperature moves slowly; it needs a larger excursion to matter
	tempThreshold = 0.05

	maxBullets = 6
	topFields  = 3
)

const (
	noteBODDemand    = "rising BOD increased microbial oxygen demand"
	noteWarmingSat   = "warmer water holds less dissolved oxygen, lowering saturation"
	noteRespiration  = "growing biomass and detritus added respiration load on oxygen"
	noteBODRelief    = "falling BOD reduced the oxygen demand on the water"
	notePhotosynth   = "phytoplankton growth produced oxygen through photosynthesis"
	noteCoolingAid   = "cooling raised oxygen saturation, aiding DO recovery"
	noteUptakeGrowth = "nutrient uptake by growing phytoplankton dominated"
	noteReminerali   = "detritus remineralization released nutrients back"
)

// Explain compares prev and next and attributes the movement to actionLabel.
// The first bullet always lists the three largest absolute changes, ties
// broken by the canonical field order.
func Explain(prev, next chem.Snapshot, actionLabel string) Explanation {
	deltas := chem.Deltas(prev, next)

	ranked := make([]string, len(chem.Fields))
	copy(ranked, chem.Fields)
	sort.SliceStable(ranked, func(i, j int) bool {
		return math.Abs(deltas[ranked[i]]) > math.Abs(deltas[ranked[j]])
	})

	parts := make([]string, 0, topFields)
	for _, f := range ranked[:topFields] {
		parts = append(parts, fmt.Sprintf("%s %+.2f", chem.Label(f), deltas[f]))
	}
	bullets := []string{strings.Join(parts, ", ")}

	dDO := deltas["dissolved_oxygen"]
	dBOD := deltas["bod"]
	dTemp := deltas["temperature"]
	dNut := deltas["nutrient"]
	dPhy := deltas["phytoplankton"]
	dZoo := deltas["zooplankton"]
	dDet := deltas["detritus"]

	// Rules are evaluated independently; several may fire for one change.
	if dDO <= -threshold && dBOD >= threshold {
		bullets = append(bullets, noteBODDemand)
	}
	if dDO <= -threshold && dTemp >= tempThreshold {
		bullets = append(bullets, noteWarmingSat)
	}
	if dDO <= -threshold && (dDet >= threshold || dZoo >= threshold || dPhy >= threshold) {
		bullets = append(bullets, noteRespiration)
	}
	if dDO >= threshold && dBOD <= -threshold {
		bullets = append(bullets, noteBODRelief)
	}
	if dDO >= threshold && dPhy >= threshold {
		bullets = append(bullets, notePhotosynth)
	}
	if dDO >= threshold && dTemp <= -tempThreshold {
		bullets = append(bullets, noteCoolingAid)
	}
	if dNut <= -threshold && dPhy >= threshold {
		bullets = append(bullets, noteUptakeGrowth)
	}
	if dNut >= threshold && dDet <= -threshold {
		bullets = append(bullets, noteReminerali)
	}

	return Explanation{
		Title:    "Why did the water change?",
		Subtitle: actionLabel,
		Bullets:  dedupCap(bullets, maxBullets),
		Deltas:   deltas,
	}
}

func dedupCap(in []string, limit int) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
		if len(out) == limit {
			break
		}
	}
	return out
}
