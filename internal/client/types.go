package client

import (
	"encoding/json"
	"strconv"
)

// TargetProfile is an environment archetype the service can simulate.
// Profiles are replaced wholesale on fetch, never mutated field by field.
type TargetProfile struct {
	ID            string             `json:"id"`
	Name          string             `json:"name"`
	Description   string             `json:"description"`
	WaterbodyType string             `json:"waterbody_type"`
	GridShape     [2]int             `json:"grid_shape"`
	DomainSize    [2]float64         `json:"domain_size"`
	Baseline      map[string]float64 `json:"baseline"`
	MeanDepthM    float64            `json:"mean_depth_m"`
	EddyViscosity float64            `json:"eddy_viscosity_m2_s"`
}

// FlowVector is the hydrodynamic velocity at one grid cell.
type FlowVector struct {
	X int     `json:"x"`
	Y int     `json:"y"`
	U float64 `json:"flow_u"`
	V float64 `json:"flow_v"`
}

// TargetList is the catalog of targets plus which one is active.
type TargetList struct {
	ActiveTarget string          `json:"active_target"`
	Targets      []TargetProfile `json:"targets"`
}

// SelectResult is the outcome of switching the active target.
type SelectResult struct {
	ActiveTarget string        `json:"active_target"`
	Profile      TargetProfile `json:"profile"`
}

// LessonPreset is a scripted scenario bound to one target.
type LessonPreset struct {
	ID          string `json:"id"`
	TargetID    string `json:"target_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LessonResult is the outcome of running a lesson. ActiveTarget is set when
// the lesson switched targets as part of its script.
type LessonResult struct {
	ActiveTarget string `json:"active_target"`
	Status       string `json:"status"`
}

// DeployResult reports a successful remediation deployment.
type DeployResult struct {
	ID                  int     `json:"id"`
	Type                string  `json:"type"`
	Cost                float64 `json:"cost"`
	OperationalCostDay  float64 `json:"operational_cost_per_day"`
	TotalCumulativeCost float64 `json:"total_cumulative_cost"`
	Message             string  `json:"message"`
}

// ZoneLocation is a deployed intervention's footprint in grid cells.
type ZoneLocation struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Radius int `json:"radius"`
}

// RemediationZone is one active intervention in the cost summary.
type RemediationZone struct {
	ID            int          `json:"id"`
	Type          string       `json:"type"`
	Location      ZoneLocation `json:"location"`
	Effectiveness float64      `json:"effectiveness"`
	AgeDays       float64      `json:"age_days"`
}

// RemediationSummary aggregates every active intervention and its costs.
type RemediationSummary struct {
	TotalInterventions   int               `json:"total_interventions"`
	ByType               map[string]int    `json:"by_type"`
	TotalCapitalCost     float64           `json:"total_capital_cost"`
	DailyOperationalCost float64           `json:"daily_operational_cost"`
	Zones                []RemediationZone `json:"zones"`
}

// Threshold is a violation limit. The service reports most as numbers but pH
// as a range string, so the wire type accepts both and keeps the text.
type Threshold string

func (t *Threshold) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = Threshold(s)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*t = Threshold(strconv.FormatFloat(f, 'g', -1, 64))
	return nil
}

// Violation is one standard exceedance in a compliance assessment.
type Violation struct {
	Parameter string    `json:"parameter"`
	Value     float64   `json:"value"`
	Threshold Threshold `json:"threshold"`
	Severity  string    `json:"severity"`
	Timestamp string    `json:"timestamp"`
}

// TMDLStatus tracks one pollutant against its load limit.
type TMDLStatus struct {
	Parameter       string  `json:"parameter"`
	CurrentLoad     float64 `json:"current_load"`
	TMDLLimit       float64 `json:"tmdl_limit"`
	Compliance      bool    `json:"compliance"`
	ReductionNeeded float64 `json:"reduction_needed"`
}

// Standards is the reference thresholds the assessment was made against.
type Standards struct {
	DOMinimum         float64 `json:"do_minimum"`
	TempMaximum       float64 `json:"temp_maximum"`
	NutrientEutrophic float64 `json:"nutrient_eutrophic"`
	BODMaximum        float64 `json:"bod_maximum"`
}

// ComplianceReport is the current regulatory assessment.
type ComplianceReport struct {
	Compliant             bool         `json:"compliant"`
	Violations            []Violation  `json:"violations"`
	ImpairmentCategory    string       `json:"impairment_category"`
	ConsecutiveViolations int          `json:"consecutive_violations"`
	TotalViolations       int          `json:"total_violations"`
	WaterbodyType         string       `json:"waterbody_type"`
	TMDLStatus            []TMDLStatus `json:"tmdl_status"`
	Standards             Standards    `json:"standards"`
}

// ComplianceHistory is the service's accumulated assessment summary.
type ComplianceHistory struct {
	TotalAssessments      int            `json:"total_assessments"`
	TotalViolations       int            `json:"total_violations"`
	ViolationRate         float64        `json:"violation_rate"`
	CurrentImpairment     string         `json:"current_impairment"`
	ConsecutiveViolations int            `json:"consecutive_violations"`
	ViolationsByParameter map[string]int `json:"violations_by_parameter"`
	RecentViolations      []Violation    `json:"recent_violations"`
	WaterbodyType         string         `json:"waterbody_type"`
}
