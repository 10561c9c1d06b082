// Package client is the typed gateway to the remote hydro-ecology simulation
// service. Each method wraps one endpoint; failures are classified as
// TransportError (no response) or ServiceError (non-success response) and are
// never retried here. The caller decides whether and when to try again.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/san-kum/hydrolab/internal/chem"
	"github.com/san-kum/hydrolab/internal/grid"
)

// InterventionTypes are the remediation kinds the service accepts.
var InterventionTypes = []string{"aeration", "wetland", "oyster_reef"}

// Client talks to one simulation service instance.
type Client struct {
	base string
	hc   *http.Client
}

// New builds a gateway for the given base URL. No request timeout is set:
// request ordering is the controller's job and a hung request surfaces there
// as a persistent busy indicator rather than a failure here.
func New(base string) *Client {
	return &Client{
		base: strings.TrimRight(base, "/"),
		hc:   &http.Client{},
	}
}

// Health fetches the overall ecosystem health label.
func (c *Client) Health(ctx context.Context) (string, error) {
	var out struct {
		HealthStatus string `json:"health_status"`
	}
	if err := c.do(ctx, "fetch health", http.MethodGet, "/status/health", &out); err != nil {
		return "", err
	}
	return out.HealthStatus, nil
}

// Chemistry fetches the current chemistry snapshot. A partial or non-numeric
// payload fails with chem.ValidationError.
func (c *Client) Chemistry(ctx context.Context) (chem.Snapshot, error) {
	var out chem.Snapshot
	if err := c.do(ctx, "fetch chemistry", http.MethodGet, "/status/chemistry", &out); err != nil {
		return chem.Snapshot{}, err
	}
	return out, nil
}

// ChemistryGrid fetches the spatial field for a named parameter, reduced by
// the given downsample stride.
func (c *Client) ChemistryGrid(ctx context.Context, parameter string, downsample int) (grid.Data, error) {
	var out struct {
		Grid [][]*float64 `json:"grid"`
		Min  float64      `json:"min"`
		Max  float64      `json:"max"`
		NX   int          `json:"nx"`
		NY   int          `json:"ny"`
	}
	q := url.Values{}
	q.Set("parameter", parameter)
	q.Set("downsample", strconv.Itoa(downsample))
	path := "/status/chemistry/grid?" + q.Encode()
	if err := c.do(ctx, "fetch spatial grid", http.MethodGet, path, &out); err != nil {
		return grid.Data{}, err
	}
	d := grid.FromRows(out.Grid, out.Min, out.Max, out.NX, out.NY, parameter)
	if err := d.Check(); err != nil {
		return grid.Data{}, &ServiceError{Op: "fetch spatial grid", Message: err.Error()}
	}
	return d, nil
}

// Flow samples the hydrodynamic flow vector at a grid coordinate.
func (c *Client) Flow(ctx context.Context, x, y int) (FlowVector, error) {
	var out FlowVector
	q := url.Values{}
	q.Set("x", strconv.Itoa(x))
	q.Set("y", strconv.Itoa(y))
	if err := c.do(ctx, "sample flow", http.MethodGet, "/status/flow?"+q.Encode(), &out); err != nil {
		return FlowVector{}, err
	}
	return out, nil
}

// Step advances the simulation one step.
func (c *Client) Step(ctx context.Context) error {
	return c.do(ctx, "step", http.MethodPost, "/simulation/step", nil)
}

// Reset returns the simulation to the active target's baseline.
func (c *Client) Reset(ctx context.Context) error {
	return c.do(ctx, "reset", http.MethodPost, "/simulation/reset", nil)
}

// Inject adds nutrient and pollutant mass to the water column.
func (c *Client) Inject(ctx context.Context, nutrient, pollutant float64) error {
	q := url.Values{}
	q.Set("nutrient", formatFloat(nutrient))
	q.Set("pollutant", formatFloat(pollutant))
	return c.do(ctx, "inject", http.MethodPost, "/simulation/inject?"+q.Encode(), nil)
}

// Heatwave toggles a sustained temperature anomaly.
func (c *Client) Heatwave(ctx context.Context, activate bool, intensity float64) error {
	q := url.Values{}
	q.Set("activate", strconv.FormatBool(activate))
	q.Set("intensity", formatFloat(intensity))
	return c.do(ctx, "heatwave", http.MethodPost, "/simulation/heatwave?"+q.Encode(), nil)
}

// Targets lists the available environment profiles.
func (c *Client) Targets(ctx context.Context) (TargetList, error) {
	var out TargetList
	if err := c.do(ctx, "list targets", http.MethodGet, "/targets", &out); err != nil {
		return TargetList{}, err
	}
	return out, nil
}

// SelectTarget switches the active target. On rejection the ServiceError
// carries the service's list of valid ids.
func (c *Client) SelectTarget(ctx context.Context, id string) (SelectResult, error) {
	var out SelectResult
	q := url.Values{}
	q.Set("target_id", id)
	if err := c.do(ctx, "switch target", http.MethodPost, "/targets/select?"+q.Encode(), &out); err != nil {
		return SelectResult{}, err
	}
	return out, nil
}

// Lessons lists the lesson presets for a target.
func (c *Client) Lessons(ctx context.Context, targetID string) ([]LessonPreset, error) {
	var out struct {
		Lessons []LessonPreset `json:"lessons"`
	}
	q := url.Values{}
	q.Set("target_id", targetID)
	if err := c.do(ctx, "list lessons", http.MethodGet, "/lessons?"+q.Encode(), &out); err != nil {
		return nil, err
	}
	return out.Lessons, nil
}

// RunLesson executes a scripted lesson by id.
func (c *Client) RunLesson(ctx context.Context, id string) (LessonResult, error) {
	var out LessonResult
	q := url.Values{}
	q.Set("lesson_id", id)
	if err := c.do(ctx, "run lesson", http.MethodPost, "/lessons/run?"+q.Encode(), &out); err != nil {
		return LessonResult{}, err
	}
	return out, nil
}

// DeployRemediation places an intervention at a grid location.
func (c *Client) DeployRemediation(ctx context.Context, x, y, radius int, kind string, intensity float64) (DeployResult, error) {
	if !validKind(kind) {
		return DeployResult{}, fmt.Errorf("deploy remediation: unknown intervention type %q (valid: %s)",
			kind, strings.Join(InterventionTypes, ", "))
	}
	var out DeployResult
	q := url.Values{}
	q.Set("x", strconv.Itoa(x))
	q.Set("y", strconv.Itoa(y))
	q.Set("radius", strconv.Itoa(radius))
	q.Set("intervention_type", kind)
	q.Set("intensity", formatFloat(intensity))
	if err := c.do(ctx, "deploy remediation", http.MethodPost, "/remediation/deploy?"+q.Encode(), &out); err != nil {
		return DeployResult{}, err
	}
	return out, nil
}

// RemediationSummary fetches the cost and zone summary.
func (c *Client) RemediationSummary(ctx context.Context) (RemediationSummary, error) {
	var out RemediationSummary
	if err := c.do(ctx, "remediation summary", http.MethodGet, "/remediation/summary", &out); err != nil {
		return RemediationSummary{}, err
	}
	return out, nil
}

// Compliance fetches the current regulatory assessment.
func (c *Client) Compliance(ctx context.Context) (ComplianceReport, error) {
	var out ComplianceReport
	if err := c.do(ctx, "check compliance", http.MethodGet, "/regulatory/compliance", &out); err != nil {
		return ComplianceReport{}, err
	}
	return out, nil
}

// ComplianceHistory fetches the accumulated assessment summary.
func (c *Client) ComplianceHistory(ctx context.Context) (ComplianceHistory, error) {
	var out ComplianceHistory
	if err := c.do(ctx, "compliance history", http.MethodGet, "/regulatory/history", &out); err != nil {
		return ComplianceHistory{}, err
	}
	return out, nil
}

// envelope is the service's inline rejection shape: some endpoints answer 200
// with an error field instead of a non-2xx status.
type envelope struct {
	Error     string   `json:"error"`
	Detail    string   `json:"detail"`
	Available []string `json:"available"`
}

func (c *Client) do(ctx context.Context, op, method, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}

	var env envelope
	_ = json.Unmarshal(body, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := env.Error
		if msg == "" {
			msg = env.Detail
		}
		return &ServiceError{Op: op, Status: resp.StatusCode, Message: msg, Available: env.Available}
	}
	if env.Error != "" {
		return &ServiceError{Op: op, Status: resp.StatusCode, Message: env.Error, Available: env.Available}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		var verr *chem.ValidationError
		if errors.As(err, &verr) {
			return verr
		}
		return &ServiceError{Op: op, Status: resp.StatusCode, Message: fmt.Sprintf("malformed response: %v", err)}
	}
	return nil
}

func validKind(kind string) bool {
	for _, k := range InterventionTypes {
		if k == kind {
			return true
		}
	}
	return false
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
