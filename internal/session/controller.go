// Package session owns all mutable client-side simulation state and mediates
// every other component: it sequences requests through the gateway, marks
// attribution baselines around mutations, feeds the explanation engine when
// fresh chemistry lands, and runs the auto-play timer.
//
// Concurrency model: state is guarded by one mutex; each public operation is
// a blocking call meant to run on its own goroutine. Per action class the
// busy flag serializes requests, so completions within a class are observed
// in call order. Across classes (e.g. a manual reset racing an auto-play
// step) the last response applied wins; the remote engine treats reset as
// authoritative, so no extra serialization is attempted.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/san-kum/hydrolab/internal/chem"
	"github.com/san-kum/hydrolab/internal/client"
	"github.com/san-kum/hydrolab/internal/explain"
	"github.com/san-kum/hydrolab/internal/export"
	"github.com/san-kum/hydrolab/internal/grid"
	"github.com/san-kum/hydrolab/internal/runs"
)

const historyCapacity = 240

// Options configures a controller.
type Options struct {
	AutoplayPeriod time.Duration
	GridParameter  string
	GridDownsample int
}

// Controller is the orchestration state machine for one session.
type Controller struct {
	gw   Gateway
	opts Options

	mu   sync.Mutex
	busy [actionCount]bool

	health    string
	chemistry *chem.Snapshot
	doHistory []float64

	gridData   *grid.Data
	gridActive bool
	gridParam  string
	downsample int

	activeTarget string
	profile      *client.TargetProfile
	targets      []client.TargetProfile
	lessons      []client.LessonPreset

	compliance  *client.ComplianceReport
	remediation *client.RemediationSummary

	baseline      *chem.Snapshot
	baselineLabel string
	explanation   *explain.Explanation

	runs       *runs.Store
	heatwaveOn bool

	dataErr        string
	targetErr      string
	lessonErr      string
	remediationErr string
	complianceErr  string

	autoplay bool
	stopAuto chan chan struct{}

	notify func()
}

// New builds a controller over the given gateway.
func New(gw Gateway, opts Options) *Controller {
	if opts.AutoplayPeriod <= 0 {
		opts.AutoplayPeriod = 2 * time.Second
	}
	if opts.GridParameter == "" {
		opts.GridParameter = "dissolved_oxygen"
	}
	if opts.GridDownsample < 1 {
		opts.GridDownsample = 4
	}
	return &Controller{
		gw:         gw,
		opts:       opts,
		gridParam:  opts.GridParameter,
		downsample: opts.GridDownsample,
		runs:       runs.NewStore(),
	}
}

// SetNotify registers a callback invoked after every state change. The
// callback must not call back into the controller.
func (c *Controller) SetNotify(fn func()) {
	c.mu.Lock()
	c.notify = fn
	c.mu.Unlock()
}

// State is a read-only copy of the controller's observable state.
type State struct {
	Health       string
	Chemistry    *chem.Snapshot
	DOHistory    []float64
	Grid         *grid.Data
	GridActive   bool
	GridParam    string
	Downsample   int
	HeatwaveOn   bool
	Autoplay     bool
	ActiveTarget string
	Profile      *client.TargetProfile
	Targets      []client.TargetProfile
	Lessons      []client.LessonPreset
	Compliance   *client.ComplianceReport
	Remediation  *client.RemediationSummary
	Explanation  *explain.Explanation
	Busy         map[Action]bool

	DataErr        string
	TargetErr      string
	LessonErr      string
	RemediationErr string
	ComplianceErr  string
}

// State snapshots the observable session state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	busy := make(map[Action]bool, actionCount)
	for a := Action(0); a < actionCount; a++ {
		if c.busy[a] {
			busy[a] = true
		}
	}
	hist := make([]float64, len(c.doHistory))
	copy(hist, c.doHistory)
	return State{
		Health:         c.health,
		Chemistry:      c.chemistry,
		DOHistory:      hist,
		Grid:           c.gridData,
		GridActive:     c.gridActive,
		GridParam:      c.gridParam,
		Downsample:     c.downsample,
		HeatwaveOn:     c.heatwaveOn,
		Autoplay:       c.autoplay,
		ActiveTarget:   c.activeTarget,
		Profile:        c.profile,
		Targets:        c.targets,
		Lessons:        c.lessons,
		Compliance:     c.compliance,
		Remediation:    c.remediation,
		Explanation:    c.explanation,
		Busy:           busy,
		DataErr:        c.dataErr,
		TargetErr:      c.targetErr,
		LessonErr:      c.lessonErr,
		RemediationErr: c.remediationErr,
		ComplianceErr:  c.complianceErr,
	}
}

// Busy reports whether an action class has a request in flight.
func (c *Controller) Busy(a Action) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy[a]
}

func (c *Controller) begin(a Action) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy[a] {
		return false
	}
	c.busy[a] = true
	return true
}

func (c *Controller) end(a Action) {
	c.mu.Lock()
	c.busy[a] = false
	c.mu.Unlock()
}

func (c *Controller) emit() {
	c.mu.Lock()
	fn := c.notify
	c.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// markBaseline records the current chemistry as the "before" snapshot for
// the attribution engine. Without a valid current snapshot nothing is
// marked and no explanation will be derived for this action.
func (c *Controller) markBaseline(label string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.chemistry == nil {
		return
	}
	prev := *c.chemistry
	c.baseline = &prev
	c.baselineLabel = label
}

// setActionErr routes a failure to its scoped error field so one failing
// subsystem does not mask the others.
func (c *Controller) setActionErr(a Action, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	msg := err.Error()
	switch a {
	case ActionTarget:
		c.targetErr = msg
	case ActionLesson:
		c.lessonErr = msg
	case ActionRemediation:
		c.remediationErr = msg
	case ActionCompliance:
		c.complianceErr = msg
	default:
		c.dataErr = msg
	}
}

func (c *Controller) clearActionErr(a Action) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch a {
	case ActionTarget:
		c.targetErr = ""
	case ActionLesson:
		c.lessonErr = ""
	case ActionRemediation:
		c.remediationErr = ""
	case ActionCompliance:
		c.complianceErr = ""
	default:
		c.dataErr = ""
	}
}

// fetchStatus pulls health and chemistry and applies whatever arrived. A
// fresh chemistry snapshot triggers the reactive explanation recompute when
// a baseline is marked. Validation failures leave the previous snapshot in
// place and produce no explanation.
func (c *Controller) fetchStatus(ctx context.Context) {
	health, herr := c.gw.Health(ctx)
	snap, cerr := c.gw.Chemistry(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if herr == nil {
		c.health = health
	}
	if cerr == nil {
		c.chemistry = &snap
		c.doHistory = append(c.doHistory, snap.DissolvedOxygen)
		if len(c.doHistory) > historyCapacity {
			c.doHistory = c.doHistory[len(c.doHistory)-historyCapacity:]
		}
		if c.baseline != nil {
			e := explain.Explain(*c.baseline, snap, c.baselineLabel)
			c.explanation = &e
		}
	}

	var verr *chem.ValidationError
	switch {
	case herr != nil:
		c.dataErr = herr.Error()
	case cerr != nil && !errors.As(cerr, &verr):
		c.dataErr = cerr.Error()
	case cerr == nil:
		c.dataErr = ""
	}
}

func (c *Controller) fetchGrid(ctx context.Context) {
	c.mu.Lock()
	param, ds := c.gridParam, c.downsample
	c.mu.Unlock()

	d, err := c.gw.ChemistryGrid(ctx, param, ds)
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.dataErr = err.Error()
		return
	}
	c.gridData = &d
}

func (c *Controller) fetchLessons(ctx context.Context) {
	c.mu.Lock()
	target := c.activeTarget
	c.mu.Unlock()

	ls, err := c.gw.Lessons(ctx, target)
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.lessonErr = err.Error()
		return
	}
	// a slow response for a previous target must never repopulate the list
	if target != c.activeTarget {
		return
	}
	c.lessons = ls
}

func (c *Controller) fetchTargets(ctx context.Context) {
	list, err := c.gw.Targets(ctx)
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.targetErr = err.Error()
		return
	}
	c.targets = list.Targets
	if list.ActiveTarget != "" {
		c.activeTarget = list.ActiveTarget
		for i := range list.Targets {
			if list.Targets[i].ID == list.ActiveTarget {
				p := list.Targets[i]
				c.profile = &p
				break
			}
		}
	}
}

func (c *Controller) fetchRemediation(ctx context.Context) {
	sum, err := c.gw.RemediationSummary(ctx)
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.remediationErr = err.Error()
		return
	}
	c.remediation = &sum
}

func (c *Controller) fetchCompliance(ctx context.Context) {
	rep, err := c.gw.Compliance(ctx)
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.complianceErr = err.Error()
		return
	}
	c.compliance = &rep
	c.complianceErr = ""
}

func (c *Controller) gridEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gridActive
}

// run executes one mutating action: mark baseline, call, refetch status (and
// the spatial grid when the grid view is active). Returns false when the
// class already had a request in flight and the invocation was ignored.
func (c *Controller) run(ctx context.Context, a Action, label string, call func(context.Context) error) bool {
	if !c.begin(a) {
		return false
	}
	defer c.end(a)

	c.markBaseline(label)
	if err := call(ctx); err != nil {
		c.setActionErr(a, err)
		c.emit()
		return true
	}
	c.clearActionErr(a)
	c.fetchStatus(ctx)
	if c.gridEnabled() {
		c.fetchGrid(ctx)
	}
	c.emit()
	return true
}

// RefreshStatus pulls health and chemistry outside any mutation.
func (c *Controller) RefreshStatus(ctx context.Context) bool {
	if !c.begin(ActionStatus) {
		return false
	}
	defer c.end(ActionStatus)
	c.fetchStatus(ctx)
	c.emit()
	return true
}

// Step advances the simulation one step.
func (c *Controller) Step(ctx context.Context) bool {
	return c.run(ctx, ActionStep, "manual step", c.gw.Step)
}

// Reset restores the active target's baseline. A reset issued while an
// auto-play step is in flight is allowed; whichever response completes last
// determines the displayed state.
func (c *Controller) Reset(ctx context.Context) bool {
	return c.run(ctx, ActionReset, "reset to baseline", c.gw.Reset)
}

// Inject adds nutrient and/or pollutant mass.
func (c *Controller) Inject(ctx context.Context, nutrient, pollutant float64) bool {
	label := fmt.Sprintf("injected nutrient %.1f, pollutant %.1f", nutrient, pollutant)
	return c.run(ctx, ActionInject, label, func(ctx context.Context) error {
		return c.gw.Inject(ctx, nutrient, pollutant)
	})
}

// ToggleHeatwave flips the sustained temperature anomaly.
func (c *Controller) ToggleHeatwave(ctx context.Context, intensity float64) bool {
	c.mu.Lock()
	activate := !c.heatwaveOn
	c.mu.Unlock()

	label := "heatwave off"
	if activate {
		label = fmt.Sprintf("heatwave on (intensity %.1f)", intensity)
	}
	return c.run(ctx, ActionHeatwave, label, func(ctx context.Context) error {
		if err := c.gw.Heatwave(ctx, activate, intensity); err != nil {
			return err
		}
		c.mu.Lock()
		c.heatwaveOn = activate
		c.mu.Unlock()
		return nil
	})
}

// RefreshGrid refetches the spatial field.
func (c *Controller) RefreshGrid(ctx context.Context) bool {
	if !c.begin(ActionSpatial) {
		return false
	}
	defer c.end(ActionSpatial)
	c.fetchGrid(ctx)
	c.emit()
	return true
}

// SetGridActive enables or disables the spatial view; mutations refetch the
// grid only while it is active.
func (c *Controller) SetGridActive(on bool) {
	c.mu.Lock()
	c.gridActive = on
	c.mu.Unlock()
	c.emit()
}

// SetGridParameter changes the displayed field.
func (c *Controller) SetGridParameter(parameter string, downsample int) {
	c.mu.Lock()
	c.gridParam = parameter
	if downsample >= 1 {
		c.downsample = downsample
	}
	c.mu.Unlock()
	c.emit()
}

// LoadTargets pulls the target catalog.
func (c *Controller) LoadTargets(ctx context.Context) bool {
	if !c.begin(ActionTarget) {
		return false
	}
	defer c.end(ActionTarget)
	c.fetchTargets(ctx)
	c.emit()
	return true
}

// SwitchTarget changes the active environment. On success the profile is
// replaced wholesale and the previous target's lessons are discarded before
// the new target's are fetched.
func (c *Controller) SwitchTarget(ctx context.Context, id string) bool {
	return c.run(ctx, ActionTarget, "switched target to "+id, func(ctx context.Context) error {
		res, err := c.gw.SelectTarget(ctx, id)
		if err != nil {
			return err
		}
		c.mu.Lock()
		c.activeTarget = res.ActiveTarget
		p := res.Profile
		c.profile = &p
		c.lessons = nil
		c.mu.Unlock()
		c.fetchLessons(ctx)
		return nil
	})
}

// LoadLessons pulls the lesson presets for the active target.
func (c *Controller) LoadLessons(ctx context.Context) bool {
	if !c.begin(ActionLesson) {
		return false
	}
	defer c.end(ActionLesson)
	c.fetchLessons(ctx)
	c.emit()
	return true
}

// RunLesson executes a scripted lesson. Lessons may switch targets as part
// of their script, so the catalog and lesson list are refreshed afterwards.
func (c *Controller) RunLesson(ctx context.Context, id, name string) bool {
	label := "ran lesson " + name
	if name == "" {
		label = "ran lesson " + id
	}
	return c.run(ctx, ActionLesson, label, func(ctx context.Context) error {
		res, err := c.gw.RunLesson(ctx, id)
		if err != nil {
			return err
		}
		c.mu.Lock()
		switched := res.ActiveTarget != "" && res.ActiveTarget != c.activeTarget
		if switched {
			c.activeTarget = res.ActiveTarget
			c.lessons = nil
		}
		c.mu.Unlock()
		c.fetchTargets(ctx)
		c.fetchLessons(ctx)
		return nil
	})
}

// DeployRemediation places an intervention and refreshes the cost summary.
func (c *Controller) DeployRemediation(ctx context.Context, x, y, radius int, kind string, intensity float64) bool {
	return c.run(ctx, ActionRemediation, "deployed "+kind, func(ctx context.Context) error {
		if _, err := c.gw.DeployRemediation(ctx, x, y, radius, kind, intensity); err != nil {
			return err
		}
		c.fetchRemediation(ctx)
		return nil
	})
}

// RefreshRemediation pulls the intervention cost summary.
func (c *Controller) RefreshRemediation(ctx context.Context) bool {
	if !c.begin(ActionRemediation) {
		return false
	}
	defer c.end(ActionRemediation)
	c.fetchRemediation(ctx)
	c.emit()
	return true
}

// RefreshCompliance pulls the current regulatory assessment.
func (c *Controller) RefreshCompliance(ctx context.Context) bool {
	if !c.begin(ActionCompliance) {
		return false
	}
	defer c.end(ActionCompliance)
	c.fetchCompliance(ctx)
	c.emit()
	return true
}

// CaptureRun stores the current chemistry into an A/B slot. Without a valid
// current snapshot the capture is a no-op.
func (c *Controller) CaptureRun(slot runs.Slot) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.chemistry == nil {
		return false
	}
	name := c.activeTarget
	if c.profile != nil {
		name = c.profile.Name
	}
	c.runs.Capture(runs.Snapshot{
		Slot:        slot,
		Timestamp:   time.Now(),
		TargetID:    c.activeTarget,
		TargetName:  name,
		HealthLabel: c.health,
		Chemistry:   *c.chemistry,
	})
	return true
}

// ClearRuns empties both comparison slots.
func (c *Controller) ClearRuns() {
	c.mu.Lock()
	c.runs.Clear()
	c.mu.Unlock()
	c.emit()
}

// CompareRuns returns the A/B comparison when both slots are captured.
func (c *Controller) CompareRuns() (runs.Comparison, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.runs.Compare()
}

// RunSlot returns the snapshot captured in a slot, if any.
func (c *Controller) RunSlot(slot runs.Slot) (runs.Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.runs.Get(slot)
}

// ExportDocument assembles the downloadable session snapshot.
func (c *Controller) ExportDocument() (export.Document, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.chemistry == nil {
		return export.Document{}, errors.New("no chemistry snapshot to export")
	}
	return export.Document{
		Timestamp:   time.Now(),
		Health:      c.health,
		Chemistry:   *c.chemistry,
		SpatialGrid: c.gridData,
	}, nil
}

// Close tears the controller down, cancelling auto-play.
func (c *Controller) Close() {
	c.SetAutoplay(false)
}
