package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/san-kum/hydrolab/internal/chem"
	"github.com/san-kum/hydrolab/internal/client"
	"github.com/san-kum/hydrolab/internal/grid"
	"github.com/san-kum/hydrolab/internal/runs"
)

func snapshot(t *testing.T, over map[string]float64) chem.Snapshot {
	t.Helper()
	m := map[string]float64{
		"nutrient": 10, "phytoplankton": 1, "zooplankton": 0.5,
		"detritus": 0.1, "dissolved_oxygen": 8, "ph": 8.1,
		"bod": 1, "temperature": 20,
	}
	for k, v := range over {
		m[k] = v
	}
	s, err := chem.FromMap(m)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	return s
}

type fakeGateway struct {
	mu      sync.Mutex
	current chem.Snapshot
	chemErr error
	health  string

	steps       int
	stepGate    chan struct{}
	stepStarted chan struct{}

	active    string
	selectErr error
	lessons   map[string][]client.LessonPreset
	targets   []client.TargetProfile

	lessonResult client.LessonResult
}

func newFakeGateway(t *testing.T) *fakeGateway {
	return &fakeGateway{
		current: snapshot(t, nil),
		health:  "Good",
		active:  "urban_lake",
		lessons: map[string][]client.LessonPreset{},
	}
}

func (f *fakeGateway) setChemistry(s chem.Snapshot) {
	f.mu.Lock()
	f.current = s
	f.mu.Unlock()
}

func (f *fakeGateway) stepCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.steps
}

func (f *fakeGateway) Health(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.health, nil
}

func (f *fakeGateway) Chemistry(ctx context.Context) (chem.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.chemErr != nil {
		return chem.Snapshot{}, f.chemErr
	}
	return f.current, nil
}

func (f *fakeGateway) ChemistryGrid(ctx context.Context, parameter string, downsample int) (grid.Data, error) {
	return grid.Data{
		Grid: [][]float64{{1, 2}, {3, 4}},
		Min:  1, Max: 4, NX: 2, NY: 2, Parameter: parameter,
	}, nil
}

func (f *fakeGateway) Step(ctx context.Context) error {
	f.mu.Lock()
	started := f.stepStarted
	gate := f.stepGate
	f.mu.Unlock()
	if started != nil {
		started <- struct{}{}
	}
	if gate != nil {
		<-gate
	}
	f.mu.Lock()
	f.steps++
	f.mu.Unlock()
	return nil
}

func (f *fakeGateway) Reset(ctx context.Context) error { return nil }

func (f *fakeGateway) Inject(ctx context.Context, nutrient, pollutant float64) error { return nil }

func (f *fakeGateway) Heatwave(ctx context.Context, activate bool, intensity float64) error {
	return nil
}

func (f *fakeGateway) Targets(ctx context.Context) (client.TargetList, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return client.TargetList{ActiveTarget: f.active, Targets: f.targets}, nil
}

func (f *fakeGateway) SelectTarget(ctx context.Context, id string) (client.SelectResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.selectErr != nil {
		return client.SelectResult{}, f.selectErr
	}
	f.active = id
	return client.SelectResult{
		ActiveTarget: id,
		Profile:      client.TargetProfile{ID: id, Name: "Target " + id},
	}, nil
}

func (f *fakeGateway) Lessons(ctx context.Context, targetID string) ([]client.LessonPreset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lessons[targetID], nil
}

func (f *fakeGateway) RunLesson(ctx context.Context, id string) (client.LessonResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lessonResult, nil
}

func (f *fakeGateway) DeployRemediation(ctx context.Context, x, y, radius int, kind string, intensity float64) (client.DeployResult, error) {
	return client.DeployResult{ID: 1, Type: kind}, nil
}

func (f *fakeGateway) RemediationSummary(ctx context.Context) (client.RemediationSummary, error) {
	return client.RemediationSummary{TotalInterventions: 1}, nil
}

func (f *fakeGateway) Compliance(ctx context.Context) (client.ComplianceReport, error) {
	return client.ComplianceReport{Compliant: true}, nil
}

func (f *fakeGateway) ComplianceHistory(ctx context.Context) (client.ComplianceHistory, error) {
	return client.ComplianceHistory{}, nil
}

var _ Gateway = (*fakeGateway)(nil)

func TestStepSingleFlight(t *testing.T) {
	fg := newFakeGateway(t)
	fg.stepGate = make(chan struct{})
	fg.stepStarted = make(chan struct{}, 1)
	c := New(fg, Options{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if !c.Step(context.Background()) {
			t.Error("first step should be accepted")
		}
	}()
	<-fg.stepStarted

	if c.Step(context.Background()) {
		t.Error("second step while busy should be ignored")
	}
	if !c.Busy(ActionStep) {
		t.Error("step class should be flagged busy")
	}

	close(fg.stepGate)
	wg.Wait()

	if got := fg.stepCount(); got != 1 {
		t.Errorf("gateway saw %d steps, want 1", got)
	}
	if c.Busy(ActionStep) {
		t.Error("busy flag should clear after completion")
	}
}

func TestStepRecomputesExplanation(t *testing.T) {
	fg := newFakeGateway(t)
	c := New(fg, Options{})
	ctx := context.Background()

	c.RefreshStatus(ctx)
	fg.setChemistry(snapshot(t, map[string]float64{"bod": 3, "dissolved_oxygen": 7.4}))
	c.Step(ctx)

	st := c.State()
	if st.Explanation == nil {
		t.Fatal("step should produce an explanation")
	}
	if st.Explanation.Subtitle != "manual step" {
		t.Errorf("subtitle = %q, want %q", st.Explanation.Subtitle, "manual step")
	}
	if len(st.Explanation.Bullets) == 0 || !strings.Contains(st.Explanation.Bullets[0], "bod +2.00") {
		t.Errorf("first bullet should lead with the bod change: %v", st.Explanation.Bullets)
	}
}

func TestStepWithoutBaselineNoExplanation(t *testing.T) {
	fg := newFakeGateway(t)
	c := New(fg, Options{})

	// no prior RefreshStatus, so there is nothing to mark as baseline
	c.Step(context.Background())
	if st := c.State(); st.Explanation != nil {
		t.Error("no baseline should mean no explanation")
	}
}

func TestAutoplayDisableBeforeTick(t *testing.T) {
	fg := newFakeGateway(t)
	c := New(fg, Options{AutoplayPeriod: time.Hour})

	c.SetAutoplay(true)
	if !c.Autoplay() {
		t.Fatal("autoplay should be on")
	}
	c.SetAutoplay(false)
	if c.Autoplay() {
		t.Fatal("autoplay should be off")
	}
	if got := fg.stepCount(); got != 0 {
		t.Errorf("disable before first tick should yield zero steps, got %d", got)
	}
}

func TestAutoplayTicks(t *testing.T) {
	fg := newFakeGateway(t)
	c := New(fg, Options{AutoplayPeriod: 5 * time.Millisecond})
	c.RefreshStatus(context.Background())

	c.SetAutoplay(true)
	deadline := time.After(2 * time.Second)
	for fg.stepCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("autoplay never stepped")
		case <-time.After(time.Millisecond):
		}
	}
	c.SetAutoplay(false)
	stopped := fg.stepCount()
	time.Sleep(20 * time.Millisecond)
	if got := fg.stepCount(); got != stopped {
		t.Errorf("steps continued after disable: %d -> %d", stopped, got)
	}
	if st := c.State(); st.Explanation != nil && st.Explanation.Subtitle != "auto-advance" {
		t.Errorf("autoplay explanation subtitle = %q", st.Explanation.Subtitle)
	}
}

func TestTargetSwitchErrorScoped(t *testing.T) {
	fg := newFakeGateway(t)
	fg.selectErr = errors.New("unknown target 'bog'")
	c := New(fg, Options{})

	c.SwitchTarget(context.Background(), "bog")
	st := c.State()
	if st.TargetErr == "" {
		t.Error("target error should be set")
	}
	if st.DataErr != "" {
		t.Errorf("target failure must not touch the data banner: %q", st.DataErr)
	}
	if c.Busy(ActionTarget) {
		t.Error("busy flag should clear after failure")
	}
}

func TestTargetSwitchReplacesLessons(t *testing.T) {
	fg := newFakeGateway(t)
	fg.lessons["urban_lake"] = []client.LessonPreset{{ID: "l1", TargetID: "urban_lake", Name: "Algal bloom"}}
	fg.lessons["cold_river"] = []client.LessonPreset{{ID: "l2", TargetID: "cold_river", Name: "Thermal stress"}}
	c := New(fg, Options{})
	ctx := context.Background()

	c.LoadTargets(ctx)
	c.LoadLessons(ctx)
	if st := c.State(); len(st.Lessons) != 1 || st.Lessons[0].ID != "l1" {
		t.Fatalf("expected urban_lake lessons, got %v", st.Lessons)
	}

	c.SwitchTarget(ctx, "cold_river")
	st := c.State()
	if st.ActiveTarget != "cold_river" {
		t.Errorf("active target = %q", st.ActiveTarget)
	}
	if len(st.Lessons) != 1 || st.Lessons[0].ID != "l2" {
		t.Errorf("lessons should be replaced wholesale, got %v", st.Lessons)
	}
}

func TestValidationErrorKeepsSnapshot(t *testing.T) {
	fg := newFakeGateway(t)
	c := New(fg, Options{})
	ctx := context.Background()

	c.RefreshStatus(ctx)
	if c.State().Chemistry == nil {
		t.Fatal("first refresh should populate chemistry")
	}

	fg.mu.Lock()
	fg.chemErr = &chem.ValidationError{Field: "ph"}
	fg.mu.Unlock()

	c.RefreshStatus(ctx)
	st := c.State()
	if st.Chemistry == nil {
		t.Error("invalid snapshot must not evict the previous one")
	}
	if st.DataErr != "" {
		t.Errorf("validation failures are skipped silently, got %q", st.DataErr)
	}
}

func TestCaptureWithoutChemistry(t *testing.T) {
	c := New(newFakeGateway(t), Options{})
	if c.CaptureRun(runs.SlotA) {
		t.Error("capture without chemistry should be a no-op")
	}
}

func TestCaptureAndCompare(t *testing.T) {
	fg := newFakeGateway(t)
	c := New(fg, Options{})
	ctx := context.Background()

	c.RefreshStatus(ctx)
	if !c.CaptureRun(runs.SlotA) {
		t.Fatal("capture A failed")
	}
	if _, err := c.CompareRuns(); !errors.Is(err, runs.ErrIncomplete) {
		t.Errorf("one slot should not compare, got %v", err)
	}

	fg.setChemistry(snapshot(t, map[string]float64{"dissolved_oxygen": 6.5}))
	c.RefreshStatus(ctx)
	if !c.CaptureRun(runs.SlotB) {
		t.Fatal("capture B failed")
	}

	cmp, err := c.CompareRuns()
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	if cmp.CrossTarget {
		t.Error("same target should not flag cross-target")
	}
	for _, fd := range cmp.Fields {
		if fd.Field == "dissolved_oxygen" && fd.Delta != -1.5 {
			t.Errorf("dissolved_oxygen delta = %v, want -1.5", fd.Delta)
		}
	}
}

func TestHeatwaveToggle(t *testing.T) {
	fg := newFakeGateway(t)
	c := New(fg, Options{})
	ctx := context.Background()
	c.RefreshStatus(ctx)

	c.ToggleHeatwave(ctx, 5)
	if !c.State().HeatwaveOn {
		t.Error("first toggle should activate")
	}
	st := c.State()
	if st.Explanation == nil || !strings.Contains(st.Explanation.Subtitle, "heatwave on") {
		t.Errorf("explanation should label the heatwave action: %+v", st.Explanation)
	}
	c.ToggleHeatwave(ctx, 5)
	if c.State().HeatwaveOn {
		t.Error("second toggle should deactivate")
	}
}

func TestGridFetchOnlyWhenActive(t *testing.T) {
	fg := newFakeGateway(t)
	c := New(fg, Options{})
	ctx := context.Background()

	c.Step(ctx)
	if c.State().Grid != nil {
		t.Error("grid should not be fetched while inactive")
	}
	c.SetGridActive(true)
	c.Step(ctx)
	st := c.State()
	if st.Grid == nil {
		t.Fatal("active grid view should refetch on mutation")
	}
	if st.Grid.Parameter != "dissolved_oxygen" {
		t.Errorf("grid parameter = %q", st.Grid.Parameter)
	}
}

func TestNotifyFires(t *testing.T) {
	fg := newFakeGateway(t)
	c := New(fg, Options{})
	var mu sync.Mutex
	fired := 0
	c.SetNotify(func() {
		mu.Lock()
		fired++
		mu.Unlock()
	})
	c.RefreshStatus(context.Background())
	mu.Lock()
	defer mu.Unlock()
	if fired == 0 {
		t.Error("notify should fire after a refresh")
	}
}
