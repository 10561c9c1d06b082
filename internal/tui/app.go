// Package tui is the interactive dashboard over a running hydrolab session.
// All remote work happens through the session controller; the view layer
// only reads controller state and issues commands.
package tui

import (
	"context"
	"fmt"
	"strconv"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/hydrolab/internal/chem"
	"github.com/san-kum/hydrolab/internal/client"
	"github.com/san-kum/hydrolab/internal/colormap"
	"github.com/san-kum/hydrolab/internal/export"
	"github.com/san-kum/hydrolab/internal/runs"
	"github.com/san-kum/hydrolab/internal/session"
)

var (
	cyan    = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white   = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim     = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	dimmer  = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	green   = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	yellow  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	red     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	magenta = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
)

type view int

const (
	viewDashboard view = iota
	viewTargets
	viewLessons
	viewCompare
	viewInject
	viewDeploy
)

type refreshMsg struct{}

type exportedMsg struct {
	path string
	err  error
}

type noticeExpiredMsg struct{}

// formField is one editable numeric or choice entry in a small form.
type formField struct {
	name    string
	value   string
	choices []string
	choice  int
}

type model struct {
	ctrl *session.Controller

	view    view
	cursor  int
	palette colormap.Palette
	exports string

	form       []formField
	formCursor int

	notice string

	width  int
	height int
}

func newModel(ctrl *session.Controller, palette colormap.Palette, exportDir string) model {
	return model{
		ctrl:    ctrl,
		palette: palette,
		exports: exportDir,
		width:   100,
		height:  32,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		m.do(func(ctx context.Context) { m.ctrl.RefreshStatus(ctx) }),
		m.do(func(ctx context.Context) { m.ctrl.LoadTargets(ctx) }),
		m.do(func(ctx context.Context) { m.ctrl.LoadLessons(ctx) }),
		m.do(func(ctx context.Context) { m.ctrl.RefreshCompliance(ctx) }),
		m.do(func(ctx context.Context) { m.ctrl.RefreshRemediation(ctx) }),
	)
}

// do wraps a controller call as a command. The controller's per-class flags
// make repeated key presses harmless.
func (m model) do(fn func(context.Context)) tea.Cmd {
	return func() tea.Msg {
		fn(context.Background())
		return refreshMsg{}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case refreshMsg:
		return m, nil
	case exportedMsg:
		if msg.err != nil {
			m.notice = red.Render("export failed: " + msg.err.Error())
		} else {
			m.notice = green.Render("saved " + msg.path)
		}
		return m, expireNotice()
	case noticeExpiredMsg:
		m.notice = ""
		return m, nil
	}
	return m, nil
}

func expireNotice() tea.Cmd {
	return tea.Tick(4*time.Second, func(time.Time) tea.Msg { return noticeExpiredMsg{} })
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.view {
	case viewDashboard:
		return m.dashboardKey(msg)
	case viewTargets:
		return m.targetsKey(msg)
	case viewLessons:
		return m.lessonsKey(msg)
	case viewCompare:
		return m.compareKey(msg)
	case viewInject, viewDeploy:
		return m.formKey(msg)
	}
	return m, nil
}

func (m model) dashboardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "s":
		return m, m.do(func(ctx context.Context) { m.ctrl.Step(ctx) })
	case "a":
		m.ctrl.SetAutoplay(!m.ctrl.Autoplay())
		return m, nil
	case "r":
		return m, m.do(func(ctx context.Context) { m.ctrl.Reset(ctx) })
	case "w":
		return m, m.do(func(ctx context.Context) { m.ctrl.ToggleHeatwave(ctx, 5) })
	case "g":
		st := m.ctrl.State()
		m.ctrl.SetGridActive(!st.GridActive)
		if !st.GridActive {
			return m, m.do(func(ctx context.Context) { m.ctrl.RefreshGrid(ctx) })
		}
		return m, nil
	case "f":
		st := m.ctrl.State()
		next := nextField(st.GridParam)
		m.ctrl.SetGridParameter(next, st.Downsample)
		m.palette = paletteFor(next)
		if st.GridActive {
			return m, m.do(func(ctx context.Context) { m.ctrl.RefreshGrid(ctx) })
		}
		return m, nil
	case "p":
		m.palette = nextPalette(m.palette)
		return m, nil
	case "i":
		m.view = viewInject
		m.form = []formField{
			{name: "nutrient", value: "10.0"},
			{name: "pollutant", value: "0.0"},
		}
		m.formCursor = 0
		return m, nil
	case "d":
		m.view = viewDeploy
		m.form = []formField{
			{name: "x", value: "20"},
			{name: "y", value: "10"},
			{name: "radius", value: "5"},
			{name: "type", choices: append([]string(nil), client.InterventionTypes...)},
			{name: "intensity", value: "1.0"},
		}
		m.formCursor = 0
		return m, nil
	case "t":
		m.view = viewTargets
		m.cursor = 0
		return m, m.do(func(ctx context.Context) { m.ctrl.LoadTargets(ctx) })
	case "l":
		m.view = viewLessons
		m.cursor = 0
		return m, m.do(func(ctx context.Context) { m.ctrl.LoadLessons(ctx) })
	case "c":
		return m, m.do(func(ctx context.Context) { m.ctrl.RefreshCompliance(ctx) })
	case "1":
		if m.ctrl.CaptureRun(runs.SlotA) {
			m.notice = green.Render("captured run A")
		} else {
			m.notice = yellow.Render("nothing to capture yet")
		}
		return m, expireNotice()
	case "2":
		if m.ctrl.CaptureRun(runs.SlotB) {
			m.notice = green.Render("captured run B")
		} else {
			m.notice = yellow.Render("nothing to capture yet")
		}
		return m, expireNotice()
	case "0":
		m.ctrl.ClearRuns()
		return m, nil
	case "v":
		m.view = viewCompare
		return m, nil
	case "e":
		dir := m.exports
		ctrl := m.ctrl
		return m, func() tea.Msg {
			doc, err := ctrl.ExportDocument()
			if err != nil {
				return exportedMsg{err: err}
			}
			path, err := export.Save(dir, doc)
			return exportedMsg{path: path, err: err}
		}
	}
	return m, nil
}

func (m model) targetsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	st := m.ctrl.State()
	switch msg.String() {
	case "q", "escape", "t":
		m.view = viewDashboard
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(st.Targets)-1 {
			m.cursor++
		}
	case "enter", " ":
		if m.cursor < len(st.Targets) {
			id := st.Targets[m.cursor].ID
			m.view = viewDashboard
			return m, m.do(func(ctx context.Context) { m.ctrl.SwitchTarget(ctx, id) })
		}
	}
	return m, nil
}

func (m model) lessonsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	st := m.ctrl.State()
	switch msg.String() {
	case "q", "escape", "l":
		m.view = viewDashboard
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(st.Lessons)-1 {
			m.cursor++
		}
	case "enter", " ":
		if m.cursor < len(st.Lessons) {
			id := st.Lessons[m.cursor].ID
			name := st.Lessons[m.cursor].Name
			m.view = viewDashboard
			return m, m.do(func(ctx context.Context) { m.ctrl.RunLesson(ctx, id, name) })
		}
	}
	return m, nil
}

func (m model) compareKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "escape", "v":
		m.view = viewDashboard
	case "0":
		m.ctrl.ClearRuns()
	}
	return m, nil
}

func (m model) formKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := &m.form[m.formCursor]
	switch msg.String() {
	case "escape":
		m.view = viewDashboard
		return m, nil
	case "up", "shift+tab":
		if m.formCursor > 0 {
			m.formCursor--
		}
	case "down", "tab":
		if m.formCursor < len(m.form)-1 {
			m.formCursor++
		}
	case "left":
		if len(f.choices) > 0 && f.choice > 0 {
			f.choice--
		}
	case "right":
		if len(f.choices) > 0 && f.choice < len(f.choices)-1 {
			f.choice++
		}
	case "backspace":
		if len(f.choices) == 0 && len(f.value) > 0 {
			f.value = f.value[:len(f.value)-1]
		}
	case "enter":
		return m.submitForm()
	default:
		if len(f.choices) == 0 && len(msg.String()) == 1 {
			c := msg.String()[0]
			if (c >= '0' && c <= '9') || c == '.' || c == '-' {
				f.value += string(c)
			}
		}
	}
	return m, nil
}

func (m model) submitForm() (tea.Model, tea.Cmd) {
	get := func(name string) float64 {
		for _, f := range m.form {
			if f.name == name {
				v, _ := strconv.ParseFloat(f.value, 64)
				return v
			}
		}
		return 0
	}
	wasInject := m.view == viewInject
	m.view = viewDashboard
	if wasInject {
		n, p := get("nutrient"), get("pollutant")
		return m, m.do(func(ctx context.Context) { m.ctrl.Inject(ctx, n, p) })
	}
	var kind string
	for _, f := range m.form {
		if f.name == "type" && len(f.choices) > 0 {
			kind = f.choices[f.choice]
		}
	}
	x, y := int(get("x")), int(get("y"))
	radius := int(get("radius"))
	intensity := get("intensity")
	return m, m.do(func(ctx context.Context) {
		m.ctrl.DeployRemediation(ctx, x, y, radius, kind, intensity)
	})
}

func nextField(current string) string {
	for i, f := range chem.Fields {
		if f == current {
			return chem.Fields[(i+1)%len(chem.Fields)]
		}
	}
	return chem.Fields[0]
}

func nextPalette(p colormap.Palette) colormap.Palette {
	names := colormap.Names()
	for i, n := range names {
		if n == p.String() {
			return colormap.Parse(names[(i+1)%len(names)])
		}
	}
	return colormap.Default
}

func paletteFor(field string) colormap.Palette {
	switch field {
	case "dissolved_oxygen":
		return colormap.Oxygen
	case "nutrient":
		return colormap.Nutrient
	case "phytoplankton":
		return colormap.Phyto
	case "bod", "detritus":
		return colormap.Pollutant
	case "temperature":
		return colormap.Temperature
	}
	return colormap.Default
}

// Run starts the dashboard over the given controller and blocks until quit.
func Run(ctrl *session.Controller, palette colormap.Palette, exportDir string) error {
	p := tea.NewProgram(newModel(ctrl, palette, exportDir), tea.WithAltScreen())
	ctrl.SetNotify(func() { p.Send(refreshMsg{}) })
	_, err := p.Run()
	ctrl.SetNotify(nil)
	ctrl.Close()
	return err
}

func formatHealth(label string) string {
	switch label {
	case "Good":
		return green.Render(label)
	case "Fair", "Stressed":
		return yellow.Render(label)
	case "Poor", "Critical", "Hypoxic":
		return red.Render(label)
	}
	if label == "" {
		return dim.Render("unknown")
	}
	return white.Render(label)
}

func fmtDelta(v float64) string {
	s := fmt.Sprintf("%+.2f", v)
	switch {
	case v > 0:
		return yellow.Render(s)
	case v < 0:
		return cyan.Render(s)
	}
	return dim.Render(s)
}
