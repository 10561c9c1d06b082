package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/hydrolab/internal/chem"
	"github.com/san-kum/hydrolab/internal/colormap"
	"github.com/san-kum/hydrolab/internal/grid"
	"github.com/san-kum/hydrolab/internal/runs"
	"github.com/san-kum/hydrolab/internal/session"
)

func (m model) View() string {
	switch m.view {
	case viewDashboard:
		return m.viewDashboard()
	case viewTargets:
		return m.viewTargets()
	case viewLessons:
		return m.viewLessons()
	case viewCompare:
		return m.viewCompare()
	case viewInject:
		return m.viewForm("inject", "add nutrient and pollutant mass at the inflow")
	case viewDeploy:
		return m.viewForm("deploy remediation", "place an intervention on the grid")
	}
	return ""
}

func (m model) viewDashboard() string {
	st := m.ctrl.State()
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(dimmer.Render("    ╺━━━━━━━━━━━━━━━━━━━━━━━━━━━━╸") + "\n")
	b.WriteString("         " + cyan.Render("h y d r o l a b") + "\n")
	b.WriteString(dimmer.Render("    ╺━━━━━━━━━━━━━━━━━━━━━━━━━━━━╸") + "\n\n")

	target := st.ActiveTarget
	if st.Profile != nil {
		target = st.Profile.Name
	}
	if target == "" {
		target = "(no target)"
	}
	flags := ""
	if st.Autoplay {
		flags += "  " + green.Render("▶ auto")
	}
	if st.HeatwaveOn {
		flags += "  " + red.Render("☀ heatwave")
	}
	if busyAny(st) {
		flags += "  " + dim.Render("…")
	}
	b.WriteString(fmt.Sprintf("    %s  %s%s\n",
		white.Render(target), formatHealth(st.Health), flags))

	if st.DataErr != "" {
		b.WriteString("    " + red.Render("! "+st.DataErr) + "\n")
	}
	b.WriteString("\n")

	b.WriteString(m.chemistryPanel(st))

	if len(st.DOHistory) > 1 {
		spark := sparkline(st.DOHistory, 32)
		b.WriteString("    " + dim.Render("DO trend ") + cyan.Render(spark) + "\n\n")
	}

	if st.GridActive {
		b.WriteString(m.gridPanel(st))
	}

	b.WriteString(m.explanationPanel(st))
	b.WriteString(m.compliancePanel(st))
	b.WriteString(m.remediationPanel(st))

	if a, okA := m.ctrl.RunSlot(runs.SlotA); okA {
		line := "    " + dim.Render("run A ") + white.Render(a.TargetName)
		if bSnap, okB := m.ctrl.RunSlot(runs.SlotB); okB {
			line += dim.Render("   run B ") + white.Render(bSnap.TargetName) + dim.Render("   v compare")
		}
		b.WriteString(line + "\n\n")
	}

	if m.notice != "" {
		b.WriteString("    " + m.notice + "\n")
	}

	b.WriteString(dim.Render("    s step  a auto  r reset  i inject  w heatwave  g grid  f field  p palette") + "\n")
	b.WriteString(dim.Render("    t targets  l lessons  d deploy  c compliance  1/2 capture  v compare  e export  q quit") + "\n")
	return b.String()
}

func busyAny(st session.State) bool {
	return len(st.Busy) > 0
}

func (m model) chemistryPanel(st session.State) string {
	var b strings.Builder
	if st.Chemistry == nil {
		b.WriteString("    " + dim.Render("waiting for chemistry…") + "\n\n")
		return b.String()
	}
	var deltas map[string]float64
	if st.Explanation != nil {
		deltas = st.Explanation.Deltas
	}
	for _, f := range chem.Fields {
		v := st.Chemistry.Value(f)
		line := fmt.Sprintf("    %s %s",
			dim.Render(fmt.Sprintf("%-17s", chem.Label(f))),
			white.Render(fmt.Sprintf("%8.2f", v)))
		if d, ok := deltas[f]; ok && d != 0 {
			line += "  " + fmtDelta(d)
		}
		b.WriteString(line + "\n")
	}
	b.WriteString("\n")
	return b.String()
}

func (m model) gridPanel(st session.State) string {
	var b strings.Builder
	label := fmt.Sprintf("%s  (%s palette)", chem.Label(st.GridParam), m.palette)
	b.WriteString("    " + cyan.Render(label) + "\n")
	if st.Grid == nil {
		b.WriteString("    " + dim.Render("loading field…") + "\n\n")
		return b.String()
	}
	b.WriteString(renderHeatmap(*st.Grid, m.palette, "    "))
	b.WriteString(fmt.Sprintf("    %s %.2f  %s %.2f\n\n",
		dim.Render("min"), st.Grid.Min, dim.Render("max"), st.Grid.Max))
	return b.String()
}

func (m model) explanationPanel(st session.State) string {
	if st.Explanation == nil {
		return ""
	}
	var b strings.Builder
	e := st.Explanation
	b.WriteString("    " + magenta.Render(e.Title) + "  " + dim.Render(e.Subtitle) + "\n")
	for _, bullet := range e.Bullets {
		b.WriteString("      " + white.Render("• ") + bullet + "\n")
	}
	b.WriteString("\n")
	return b.String()
}

func (m model) compliancePanel(st session.State) string {
	var b strings.Builder
	if st.ComplianceErr != "" {
		b.WriteString("    " + red.Render("compliance: "+st.ComplianceErr) + "\n\n")
		return b.String()
	}
	if st.Compliance == nil {
		return ""
	}
	c := st.Compliance
	status := green.Render("compliant")
	if !c.Compliant {
		status = red.Render(fmt.Sprintf("%d violation(s)", len(c.Violations)))
	}
	b.WriteString(fmt.Sprintf("    %s %s  %s\n",
		dim.Render("regulatory"), status, dim.Render(c.ImpairmentCategory)))
	for i, v := range c.Violations {
		if i >= 3 {
			b.WriteString("      " + dim.Render(fmt.Sprintf("… and %d more", len(c.Violations)-3)) + "\n")
			break
		}
		b.WriteString(fmt.Sprintf("      %s %s %.2f %s %s\n",
			yellow.Render("⚠"), v.Parameter, v.Value,
			dim.Render("limit"), string(v.Threshold)))
	}
	b.WriteString("\n")
	return b.String()
}

func (m model) remediationPanel(st session.State) string {
	if st.RemediationErr != "" {
		return "    " + red.Render("remediation: "+st.RemediationErr) + "\n\n"
	}
	if st.Remediation == nil || st.Remediation.TotalInterventions == 0 {
		return ""
	}
	r := st.Remediation
	return fmt.Sprintf("    %s %d active  %s $%.0f capital  $%.0f/day\n\n",
		dim.Render("remediation"), r.TotalInterventions,
		dim.Render("cost"), r.TotalCapitalCost, r.DailyOperationalCost)
}

func (m model) viewTargets() string {
	st := m.ctrl.State()
	var b strings.Builder
	b.WriteString("\n    " + cyan.Render("targets") + "\n")
	b.WriteString(dimmer.Render("    "+strings.Repeat("─", 40)) + "\n\n")
	if st.TargetErr != "" {
		b.WriteString("    " + red.Render("! "+st.TargetErr) + "\n\n")
	}
	if len(st.Targets) == 0 {
		b.WriteString("    " + dim.Render("no targets loaded") + "\n")
	}
	for i, t := range st.Targets {
		marker := "  "
		if t.ID == st.ActiveTarget {
			marker = green.Render("● ")
		}
		if i == m.cursor {
			b.WriteString("    " + cyan.Render("▸ ") + marker + white.Render(fmt.Sprintf("%-18s", t.Name)) + dim.Render(t.WaterbodyType) + "\n")
			b.WriteString("        " + dimmer.Render(t.Description) + "\n")
		} else {
			b.WriteString("      " + marker + dim.Render(fmt.Sprintf("%-18s", t.Name)) + dimmer.Render(t.WaterbodyType) + "\n")
		}
	}
	b.WriteString("\n" + dim.Render("    ↑↓ select   enter switch   esc back") + "\n")
	return b.String()
}

func (m model) viewLessons() string {
	st := m.ctrl.State()
	var b strings.Builder
	b.WriteString("\n    " + cyan.Render("lessons") + "  " + dim.Render(st.ActiveTarget) + "\n")
	b.WriteString(dimmer.Render("    "+strings.Repeat("─", 40)) + "\n\n")
	if st.LessonErr != "" {
		b.WriteString("    " + red.Render("! "+st.LessonErr) + "\n\n")
	}
	if len(st.Lessons) == 0 {
		b.WriteString("    " + dim.Render("no lessons for this target") + "\n")
	}
	for i, l := range st.Lessons {
		if i == m.cursor {
			b.WriteString("    " + cyan.Render("▸ ") + white.Render(l.Name) + "\n")
			b.WriteString("        " + dimmer.Render(l.Description) + "\n")
		} else {
			b.WriteString("      " + dim.Render(l.Name) + "\n")
		}
	}
	b.WriteString("\n" + dim.Render("    ↑↓ select   enter run   esc back") + "\n")
	return b.String()
}

func (m model) viewCompare() string {
	var b strings.Builder
	b.WriteString("\n    " + cyan.Render("run comparison") + "\n")
	b.WriteString(dimmer.Render("    "+strings.Repeat("─", 48)) + "\n\n")

	cmp, err := m.ctrl.CompareRuns()
	if err != nil {
		b.WriteString("    " + dim.Render("capture two runs first (1 for A, 2 for B)") + "\n")
		b.WriteString("\n" + dim.Render("    esc back") + "\n")
		return b.String()
	}

	b.WriteString(fmt.Sprintf("    %s %s  %s\n",
		dim.Render("A"), white.Render(cmp.A.TargetName), dim.Render(cmp.A.Timestamp.Format("15:04:05"))))
	b.WriteString(fmt.Sprintf("    %s %s  %s\n",
		dim.Render("B"), white.Render(cmp.B.TargetName), dim.Render(cmp.B.Timestamp.Format("15:04:05"))))
	if cmp.CrossTarget {
		b.WriteString("    " + yellow.Render("⚠ runs span different targets") + "\n")
	}
	b.WriteString("\n")

	b.WriteString("    " + dim.Render(fmt.Sprintf("%-17s %9s %9s %9s", "", "A", "B", "B−A")) + "\n")
	for _, fd := range cmp.Fields {
		b.WriteString(fmt.Sprintf("    %s %s %s %s\n",
			dim.Render(fmt.Sprintf("%-17s", chem.Label(fd.Field))),
			white.Render(fmt.Sprintf("%9.2f", fd.A)),
			white.Render(fmt.Sprintf("%9.2f", fd.B)),
			fmtDelta(fd.Delta)))
	}
	b.WriteString("\n" + dim.Render("    0 clear   esc back") + "\n")
	return b.String()
}

func (m model) viewForm(title, hint string) string {
	var b strings.Builder
	b.WriteString("\n    " + cyan.Render(title) + "  " + dim.Render(hint) + "\n")
	b.WriteString(dimmer.Render("    "+strings.Repeat("─", 40)) + "\n\n")
	for i, f := range m.form {
		val := f.value
		if len(f.choices) > 0 {
			val = "◂ " + f.choices[f.choice] + " ▸"
		} else if i == m.formCursor {
			val += "▋"
		}
		if i == m.formCursor {
			b.WriteString("    " + cyan.Render("▸ ") + white.Render(fmt.Sprintf("%-12s", f.name)) + magenta.Render(val) + "\n")
		} else {
			b.WriteString("      " + dim.Render(fmt.Sprintf("%-12s", f.name)) + dim.Render(val) + "\n")
		}
	}
	b.WriteString("\n" + dim.Render("    ↑↓ field  ←→ choice  enter submit  esc cancel") + "\n")
	return b.String()
}

// Heatmap renders the field for plain terminal output, outside the dashboard.
func Heatmap(d grid.Data, p colormap.Palette) string {
	return renderHeatmap(d, p, "")
}

// renderHeatmap draws the field as half-block cells, two grid rows per text
// line so cells come out roughly square.
func renderHeatmap(d grid.Data, p colormap.Palette, indent string) string {
	img := grid.Render(d, p)
	var b strings.Builder
	for j := 0; j < img.H; j += 2 {
		b.WriteString(indent)
		for i := 0; i < img.W; i++ {
			top := img.At(i, j)
			bottom := top
			if j+1 < img.H {
				bottom = img.At(i, j+1)
			}
			cell := lipgloss.NewStyle().
				Foreground(lipgloss.Color(top.Hex())).
				Background(lipgloss.Color(bottom.Hex())).
				Render("▀")
			b.WriteString(cell)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func sparkline(data []float64, width int) string {
	if len(data) == 0 {
		return ""
	}
	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}
	minVal, maxVal := data[0], data[0]
	for _, v := range data {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	rang := maxVal - minVal
	if rang == 0 {
		rang = 1
	}
	step := len(data) / width
	if step < 1 {
		step = 1
	}
	var sb strings.Builder
	for i := 0; i < width && i*step < len(data); i++ {
		v := data[i*step]
		idx := int((v - minVal) / rang * 7)
		if idx > 7 {
			idx = 7
		}
		if idx < 0 {
			idx = 0
		}
		sb.WriteRune(chars[idx])
	}
	return sb.String()
}
