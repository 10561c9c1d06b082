package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/hydrolab/internal/chem"
	"github.com/san-kum/hydrolab/internal/client"
	"github.com/san-kum/hydrolab/internal/colormap"
	"github.com/san-kum/hydrolab/internal/config"
	"github.com/san-kum/hydrolab/internal/export"
	"github.com/san-kum/hydrolab/internal/grid"
	"github.com/san-kum/hydrolab/internal/session"
	"github.com/san-kum/hydrolab/internal/tui"
)

var (
	serverURL  string
	configFile string
	parameter  string
	palette    string
	downsample int
	// inject amounts
	nutrient  float64
	pollutant float64
	// heatwave
	deactivate        bool
	heatwaveIntensity float64
	// deploy
	deployX         int
	deployY         int
	deployRadius    int
	deployIntensity float64
	// flow
	flowX int
	flowY int
	// lessons filter
	targetFilter string
	// compliance
	history bool
	// trend
	steps int
	field string
	// export
	exportDir string
	svgOut    string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "hydrolab",
		Short: "water quality simulation lab",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDashboard()
		},
	}

	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "simulation server url")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "show health and chemistry",
		RunE:  showStatus,
	}

	stepCmd := &cobra.Command{
		Use:   "step",
		Short: "advance the simulation one step",
		RunE:  stepOnce,
	}

	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "reset the active target to its baseline",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient()
			if err := c.Reset(context.Background()); err != nil {
				return err
			}
			fmt.Println("reset to baseline")
			return nil
		},
	}

	injectCmd := &cobra.Command{
		Use:   "inject",
		Short: "add nutrient and pollutant mass at the inflow",
		RunE:  injectMass,
	}
	injectCmd.Flags().Float64Var(&nutrient, "nutrient", 0, "nutrient mass")
	injectCmd.Flags().Float64Var(&pollutant, "pollutant", 0, "pollutant mass")

	heatwaveCmd := &cobra.Command{
		Use:   "heatwave",
		Short: "toggle a sustained temperature anomaly",
		RunE:  toggleHeatwave,
	}
	heatwaveCmd.Flags().BoolVar(&deactivate, "off", false, "deactivate instead")
	heatwaveCmd.Flags().Float64Var(&heatwaveIntensity, "intensity", 5.0, "temperature anomaly")

	gridCmd := &cobra.Command{
		Use:   "grid",
		Short: "render a spatial field as a terminal heatmap",
		RunE:  showGrid,
	}
	gridCmd.Flags().StringVar(&parameter, "parameter", "", "field to render")
	gridCmd.Flags().StringVar(&palette, "palette", "", "color palette")
	gridCmd.Flags().IntVar(&downsample, "downsample", 0, "grid downsample factor")

	targetsCmd := &cobra.Command{
		Use:   "targets",
		Short: "list simulation targets",
		RunE:  listTargets,
	}

	selectCmd := &cobra.Command{
		Use:   "select [target_id]",
		Short: "switch the active target",
		Args:  cobra.ExactArgs(1),
		RunE:  selectTarget,
	}

	lessonsCmd := &cobra.Command{
		Use:   "lessons",
		Short: "list scripted lessons",
		RunE:  listLessons,
	}
	lessonsCmd.Flags().StringVar(&targetFilter, "target", "", "filter by target id")

	lessonRunCmd := &cobra.Command{
		Use:   "lesson [lesson_id]",
		Short: "run a scripted lesson",
		Args:  cobra.ExactArgs(1),
		RunE:  runLesson,
	}

	deployCmd := &cobra.Command{
		Use:   "deploy [type]",
		Short: "deploy a remediation intervention",
		Args:  cobra.ExactArgs(1),
		RunE:  deployRemediation,
	}
	deployCmd.Flags().IntVar(&deployX, "x", 0, "grid x")
	deployCmd.Flags().IntVar(&deployY, "y", 0, "grid y")
	deployCmd.Flags().IntVar(&deployRadius, "radius", 5, "footprint radius in cells")
	deployCmd.Flags().Float64Var(&deployIntensity, "intensity", 1.0, "intervention intensity")

	costsCmd := &cobra.Command{
		Use:   "costs",
		Short: "summarize active interventions and costs",
		RunE:  showCosts,
	}

	complianceCmd := &cobra.Command{
		Use:   "compliance",
		Short: "show the regulatory assessment",
		RunE:  showCompliance,
	}
	complianceCmd.Flags().BoolVar(&history, "history", false, "show accumulated assessment history")

	trendCmd := &cobra.Command{
		Use:   "trend",
		Short: "step the simulation and plot one field over time",
		RunE:  plotTrend,
	}
	trendCmd.Flags().IntVar(&steps, "steps", 40, "steps to run")
	trendCmd.Flags().StringVar(&field, "field", "dissolved_oxygen", "chemistry field")
	trendCmd.Flags().StringVar(&svgOut, "svg", "", "also save the series as an svg line chart")

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "save the current status as a json document",
		RunE:  exportStatus,
	}
	exportCmd.Flags().StringVar(&exportDir, "dir", ".", "output directory")
	exportCmd.Flags().StringVar(&parameter, "parameter", "", "include this spatial field")
	exportCmd.Flags().StringVar(&svgOut, "svg", "", "also write the spatial field as an svg heatmap")

	flowCmd := &cobra.Command{
		Use:   "flow",
		Short: "sample the flow vector at a grid coordinate",
		RunE:  showFlow,
	}
	flowCmd.Flags().IntVar(&flowX, "x", 50, "grid x")
	flowCmd.Flags().IntVar(&flowY, "y", 50, "grid y")

	rootCmd.AddCommand(statusCmd, stepCmd, resetCmd, injectCmd, heatwaveCmd, gridCmd,
		flowCmd, targetsCmd, selectCmd, lessonsCmd, lessonRunCmd, deployCmd, costsCmd,
		complianceCmd, trendCmd, exportCmd)

	return rootCmd
}

func loadConfig() *config.Config {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			fmt.Fprintln(os.Stderr, "warning: config not loaded:", err)
		} else {
			cfg = loaded
		}
	}
	if serverURL != "" {
		cfg.ServerURL = serverURL
	}
	if parameter != "" {
		cfg.Parameter = parameter
	}
	if palette != "" {
		cfg.Palette = palette
	}
	if downsample > 0 {
		cfg.Downsample = downsample
	}
	return cfg
}

func newClient() *client.Client {
	cfg := loadConfig()
	return client.New(cfg.ServerURL)
}

func runDashboard() error {
	cfg := loadConfig()
	c := client.New(cfg.ServerURL)
	ctrl := session.New(c, session.Options{
		AutoplayPeriod: time.Duration(cfg.AutoplayPeriod * float64(time.Second)),
		GridParameter:  cfg.Parameter,
		GridDownsample: cfg.Downsample,
	})
	return tui.Run(ctrl, colormap.Parse(cfg.Palette), ".")
}

func showStatus(cmd *cobra.Command, args []string) error {
	c := newClient()
	ctx := context.Background()

	health, err := c.Health(ctx)
	if err != nil {
		return err
	}
	snap, err := c.Chemistry(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("health: %s\n\n", health)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, f := range chem.Fields {
		fmt.Fprintf(w, "%s\t%.3f\n", chem.Label(f), snap.Value(f))
	}
	return w.Flush()
}

func stepOnce(cmd *cobra.Command, args []string) error {
	c := newClient()
	ctx := context.Background()
	if err := c.Step(ctx); err != nil {
		return err
	}
	return showStatus(cmd, args)
}

func injectMass(cmd *cobra.Command, args []string) error {
	c := newClient()
	if err := c.Inject(context.Background(), nutrient, pollutant); err != nil {
		return err
	}
	fmt.Printf("injected nutrient %.1f, pollutant %.1f\n", nutrient, pollutant)
	return nil
}

func toggleHeatwave(cmd *cobra.Command, args []string) error {
	c := newClient()
	activate := !deactivate
	if err := c.Heatwave(context.Background(), activate, heatwaveIntensity); err != nil {
		return err
	}
	if activate {
		fmt.Printf("heatwave active at +%.1f\n", heatwaveIntensity)
	} else {
		fmt.Println("heatwave off")
	}
	return nil
}

func showGrid(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	c := client.New(cfg.ServerURL)
	d, err := c.ChemistryGrid(context.Background(), cfg.Parameter, cfg.Downsample)
	if err != nil {
		return err
	}
	p := colormap.Parse(cfg.Palette)
	fmt.Printf("%s  [%.2f, %.2f]  %dx%d\n", chem.Label(d.Parameter), d.Min, d.Max, d.NX, d.NY)
	fmt.Print(tui.Heatmap(d, p))
	return nil
}

func showFlow(cmd *cobra.Command, args []string) error {
	c := newClient()
	v, err := c.Flow(context.Background(), flowX, flowY)
	if err != nil {
		return err
	}
	fmt.Printf("flow at (%d,%d): u=%.4f v=%.4f\n", v.X, v.Y, v.U, v.V)
	return nil
}

func listTargets(cmd *cobra.Command, args []string) error {
	c := newClient()
	list, err := c.Targets(context.Background())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTYPE\tGRID\tDEPTH")
	for _, t := range list.Targets {
		active := " "
		if t.ID == list.ActiveTarget {
			active = "*"
		}
		fmt.Fprintf(w, "%s%s\t%s\t%s\t%dx%d\t%.1fm\n",
			active, t.ID, t.Name, t.WaterbodyType,
			t.GridShape[0], t.GridShape[1], t.MeanDepthM)
	}
	return w.Flush()
}

func selectTarget(cmd *cobra.Command, args []string) error {
	c := newClient()
	res, err := c.SelectTarget(context.Background(), args[0])
	if err != nil {
		return err
	}
	fmt.Printf("active target: %s (%s)\n", res.Profile.Name, res.ActiveTarget)
	return nil
}

func listLessons(cmd *cobra.Command, args []string) error {
	c := newClient()
	lessons, err := c.Lessons(context.Background(), targetFilter)
	if err != nil {
		return err
	}
	if len(lessons) == 0 {
		fmt.Println("no lessons found")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTARGET\tNAME")
	for _, l := range lessons {
		fmt.Fprintf(w, "%s\t%s\t%s\n", l.ID, l.TargetID, l.Name)
	}
	return w.Flush()
}

func runLesson(cmd *cobra.Command, args []string) error {
	c := newClient()
	res, err := c.RunLesson(context.Background(), args[0])
	if err != nil {
		return err
	}
	fmt.Printf("lesson %s: %s (target %s)\n", args[0], res.Status, res.ActiveTarget)
	return nil
}

func deployRemediation(cmd *cobra.Command, args []string) error {
	c := newClient()
	res, err := c.DeployRemediation(context.Background(), deployX, deployY, deployRadius, args[0], deployIntensity)
	if err != nil {
		return err
	}
	fmt.Printf("deployed %s #%d at (%d,%d) r=%d\n", res.Type, res.ID, deployX, deployY, deployRadius)
	fmt.Printf("capital $%.0f  operational $%.0f/day  cumulative $%.0f\n",
		res.Cost, res.OperationalCostDay, res.TotalCumulativeCost)
	return nil
}

func showCosts(cmd *cobra.Command, args []string) error {
	c := newClient()
	sum, err := c.RemediationSummary(context.Background())
	if err != nil {
		return err
	}
	fmt.Printf("interventions: %d\n", sum.TotalInterventions)
	for kind, n := range sum.ByType {
		fmt.Printf("  %s: %d\n", kind, n)
	}
	fmt.Printf("capital: $%.0f\noperational: $%.0f/day\n", sum.TotalCapitalCost, sum.DailyOperationalCost)
	if len(sum.Zones) > 0 {
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "\nID\tTYPE\tAT\tRADIUS\tEFFECT\tAGE")
		for _, z := range sum.Zones {
			fmt.Fprintf(w, "%d\t%s\t(%d,%d)\t%d\t%.2f\t%.1fd\n",
				z.ID, z.Type, z.Location.X, z.Location.Y, z.Location.Radius,
				z.Effectiveness, z.AgeDays)
		}
		return w.Flush()
	}
	return nil
}

func showCompliance(cmd *cobra.Command, args []string) error {
	c := newClient()
	ctx := context.Background()
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	if history {
		h, err := c.ComplianceHistory(ctx)
		if err != nil {
			return err
		}
		return enc.Encode(h)
	}

	rep, err := c.Compliance(ctx)
	if err != nil {
		return err
	}
	if rep.Compliant {
		fmt.Printf("compliant (%s)\n", rep.ImpairmentCategory)
	} else {
		fmt.Printf("NOT compliant (%s), %d violation(s)\n", rep.ImpairmentCategory, len(rep.Violations))
		for _, v := range rep.Violations {
			fmt.Printf("  %s: %.2f (limit %s, %s)\n", v.Parameter, v.Value, v.Threshold, v.Severity)
		}
	}
	for _, tm := range rep.TMDLStatus {
		status := "ok"
		if !tm.Compliance {
			status = fmt.Sprintf("reduce by %.1f", tm.ReductionNeeded)
		}
		fmt.Printf("  tmdl %s: %.1f / %.1f (%s)\n", tm.Parameter, tm.CurrentLoad, tm.TMDLLimit, status)
	}
	return nil
}

func plotTrend(cmd *cobra.Command, args []string) error {
	c := newClient()
	ctx := context.Background()

	data := make([]float64, 0, steps)
	for i := 0; i < steps; i++ {
		if err := c.Step(ctx); err != nil {
			return err
		}
		snap, err := c.Chemistry(ctx)
		if err != nil {
			return err
		}
		data = append(data, snap.Value(field))
	}

	graph := asciigraph.Plot(data,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("%s over %d steps", chem.Label(field), steps)),
	)
	fmt.Println(graph)

	if svgOut != "" {
		svg := export.TrendToSVG(data, 640, 240, "#00ff88")
		if err := os.WriteFile(svgOut, []byte(svg), 0644); err != nil {
			return err
		}
		fmt.Println("saved", svgOut)
	}
	return nil
}

func exportStatus(cmd *cobra.Command, args []string) error {
	c := newClient()
	ctx := context.Background()

	health, err := c.Health(ctx)
	if err != nil {
		return err
	}
	snap, err := c.Chemistry(ctx)
	if err != nil {
		return err
	}
	doc := export.Document{
		Timestamp: time.Now(),
		Health:    health,
		Chemistry: snap,
	}
	if parameter != "" {
		cfg := loadConfig()
		var d grid.Data
		d, err = c.ChemistryGrid(ctx, parameter, cfg.Downsample)
		if err != nil {
			return err
		}
		doc.SpatialGrid = &d
		if svgOut != "" {
			cfgP := colormap.Parse(cfg.Palette)
			svg := export.GridToSVG(d, cfgP, 8)
			if err := os.WriteFile(svgOut, []byte(svg), 0644); err != nil {
				return err
			}
			fmt.Println("saved", svgOut)
		}
	}
	path, err := export.Save(exportDir, doc)
	if err != nil {
		return err
	}
	fmt.Println("saved", path)
	return nil
}
