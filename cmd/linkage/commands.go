package main

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/linkage/internal/analysis"
	"github.com/san-kum/linkage/internal/automation"
	"github.com/san-kum/linkage/internal/config"
	"github.com/san-kum/linkage/internal/export"
	"github.com/san-kum/linkage/internal/linkage"
	"github.com/san-kum/linkage/internal/metrics"
	"github.com/san-kum/linkage/internal/optim"
	"github.com/san-kum/linkage/internal/storage"
	"github.com/san-kum/linkage/internal/trace"
	"github.com/san-kum/linkage/internal/viz"
	"github.com/spf13/cobra"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ff00ff"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff8800"))
)

func solvePose(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	m, err := cfg.Mechanism()
	if err != nil {
		return err
	}

	angle := m.Crank.Angle
	if cmd.Flags().Changed("at") {
		angle = solveAngle
	}
	angle = linkage.NormalizeAngle(angle)

	mode, err := cfg.BranchMode()
	if err != nil {
		return err
	}
	// A single pose has no previous coupler, so nearest resolves to minus.
	b := linkage.BranchMinus
	if mode == trace.BranchPlus {
		b = linkage.BranchPlus
	}
	pose := linkage.Solve(m.Crank, m.Fixed, m.Link, angle, b)

	out := cmd.OutOrStdout()
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "angle\t%.6f rad\n", pose.Angle)
	fmt.Fprintf(w, "crank end\t(%.4f, %.4f)\n", pose.CrankEnd.X, pose.CrankEnd.Y)
	fmt.Fprintf(w, "span\t%.4f\n", pose.Span)
	fmt.Fprintf(w, "tilt\t%.6f rad\n", pose.Tilt)
	fmt.Fprintf(w, "angle at fixed\t%.6f rad\n", pose.FixedAngle)
	fmt.Fprintf(w, "coupler\t(%.4f, %.4f)\n", pose.Coupler.X, pose.Coupler.Y)
	fmt.Fprintf(w, "branch\t%s\n", pose.Branch)
	fmt.Fprintf(w, "other branch\t(%.4f, %.4f)\n",
		pose.Candidates[pose.Branch.Other()].X, pose.Candidates[pose.Branch.Other()].Y)
	fmt.Fprintf(w, "feasibility\t%s\n", pose.Feasibility)
	if err := w.Flush(); err != nil {
		return err
	}

	if mode == trace.BranchNearest {
		fmt.Fprintln(out, "nearest has no previous coupler for a single pose; using minus")
	}
	if pose.Feasibility != linkage.Feasible {
		fmt.Fprintln(out, warnStyle.Render(fmt.Sprintf("span clamped to %.4f", pose.SolvedSpan)))
	} else if pose.NearToggle(metrics.DefaultToggleTolerance) {
		fmt.Fprintln(out, warnStyle.Render("near a dead point: branches nearly coincide"))
	}
	return nil
}

func traceRun(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	m, err := cfg.Mechanism()
	if err != nil {
		return err
	}
	tc, err := cfg.TraceConfig()
	if err != nil {
		return err
	}

	name := runName
	if name == "" {
		name = preset
	}
	if name == "" {
		name = "linkage"
	}

	store := storage.New(dataDir)
	if err := store.Init(); err != nil {
		return err
	}

	state, err := linkage.NewState(m, time.Unix(0, 0))
	if err != nil {
		return err
	}

	runner := trace.New()
	for _, metric := range metrics.Defaults() {
		runner.AddMetric(metric)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "tracing %s (%d fps, %v, %s)...\n", name, tc.FPS, tc.Duration, tc.Branch)
	start := time.Now()

	result, err := runner.Run(cmd.Context(), state, tc)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	runID, err := store.Save(name, cfg, tc, result)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "completed in %v\n", elapsed)
	fmt.Fprintf(out, "run id: %s\n", runID)
	fmt.Fprintf(out, "frames: %d\n", len(result.Frames))
	fmt.Fprintln(out, "\n"+titleStyle.Render("metrics:"))
	printMetrics(cmd, result.Metrics)
	return nil
}

func printMetrics(cmd *cobra.Command, values map[string]float64) {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(cmd.OutOrStdout(), "  %s: %.6f\n", name, values[name])
	}
}

func sweepRun(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	base, err := cfg.Mechanism()
	if err != nil {
		return err
	}
	tc, err := cfg.TraceConfig()
	if err != nil {
		return err
	}
	if sweepSteps < 1 {
		return fmt.Errorf("steps must be at least 1, got %d", sweepSteps)
	}

	values := make([]float64, sweepSteps)
	states := make([]linkage.MechanismState, sweepSteps)
	for i := range values {
		v := sweepFrom
		if sweepSteps > 1 {
			v += (sweepTo - sweepFrom) * float64(i) / float64(sweepSteps-1)
		}
		m, err := base.WithParam(sweepParam, v)
		if err != nil {
			return err
		}
		st, err := linkage.NewState(m, time.Unix(0, 0))
		if err != nil {
			return err
		}
		values[i] = v
		states[i] = st
	}

	ens := trace.NewEnsemble(metrics.Defaults, workers)
	results, err := ens.Run(cmd.Context(), states, tc)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tGRASHOF\tPATH\tCLAMPED\tTOGGLES\tEXCURSION\n", sweepParam)
	for i, res := range results {
		fmt.Fprintf(w, "%.3f\t%v\t%.2f\t%.1f%%\t%.0f\t%.4f\n",
			values[i],
			states[i].Mechanism.Grashof(),
			res.Metrics["path_length"],
			100*res.Metrics["clamp_ratio"],
			res.Metrics["toggles"],
			res.Metrics["rocker_excursion"],
		)
	}
	return w.Flush()
}

// parseGrid reads "name=lo:hi:n".
func parseGrid(spec string) (string, []float64, error) {
	name, rng, ok := strings.Cut(spec, "=")
	parts := strings.Split(rng, ":")
	if !ok || name == "" || len(parts) != 3 {
		return "", nil, fmt.Errorf("invalid grid %q, want param=lo:hi:n", spec)
	}
	lo, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return "", nil, fmt.Errorf("invalid grid %q: %w", spec, err)
	}
	hi, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return "", nil, fmt.Errorf("invalid grid %q: %w", spec, err)
	}
	n, err := strconv.Atoi(parts[2])
	if err != nil || n < 1 {
		return "", nil, fmt.Errorf("invalid grid %q: count must be a positive integer", spec)
	}
	return name, optim.Linspace(lo, hi, n), nil
}

func optimizeRun(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	base, err := cfg.Mechanism()
	if err != nil {
		return err
	}
	tc, err := cfg.TraceConfig()
	if err != nil {
		return err
	}

	names := make([]string, 0, len(gridSpecs))
	ranges := make([][]float64, 0, len(gridSpecs))
	for _, spec := range gridSpecs {
		name, values, err := parseGrid(spec)
		if err != nil {
			return err
		}
		names = append(names, name)
		ranges = append(ranges, values)
	}

	goal := optim.Minimize
	if maximize {
		goal = optim.Maximize
	}

	best, err := optim.NewGridSearch(names, ranges).Search(cmd.Context(), base, tc, metrics.Defaults, metric, goal)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "best %s: %.6f\n", metric, best.Value)
	for _, name := range names {
		fmt.Fprintf(out, "  %s: %.4f\n", name, best.Params[name])
	}
	return nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	store := storage.New(dataDir)
	if err := store.Init(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, titleStyle.Render(sc.Name))
	if sc.Description != "" {
		fmt.Fprintln(out, sc.Description)
	}

	results, err := automation.RunScenario(cmd.Context(), sc, store, out)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\nSTEP\tFRAMES\tPATH\tCLAMPED\tTOGGLES\tRUN")
	for i, r := range results {
		runID := r.RunID
		if runID == "" {
			runID = "-"
		}
		fmt.Fprintf(w, "%d\t%d\t%.2f\t%.1f%%\t%.0f\t%s\n",
			i+1,
			len(r.Result.Frames),
			r.Result.Metrics["path_length"],
			100*r.Result.Metrics["clamp_ratio"],
			r.Result.Metrics["toggles"],
			runID,
		)
	}
	return w.Flush()
}

func runTolerance(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	m, err := cfg.Mechanism()
	if err != nil {
		return err
	}
	tc, err := cfg.TraceConfig()
	if err != nil {
		return err
	}
	if trials < 1 {
		return fmt.Errorf("trials must be at least 1, got %d", trials)
	}
	if perturbation < 0 || perturbation >= math.Min(m.Crank.Length, math.Min(m.Fixed.Length, m.Link.Length)) {
		return fmt.Errorf("perturbation must be non-negative and shorter than every link, got %g", perturbation)
	}

	results, err := automation.RunMonteCarlo(cmd.Context(), &automation.MonteCarloConfig{
		Base:         m,
		Perturbation: perturbation,
		NumTrials:    trials,
		Trace:        tc,
		Seed:         seed,
	})
	if err != nil {
		return err
	}

	feasible, clamped := automation.MonteCarloStats(results)
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "trials: %d (±%g per link)\n", len(results), perturbation)
	fmt.Fprintf(out, "assembled: %d\n", feasible)
	fmt.Fprintf(out, "clamped: %d\n", clamped)
	if clamped > 0 {
		fmt.Fprintln(out, warnStyle.Render(fmt.Sprintf("%.1f%% of builds cannot complete a turn", 100*float64(clamped)/float64(len(results)))))
	}
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	m, err := cfg.Mechanism()
	if err != nil {
		return err
	}
	mode, err := cfg.BranchMode()
	if err != nil {
		return err
	}
	state, err := linkage.NewState(m, time.Now())
	if err != nil {
		return err
	}

	name := preset
	if name == "" {
		name = "linkage"
	}
	return viz.Run(name, state, mode, cfg.Trace.FPS)
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "no runs found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTIME\tDURATION\tFPS\tBRANCH\tFRAMES")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%d\t%s\t%d\n",
			run.ID,
			run.Name,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.FPS,
			run.Branch,
			run.Frames,
		)
	}

	return w.Flush()
}

func loadRun(runID string) (*storage.RunMetadata, []storage.Record, error) {
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	records, err := st.LoadFrames(runID)
	if err != nil {
		return nil, nil, err
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("no data in run %s", runID)
	}
	return meta, records, nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, records, err := loadRun(args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run: %s\n", meta.ID)
	fmt.Fprintf(out, "branch: %s\n", meta.Branch)
	fmt.Fprintf(out, "samples: %d\n\n", len(records))

	series := []struct {
		caption string
		value   func(storage.Record) float64
	}{
		{"crank angle (rad)", func(r storage.Record) float64 { return r.Angle }},
		{"coupler x", func(r storage.Record) float64 { return r.Coupler.X }},
		{"coupler y", func(r storage.Record) float64 { return r.Coupler.Y }},
		{"angle at fixed (rad)", func(r storage.Record) float64 { return r.FixedAngle }},
		{"span", func(r storage.Record) float64 { return r.Span }},
	}

	for _, s := range series {
		data := make([]float64, len(records))
		for i, r := range records {
			data[i] = s.value(r)
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(s.caption),
		)
		fmt.Fprintln(out, graph)
		fmt.Fprintln(out)
	}
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	meta, records, err := loadRun(args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "frequency analysis: %s\n\n", meta.ID)

	data := make([]float64, len(records))
	for i, r := range records {
		data[i] = r.Coupler.Y
	}

	ps := analysis.PowerSpectrum(analysis.PadPow2(data))
	plotData := ps[:max(2, len(ps)/8)]
	graph := asciigraph.Plot(plotData,
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption("power spectrum (coupler y)"),
	)
	fmt.Fprintln(out, graph)
	fmt.Fprintln(out)

	freq := analysis.DominantFrequency(data, float64(meta.FPS))
	fmt.Fprintf(out, "dominant frequency: %.3f hz\n", freq)
	if freq > 0 {
		fmt.Fprintf(out, "period: %.3f s\n", 1.0/freq)
	}
	if meta.Config != nil {
		fmt.Fprintf(out, "crank frequency: %.3f hz\n", math.Abs(meta.Config.Crank.RPM)/60)
	}
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	return storage.New(dataDir).ExportCSV(cmd.OutOrStdout(), args[0])
}

func exportJSON(cmd *cobra.Command, args []string) error {
	meta, records, err := loadRun(args[0])
	if err != nil {
		return err
	}
	return storage.ExportJSON(cmd.OutOrStdout(), meta, records)
}

func exportSVG(cmd *cobra.Command, args []string) error {
	meta, records, err := loadRun(args[0])
	if err != nil {
		return err
	}
	if meta.Config == nil {
		return fmt.Errorf("run %s has no mechanism config", meta.ID)
	}
	m, err := meta.Config.Mechanism()
	if err != nil {
		return err
	}

	path := make([]linkage.Point, len(records))
	for i, r := range records {
		path[i] = r.Coupler
	}
	last := records[len(records)-1]
	pose := linkage.Pose{CrankEnd: last.CrankEnd, Coupler: last.Coupler}

	svg := export.PoseToSVG(m, pose, path, svgWidth, svgHeight)
	if svgOut == "" {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), svg)
		return err
	}
	if err := os.WriteFile(svgOut, []byte(svg), 0644); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", svgOut)
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tCRANK\tFIXED\tLINK\tRPM\tGRASHOF")
	for _, name := range config.ListPresets() {
		cfg := config.GetPreset(name)
		m, err := cfg.Mechanism()
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%.1f\t%.1f\t%.1f\t%.1f\t%v\n",
			name, m.Crank.Length, m.Fixed.Length, m.Link.Length, m.Crank.RPM, m.Grashof())
	}
	return w.Flush()
}
