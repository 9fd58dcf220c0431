package main

import (
	"fmt"
	"os"

	"github.com/san-kum/linkage/internal/config"
	"github.com/spf13/cobra"
)

var (
	dataDir    string
	configFile string
	preset     string
	runName    string

	crankX      float64
	crankY      float64
	crankLength float64
	crankAngle  float64
	rpm         float64
	fixedX      float64
	fixedY      float64
	fixedLength float64
	linkLength  float64

	fps      int
	duration float64
	branch   string

	// solve
	solveAngle float64
	// export-svg
	svgWidth  int
	svgHeight int
	svgOut    string
	// sweep
	sweepParam string
	sweepFrom  float64
	sweepTo    float64
	sweepSteps int
	workers    int
	// optimize
	gridSpecs []string
	metric    string
	maximize  bool
	// tolerance
	perturbation float64
	trials       int
	seed         int64
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "linkage",
		Short:        "four-bar linkage kinematics lab",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".linkage", "data directory")

	solveCmd := &cobra.Command{
		Use:   "solve",
		Short: "solve one pose at a crank angle",
		RunE:  solvePose,
	}
	addMechanismFlags(solveCmd)
	solveCmd.Flags().Float64Var(&solveAngle, "at", 0, "crank angle to solve (rad)")
	solveCmd.Flags().StringVar(&branch, "branch", config.DefaultBranch, "branch mode (minus, plus, nearest)")

	traceCmd := &cobra.Command{
		Use:   "trace",
		Short: "trace the mechanism over time and save the run",
		RunE:  traceRun,
	}
	addMechanismFlags(traceCmd)
	addTraceFlags(traceCmd)
	traceCmd.Flags().StringVar(&runName, "name", "", "run name (defaults to preset or \"linkage\")")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "trace one mechanism per parameter value concurrently",
		RunE:  sweepRun,
	}
	addMechanismFlags(sweepCmd)
	addTraceFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepParam, "param", "link_length", "parameter to sweep")
	sweepCmd.Flags().Float64Var(&sweepFrom, "from", 150, "first value")
	sweepCmd.Flags().Float64Var(&sweepTo, "to", 250, "last value")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 5, "number of values")
	sweepCmd.Flags().IntVar(&workers, "workers", 0, "concurrent runs (0 = unbounded)")

	optimizeCmd := &cobra.Command{
		Use:   "optimize",
		Short: "grid search parameters for the best metric",
		RunE:  optimizeRun,
	}
	addMechanismFlags(optimizeCmd)
	addTraceFlags(optimizeCmd)
	optimizeCmd.Flags().StringArrayVar(&gridSpecs, "grid", []string{"link_length=150:250:5"}, "param=lo:hi:n (repeatable)")
	optimizeCmd.Flags().StringVar(&metric, "metric", "clamp_ratio", "metric to optimize")
	optimizeCmd.Flags().BoolVar(&maximize, "maximize", false, "maximize instead of minimize")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a scripted sequence of traces",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	toleranceCmd := &cobra.Command{
		Use:   "tolerance",
		Short: "monte carlo check of link length tolerances",
		RunE:  runTolerance,
	}
	addMechanismFlags(toleranceCmd)
	addTraceFlags(toleranceCmd)
	toleranceCmd.Flags().Float64Var(&perturbation, "perturbation", 1.0, "max length error (model units)")
	toleranceCmd.Flags().IntVar(&trials, "trials", 100, "number of trials")
	toleranceCmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 = time based)")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "animate the mechanism in the terminal",
		RunE:  runLive,
	}
	addMechanismFlags(liveCmd)
	liveCmd.Flags().IntVar(&fps, "fps", config.DefaultFPS, "frame rate")
	liveCmd.Flags().StringVar(&branch, "branch", config.DefaultBranch, "branch mode (minus, plus, nearest)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run results",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency analysis of the coupler motion",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run frames to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run metadata and frames to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "draw the coupler curve and final pose as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().IntVar(&svgWidth, "width", 800, "image width")
	exportSVGCmd.Flags().IntVar(&svgHeight, "height", 600, "image height")
	exportSVGCmd.Flags().StringVarP(&svgOut, "output", "o", "", "output file (default stdout)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE:  listPresets,
	}

	rootCmd.AddCommand(solveCmd, traceCmd, sweepCmd, optimizeCmd, scenarioCmd, toleranceCmd, liveCmd, listCmd, plotCmd, analyzeCmd,
		exportCSVCmd, exportJSONCmd, exportSVGCmd, presetsCmd)
	return rootCmd
}

func addMechanismFlags(cmd *cobra.Command) {
	def := config.DefaultConfig()
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "config file path (yaml)")
	f.StringVar(&preset, "preset", "", "use preset configuration")
	f.Float64Var(&crankX, "crank-x", def.Crank.X, "crank pivot x")
	f.Float64Var(&crankY, "crank-y", def.Crank.Y, "crank pivot y")
	f.Float64Var(&crankLength, "crank-length", def.Crank.Length, "crank length")
	f.Float64Var(&crankAngle, "angle", def.Crank.Angle, "initial crank angle (rad)")
	f.Float64Var(&rpm, "rpm", def.Crank.RPM, "crank speed (rev/min, negative reverses)")
	f.Float64Var(&fixedX, "fixed-x", def.Fixed.X, "fixed link pivot x")
	f.Float64Var(&fixedY, "fixed-y", def.Fixed.Y, "fixed link pivot y")
	f.Float64Var(&fixedLength, "fixed-length", def.Fixed.Length, "fixed link length")
	f.Float64Var(&linkLength, "link-length", def.Link.Length, "connecting link length")
}

func addTraceFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.IntVar(&fps, "fps", config.DefaultFPS, "frames per second")
	f.Float64Var(&duration, "time", config.DefaultDuration, "duration (s)")
	f.StringVar(&branch, "branch", config.DefaultBranch, "branch mode (minus, plus, nearest)")
}

// resolveConfig layers preset, then config file, then explicitly set flags.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	overlayFloat := func(name string, dst *float64, v float64) {
		if flags.Changed(name) {
			*dst = v
		}
	}
	overlayFloat("crank-x", &cfg.Crank.X, crankX)
	overlayFloat("crank-y", &cfg.Crank.Y, crankY)
	overlayFloat("crank-length", &cfg.Crank.Length, crankLength)
	overlayFloat("angle", &cfg.Crank.Angle, crankAngle)
	overlayFloat("rpm", &cfg.Crank.RPM, rpm)
	overlayFloat("fixed-x", &cfg.Fixed.X, fixedX)
	overlayFloat("fixed-y", &cfg.Fixed.Y, fixedY)
	overlayFloat("fixed-length", &cfg.Fixed.Length, fixedLength)
	overlayFloat("link-length", &cfg.Link.Length, linkLength)
	overlayFloat("time", &cfg.Trace.Duration, duration)
	if flags.Changed("fps") {
		cfg.Trace.FPS = fps
	}
	if flags.Changed("branch") {
		cfg.Trace.Branch = branch
	}

	return cfg, nil
}
