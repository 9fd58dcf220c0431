package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/san-kum/linkage/internal/config"
	"github.com/san-kum/linkage/internal/storage"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSolve(t *testing.T) {
	out, err := execute(t, "solve", "--at", "0")
	if err != nil {
		t.Fatalf("solve failed: %v\n%s", err, out)
	}
	for _, want := range []string{"crank end", "(20.0000, -100.0000)", "span", "144.2221", "feasibility", "feasible"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestSolve_ClampWarning(t *testing.T) {
	out, err := execute(t, "solve", "--link-length", "10", "--at", "0")
	if err != nil {
		t.Fatalf("solve failed: %v", err)
	}
	if !strings.Contains(out, "span clamped") {
		t.Errorf("expected clamp warning:\n%s", out)
	}
}

func TestSolve_Branch(t *testing.T) {
	minus, err := execute(t, "solve", "--at", "0", "--branch", "minus")
	if err != nil {
		t.Fatalf("solve failed: %v", err)
	}
	plus, err := execute(t, "solve", "--at", "0", "--branch", "plus")
	if err != nil {
		t.Fatalf("solve failed: %v", err)
	}
	if got := branchLine(minus); !strings.HasSuffix(got, "minus") {
		t.Errorf("expected minus branch, got %q", got)
	}
	if got := branchLine(plus); !strings.HasSuffix(got, "plus") {
		t.Errorf("expected plus branch, got %q", got)
	}
	if strings.Contains(minus, "using minus") {
		t.Errorf("explicit minus should not print the nearest note:\n%s", minus)
	}

	nearest, err := execute(t, "solve", "--at", "0", "--branch", "nearest")
	if err != nil {
		t.Fatalf("solve failed: %v", err)
	}
	if !strings.Contains(nearest, "using minus") {
		t.Errorf("expected nearest fallback note:\n%s", nearest)
	}
}

func branchLine(out string) string {
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "branch ") {
			return strings.TrimSpace(line)
		}
	}
	return ""
}

func TestSolve_InvalidBranch(t *testing.T) {
	if _, err := execute(t, "solve", "--branch", "sideways"); err == nil {
		t.Error("expected error for unknown branch mode")
	}
}

func TestSolve_InvalidMechanism(t *testing.T) {
	if _, err := execute(t, "solve", "--crank-length", "0"); err == nil {
		t.Error("expected error for zero crank length")
	}
}

func TestSolve_UnknownPreset(t *testing.T) {
	if _, err := execute(t, "solve", "--preset", "nope"); err == nil {
		t.Error("expected error for unknown preset")
	}
}

func TestResolveConfigLayering(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mech.yaml")
	if err := os.WriteFile(path, []byte("link:\n  length: 150\ncrank:\n  rpm: 5\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cmd := newRootCmd()
	solve, _, err := cmd.Find([]string{"solve"})
	if err != nil {
		t.Fatal(err)
	}
	if err := solve.ParseFlags([]string{"--preset", "crank-rocker", "--config", path, "--rpm", "42"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := resolveConfig(solve)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// File replaces the preset, defaults fill what the file omits.
	if cfg.Link.Length != 150 {
		t.Errorf("expected link length from file, got %v", cfg.Link.Length)
	}
	if cfg.Crank.Length != config.DefaultConfig().Crank.Length {
		t.Errorf("expected default crank length, got %v", cfg.Crank.Length)
	}
	// Explicit flags win over everything.
	if cfg.Crank.RPM != 42 {
		t.Errorf("expected rpm from flag, got %v", cfg.Crank.RPM)
	}
}

var runIDPattern = regexp.MustCompile(`run id: (\S+)`)

func TestTraceAndInspect(t *testing.T) {
	data := t.TempDir()

	out, err := execute(t, "trace", "--data", data, "--preset", "crank-rocker", "--time", "1", "--fps", "32")
	if err != nil {
		t.Fatalf("trace failed: %v\n%s", err, out)
	}
	m := runIDPattern.FindStringSubmatch(out)
	if m == nil {
		t.Fatalf("no run id in output:\n%s", out)
	}
	runID := m[1]
	if !strings.HasPrefix(runID, "crank-rocker_") {
		t.Errorf("expected run named after preset, got %s", runID)
	}
	for _, name := range []string{"path_length", "clamp_ratio", "toggles", "rocker_excursion"} {
		if !strings.Contains(out, name) {
			t.Errorf("metric %s missing from output", name)
		}
	}

	out, err = execute(t, "list", "--data", data)
	if err != nil || !strings.Contains(out, runID) {
		t.Errorf("list: err=%v\n%s", err, out)
	}

	out, err = execute(t, "export-csv", "--data", data, runID)
	if err != nil {
		t.Fatalf("export-csv failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 34 {
		t.Errorf("expected header + 33 frames, got %d lines", len(lines))
	}

	out, err = execute(t, "export-json", "--data", data, runID)
	if err != nil {
		t.Fatalf("export-json failed: %v", err)
	}
	var exported storage.ExportData
	if err := json.Unmarshal([]byte(out), &exported); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if exported.Run.ID != runID || len(exported.Records) != 33 {
		t.Errorf("unexpected export: id=%s frames=%d", exported.Run.ID, len(exported.Records))
	}

	svgPath := filepath.Join(t.TempDir(), "run.svg")
	if _, err := execute(t, "export-svg", "--data", data, "-o", svgPath, runID); err != nil {
		t.Fatalf("export-svg failed: %v", err)
	}
	svg, err := os.ReadFile(svgPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(svg), "<svg") || strings.Count(string(svg), "<line") != 3 {
		t.Errorf("unexpected svg:\n%s", svg)
	}

	out, err = execute(t, "analyze", "--data", data, runID)
	if err != nil || !strings.Contains(out, "dominant frequency") {
		t.Errorf("analyze: err=%v\n%s", err, out)
	}

	out, err = execute(t, "plot", "--data", data, runID)
	if err != nil || !strings.Contains(out, "coupler y") {
		t.Errorf("plot: err=%v\n%s", err, out)
	}
}

func TestInspectMissingRun(t *testing.T) {
	data := t.TempDir()
	for _, c := range []string{"plot", "analyze", "export-csv", "export-json", "export-svg"} {
		if _, err := execute(t, c, "--data", data, "missing_1"); err == nil {
			t.Errorf("%s: expected error for missing run", c)
		}
	}
}

func TestSweep(t *testing.T) {
	out, err := execute(t, "sweep", "--param", "link_length", "--from", "150", "--to", "200",
		"--steps", "3", "--time", "1", "--fps", "30", "--workers", "2")
	if err != nil {
		t.Fatalf("sweep failed: %v\n%s", err, out)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header + 3 rows, got:\n%s", out)
	}
	if !strings.HasPrefix(lines[1], "150.000") || !strings.HasPrefix(lines[3], "200.000") {
		t.Errorf("unexpected rows:\n%s", out)
	}

	if _, err := execute(t, "sweep", "--param", "colour"); err == nil {
		t.Error("expected error for unknown param")
	}
}

func TestPresets(t *testing.T) {
	out, err := execute(t, "presets")
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range config.ListPresets() {
		if !strings.Contains(out, name) {
			t.Errorf("preset %s missing:\n%s", name, out)
		}
	}
}

func TestOptimize(t *testing.T) {
	out, err := execute(t, "optimize", "--preset", "crank-rocker", "--time", "2", "--fps", "30",
		"--grid", "link_length=90:250:2", "--metric", "clamp_ratio")
	if err != nil {
		t.Fatalf("optimize failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "best clamp_ratio: 0.000000") || !strings.Contains(out, "link_length: 90.0000") {
		t.Errorf("unexpected output:\n%s", out)
	}

	if _, err := execute(t, "optimize", "--grid", "link_length=1:2"); err == nil {
		t.Error("expected error for malformed grid")
	}
}

func TestParseGrid(t *testing.T) {
	name, values, err := parseGrid("crank_length=10:30:3")
	if err != nil {
		t.Fatal(err)
	}
	if name != "crank_length" || len(values) != 3 || values[1] != 20 {
		t.Errorf("unexpected parse: %s %v", name, values)
	}
	for _, bad := range []string{"", "x", "x=1:2", "x=a:2:3", "x=1:b:3", "x=1:2:0", "=1:2:3"} {
		if _, _, err := parseGrid(bad); err == nil {
			t.Errorf("%q: expected error", bad)
		}
	}
}

func TestScenario(t *testing.T) {
	data := t.TempDir()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	body := "name: demo\nsteps:\n  - preset: toggle\n    duration: 1\n    save_as: toggle\n  - duration: 1\n"
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "scenario", "--data", data, path)
	if err != nil {
		t.Fatalf("scenario failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "toggle_") || !strings.Contains(out, "running step 2/2") {
		t.Errorf("unexpected output:\n%s", out)
	}

	out, err = execute(t, "list", "--data", data)
	if err != nil || !strings.Contains(out, "toggle_") {
		t.Errorf("saved step not listed: err=%v\n%s", err, out)
	}
}

func TestTolerance(t *testing.T) {
	out, err := execute(t, "tolerance", "--trials", "4", "--seed", "3", "--time", "6", "--fps", "10")
	if err != nil {
		t.Fatalf("tolerance failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "assembled: 4") || !strings.Contains(out, "clamped: 0") {
		t.Errorf("unexpected output:\n%s", out)
	}

	if _, err := execute(t, "tolerance", "--perturbation", "500"); err == nil {
		t.Error("expected error for perturbation longer than a link")
	}
}
