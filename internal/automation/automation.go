package automation

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"sort"
	"time"

	"github.com/san-kum/linkage/internal/config"
	"github.com/san-kum/linkage/internal/linkage"
	"github.com/san-kum/linkage/internal/metrics"
	"github.com/san-kum/linkage/internal/storage"
	"github.com/san-kum/linkage/internal/trace"
	"gopkg.in/yaml.v3"
)

// Scenario defines a scripted sequence of traces
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is a single trace. Preset selects the starting mechanism
// (reference when empty); Params then override it by name.
type ScenarioStep struct {
	Preset   string             `yaml:"preset"`
	Params   map[string]float64 `yaml:"params"`
	Duration float64            `yaml:"duration"`
	FPS      int                `yaml:"fps"`
	Branch   string             `yaml:"branch"`
	SaveAs   string             `yaml:"save_as"`
}

// StepResult pairs a traced step with its stored run id, if saved.
type StepResult struct {
	Step   ScenarioStep
	RunID  string
	Result *trace.Result
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %q has no steps", scenario.Name)
	}

	return &scenario, nil
}

// stepConfig resolves a step into a full config.
func stepConfig(step ScenarioStep) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if step.Preset != "" {
		if cfg = config.GetPreset(step.Preset); cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s", step.Preset)
		}
	}
	if step.Duration > 0 {
		cfg.Trace.Duration = step.Duration
	}
	if step.FPS > 0 {
		cfg.Trace.FPS = step.FPS
	}
	if step.Branch != "" {
		cfg.Trace.Branch = step.Branch
	}

	// Params go through the mechanism so names match WithParam.
	m, err := cfg.Mechanism()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(step.Params))
	for k := range step.Params {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		if m, err = m.WithParam(k, step.Params[k]); err != nil {
			return nil, err
		}
	}
	cfg.Crank.Length = m.Crank.Length
	cfg.Crank.RPM = m.Crank.RPM
	cfg.Fixed.Length = m.Fixed.Length
	cfg.Link.Length = m.Link.Length
	return cfg, nil
}

// RunScenario executes all steps in order. Steps with SaveAs are written
// to store when it is non-nil. Progress goes to w.
func RunScenario(ctx context.Context, scenario *Scenario, store *storage.Store, w io.Writer) ([]StepResult, error) {
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		label := step.Preset
		if label == "" {
			label = "reference"
		}
		fmt.Fprintf(w, "running step %d/%d: %s\n", i+1, len(scenario.Steps), label)

		cfg, err := stepConfig(step)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		m, err := cfg.Mechanism()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		tc, err := cfg.TraceConfig()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		st, err := linkage.NewState(m, time.Unix(0, 0))
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}

		r := trace.New()
		for _, metric := range metrics.Defaults() {
			r.AddMetric(metric)
		}
		result, err := r.Run(ctx, st, tc)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		sr := StepResult{Step: step, Result: result}
		if step.SaveAs != "" && store != nil {
			if sr.RunID, err = store.Save(step.SaveAs, cfg, tc, result); err != nil {
				return results, fmt.Errorf("step %d save: %w", i+1, err)
			}
		}
		results = append(results, sr)
	}

	return results, nil
}

// MonteCarloConfig perturbs every link length uniformly by up to
// ±Perturbation and traces each trial.
type MonteCarloConfig struct {
	Base         linkage.Mechanism
	Perturbation float64
	NumTrials    int
	Trace        trace.Config
	Seed         int64
}

// MonteCarloResult is one perturbed trial.
type MonteCarloResult struct {
	TrialID   int
	Mechanism linkage.Mechanism
	// Feasible is true when no frame needed its span clamped.
	Feasible   bool
	ClampRatio float64
}

// RunMonteCarlo checks how sensitive a mechanism is to length tolerances.
func RunMonteCarlo(ctx context.Context, cfg *MonteCarloConfig) ([]MonteCarloResult, error) {
	if err := cfg.Trace.Validate(); err != nil {
		return nil, err
	}
	results := make([]MonteCarloResult, 0, cfg.NumTrials)

	rng := rand.New(rand.NewSource(cfg.Seed))
	if cfg.Seed == 0 {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	jitter := func(v float64) float64 {
		return v + (rng.Float64()-0.5)*2*cfg.Perturbation
	}

	for trial := 0; trial < cfg.NumTrials; trial++ {
		m := cfg.Base
		m.Crank.Length = jitter(m.Crank.Length)
		m.Fixed.Length = jitter(m.Fixed.Length)
		m.Link.Length = jitter(m.Link.Length)

		st, err := linkage.NewState(m, time.Unix(0, 0))
		if err != nil {
			return nil, fmt.Errorf("trial %d: %w", trial, err)
		}

		clamp := metrics.NewClampRatio()
		r := trace.New()
		r.AddMetric(clamp)
		if _, err := r.Run(ctx, st, cfg.Trace); err != nil {
			return nil, err
		}

		results = append(results, MonteCarloResult{
			TrialID:    trial,
			Mechanism:  m,
			Feasible:   clamp.Value() == 0,
			ClampRatio: clamp.Value(),
		})
	}

	return results, nil
}

// MonteCarloStats counts trials that stayed fully assembled.
func MonteCarloStats(results []MonteCarloResult) (feasibleCount int, clampedCount int) {
	for _, r := range results {
		if r.Feasible {
			feasibleCount++
		} else {
			clampedCount++
		}
	}
	return
}
