// Package report writes the artifacts of a training run: a YAML run
// summary, the model weights and before/after histograms of each
// engineered feature.
package report

import (
	"os"
	"path/filepath"
	"time"

	"github.com/YuminosukeSato/fraudflow/core/model"
	"github.com/YuminosukeSato/fraudflow/metrics"
	"github.com/YuminosukeSato/fraudflow/pipeline"
	"github.com/YuminosukeSato/fraudflow/pkg/errors"
	"gopkg.in/yaml.v3"
)

// File names written by Write.
const (
	SummaryFile = "summary.yaml"
	WeightsFile = "model.json"
	PlotDir     = "plots"
)

// Summary is the YAML run summary.
type Summary struct {
	RunID       string    `yaml:"run_id"`
	Pipeline    string    `yaml:"pipeline"`
	GeneratedAt time.Time `yaml:"generated_at"`
	Target      string    `yaml:"target"`

	Rows struct {
		Raw        int `yaml:"raw"`
		Cleaned    int `yaml:"cleaned"`
		Engineered int `yaml:"engineered"`
		Train      int `yaml:"train"`
		Test       int `yaml:"test"`
	} `yaml:"rows"`

	Features    []string                      `yaml:"features,omitempty"`
	Transformed []string                      `yaml:"transformed,omitempty"`
	Params      map[string]map[string]float64 `yaml:"params,omitempty"`

	Steps   []StepSummary   `yaml:"steps"`
	Model   *ModelSummary   `yaml:"model,omitempty"`
	Metrics *metrics.Report `yaml:"metrics,omitempty"`
}

// StepSummary is the outcome of one step.
type StepSummary struct {
	Name       string  `yaml:"name"`
	DurationMs float64 `yaml:"duration_ms"`
	Rows       int     `yaml:"rows"`
	Error      string  `yaml:"error,omitempty"`
}

// ModelSummary describes the trained model.
type ModelSummary struct {
	Type         string             `yaml:"type"`
	Classes      []int              `yaml:"classes"`
	Intercept    float64            `yaml:"intercept"`
	Coefficients map[string]float64 `yaml:"coefficients"`
}

// Build summarises res. It works on partial results from a failed run.
func Build(name string, res *pipeline.Result, now time.Time) Summary {
	s := Summary{Pipeline: name, GeneratedAt: now.UTC()}
	for _, st := range res.Steps {
		s.Steps = append(s.Steps, StepSummary{
			Name:       st.Name,
			DurationMs: float64(st.Duration.Microseconds()) / 1000,
			Rows:       st.Rows,
			Error:      st.Error,
		})
	}
	a := res.Artifacts
	if a == nil {
		return s
	}
	s.RunID = a.RunID
	s.Target = a.Target
	s.Rows.Raw = a.Raw.Nrow()
	s.Rows.Cleaned = a.Cleaned.Nrow()
	s.Rows.Engineered = a.Engineered.Nrow()
	if a.Split != nil {
		s.Rows.Train = len(a.Split.TrainRows)
		s.Rows.Test = len(a.Split.TestRows)
	}
	s.Features = a.Features
	s.Transformed = a.Transformed
	s.Params = a.Params
	s.Metrics = a.Evaluation
	if a.Weights != nil {
		s.Model = modelSummary(a.Weights)
	}
	return s
}

func modelSummary(w *model.ModelWeights) *ModelSummary {
	m := &ModelSummary{
		Type:         w.ModelType,
		Classes:      w.Classes,
		Intercept:    w.Intercept,
		Coefficients: make(map[string]float64, len(w.Coefficients)),
	}
	for j, c := range w.Coefficients {
		name := "x" + itoa(j)
		if j < len(w.Features) {
			name = w.Features[j]
		}
		m.Coefficients[name] = c
	}
	return m
}

// WriteSummary writes s as YAML to path.
func WriteSummary(path string, s Summary) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		f.Close()
		return errors.Wrapf(err, "encode summary to %s", path)
	}
	if err := enc.Close(); err != nil {
		f.Close()
		return errors.Wrapf(err, "encode summary to %s", path)
	}
	return f.Close()
}

// ReadSummary reads a summary written by WriteSummary.
func ReadSummary(path string) (Summary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Summary{}, errors.Wrapf(err, "read %s", path)
	}
	var s Summary
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Summary{}, errors.Wrapf(err, "decode %s", path)
	}
	return s, nil
}

// Options configures Write.
type Options struct {
	// Plots enables the feature histograms.
	Plots bool
	// Bins is the histogram bin count, 20 when zero.
	Bins int
}

// Write stores the summary, the model weights when present and, when
// enabled, the feature histograms under dir. It returns the written paths.
func Write(dir, name string, res *pipeline.Result, opts Options) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create %s", dir)
	}
	summaryPath := filepath.Join(dir, SummaryFile)
	if err := WriteSummary(summaryPath, Build(name, res, time.Now())); err != nil {
		return nil, err
	}
	written := []string{summaryPath}

	a := res.Artifacts
	if a == nil {
		return written, nil
	}
	if a.Weights != nil {
		path := filepath.Join(dir, WeightsFile)
		if err := model.SaveWeights(a.Weights, path); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	if opts.Plots && len(a.Transformed) > 0 {
		plotDir := filepath.Join(dir, PlotDir)
		if err := os.MkdirAll(plotDir, 0o755); err != nil {
			return written, errors.Wrapf(err, "create %s", plotDir)
		}
		paths, err := PlotHistograms(plotDir, a.Cleaned, a.Engineered, a.Transformed, opts.Bins)
		written = append(written, paths...)
		if err != nil {
			return written, err
		}
	}
	return written, nil
}
