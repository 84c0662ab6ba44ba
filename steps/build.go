package steps

import (
	"github.com/YuminosukeSato/fraudflow/dataset"
	"github.com/YuminosukeSato/fraudflow/feature"
	"github.com/YuminosukeSato/fraudflow/ingest"
	"github.com/YuminosukeSato/fraudflow/internal/config"
	"github.com/YuminosukeSato/fraudflow/pipeline"
	"github.com/YuminosukeSato/fraudflow/preprocessing"
	"github.com/YuminosukeSato/fraudflow/sklearn/linear_model"
)

// FromConfig builds the training steps in pipeline order:
// ingestion, missing values, cleaning, engineering, splitting, modelling
// and evaluation. cfg should already be validated.
func FromConfig(cfg config.Config) ([]pipeline.Step, error) {
	var delimiter rune
	if d := []rune(cfg.Ingest.Delimiter); len(d) == 1 {
		delimiter = d[0]
	}
	ing, err := ingest.New(cfg.Ingest.Kind, ingest.Options{
		Path:      cfg.Ingest.Path,
		Table:     cfg.Ingest.Table,
		Delimiter: delimiter,
	})
	if err != nil {
		return nil, err
	}

	policy, err := feature.ParseDegeneratePolicy(cfg.Feature.Degenerate)
	if err != nil {
		return nil, err
	}
	featureOpts := []feature.Option{
		feature.WithDegeneratePolicy(policy),
		feature.WithPowerMethod(preprocessing.PowerMethod(cfg.Feature.Method)),
		feature.WithStandardize(cfg.Feature.Standardize == nil || *cfg.Feature.Standardize),
	}
	if len(cfg.Feature.Range) == 2 {
		featureOpts = append(featureOpts, feature.WithFeatureRange(cfg.Feature.Range[0], cfg.Feature.Range[1]))
	}
	engineering, err := NewEngineering(cfg.Feature.Strategy, cfg.Feature.Features, featureOpts...)
	if err != nil {
		return nil, err
	}

	return []pipeline.Step{
		&Ingestion{Ingestor: ing},
		&MissingValues{
			Strategy: MissingStrategy(cfg.Missing.Strategy),
			Method:   dataset.FillMethod(cfg.Missing.Method),
			Value:    cfg.Missing.Value,
		},
		&Cleaning{Options: CleaningOptions{
			Unwanted:       cfg.Cleaning.Unwanted,
			NormalizeNames: cfg.Cleaning.NormalizeNames == nil || *cfg.Cleaning.NormalizeNames,
			DropConstant:   cfg.Cleaning.DropConstant,
			DropNonNumeric: cfg.Cleaning.DropNonNumeric,
		}},
		engineering,
		&Splitting{Options: SplitOptions{
			TestSize:    cfg.Split.TestSize,
			RandomState: cfg.Split.RandomState,
			Stratify:    cfg.Split.Stratify,
		}},
		&Modelling{Options: []linear_model.LogisticRegressionOption{
			linear_model.WithLRC(cfg.Model.C),
			linear_model.WithLRMaxIter(cfg.Model.MaxIter),
			linear_model.WithLRTol(cfg.Model.Tol),
			linear_model.WithLRClassWeight(cfg.Model.ClassWeight),
			linear_model.WithLRRandomState(cfg.Model.RandomState),
			linear_model.WithLogisticFitIntercept(cfg.Model.FitIntercept == nil || *cfg.Model.FitIntercept),
		}},
		&Evaluation{},
	}, nil
}
