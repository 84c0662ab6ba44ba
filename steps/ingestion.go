// Package steps holds the training pipeline steps. Each step is a plain
// function over datasets plus a pipeline.Step adapter that reads and
// writes pipeline.Artifacts.
package steps

import (
	"context"

	"github.com/YuminosukeSato/fraudflow/ingest"
	"github.com/YuminosukeSato/fraudflow/pipeline"
	"github.com/YuminosukeSato/fraudflow/pkg/errors"
)

// Step names in pipeline order.
const (
	NameIngestion   = "data_ingestion"
	NameMissing     = "missing_value_handling"
	NameCleaning    = "feature_cleaning"
	NameEngineering = "feature_engineering"
	NameSplitting   = "data_splitting"
	NameModelling   = "data_modelling"
	NameEvaluation  = "model_evaluation"
)

// Ingestion loads the raw dataset.
type Ingestion struct {
	Ingestor ingest.Ingestor
}

// Name implements pipeline.Step.
func (s *Ingestion) Name() string { return NameIngestion }

// Run implements pipeline.Step.
func (s *Ingestion) Run(ctx context.Context, a *pipeline.Artifacts) error {
	if s.Ingestor == nil {
		return errors.NewValidationError("ingestor", "must not be nil", nil)
	}
	df, err := s.Ingestor.Load(ctx)
	if err != nil {
		return err
	}
	if df.Nrow() == 0 {
		return errors.NewModelError(NameIngestion, "dataset has no rows", errors.ErrEmptyData)
	}
	a.Raw = df
	a.Data = df
	return nil
}
