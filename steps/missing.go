package steps

import (
	"context"

	"github.com/YuminosukeSato/fraudflow/dataset"
	"github.com/YuminosukeSato/fraudflow/pipeline"
	"github.com/YuminosukeSato/fraudflow/pkg/errors"
	"github.com/YuminosukeSato/fraudflow/pkg/log"
	"github.com/go-gota/gota/dataframe"
)

// MissingStrategy selects how missing values are handled.
type MissingStrategy string

const (
	// MissingDrop removes every row with a missing cell.
	MissingDrop MissingStrategy = "drop"
	// MissingFill replaces missing numeric cells using a FillMethod.
	MissingFill MissingStrategy = "fill"
)

// HandleMissingValues applies strategy to df. method and value are used by
// MissingFill only.
func HandleMissingValues(df dataframe.DataFrame, strategy MissingStrategy, method dataset.FillMethod, value float64) (dataframe.DataFrame, error) {
	switch strategy {
	case MissingDrop:
		return dataset.DropNA(df), nil
	case MissingFill:
		return dataset.FillNA(NameMissing, df, method, value)
	default:
		return dataframe.DataFrame{}, errors.NewValidationError("missing.strategy", "must be 'drop' or 'fill'", strategy)
	}
}

// MissingValues is the missing value handling step.
type MissingValues struct {
	Strategy MissingStrategy
	Method   dataset.FillMethod
	Value    float64
}

// Name implements pipeline.Step.
func (s *MissingValues) Name() string { return NameMissing }

// Run implements pipeline.Step.
func (s *MissingValues) Run(ctx context.Context, a *pipeline.Artifacts) error {
	before := a.Data.Nrow()
	missing := 0
	for _, n := range dataset.CountNA(a.Data) {
		missing += n
	}

	out, err := HandleMissingValues(a.Data, s.Strategy, s.Method, s.Value)
	if err != nil {
		return err
	}
	if out.Nrow() == 0 {
		return errors.NewModelError(NameMissing, "every row has a missing value", errors.ErrEmptyData)
	}
	a.Data = out

	log.GetLoggerWithName("steps").Info("Missing values handled",
		log.StepKey, NameMissing,
		"missing.strategy", string(s.Strategy),
		"missing.cells", missing,
		"missing.rows_dropped", before-out.Nrow(),
	)
	return nil
}
