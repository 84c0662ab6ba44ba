package pipeline

import (
	"github.com/YuminosukeSato/fraudflow/core/model"
	"github.com/YuminosukeSato/fraudflow/metrics"
	"github.com/go-gota/gota/dataframe"
	"gonum.org/v1/gonum/mat"
)

// Artifacts carries the outputs of each step to the steps after it.
// Steps read what earlier steps produced and fill in their own fields.
type Artifacts struct {
	// RunID identifies the run in logs and reports.
	RunID string

	// Target is the label column. Cleaning may rename it.
	Target string

	// Data is the working dataset passed from step to step.
	Data dataframe.DataFrame

	// Raw is the dataset as loaded, before any step changed it.
	Raw dataframe.DataFrame

	// Cleaned is the dataset after missing values and feature cleaning.
	Cleaned dataframe.DataFrame

	// Engineered is the dataset after feature engineering.
	Engineered dataframe.DataFrame

	// Features lists the model input columns in matrix column order.
	Features []string

	// Transformed lists the columns the engineering strategy rewrote, and
	// Params their fitted parameters keyed by column.
	Transformed []string
	Params      map[string]map[string]float64

	Split *Split

	Model   model.Classifier
	Weights *model.ModelWeights

	Evaluation *metrics.Report
}

// Split is a train/test partition of the engineered dataset. Y matrices
// are n × 1 and hold the label values.
type Split struct {
	XTrain, XTest *mat.Dense
	YTrain, YTest *mat.Dense

	// TrainRows and TestRows are row indexes into Artifacts.Engineered.
	TrainRows, TestRows []int
}
