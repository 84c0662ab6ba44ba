package steps

import (
	"context"
	"strconv"

	"github.com/YuminosukeSato/fraudflow/pipeline"
	"github.com/YuminosukeSato/fraudflow/pkg/errors"
	"github.com/YuminosukeSato/fraudflow/pkg/log"
	"github.com/YuminosukeSato/fraudflow/sklearn/linear_model"
	"gonum.org/v1/gonum/mat"
)

// TrainModel fits a binary LogisticRegression on X and y. The labels must
// be integers.
func TrainModel(X, y mat.Matrix, opts ...linear_model.LogisticRegressionOption) (*linear_model.LogisticRegression, error) {
	rows, _ := y.Dims()
	for i := 0; i < rows; i++ {
		if v := y.At(i, 0); v != float64(int(v)) {
			return nil, errors.NewValueError(NameModelling, "label at row "+itoa(i)+" is not an integer class")
		}
	}
	clf := linear_model.NewLogisticRegression(opts...)
	if err := clf.Fit(X, y); err != nil {
		return nil, err
	}
	return clf, nil
}

// Modelling is the model training step.
type Modelling struct {
	Options []linear_model.LogisticRegressionOption
}

// Name implements pipeline.Step.
func (s *Modelling) Name() string { return NameModelling }

// Run implements pipeline.Step.
func (s *Modelling) Run(ctx context.Context, a *pipeline.Artifacts) error {
	if a.Split == nil {
		return errors.NewValidationError("split", "modelling requires a train/test split", nil)
	}
	clf, err := TrainModel(a.Split.XTrain, a.Split.YTrain, s.Options...)
	if err != nil {
		return err
	}
	weights, err := clf.ExportWeights(a.Features)
	if err != nil {
		return err
	}
	a.Model = clf
	a.Weights = weights

	log.GetLoggerWithName("steps").Info("Model trained",
		log.StepKey, NameModelling,
		log.ModelNameKey, weights.ModelType,
		log.IterationKey, clf.NIter(),
	)
	return nil
}

func itoa(i int) string { return strconv.Itoa(i) }
