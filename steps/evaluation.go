package steps

import (
	"context"

	"github.com/YuminosukeSato/fraudflow/core/model"
	"github.com/YuminosukeSato/fraudflow/metrics"
	"github.com/YuminosukeSato/fraudflow/pipeline"
	"github.com/YuminosukeSato/fraudflow/pkg/errors"
	"github.com/YuminosukeSato/fraudflow/pkg/log"
	"gonum.org/v1/gonum/mat"
)

// EvaluateModel scores clf on X and y. Labels equal to the positive class
// count as 1, every other label as 0. The positive class is the larger of
// the classes seen in training when clf reports them, 1 otherwise.
func EvaluateModel(clf model.Classifier, X, y mat.Matrix) (metrics.Report, error) {
	if clf == nil {
		return metrics.Report{}, errors.NewValidationError("model", "must not be nil", nil)
	}
	positive := 1.0
	if c, ok := clf.(interface{ Classes() []int }); ok {
		if classes := c.Classes(); len(classes) == 2 {
			positive = float64(classes[1])
		}
	}

	pred, err := clf.Predict(X)
	if err != nil {
		return metrics.Report{}, err
	}
	proba, err := clf.PredictProba(X)
	if err != nil {
		return metrics.Report{}, err
	}
	n, _ := y.Dims()
	if r, _ := pred.Dims(); r != n {
		return metrics.Report{}, errors.NewDimensionError(NameEvaluation, n, r, 0)
	}
	_, pc := proba.Dims()

	yTrue := mat.NewVecDense(n, nil)
	yPred := mat.NewVecDense(n, nil)
	yProba := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		if y.At(i, 0) == positive {
			yTrue.SetVec(i, 1)
		}
		if pred.At(i, 0) == positive {
			yPred.SetVec(i, 1)
		}
		yProba.SetVec(i, proba.At(i, pc-1))
	}
	return metrics.Evaluate(yTrue, yPred, yProba)
}

// Evaluation scores the trained model on the test part of the split.
type Evaluation struct{}

// Name implements pipeline.Step.
func (s *Evaluation) Name() string { return NameEvaluation }

// Run implements pipeline.Step.
func (s *Evaluation) Run(ctx context.Context, a *pipeline.Artifacts) error {
	if a.Split == nil || a.Model == nil {
		return errors.NewValidationError("model", "evaluation requires a trained model and a split", nil)
	}
	report, err := EvaluateModel(a.Model, a.Split.XTest, a.Split.YTest)
	if err != nil {
		return err
	}
	a.Evaluation = &report

	log.GetLoggerWithName("steps").Info("Model evaluated",
		log.StepKey, NameEvaluation,
		log.SamplesKey, report.Samples,
		log.AccuracyKey, report.Accuracy,
		log.AUCKey, report.AUC,
		log.LossKey, report.LogLoss,
		"metrics.f1", report.F1,
	)
	return nil
}
