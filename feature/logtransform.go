package feature

import (
	"fmt"
	"math"

	"github.com/YuminosukeSato/fraudflow/pkg/errors"
	"github.com/go-gota/gota/dataframe"
	"gonum.org/v1/gonum/mat"
)

// LogTransformStrategy replaces each feature x with log(1+x). Values at or
// below -1 are rejected. Constant columns are valid input.
type LogTransformStrategy struct {
	columnTransform
}

// NewLogTransformStrategy returns a LogTransformStrategy for features.
func NewLogTransformStrategy(features []string, opts ...Option) *LogTransformStrategy {
	return &LogTransformStrategy{newColumnTransform("log", features, false, opts)}
}

// ApplyTransformation implements Strategy.
func (s *LogTransformStrategy) ApplyTransformation(df dataframe.DataFrame, targetColumn string) (dataframe.DataFrame, error) {
	res, err := s.FitTransform(df, targetColumn)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	return res.Dataset, nil
}

// FitTransform implements Fitter. The log transform has no fitted
// parameters.
func (s *LogTransformStrategy) FitTransform(df dataframe.DataFrame, targetColumn string) (Result, error) {
	const op = "LogTransformStrategy.ApplyTransformation"
	if s == nil {
		return Result{}, errNilStrategy(op)
	}
	return s.run(op, df, targetColumn, func(X *mat.Dense) (mat.Matrix, map[string][]float64, error) {
		r, c := X.Dims()
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				if v := X.At(i, j); v <= -1 {
					return nil, nil, errors.NewValueError(op, fmt.Sprintf("log1p is undefined for row %d value %g", i, v))
				}
			}
		}
		Y := mat.NewDense(r, c, nil)
		Y.Apply(func(_, _ int, v float64) float64 { return math.Log1p(v) }, X)
		return Y, nil, nil
	})
}
