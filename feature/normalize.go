package feature

import (
	"github.com/YuminosukeSato/fraudflow/preprocessing"
	"github.com/go-gota/gota/dataframe"
	"gonum.org/v1/gonum/mat"
)

// NormalizeStrategy applies a power transform fitted independently to each
// feature column, followed by standardisation to zero mean and unit
// variance. Yeo-Johnson is the default method; Box-Cox is available through
// WithPowerMethod for strictly positive features.
type NormalizeStrategy struct {
	columnTransform
}

// NewNormalizeStrategy returns a NormalizeStrategy for features. An empty
// list selects every non-label column. Columns not listed are carried
// through unchanged.
func NewNormalizeStrategy(features []string, opts ...Option) *NormalizeStrategy {
	return &NormalizeStrategy{newColumnTransform("normalize", features, true, opts)}
}

// Features returns the configured feature columns.
func (s *NormalizeStrategy) Features() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.features...)
}

// ApplyTransformation implements Strategy.
func (s *NormalizeStrategy) ApplyTransformation(df dataframe.DataFrame, targetColumn string) (dataframe.DataFrame, error) {
	res, err := s.FitTransform(df, targetColumn)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	return res.Dataset, nil
}

// FitTransform implements Fitter. Params carry "lambda" for each feature.
func (s *NormalizeStrategy) FitTransform(df dataframe.DataFrame, targetColumn string) (Result, error) {
	const op = "NormalizeStrategy.ApplyTransformation"
	if s == nil {
		return Result{}, errNilStrategy(op)
	}
	return s.run(op, df, targetColumn, func(X *mat.Dense) (mat.Matrix, map[string][]float64, error) {
		pt := preprocessing.NewPowerTransformer(
			preprocessing.WithPowerMethod(s.opts.method),
			preprocessing.WithStandardize(s.opts.standardize),
		)
		Y, err := pt.FitTransform(X)
		if err != nil {
			return nil, nil, err
		}
		return Y, map[string][]float64{"lambda": pt.Lambdas}, nil
	})
}
