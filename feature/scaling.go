package feature

import (
	"github.com/YuminosukeSato/fraudflow/preprocessing"
	"github.com/go-gota/gota/dataframe"
	"gonum.org/v1/gonum/mat"
)

// StandardScalingStrategy rescales each feature to zero mean and unit
// population variance.
type StandardScalingStrategy struct {
	columnTransform
}

// NewStandardScalingStrategy returns a StandardScalingStrategy for features.
func NewStandardScalingStrategy(features []string, opts ...Option) *StandardScalingStrategy {
	return &StandardScalingStrategy{newColumnTransform("standard", features, true, opts)}
}

// ApplyTransformation implements Strategy.
func (s *StandardScalingStrategy) ApplyTransformation(df dataframe.DataFrame, targetColumn string) (dataframe.DataFrame, error) {
	res, err := s.FitTransform(df, targetColumn)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	return res.Dataset, nil
}

// FitTransform implements Fitter with "mean" and "scale" params.
func (s *StandardScalingStrategy) FitTransform(df dataframe.DataFrame, targetColumn string) (Result, error) {
	const op = "StandardScalingStrategy.ApplyTransformation"
	if s == nil {
		return Result{}, errNilStrategy(op)
	}
	return s.run(op, df, targetColumn, func(X *mat.Dense) (mat.Matrix, map[string][]float64, error) {
		scaler := preprocessing.NewStandardScalerDefault()
		Y, err := scaler.FitTransform(X)
		if err != nil {
			return nil, nil, err
		}
		return Y, map[string][]float64{"mean": scaler.Mean, "scale": scaler.Scale}, nil
	})
}

// MinMaxScalingStrategy rescales each feature linearly into a range,
// [0, 1] unless WithFeatureRange says otherwise.
type MinMaxScalingStrategy struct {
	columnTransform
}

// NewMinMaxScalingStrategy returns a MinMaxScalingStrategy for features.
func NewMinMaxScalingStrategy(features []string, opts ...Option) *MinMaxScalingStrategy {
	return &MinMaxScalingStrategy{newColumnTransform("minmax", features, true, opts)}
}

// ApplyTransformation implements Strategy.
func (s *MinMaxScalingStrategy) ApplyTransformation(df dataframe.DataFrame, targetColumn string) (dataframe.DataFrame, error) {
	res, err := s.FitTransform(df, targetColumn)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	return res.Dataset, nil
}

// FitTransform implements Fitter with "data_min" and "data_max" params.
func (s *MinMaxScalingStrategy) FitTransform(df dataframe.DataFrame, targetColumn string) (Result, error) {
	const op = "MinMaxScalingStrategy.ApplyTransformation"
	if s == nil {
		return Result{}, errNilStrategy(op)
	}
	return s.run(op, df, targetColumn, func(X *mat.Dense) (mat.Matrix, map[string][]float64, error) {
		scaler := preprocessing.NewMinMaxScaler(s.opts.featureRange)
		Y, err := scaler.FitTransform(X)
		if err != nil {
			return nil, nil, err
		}
		return Y, map[string][]float64{"data_min": scaler.DataMin, "data_max": scaler.DataMax}, nil
	})
}
