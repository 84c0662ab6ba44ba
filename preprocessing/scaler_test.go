package preprocessing

import (
	"math"
	"testing"

	"github.com/YuminosukeSato/fraudflow/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestStandardScaler(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{
		1, 10,
		2, 10,
		3, 10,
		4, 10,
	})

	s := NewStandardScalerDefault()
	out, err := s.FitTransform(X)
	require.NoError(t, err)

	assert.InDelta(t, 2.5, s.Mean[0], 1e-12)
	assert.InDelta(t, math.Sqrt(1.25), s.Scale[0], 1e-12)
	// 分散0の列はスケール1
	assert.Equal(t, 1.0, s.Scale[1])
	assert.InDelta(t, -1.5/math.Sqrt(1.25), out.At(0, 0), 1e-12)
	assert.Equal(t, 0.0, out.At(2, 1))

	back, err := s.InverseTransform(out)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(X, back, 1e-12))
}

func TestStandardScaler_IgnoresNaN(t *testing.T) {
	X := mat.NewDense(3, 1, []float64{1, math.NaN(), 3})

	s := NewStandardScalerDefault()
	out, err := s.FitTransform(X)
	require.NoError(t, err)
	assert.InDelta(t, 2, s.Mean[0], 1e-12)
	assert.True(t, math.IsNaN(out.At(1, 0)))
	assert.InDelta(t, -1, out.At(0, 0), 1e-12)
}

func TestStandardScaler_Errors(t *testing.T) {
	s := NewStandardScalerDefault()
	_, err := s.Transform(mat.NewDense(1, 1, nil))
	var notFitted *errors.NotFittedError
	assert.True(t, errors.As(err, &notFitted))

	require.NoError(t, s.Fit(mat.NewDense(2, 2, []float64{1, 2, 3, 4})))
	_, err = s.Transform(mat.NewDense(1, 3, nil))
	var dimErr *errors.DimensionError
	assert.True(t, errors.As(err, &dimErr))
}

func TestMinMaxScaler(t *testing.T) {
	X := mat.NewDense(3, 2, []float64{
		-1, 5,
		0, 5,
		3, 5,
	})

	m := NewMinMaxScaler([2]float64{-1, 1})
	out, err := m.FitTransform(X)
	require.NoError(t, err)

	assert.InDelta(t, -1, out.At(0, 0), 1e-12)
	assert.InDelta(t, -0.5, out.At(1, 0), 1e-12)
	assert.InDelta(t, 1, out.At(2, 0), 1e-12)
	// 定数列は下限に写る
	assert.InDelta(t, -1, out.At(1, 1), 1e-12)

	back, err := m.InverseTransform(out)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(X, back, 1e-12))
}

func TestMinMaxScaler_InvalidRange(t *testing.T) {
	err := NewMinMaxScaler([2]float64{1, 1}).Fit(mat.NewDense(1, 1, []float64{1}))
	var validation *errors.ValidationError
	assert.True(t, errors.As(err, &validation))
}

func TestColumnHelpers(t *testing.T) {
	nan := math.NaN()
	assert.InDelta(t, 1.0, ColumnVariance([]float64{1, 3, nan}), 1e-12)
	assert.Equal(t, 0.0, ColumnVariance([]float64{nan}))
	assert.True(t, IsConstant([]float64{2, nan, 2}))
	assert.True(t, IsConstant(nil))
	assert.False(t, IsConstant([]float64{2, 2.0000001}))
	assert.Equal(t, []float64{1, 2}, DropNaN([]float64{1, nan, 2}))
}
