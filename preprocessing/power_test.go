package preprocessing

import (
	"math"
	"testing"

	"github.com/YuminosukeSato/fraudflow/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

func TestBrentMinimize(t *testing.T) {
	tests := []struct {
		name string
		f    func(float64) float64
		want float64
	}{
		{name: "inside bracket", f: func(x float64) float64 { return (x - 1.5) * (x - 1.5) }, want: 1.5},
		{name: "outside bracket", f: func(x float64) float64 { return (x + 7) * (x + 7) }, want: -7},
		{name: "non symmetric", f: func(x float64) float64 { return math.Cosh(x - 0.3) }, want: 0.3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := brentMinimize(tt.f, -2, 2)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-6)
		})
	}
}

func TestYeoJohnson_RoundTrip(t *testing.T) {
	for _, lambda := range []float64{-1.5, 0, 0.5, 1, 2, 3.1} {
		for _, x := range []float64{-10, -1, -0.25, 0, 0.25, 1, 10} {
			y := yeoJohnson(x, lambda)
			assert.InDelta(t, x, yeoJohnsonInverse(y, lambda), 1e-9, "lambda=%v x=%v", lambda, x)
		}
	}
	// λ=1 は恒等変換
	assert.InDelta(t, -3.0, yeoJohnson(-3, 1), 1e-12)
	assert.InDelta(t, 4.0, yeoJohnson(4, 1), 1e-12)
}

func TestPowerTransformer_MatchesReference(t *testing.T) {
	X := mat.NewDense(3, 2, []float64{
		1, 2,
		3, 2,
		4, 5,
	})

	pt := NewPowerTransformer()
	out, err := pt.FitTransform(X)
	require.NoError(t, err)

	require.Len(t, pt.Lambdas, 2)
	assert.InDelta(t, 1.386, pt.Lambdas[0], 1e-3)
	assert.InDelta(t, -3.100, pt.Lambdas[1], 1e-3)

	want := []float64{
		-1.316, -0.707,
		0.209, -0.707,
		1.106, 1.414,
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 2; j++ {
			assert.InDelta(t, want[i*2+j], out.At(i, j), 1e-3, "cell (%d,%d)", i, j)
		}
	}

	again, err := pt.Transform(X)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(out, again, 1e-12))
}

func TestPowerTransformer_Standardized(t *testing.T) {
	X := mat.NewDense(6, 1, []float64{0.1, 0.5, 2, 7, 30, 150})

	out, err := NewPowerTransformer().FitTransform(X)
	require.NoError(t, err)

	col := mat.Col(nil, 0, out)
	mean, variance := stat.PopMeanVariance(col, nil)
	assert.InDelta(t, 0, mean, 1e-9)
	assert.InDelta(t, 1, variance, 1e-9)
}

func TestPowerTransformer_InverseTransform(t *testing.T) {
	X := mat.NewDense(5, 2, []float64{
		-3, 0.5,
		-1, 1.5,
		0, 2.5,
		2, 8,
		9, 40,
	})

	for _, method := range []PowerMethod{MethodYeoJohnson, MethodBoxCox} {
		t.Run(string(method), func(t *testing.T) {
			data := X
			if method == MethodBoxCox {
				data = mat.NewDense(5, 1, []float64{0.5, 1.5, 2.5, 8, 40})
			}
			pt := NewPowerTransformer(WithPowerMethod(method))
			out, err := pt.FitTransform(data)
			require.NoError(t, err)

			back, err := pt.InverseTransform(out)
			require.NoError(t, err)
			assert.True(t, mat.EqualApprox(data, back, 1e-8))
		})
	}
}

func TestPowerTransformer_NaNPreserved(t *testing.T) {
	nan := math.NaN()
	X := mat.NewDense(5, 1, []float64{1, nan, 3, 10, 4})

	out, err := NewPowerTransformer().FitTransform(X)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(out.At(1, 0)))
	for _, i := range []int{0, 2, 3, 4} {
		assert.False(t, math.IsNaN(out.At(i, 0)))
	}
}

func TestPowerTransformer_ConstantColumn(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{
		1, 7,
		2, 7,
		3, 7,
		4, 7,
	})

	pt := NewPowerTransformer()
	out, err := pt.FitTransform(X)
	require.NoError(t, err)
	assert.Equal(t, 1.0, pt.Lambdas[1])
	for i := 0; i < 4; i++ {
		assert.InDelta(t, 0, out.At(i, 1), 1e-12)
	}
}

func TestPowerTransformer_Errors(t *testing.T) {
	t.Run("box-cox rejects non-positive", func(t *testing.T) {
		X := mat.NewDense(3, 1, []float64{1, 0, 2})
		err := NewPowerTransformer(WithPowerMethod(MethodBoxCox)).Fit(X)
		var valErr *errors.ValueError
		assert.True(t, errors.As(err, &valErr))
	})

	t.Run("unknown method", func(t *testing.T) {
		X := mat.NewDense(2, 1, []float64{1, 2})
		err := NewPowerTransformer(WithPowerMethod("quantile")).Fit(X)
		var validation *errors.ValidationError
		assert.True(t, errors.As(err, &validation))
	})

	t.Run("not fitted", func(t *testing.T) {
		_, err := NewPowerTransformer().Transform(mat.NewDense(1, 1, []float64{1}))
		var notFitted *errors.NotFittedError
		assert.True(t, errors.As(err, &notFitted))
	})

	t.Run("dimension mismatch", func(t *testing.T) {
		pt := NewPowerTransformer()
		require.NoError(t, pt.Fit(mat.NewDense(3, 1, []float64{1, 2, 4})))
		_, err := pt.Transform(mat.NewDense(1, 2, []float64{1, 2}))
		var dimErr *errors.DimensionError
		assert.True(t, errors.As(err, &dimErr))
	})
}

func TestPowerTransformer_WithoutStandardize(t *testing.T) {
	X := mat.NewDense(4, 1, []float64{0, 1, 3, 8})

	pt := NewPowerTransformer(WithStandardize(false))
	out, err := pt.FitTransform(X)
	require.NoError(t, err)
	for i := 0; i < 4; i++ {
		assert.InDelta(t, yeoJohnson(X.At(i, 0), pt.Lambdas[0]), out.At(i, 0), 1e-12)
	}
	assert.Contains(t, pt.String(), "standardize=false")
}

func TestPowerTransformer_FitThenTransformNewRows(t *testing.T) {
	train := mat.NewDense(5, 1, []float64{0.5, 1, 2, 4, 9})
	unseen := mat.NewDense(2, 1, []float64{3, -1})

	for _, standardize := range []bool{true, false} {
		pt := NewPowerTransformer(WithStandardize(standardize))
		require.NoError(t, pt.Fit(train))

		out, err := pt.Transform(unseen)
		require.NoError(t, err)
		r, c := out.Dims()
		require.Equal(t, 2, r)
		require.Equal(t, 1, c)

		// 学習済みの変換器を使うので、学習データをまとめて変換した結果と一致する
		all := mat.NewDense(7, 1, []float64{0.5, 1, 2, 4, 9, 3, -1})
		ref, err := pt.Transform(all)
		require.NoError(t, err)
		assert.InDelta(t, ref.At(5, 0), out.At(0, 0), 1e-12, "standardize=%t", standardize)
		assert.InDelta(t, ref.At(6, 0), out.At(1, 0), 1e-12, "standardize=%t", standardize)

		if !standardize {
			assert.InDelta(t, yeoJohnson(3, pt.Lambdas[0]), out.At(0, 0), 1e-12)
		}
	}
}

func TestPowerTransformer_ManyColumnsMatchSingleColumnFits(t *testing.T) {
	const rows, cols = 30, 12
	X := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			X.Set(i, j, math.Pow(float64(i+1), 1+float64(j)/4))
		}
	}

	pt := NewPowerTransformer()
	require.NoError(t, pt.Fit(X))
	require.Len(t, pt.Lambdas, cols)

	for j := 0; j < cols; j++ {
		single := NewPowerTransformer()
		require.NoError(t, single.Fit(mat.NewDense(rows, 1, mat.Col(nil, j, X))))
		assert.Equal(t, single.Lambdas[0], pt.Lambdas[j], "column %d", j)
	}
}
