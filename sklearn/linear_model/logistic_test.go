package linear_model

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/YuminosukeSato/fraudflow/core/model"
	"github.com/YuminosukeSato/fraudflow/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// separable は (1, 1) 付近のクラス0と (3, 3) 付近のクラス1
func separable() (*mat.Dense, *mat.Dense) {
	X := mat.NewDense(6, 2, []float64{
		0.5, 0.5,
		1.0, 1.5,
		1.5, 1.0,
		3.0, 2.5,
		2.5, 3.0,
		3.5, 3.5,
	})
	y := mat.NewDense(6, 1, []float64{0, 0, 0, 1, 1, 1})
	return X, y
}

func TestLogisticRegression_FitPredict_Binary(t *testing.T) {
	X, y := separable()

	lr := NewLogisticRegression(WithLRMaxIter(1000), WithLRTol(1e-4), WithLRRandomState(42))
	require.NoError(t, lr.Fit(X, y))

	predictions, err := lr.Predict(X)
	require.NoError(t, err)
	for i := 0; i < 6; i++ {
		assert.Equal(t, y.At(i, 0), predictions.At(i, 0), "sample %d", i)
	}

	XTest := mat.NewDense(2, 2, []float64{
		1.0, 1.0,
		3.0, 3.0,
	})
	testPreds, err := lr.Predict(XTest)
	require.NoError(t, err)
	assert.Equal(t, 0.0, testPreds.At(0, 0))
	assert.Equal(t, 1.0, testPreds.At(1, 0))
	assert.Equal(t, []int{0, 1}, lr.Classes())
	assert.Positive(t, lr.NIter())
}

func TestLogisticRegression_PredictProba(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{
		0, 0,
		0, 1,
		1, 0,
		1, 1,
	})
	y := mat.NewDense(4, 1, []float64{0, 0, 1, 1})

	lr := NewLogisticRegression(WithLRMaxIter(500), WithLRRandomState(1))
	require.NoError(t, lr.Fit(X, y))

	probas, err := lr.PredictProba(X)
	require.NoError(t, err)
	rows, cols := probas.Dims()
	require.Equal(t, 4, rows)
	require.Equal(t, 2, cols)

	predictions, err := lr.Predict(X)
	require.NoError(t, err)
	for i := 0; i < rows; i++ {
		p0, p1 := probas.At(i, 0), probas.At(i, 1)
		assert.InDelta(t, 1.0, p0+p1, 1e-9)
		assert.GreaterOrEqual(t, p1, 0.0)
		assert.LessOrEqual(t, p1, 1.0)
		if predictions.At(i, 0) == 1 {
			assert.GreaterOrEqual(t, p1, p0)
		} else {
			assert.Greater(t, p0, p1)
		}
	}
}

func TestLogisticRegression_NonContiguousLabels(t *testing.T) {
	X, y01 := separable()
	y := mat.NewDense(6, 1, nil)
	for i := 0; i < 6; i++ {
		y.Set(i, 0, 5+2*y01.At(i, 0)) // 5 と 7
	}

	lr := NewLogisticRegression(WithLRMaxIter(1000), WithLRRandomState(3))
	require.NoError(t, lr.Fit(X, y))
	assert.Equal(t, []int{5, 7}, lr.Classes())

	score, err := lr.Score(X, y)
	require.NoError(t, err)
	assert.Equal(t, 1.0, score)
}

func TestLogisticRegression_Regularization(t *testing.T) {
	X, y := separable()

	weak := NewLogisticRegression(WithLRC(100), WithLRMaxIter(500), WithLRRandomState(7))
	strong := NewLogisticRegression(WithLRC(1), WithLRMaxIter(500), WithLRRandomState(7))
	require.NoError(t, weak.Fit(X, y))
	require.NoError(t, strong.Fit(X, y))

	assert.Less(t, l2Norm(strong.Coef()), l2Norm(weak.Coef()))
}

func TestLogisticRegression_BalancedClassWeight(t *testing.T) {
	// 8 対 2 の不均衡データ
	X := mat.NewDense(10, 1, []float64{0, 0.2, 0.4, 0.6, 0.8, 1.0, 1.2, 1.4, 1.6, 1.8})
	y := mat.NewDense(10, 1, []float64{0, 0, 0, 0, 0, 0, 1, 0, 1, 0})

	plain := NewLogisticRegression(WithLRMaxIter(300), WithLRRandomState(11))
	balanced := NewLogisticRegression(WithLRMaxIter(300), WithLRRandomState(11), WithLRClassWeight("balanced"))
	require.NoError(t, plain.Fit(X, y))
	require.NoError(t, balanced.Fit(X, y))

	meanPositive := func(lr *LogisticRegression) float64 {
		probas, err := lr.PredictProba(X)
		require.NoError(t, err)
		return (probas.At(6, 1) + probas.At(8, 1)) / 2
	}
	assert.Greater(t, meanPositive(balanced), meanPositive(plain))
}

func TestLogisticRegression_Deterministic(t *testing.T) {
	X, y := separable()

	a := NewLogisticRegression(WithLRRandomState(42))
	b := NewLogisticRegression(WithLRRandomState(42))
	require.NoError(t, a.Fit(X, y))
	require.NoError(t, b.Fit(X, y))

	assert.Equal(t, a.Coef(), b.Coef())
	assert.Equal(t, a.Intercept(), b.Intercept())
}

func TestLogisticRegression_Errors(t *testing.T) {
	X, y := separable()

	t.Run("not fitted", func(t *testing.T) {
		_, err := NewLogisticRegression().Predict(X)
		var notFitted *errors.NotFittedError
		assert.True(t, errors.As(err, &notFitted))
	})

	t.Run("three classes", func(t *testing.T) {
		y3 := mat.NewDense(6, 1, []float64{0, 0, 1, 1, 2, 2})
		err := NewLogisticRegression().Fit(X, y3)
		var valErr *errors.ValueError
		assert.True(t, errors.As(err, &valErr))
	})

	t.Run("single class", func(t *testing.T) {
		y1 := mat.NewDense(6, 1, nil)
		assert.Error(t, NewLogisticRegression().Fit(X, y1))
	})

	t.Run("row mismatch", func(t *testing.T) {
		err := NewLogisticRegression().Fit(X, mat.NewDense(5, 1, nil))
		var dimErr *errors.DimensionError
		assert.True(t, errors.As(err, &dimErr))
	})

	t.Run("feature mismatch", func(t *testing.T) {
		lr := NewLogisticRegression(WithLRRandomState(1))
		require.NoError(t, lr.Fit(X, y))
		_, err := lr.Predict(mat.NewDense(2, 3, nil))
		var dimErr *errors.DimensionError
		assert.True(t, errors.As(err, &dimErr))
	})

	t.Run("nan input", func(t *testing.T) {
		Xn := mat.DenseCopyOf(X)
		Xn.Set(2, 1, math.NaN())
		assert.Error(t, NewLogisticRegression().Fit(Xn, y))
	})

	t.Run("invalid params", func(t *testing.T) {
		for _, lr := range []*LogisticRegression{
			NewLogisticRegression(WithLRC(0)),
			NewLogisticRegression(WithLRPenalty("l1")),
			NewLogisticRegression(WithLRClassWeight("auto")),
			NewLogisticRegression(WithLRMaxIter(0)),
			NewLogisticRegression(WithLRTol(-1)),
		} {
			var vErr *errors.ValidationError
			assert.True(t, errors.As(lr.Fit(X, y), &vErr), "%v", lr.GetParams())
		}
	})
}

func TestLogisticRegression_ConvergenceWarning(t *testing.T) {
	var warnings []error
	errors.SetWarningHandler(func(w error) { warnings = append(warnings, w) })
	t.Cleanup(func() { errors.SetWarningHandler(func(error) {}) })

	X, y := separable()
	lr := NewLogisticRegression(WithLRMaxIter(1), WithLRRandomState(1))
	require.NoError(t, lr.Fit(X, y))

	require.Len(t, warnings, 1)
	var conv *errors.ConvergenceWarning
	assert.True(t, errors.As(warnings[0], &conv))
}

func TestLogisticRegression_WeightsRoundTrip(t *testing.T) {
	X, y := separable()
	lr := NewLogisticRegression(WithLRRandomState(42), WithLRMaxIter(200))
	require.NoError(t, lr.Fit(X, y))

	mw, err := lr.ExportWeights([]string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, "LogisticRegression", mw.ModelType)
	assert.Equal(t, model.WeightsVersion, mw.Version)
	assert.Equal(t, []int{0, 1}, mw.Classes)

	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, model.SaveWeights(mw, path))
	loaded, err := model.LoadWeights(path)
	require.NoError(t, err)

	restored := NewLogisticRegression()
	require.NoError(t, restored.ImportWeights(loaded))

	want, err := lr.PredictProba(X)
	require.NoError(t, err)
	got, err := restored.PredictProba(X)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(want, got, 1e-12))
}

func TestLogisticRegression_ImportRejectsOtherModels(t *testing.T) {
	mw := &model.ModelWeights{
		ModelType:    "LinearRegression",
		Version:      model.WeightsVersion,
		Coefficients: []float64{1},
		Classes:      []int{0, 1},
		IsFitted:     true,
	}
	assert.Error(t, NewLogisticRegression().ImportWeights(mw))

	_, err := NewLogisticRegression().ExportWeights(nil)
	var notFitted *errors.NotFittedError
	assert.True(t, errors.As(err, &notFitted))
}

func l2Norm(v []float64) float64 {
	var s float64
	for _, x := range v {
		s += x * x
	}
	return math.Sqrt(s)
}
