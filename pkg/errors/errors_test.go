package errors

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewModelError(t *testing.T) {
	tests := []struct {
		name     string
		op       string
		kind     string
		err      error
		wantMsg  string
		hasStack bool
	}{
		{
			name:     "with original error",
			op:       "Fit",
			kind:     "invalid input",
			err:      fmt.Errorf("test error"),
			wantMsg:  "fraudflow: Fit: invalid input: test error",
			hasStack: true,
		},
		{
			name:     "without original error",
			op:       "Predict",
			kind:     "not fitted",
			err:      nil,
			wantMsg:  "fraudflow: Predict: not fitted",
			hasStack: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewModelError(tt.op, tt.kind, tt.err)

			// 基本的なエラーメッセージの確認
			assert.Equal(t, tt.wantMsg, err.Error())

			// スタックトレースの存在確認
			if tt.hasStack {
				formatted := fmt.Sprintf("%+v", err)
				assert.Contains(t, formatted, "errors_test.go")
			}

			var modelErr *ModelError
			assert.True(t, As(err, &modelErr))
		})
	}
}

func TestNewDimensionError(t *testing.T) {
	err := NewDimensionError("PowerTransformer.Transform", 3, 2, 1)

	want := "fraudflow: PowerTransformer.Transform: dimension mismatch on axis 1 (features). Expected 3, got 2"
	assert.Equal(t, want, err.Error())

	var dimErr *DimensionError
	require.True(t, As(err, &dimErr))
	assert.Equal(t, 3, dimErr.Expected)
}

func TestNewNotFittedError(t *testing.T) {
	err := NewNotFittedError("PowerTransformer", "Transform")

	want := "fraudflow: PowerTransformer: this model is not fitted yet. Call Fit() before using Transform()"
	assert.Equal(t, want, err.Error())

	var notFittedErr *NotFittedError
	assert.True(t, As(err, &notFittedErr))
}

func TestNewMissingColumnError(t *testing.T) {
	available := []string{"a", "b"}
	err := NewMissingColumnError("NormalizeStrategy.ApplyTransformation", "flag", available)

	assert.Equal(t,
		"fraudflow: NormalizeStrategy.ApplyTransformation: column 'flag' not found in dataset (available: [a, b])",
		err.Error())

	var missing *MissingColumnError
	require.True(t, As(err, &missing))
	assert.Equal(t, "flag", missing.Column)

	// 呼び出し元のスライスを変更しても影響しない
	available[0] = "z"
	assert.Equal(t, []string{"a", "b"}, missing.Available)
}

func TestNewNonNumericFeatureError(t *testing.T) {
	err := NewNonNumericFeatureError("dataset.FloatColumn", "token", 3, "ETH")

	assert.Equal(t, `fraudflow: dataset.FloatColumn: feature 'token' is not numeric: row 3 has value "ETH"`, err.Error())

	var nonNumeric *NonNumericFeatureError
	require.True(t, As(err, &nonNumeric))
	assert.Equal(t, 3, nonNumeric.Row)
}

func TestNewDegenerateFeatureError(t *testing.T) {
	err := NewDegenerateFeatureError("NormalizeStrategy.ApplyTransformation", "erc20_uniq_rec_token_name", 0)

	assert.Contains(t, err.Error(), "feature 'erc20_uniq_rec_token_name' has zero variance")

	var degenerate *DegenerateFeatureError
	assert.True(t, As(err, &degenerate))
}

func TestNewValueError(t *testing.T) {
	err := NewValueError("PowerTransformer.Fit", "box-cox requires strictly positive data")
	assert.Equal(t, "fraudflow: PowerTransformer.Fit: box-cox requires strictly positive data", err.Error())

	var valErr *ValueError
	assert.True(t, As(err, &valErr))
}

func TestNewValidationError(t *testing.T) {
	err := NewValidationError("test_size", "must be in (0, 1)", 1.5)
	assert.Equal(t, "fraudflow: validation failed for parameter 'test_size': must be in (0, 1) (got: 1.5)", err.Error())
}

func TestWarnings(t *testing.T) {
	var got []error
	SetWarningHandler(func(w error) { got = append(got, w) })
	t.Cleanup(func() {
		SetWarningHandler(func(w error) {})
	})

	Warn(NewDataConversionWarning("value", "string", "float64", "parsed numeric strings"))
	Warn(NewDegenerateFeatureWarning("constant", "passed through unchanged"))
	Warn(NewConvergenceWarning("LogisticRegression", 100, ""))

	require.Len(t, got, 3)
	assert.Equal(t, "column 'value' converted from string to float64. Reason: parsed numeric strings", got[0].Error())
	assert.Equal(t, "feature 'constant' has zero variance; passed through unchanged", got[1].Error())
	assert.True(t, strings.HasPrefix(got[2].Error(), "LogisticRegression failed to converge after 100 iterations"))
}

func TestWarnPrefersZerologFunc(t *testing.T) {
	var handler, zl int
	SetWarningHandler(func(w error) { handler++ })
	SetZerologWarnFunc(func(w error) { zl++ })
	t.Cleanup(func() {
		SetZerologWarnFunc(nil)
		SetWarningHandler(func(w error) {})
	})

	Warn(NewUndefinedMetricWarning("precision", "no predicted positives", 0))

	assert.Equal(t, 0, handler)
	assert.Equal(t, 1, zl)
}

func TestWarnHandlerMayWarnAgain(t *testing.T) {
	var mu sync.Mutex
	var got []string
	SetWarningHandler(func(w error) {
		mu.Lock()
		got = append(got, w.Error())
		mu.Unlock()
		// ハンドラ内からの再警告でデッドロックしない
		if _, ok := w.(*DegenerateFeatureWarning); ok {
			Warn(NewDataConversionWarning("b", "string", "float64", "nested"))
		}
	})
	t.Cleanup(func() {
		SetWarningHandler(func(w error) {})
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		var wg sync.WaitGroup
		for i := 0; i < 4; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				Warn(NewDegenerateFeatureWarning("a", "passed through unchanged"))
			}()
		}
		wg.Wait()
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Warn deadlocked when called from a warning handler")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, got, 8)
}

func TestWrapAndIs(t *testing.T) {
	wrapped := Wrap(ErrEmptyData, "in PowerTransformer.Fit")

	assert.True(t, Is(wrapped, ErrEmptyData))
	assert.Contains(t, wrapped.Error(), "in PowerTransformer.Fit")

	wrappedf := Wrapf(ErrEmptyData, "in %s: expected %d, got %d", "Fit", 10, 0)
	assert.True(t, Is(wrappedf, ErrEmptyData))
	assert.Contains(t, wrappedf.Error(), "in Fit: expected 10, got 0")
}

func TestErrorChaining(t *testing.T) {
	err1 := fmt.Errorf("base error")
	err2 := Wrap(err1, "wrapped once")
	err3 := NewModelError("Operation", "failed", err2)

	assert.Contains(t, err3.Error(), "base error")

	// スタックトレースの確認（詳細表示）
	formatted := fmt.Sprintf("%+v", err3)
	assert.Contains(t, formatted, "errors_test.go")
}

func TestCheckNumericalStability(t *testing.T) {
	assert.NoError(t, CheckNumericalStability("weights", []float64{1, 2, 3}, 0))

	err := CheckNumericalStability("weights", []float64{1, inf(), 3}, 7)
	var instab *NumericalInstabilityError
	require.True(t, As(err, &instab))
	assert.Equal(t, 7, instab.Iteration)
}

func inf() float64 {
	var zero float64
	return 1 / zero
}
