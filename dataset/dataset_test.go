package dataset

import (
	"math"
	"testing"

	"github.com/YuminosukeSato/fraudflow/pkg/errors"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func sample() dataframe.DataFrame {
	return dataframe.New(
		series.New([]float64{1.0, 2.0, 3.0}, series.Float, "a"),
		series.New([]int{10, 20, 30}, series.Int, "flag"),
		series.New([]string{"0.5", " 1.5 ", "2.5"}, series.String, "text"),
	)
}

func captureWarnings(t *testing.T) *[]error {
	t.Helper()
	var got []error
	errors.SetWarningHandler(func(w error) { got = append(got, w) })
	t.Cleanup(func() { errors.SetWarningHandler(func(error) {}) })
	return &got
}

func TestRequireColumns(t *testing.T) {
	df := sample()
	assert.NoError(t, RequireColumns("test", df, "a", "flag"))

	err := RequireColumns("test", df, "a", "FLAG")
	var missing *errors.MissingColumnError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "FLAG", missing.Column)
	assert.Equal(t, []string{"a", "flag", "text"}, missing.Available)
}

func TestFloatColumn(t *testing.T) {
	warnings := captureWarnings(t)
	df := dataframe.New(
		series.New([]string{"1", "NaN", "3"}, series.Float, "f"),
		series.New([]string{"4", "NaN", "6"}, series.Int, "i"),
		series.New([]bool{true, false, true}, series.Bool, "b"),
		series.New([]string{"1e3", "", "-2"}, series.String, "s"),
		series.New([]string{"1", "two", "3"}, series.String, "bad"),
	)

	f, err := FloatColumn("test", df, "f")
	require.NoError(t, err)
	assert.Equal(t, 1.0, f[0])
	assert.True(t, math.IsNaN(f[1]))

	i, err := FloatColumn("test", df, "i")
	require.NoError(t, err)
	assert.Equal(t, 6.0, i[2])
	assert.True(t, math.IsNaN(i[1]))

	b, err := FloatColumn("test", df, "b")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 0, 1}, b)
	assert.Empty(t, *warnings)

	s, err := FloatColumn("test", df, "s")
	require.NoError(t, err)
	assert.Equal(t, 1000.0, s[0])
	assert.True(t, math.IsNaN(s[1]))
	assert.Equal(t, -2.0, s[2])
	require.Len(t, *warnings, 1)
	var conv *errors.DataConversionWarning
	assert.True(t, errors.As((*warnings)[0], &conv))

	_, err = FloatColumn("test", df, "bad")
	var nonNumeric *errors.NonNumericFeatureError
	require.True(t, errors.As(err, &nonNumeric))
	assert.Equal(t, "bad", nonNumeric.Column)
	assert.Equal(t, 1, nonNumeric.Row)
	assert.Equal(t, "two", nonNumeric.Value)

	_, err = FloatColumn("test", df, "nope")
	var missing *errors.MissingColumnError
	assert.True(t, errors.As(err, &missing))
}

func TestFeatureColumns(t *testing.T) {
	df := sample()

	tests := []struct {
		name     string
		selected []string
		want     []string
		check    func(t *testing.T, err error)
	}{
		{name: "all but target", want: []string{"a", "text"}},
		{name: "selected subset", selected: []string{"text"}, want: []string{"text"}},
		{name: "duplicates collapse", selected: []string{"a", "a"}, want: []string{"a"}},
		{
			name:     "target selected",
			selected: []string{"a", "flag"},
			check: func(t *testing.T, err error) {
				var validation *errors.ValidationError
				assert.True(t, errors.As(err, &validation))
			},
		},
		{
			name:     "missing selected",
			selected: []string{"zzz"},
			check: func(t *testing.T, err error) {
				var missing *errors.MissingColumnError
				assert.True(t, errors.As(err, &missing))
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FeatureColumns("test", df, "flag", tt.selected)
			if tt.check != nil {
				tt.check(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToMatrixAndReplaceColumns(t *testing.T) {
	captureWarnings(t)
	df := sample()

	m, err := ToMatrix("test", df, []string{"a", "text"})
	require.NoError(t, err)
	r, c := m.Dims()
	assert.Equal(t, 3, r)
	assert.Equal(t, 2, c)
	assert.Equal(t, 1.5, m.At(1, 1))

	m.Scale(2, m)
	out := ReplaceColumns(df, []string{"a", "text"}, m)
	assert.Equal(t, []string{"a", "flag", "text"}, out.Names())
	assert.Equal(t, series.Float, out.Col("text").Type())
	assert.Equal(t, []float64{2, 4, 6}, out.Col("a").Float())
	// 入力は変更されない
	assert.Equal(t, []float64{1, 2, 3}, df.Col("a").Float())

	_, err = ToMatrix("test", df, nil)
	assert.True(t, errors.Is(err, errors.ErrEmptyData))
}

func TestFromColumns(t *testing.T) {
	df := FromColumns([]string{"x", "y"}, [][]float64{{1, 2}, {3, 4}})
	assert.Equal(t, []string{"x", "y"}, df.Names())
	assert.Equal(t, []float64{3, 4}, df.Col("y").Float())

	m := mat.NewDense(2, 1, []float64{9, 8})
	out := ReplaceColumns(df, []string{"y"}, m)
	assert.Equal(t, []float64{9, 8}, out.Col("y").Float())
}

func TestReorderTargetLast(t *testing.T) {
	out := ReorderTargetLast(sample(), "flag")
	assert.Equal(t, []string{"a", "text", "flag"}, out.Names())
	assert.Equal(t, 3, out.Nrow())
}

func TestSubset(t *testing.T) {
	out := Subset(sample(), []int{2, 0})
	assert.Equal(t, []float64{3, 1}, out.Col("a").Float())
}
