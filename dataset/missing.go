package dataset

import (
	"math"
	"sort"

	"github.com/YuminosukeSato/fraudflow/pkg/errors"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"gonum.org/v1/gonum/stat"
)

// FillMethod selects how FillNA computes the replacement value.
type FillMethod string

const (
	FillMean     FillMethod = "mean"
	FillMedian   FillMethod = "median"
	FillConstant FillMethod = "constant"
)

// CountNA returns the number of missing cells per column.
func CountNA(df dataframe.DataFrame) map[string]int {
	counts := make(map[string]int, df.Ncol())
	for _, name := range df.Names() {
		s := df.Col(name)
		n := 0
		for i := 0; i < s.Len(); i++ {
			if s.Elem(i).IsNA() {
				n++
			}
		}
		counts[name] = n
	}
	return counts
}

// DropNA removes every row holding a missing value in any column.
func DropNA(df dataframe.DataFrame) dataframe.DataFrame {
	keep := make([]int, 0, df.Nrow())
	cols := make([]series.Series, df.Ncol())
	for j, name := range df.Names() {
		cols[j] = df.Col(name)
	}
	for i := 0; i < df.Nrow(); i++ {
		complete := true
		for _, s := range cols {
			if s.Elem(i).IsNA() {
				complete = false
				break
			}
		}
		if complete {
			keep = append(keep, i)
		}
	}
	switch len(keep) {
	case df.Nrow():
		return df.Copy()
	case 0:
		empty := make([]series.Series, len(cols))
		for j, s := range cols {
			empty[j] = series.New([]string{}, s.Type(), s.Name)
		}
		return dataframe.New(empty...)
	}
	return df.Subset(keep)
}

// FillNA replaces missing values in numeric columns. Filled Int columns
// become Float columns. Non-numeric columns are returned unchanged.
func FillNA(op string, df dataframe.DataFrame, method FillMethod, constant float64) (dataframe.DataFrame, error) {
	switch method {
	case FillMean, FillMedian, FillConstant:
	default:
		return dataframe.DataFrame{}, errors.NewValidationError("fill_method", "must be one of mean, median, constant", method)
	}

	out := df.Copy()
	for _, name := range df.Names() {
		s := df.Col(name)
		if s.Type() != series.Float && s.Type() != series.Int {
			continue
		}
		values, err := FloatColumn(op, df, name)
		if err != nil {
			return dataframe.DataFrame{}, err
		}
		finite := make([]float64, 0, len(values))
		for _, v := range values {
			if !math.IsNaN(v) {
				finite = append(finite, v)
			}
		}
		if len(finite) == len(values) {
			continue
		}

		fill := constant
		switch method {
		case FillMean:
			fill = stat.Mean(finite, nil)
		case FillMedian:
			fill = median(finite)
		}
		if math.IsNaN(fill) {
			fill = constant
		}
		for i, v := range values {
			if math.IsNaN(v) {
				values[i] = fill
			}
		}
		out = out.Mutate(series.New(values, series.Float, name))
	}
	return out, nil
}

// median averages the two middle values for even lengths. An empty input
// yields NaN.
func median(x []float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	sorted := append([]float64(nil), x...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
