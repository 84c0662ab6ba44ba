// Package dataset holds the column-level helpers shared by the pipeline
// steps and feature strategies. A dataset is a gota DataFrame; every helper
// returns a new DataFrame and never mutates its input.
package dataset

import (
	"math"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/fraudflow/pkg/errors"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"gonum.org/v1/gonum/mat"
)

// HasColumn reports whether df has a column called name.
func HasColumn(df dataframe.DataFrame, name string) bool {
	for _, n := range df.Names() {
		if n == name {
			return true
		}
	}
	return false
}

// RequireColumns returns a MissingColumnError for the first name that is not
// a column of df.
func RequireColumns(op string, df dataframe.DataFrame, names ...string) error {
	for _, name := range names {
		if !HasColumn(df, name) {
			return errors.NewMissingColumnError(op, name, df.Names())
		}
	}
	return nil
}

// FloatColumn returns the named column as float64 values with NA mapped to
// NaN. Float, Int and Bool columns convert directly. String columns are
// parsed after trimming whitespace; an empty cell counts as missing and any
// other unparsable cell yields a NonNumericFeatureError. A successful string
// conversion emits a DataConversionWarning.
func FloatColumn(op string, df dataframe.DataFrame, name string) ([]float64, error) {
	if err := RequireColumns(op, df, name); err != nil {
		return nil, err
	}
	s := df.Col(name)
	out := make([]float64, s.Len())

	switch s.Type() {
	case series.Float:
		copy(out, s.Float())
		return out, nil
	case series.Int:
		for i := range out {
			e := s.Elem(i)
			if e.IsNA() {
				out[i] = math.NaN()
				continue
			}
			v, err := e.Int()
			if err != nil {
				return nil, errors.NewNonNumericFeatureError(op, name, i, e.String())
			}
			out[i] = float64(v)
		}
		return out, nil
	case series.Bool:
		for i := range out {
			e := s.Elem(i)
			if e.IsNA() {
				out[i] = math.NaN()
				continue
			}
			b, err := e.Bool()
			if err != nil {
				return nil, errors.NewNonNumericFeatureError(op, name, i, e.String())
			}
			if b {
				out[i] = 1
			}
		}
		return out, nil
	}

	for i := range out {
		e := s.Elem(i)
		raw := strings.TrimSpace(e.String())
		if e.IsNA() || raw == "" {
			out[i] = math.NaN()
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, errors.NewNonNumericFeatureError(op, name, i, e.String())
		}
		out[i] = v
	}
	errors.Warn(errors.NewDataConversionWarning(name, string(s.Type()), "float64", "column holds numeric text"))
	return out, nil
}

// FeatureColumns resolves the feature columns a transformation applies to.
// An empty selection means every column except target, in input order.
// A selection naming target is rejected with a ValidationError; a selected
// column missing from df yields a MissingColumnError.
func FeatureColumns(op string, df dataframe.DataFrame, target string, selected []string) ([]string, error) {
	if len(selected) == 0 {
		names := make([]string, 0, df.Ncol())
		for _, n := range df.Names() {
			if n != target {
				names = append(names, n)
			}
		}
		return names, nil
	}

	seen := make(map[string]struct{}, len(selected))
	names := make([]string, 0, len(selected))
	for _, n := range selected {
		if n == target {
			return nil, errors.NewValidationError("features", "must not include the target column", n)
		}
		if _, dup := seen[n]; dup {
			continue
		}
		if err := RequireColumns(op, df, n); err != nil {
			return nil, err
		}
		seen[n] = struct{}{}
		names = append(names, n)
	}
	return names, nil
}

// ToMatrix builds an (nrow × len(names)) matrix from the named columns
// using FloatColumn coercion.
func ToMatrix(op string, df dataframe.DataFrame, names []string) (*mat.Dense, error) {
	if df.Nrow() == 0 || len(names) == 0 {
		return nil, errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	m := mat.NewDense(df.Nrow(), len(names), nil)
	for j, name := range names {
		values, err := FloatColumn(op, df, name)
		if err != nil {
			return nil, err
		}
		m.SetCol(j, values)
	}
	return m, nil
}

// ReplaceColumns returns a copy of df where column names[j] holds column j
// of m as a float series. Column positions are unchanged.
func ReplaceColumns(df dataframe.DataFrame, names []string, m mat.Matrix) dataframe.DataFrame {
	out := df.Copy()
	for j, name := range names {
		out = out.Mutate(series.New(mat.Col(nil, j, m), series.Float, name))
	}
	return out
}

// FromColumns builds a DataFrame of float series, one per name.
func FromColumns(names []string, cols [][]float64) dataframe.DataFrame {
	s := make([]series.Series, len(names))
	for i, name := range names {
		s[i] = series.New(cols[i], series.Float, name)
	}
	return dataframe.New(s...)
}

// ReorderTargetLast moves target to the last position and keeps every other
// column in input order.
func ReorderTargetLast(df dataframe.DataFrame, target string) dataframe.DataFrame {
	order := make([]string, 0, df.Ncol())
	for _, n := range df.Names() {
		if n != target {
			order = append(order, n)
		}
	}
	return df.Select(append(order, target))
}

// Subset returns the rows of df at the given indexes, in that order.
func Subset(df dataframe.DataFrame, rows []int) dataframe.DataFrame {
	return df.Subset(rows)
}
