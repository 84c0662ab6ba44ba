package preprocessing

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// DropNaN はNaNを除いた値のコピーを返す
func DropNaN(x []float64) []float64 {
	out := make([]float64, 0, len(x))
	for _, v := range x {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// ColumnVariance はNaNを無視した母分散を返す。有効な値がない場合は0。
func ColumnVariance(x []float64) float64 {
	finite := DropNaN(x)
	if len(finite) == 0 {
		return 0
	}
	_, variance := stat.PopMeanVariance(finite, nil)
	return variance
}

// IsConstant はNaNを除いた値がすべて等しい（または有効な値がない）場合にtrueを返す
func IsConstant(x []float64) bool {
	finite := DropNaN(x)
	if len(finite) == 0 {
		return true
	}
	return floats.Max(finite) == floats.Min(finite)
}

func column(X mat.Matrix, j int) []float64 {
	r, _ := X.Dims()
	out := make([]float64, r)
	for i := 0; i < r; i++ {
		out[i] = X.At(i, j)
	}
	return out
}
