package preprocessing

import (
	"fmt"
	"math"

	"github.com/YuminosukeSato/fraudflow/core/model"
	"github.com/YuminosukeSato/fraudflow/core/parallel"
	"github.com/YuminosukeSato/fraudflow/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// PowerMethod はべき変換の種類を表す
type PowerMethod string

const (
	// MethodYeoJohnson は負の値も扱えるYeo-Johnson変換
	MethodYeoJohnson PowerMethod = "yeo-johnson"
	// MethodBoxCox は正の値のみを扱うBox-Cox変換
	MethodBoxCox PowerMethod = "box-cox"
)

// float64の最小正規化数。これ未満の分散は尤度計算で退化とみなす
const varianceTiny = 2.2250738585072014e-308

// machineEpsilon はnp.spacing(1.0)に相当する
const machineEpsilon = 2.220446049250313e-16

// parallelColumnThreshold を超える列数でλ推定を並列化する
const parallelColumnThreshold = 8

// PowerTransformer はscikit-learn互換のべき変換器
//
// 各特徴量ごとに最尤推定でλを求め、データをより正規分布に近づける。
// Standardize が true の場合は変換後に平均0、分散1へ標準化する。
type PowerTransformer struct {
	model.BaseEstimator

	// Method は変換の種類 (デフォルト: yeo-johnson)
	Method PowerMethod

	// Standardize は変換後に標準化するかどうか (デフォルト: true)
	Standardize bool

	// Lambdas は各特徴量について推定されたλ
	Lambdas []float64

	// NFeatures は特徴量の数
	NFeatures int

	scaler *StandardScaler
}

// PowerOption はPowerTransformerの関数オプション
type PowerOption func(*PowerTransformer)

// WithPowerMethod は変換の種類を設定する
func WithPowerMethod(method PowerMethod) PowerOption {
	return func(p *PowerTransformer) {
		p.Method = method
	}
}

// WithStandardize は変換後の標準化の有無を設定する
func WithStandardize(standardize bool) PowerOption {
	return func(p *PowerTransformer) {
		p.Standardize = standardize
	}
}

// NewPowerTransformer は新しいPowerTransformerを作成する
//
// 使用例:
//
//	pt := preprocessing.NewPowerTransformer()
//	XNorm, err := pt.FitTransform(X)
//	fmt.Println(pt.Lambdas)
func NewPowerTransformer(opts ...PowerOption) *PowerTransformer {
	p := &PowerTransformer{
		Method:      MethodYeoJohnson,
		Standardize: true,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Fit は各特徴量のλを推定する。NaNは無視される。
func (p *PowerTransformer) Fit(X mat.Matrix) error {
	_, err := p.fit(X, false)
	return err
}

// FitTransform は学習と変換を一度に行う
func (p *PowerTransformer) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	return p.fit(X, true)
}

func (p *PowerTransformer) fit(X mat.Matrix, transform bool) (mat.Matrix, error) {
	if err := p.validateMethod(); err != nil {
		return nil, err
	}
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return nil, errors.NewModelError("PowerTransformer.Fit", "empty data", errors.ErrEmptyData)
	}
	if p.Method == MethodBoxCox {
		if err := checkPositive("PowerTransformer.Fit", X); err != nil {
			return nil, err
		}
	}

	// 列ごとのλ推定は互いに独立
	lambdas := make([]float64, c)
	err := parallel.ForEach(c, parallelColumnThreshold, func(j int) error {
		lambda, err := p.optimizeLambda(DropNaN(column(X, j)))
		if err != nil {
			return errors.Wrapf(err, "PowerTransformer.Fit: column %d", j)
		}
		lambdas[j] = lambda
		return nil
	})
	if err != nil {
		return nil, err
	}

	p.Lambdas = lambdas
	p.NFeatures = c
	p.scaler = nil

	var transformed mat.Matrix
	if transform || p.Standardize {
		transformed = p.powerTransform(X)
	}
	if p.Standardize {
		p.scaler = NewStandardScalerDefault()
		scaled, err := p.scaler.FitTransform(transformed)
		if err != nil {
			return nil, err
		}
		transformed = scaled
	}

	p.SetFitted()
	if !transform {
		return nil, nil
	}
	if err := errors.CheckMatrix("PowerTransformer.FitTransform", transformed, r, c, 0); err != nil {
		return nil, err
	}
	return transformed, nil
}

// Transform は推定済みのλでデータを変換する
func (p *PowerTransformer) Transform(X mat.Matrix) (mat.Matrix, error) {
	if !p.IsFitted() {
		return nil, errors.NewNotFittedError("PowerTransformer", "Transform")
	}
	r, c := X.Dims()
	if c != p.NFeatures {
		return nil, errors.NewDimensionError("PowerTransformer.Transform", p.NFeatures, c, 1)
	}
	if p.Method == MethodBoxCox {
		if err := checkPositive("PowerTransformer.Transform", X); err != nil {
			return nil, err
		}
	}

	var result mat.Matrix = p.powerTransform(X)
	if p.scaler != nil {
		scaled, err := p.scaler.Transform(result)
		if err != nil {
			return nil, err
		}
		result = scaled
	}
	if err := errors.CheckMatrix("PowerTransformer.Transform", result, r, c, 0); err != nil {
		return nil, err
	}
	return result, nil
}

// InverseTransform は変換後のデータを元のスケールに戻す
func (p *PowerTransformer) InverseTransform(X mat.Matrix) (mat.Matrix, error) {
	if !p.IsFitted() {
		return nil, errors.NewNotFittedError("PowerTransformer", "InverseTransform")
	}
	r, c := X.Dims()
	if c != p.NFeatures {
		return nil, errors.NewDimensionError("PowerTransformer.InverseTransform", p.NFeatures, c, 1)
	}

	src := X
	if p.scaler != nil {
		unscaled, err := p.scaler.InverseTransform(X)
		if err != nil {
			return nil, err
		}
		src = unscaled
	}

	inverse := yeoJohnsonInverse
	if p.Method == MethodBoxCox {
		inverse = boxCoxInverse
	}
	result := mat.NewDense(r, c, nil)
	result.Apply(func(i, j int, v float64) float64 {
		if math.IsNaN(v) {
			return v
		}
		return inverse(v, p.Lambdas[j])
	}, src)
	return result, nil
}

// GetParams は変換器のパラメータを取得する
func (p *PowerTransformer) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"method":      string(p.Method),
		"standardize": p.Standardize,
	}
}

// String は変換器の文字列表現を返す
func (p *PowerTransformer) String() string {
	if !p.IsFitted() {
		return fmt.Sprintf("PowerTransformer(method=%s, standardize=%t)", p.Method, p.Standardize)
	}
	return fmt.Sprintf("PowerTransformer(method=%s, standardize=%t, n_features=%d)",
		p.Method, p.Standardize, p.NFeatures)
}

func (p *PowerTransformer) validateMethod() error {
	switch p.Method {
	case MethodYeoJohnson, MethodBoxCox:
		return nil
	default:
		return errors.NewValidationError("method", "must be 'yeo-johnson' or 'box-cox'", p.Method)
	}
}

func (p *PowerTransformer) powerTransform(X mat.Matrix) *mat.Dense {
	r, c := X.Dims()
	forward := yeoJohnson
	if p.Method == MethodBoxCox {
		forward = boxCox
	}
	result := mat.NewDense(r, c, nil)
	result.Apply(func(i, j int, v float64) float64 {
		if math.IsNaN(v) {
			return v
		}
		return forward(v, p.Lambdas[j])
	}, X)
	return result
}

// optimizeLambda は負の対数尤度をBrent法で最小化してλを求める。
// 定数列や有効な値のない列では尤度が定義できないため λ=1 を返す。
func (p *PowerTransformer) optimizeLambda(x []float64) (float64, error) {
	if IsConstant(x) {
		return 1.0, nil
	}
	nll := yeoJohnsonNegLogLikelihood(x)
	if p.Method == MethodBoxCox {
		nll = boxCoxNegLogLikelihood(x)
	}
	return brentMinimize(nll, -2.0, 2.0)
}

func checkPositive(op string, X mat.Matrix) error {
	r, c := X.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if v := X.At(i, j); !math.IsNaN(v) && v <= 0 {
				return errors.NewValueError(op, "the box-cox transformation can only be applied to strictly positive data")
			}
		}
	}
	return nil
}

// yeoJohnson は1つの値にYeo-Johnson変換を適用する
func yeoJohnson(x, lambda float64) float64 {
	if x >= 0 {
		if math.Abs(lambda) < machineEpsilon {
			return math.Log1p(x)
		}
		return (math.Pow(x+1, lambda) - 1) / lambda
	}
	if math.Abs(lambda-2) > machineEpsilon {
		return -(math.Pow(1-x, 2-lambda) - 1) / (2 - lambda)
	}
	return -math.Log1p(-x)
}

func yeoJohnsonInverse(y, lambda float64) float64 {
	if y >= 0 {
		if math.Abs(lambda) < machineEpsilon {
			return math.Expm1(y)
		}
		return math.Pow(y*lambda+1, 1/lambda) - 1
	}
	if math.Abs(lambda-2) > machineEpsilon {
		return 1 - math.Pow(-(2-lambda)*y+1, 1/(2-lambda))
	}
	return -math.Expm1(-y)
}

func boxCox(x, lambda float64) float64 {
	if lambda == 0 {
		return math.Log(x)
	}
	return (math.Pow(x, lambda) - 1) / lambda
}

func boxCoxInverse(y, lambda float64) float64 {
	if lambda == 0 {
		return math.Exp(y)
	}
	return math.Pow(y*lambda+1, 1/lambda)
}

// yeoJohnsonNegLogLikelihood は
// -(-n/2·log(var(ψ(x,λ))) + (λ-1)·Σ sign(x)·log1p(|x|)) を返す関数を作る
func yeoJohnsonNegLogLikelihood(x []float64) func(float64) float64 {
	n := float64(len(x))
	var signedLog float64
	for _, v := range x {
		s := 1.0
		if v < 0 {
			s = -1.0
		} else if v == 0 {
			s = 0
		}
		signedLog += s * math.Log1p(math.Abs(v))
	}
	buf := make([]float64, len(x))
	return func(lambda float64) float64 {
		for i, v := range x {
			buf[i] = yeoJohnson(v, lambda)
		}
		_, variance := stat.PopMeanVariance(buf, nil)
		if !(variance >= varianceTiny) || math.IsInf(variance, 0) {
			return math.Inf(1)
		}
		loglike := -n/2*math.Log(variance) + (lambda-1)*signedLog
		return -loglike
	}
}

// boxCoxNegLogLikelihood は
// -((λ-1)·Σ log x - n/2·log(var(bc(x,λ)))) を返す関数を作る
func boxCoxNegLogLikelihood(x []float64) func(float64) float64 {
	n := float64(len(x))
	var sumLog float64
	for _, v := range x {
		sumLog += math.Log(v)
	}
	buf := make([]float64, len(x))
	return func(lambda float64) float64 {
		for i, v := range x {
			buf[i] = boxCox(v, lambda)
		}
		_, variance := stat.PopMeanVariance(buf, nil)
		if !(variance >= varianceTiny) || math.IsInf(variance, 0) {
			return math.Inf(1)
		}
		loglike := (lambda-1)*sumLog - n/2*math.Log(variance)
		return -loglike
	}
}
