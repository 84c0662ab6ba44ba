// Package metrics は二値分類モデルの評価指標を提供します。
package metrics

import (
	"math"
	"sort"

	"github.com/YuminosukeSato/fraudflow/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// logLossEpsilon は log(0) を避けるための確率のクリップ幅
const logLossEpsilon = 1e-15

func checkPair(op string, yTrue, yPred *mat.VecDense) (int, error) {
	if yTrue == nil || yPred == nil {
		return 0, errors.NewValueError(op, "nil vector")
	}
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError(op, "empty vector")
	}
	if yPred.Len() != n {
		return 0, errors.NewDimensionError(op, n, yPred.Len(), 0)
	}
	return n, nil
}

func checkBinary(op string, y *mat.VecDense) error {
	for i := 0; i < y.Len(); i++ {
		if v := y.AtVec(i); v != 0 && v != 1 {
			return errors.NewValueError(op, "labels must be 0 or 1")
		}
	}
	return nil
}

// AUC はROC曲線下面積を計算する
//
// 同順位のスコアには平均順位を与える（Mann-Whitney U統計量と同値）。
// 正例または負例しか含まれない場合は未定義のため0.5を返し、
// UndefinedMetricWarningを発行する。
func AUC(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("AUC", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	if err := checkBinary("AUC", yTrue); err != nil {
		return 0, err
	}

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return yPred.AtVec(idx[a]) < yPred.AtVec(idx[b])
	})

	// 平均順位（1始まり）
	ranks := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j+1 < n && yPred.AtVec(idx[j+1]) == yPred.AtVec(idx[i]) {
			j++
		}
		avg := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			ranks[idx[k]] = avg
		}
		i = j + 1
	}

	var nPos, rankSum float64
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == 1 {
			nPos++
			rankSum += ranks[i]
		}
	}
	nNeg := float64(n) - nPos
	if nPos == 0 || nNeg == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("AUC", "only one class present in y_true", 0.5))
		return 0.5, nil
	}
	return (rankSum - nPos*(nPos+1)/2) / (nPos * nNeg), nil
}

// AUCMatrix は行列形式の入力の1列目に対してAUCを計算する
func AUCMatrix(yTrue, yPred mat.Matrix) (float64, error) {
	yt, yp, err := firstColumns("AUCMatrix", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return AUC(yt, yp)
}

// BinaryLogLoss は二値交差エントロピーを計算する。
// 予測確率は [eps, 1-eps] にクリップされる。
func BinaryLogLoss(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("BinaryLogLoss", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	if err := checkBinary("BinaryLogLoss", yTrue); err != nil {
		return 0, err
	}

	var sum float64
	for i := 0; i < n; i++ {
		p := errors.ClipValue(yPred.AtVec(i), logLossEpsilon, 1-logLossEpsilon)
		if yTrue.AtVec(i) == 1 {
			sum -= math.Log(p)
		} else {
			sum -= math.Log(1 - p)
		}
	}
	return sum / float64(n), nil
}

// Accuracy は正解率を計算する
func Accuracy(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("Accuracy", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	correct := 0
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == yPred.AtVec(i) {
			correct++
		}
	}
	return float64(correct) / float64(n), nil
}

// ClassificationError は誤分類率 (1 - Accuracy) を計算する
func ClassificationError(yTrue, yPred *mat.VecDense) (float64, error) {
	acc, err := Accuracy(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return 1 - acc, nil
}

// ConfusionMatrix は二値分類の混同行列
type ConfusionMatrix struct {
	TrueNegative  int `yaml:"true_negative" json:"true_negative"`
	FalsePositive int `yaml:"false_positive" json:"false_positive"`
	FalseNegative int `yaml:"false_negative" json:"false_negative"`
	TruePositive  int `yaml:"true_positive" json:"true_positive"`
}

// NewConfusionMatrix は0/1ラベルから混同行列を作成する
func NewConfusionMatrix(yTrue, yPred *mat.VecDense) (ConfusionMatrix, error) {
	n, err := checkPair("ConfusionMatrix", yTrue, yPred)
	if err != nil {
		return ConfusionMatrix{}, err
	}
	if err := checkBinary("ConfusionMatrix", yTrue); err != nil {
		return ConfusionMatrix{}, err
	}
	if err := checkBinary("ConfusionMatrix", yPred); err != nil {
		return ConfusionMatrix{}, err
	}

	var cm ConfusionMatrix
	for i := 0; i < n; i++ {
		switch actual, pred := yTrue.AtVec(i), yPred.AtVec(i); {
		case actual == 1 && pred == 1:
			cm.TruePositive++
		case actual == 1:
			cm.FalseNegative++
		case pred == 1:
			cm.FalsePositive++
		default:
			cm.TrueNegative++
		}
	}
	return cm, nil
}

// Precision は TP / (TP + FP)。陽性予測がない場合は0でUndefinedMetricWarningを発行する。
func (cm ConfusionMatrix) Precision() float64 {
	return ratio("precision", "no predicted positives", cm.TruePositive, cm.TruePositive+cm.FalsePositive)
}

// Recall は TP / (TP + FN)。正例がない場合は0でUndefinedMetricWarningを発行する。
func (cm ConfusionMatrix) Recall() float64 {
	return ratio("recall", "no true positives in y_true", cm.TruePositive, cm.TruePositive+cm.FalseNegative)
}

// F1 は適合率と再現率の調和平均
func (cm ConfusionMatrix) F1() float64 {
	denom := 2*cm.TruePositive + cm.FalsePositive + cm.FalseNegative
	return ratio("f1", "no positives in y_true or y_pred", 2*cm.TruePositive, denom)
}

func ratio(metric, condition string, num, denom int) float64 {
	if denom == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning(metric, condition, 0))
		return 0
	}
	return float64(num) / float64(denom)
}

// Report は評価ステップが出力する指標一式
type Report struct {
	Samples   int             `yaml:"samples" json:"samples"`
	Accuracy  float64         `yaml:"accuracy" json:"accuracy"`
	Precision float64         `yaml:"precision" json:"precision"`
	Recall    float64         `yaml:"recall" json:"recall"`
	F1        float64         `yaml:"f1" json:"f1"`
	AUC       float64         `yaml:"auc" json:"auc"`
	LogLoss   float64         `yaml:"log_loss" json:"log_loss"`
	Confusion ConfusionMatrix `yaml:"confusion_matrix" json:"confusion_matrix"`
}

// Evaluate は予測ラベル yPred と陽性確率 yProba から Report を作成する
func Evaluate(yTrue, yPred, yProba *mat.VecDense) (Report, error) {
	cm, err := NewConfusionMatrix(yTrue, yPred)
	if err != nil {
		return Report{}, err
	}
	acc, err := Accuracy(yTrue, yPred)
	if err != nil {
		return Report{}, err
	}
	auc, err := AUC(yTrue, yProba)
	if err != nil {
		return Report{}, err
	}
	loss, err := BinaryLogLoss(yTrue, yProba)
	if err != nil {
		return Report{}, err
	}
	return Report{
		Samples:   yTrue.Len(),
		Accuracy:  acc,
		Precision: cm.Precision(),
		Recall:    cm.Recall(),
		F1:        cm.F1(),
		AUC:       auc,
		LogLoss:   loss,
		Confusion: cm,
	}, nil
}

func firstColumns(op string, yTrue, yPred mat.Matrix) (*mat.VecDense, *mat.VecDense, error) {
	if yTrue == nil || yPred == nil {
		return nil, nil, errors.NewValueError(op, "nil matrix")
	}
	if isEmpty(yTrue) || isEmpty(yPred) {
		return nil, nil, errors.NewValueError(op, "empty matrix")
	}
	rTrue, _ := yTrue.Dims()
	rPred, _ := yPred.Dims()
	if rTrue != rPred {
		return nil, nil, errors.NewDimensionError(op, rTrue, rPred, 0)
	}
	return mat.NewVecDense(rTrue, mat.Col(nil, 0, yTrue)), mat.NewVecDense(rPred, mat.Col(nil, 0, yPred)), nil
}

// isEmpty はゼロ値の Dense も空として扱う
func isEmpty(m mat.Matrix) bool {
	if d, ok := m.(*mat.Dense); ok && d.IsEmpty() {
		return true
	}
	r, c := m.Dims()
	return r == 0 || c == 0
}
