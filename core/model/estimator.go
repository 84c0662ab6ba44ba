// Package model は推定器が共有するインターフェースと学習状態の管理を提供します。
package model

import "gonum.org/v1/gonum/mat"

// EstimatorState はモデルの学習状態を表す
type EstimatorState int

const (
	// NotFitted はモデルが未学習の状態
	NotFitted EstimatorState = iota
	// Fitted はモデルが学習済みの状態
	Fitted
)

// BaseEstimator は前処理器に埋め込まれる学習状態
type BaseEstimator struct {
	state EstimatorState
}

// IsFitted はモデルが学習済みかどうかを返す
func (e *BaseEstimator) IsFitted() bool {
	return e.state == Fitted
}

// SetFitted はモデルを学習済み状態に設定する
func (e *BaseEstimator) SetFitted() {
	e.state = Fitted
}

// Reset はモデルを初期状態にリセットする
func (e *BaseEstimator) Reset() {
	e.state = NotFitted
}

// Transformer は列ごとの数値変換のインターフェース
type Transformer interface {
	// Fit は変換に必要なパラメータを学習する
	Fit(X mat.Matrix) error

	// Transform はデータを変換する
	Transform(X mat.Matrix) (mat.Matrix, error)

	// FitTransform はFitとTransformを同時に実行する
	FitTransform(X mat.Matrix) (mat.Matrix, error)
}

// InvertibleTransformer は逆変換が可能なTransformer
type InvertibleTransformer interface {
	Transformer

	// InverseTransform は変換後の値を元のスケールに戻す
	InverseTransform(X mat.Matrix) (mat.Matrix, error)
}

// Classifier は二値分類器のインターフェース
type Classifier interface {
	// Fit はモデルを訓練データで学習させる
	Fit(X, y mat.Matrix) error

	// Predict はクラスラベルを予測する
	Predict(X mat.Matrix) (mat.Matrix, error)

	// PredictProba は各クラスの確率を (n_samples × n_classes) で返す
	PredictProba(X mat.Matrix) (mat.Matrix, error)
}
