// Package linear_model provides the binary logistic regression classifier
// trained by the pipeline's modelling step.
package linear_model

import (
	"math"
	"math/rand"
	"sort"

	"github.com/YuminosukeSato/fraudflow/core/model"
	"github.com/YuminosukeSato/fraudflow/pkg/errors"
	"github.com/YuminosukeSato/fraudflow/pkg/log"
	"gonum.org/v1/gonum/mat"
)

const modelName = "LogisticRegression"

// LogisticRegression is a binary logistic regression classifier fitted by
// full-batch gradient descent with optional L2 regularisation.
// Hyperparameter names follow scikit-learn's LogisticRegression.
type LogisticRegression struct {
	state *model.StateManager

	// Hyperparameters
	penalty      string  // Regularization: "l2" or "none"
	C            float64 // Inverse regularization strength (1/alpha)
	fitIntercept bool
	classWeight  string // "balanced" or "none"
	randomState  int64  // Seed for weight initialisation, negative for a random seed
	maxIter      int
	tol          float64

	// Model parameters
	coef      []float64
	intercept float64
	classes   []int // classes[1] is the positive class
	nIter     int

	rand *rand.Rand
}

// LogisticRegressionOption is a functional option for LogisticRegression
type LogisticRegressionOption func(*LogisticRegression)

// NewLogisticRegression creates a new LogisticRegression classifier
func NewLogisticRegression(opts ...LogisticRegressionOption) *LogisticRegression {
	lr := &LogisticRegression{
		state:        model.NewStateManager(modelName),
		penalty:      "l2",
		C:            1.0,
		fitIntercept: true,
		classWeight:  "none",
		randomState:  -1,
		maxIter:      100,
		tol:          1e-4,
	}
	for _, opt := range opts {
		opt(lr)
	}
	seed := lr.randomState
	if seed < 0 {
		seed = rand.Int63()
	}
	lr.rand = rand.New(rand.NewSource(seed))
	return lr
}

// WithLRPenalty sets the regularization type
func WithLRPenalty(penalty string) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.penalty = penalty
	}
}

// WithLRC sets the inverse regularization strength
func WithLRC(c float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.C = c
	}
}

// WithLogisticFitIntercept sets whether to fit intercept
func WithLogisticFitIntercept(fit bool) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.fitIntercept = fit
	}
}

// WithLRClassWeight sets the class weighting, "balanced" or "none".
// Balanced weights are n_samples / (2 * n_samples_in_class).
func WithLRClassWeight(classWeight string) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.classWeight = classWeight
	}
}

// WithLRMaxIter sets the maximum number of iterations
func WithLRMaxIter(maxIter int) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.maxIter = maxIter
	}
}

// WithLRTol sets the tolerance for stopping criteria
func WithLRTol(tol float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.tol = tol
	}
}

// WithLRRandomState sets the random seed
func WithLRRandomState(seed int64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.randomState = seed
	}
}

func (lr *LogisticRegression) validate() error {
	switch {
	case lr.penalty != "l2" && lr.penalty != "none":
		return errors.NewValidationError("penalty", "must be 'l2' or 'none'", lr.penalty)
	case lr.C <= 0:
		return errors.NewValidationError("C", "must be positive", lr.C)
	case lr.classWeight != "balanced" && lr.classWeight != "none":
		return errors.NewValidationError("class_weight", "must be 'balanced' or 'none'", lr.classWeight)
	case lr.maxIter <= 0:
		return errors.NewValidationError("max_iter", "must be positive", lr.maxIter)
	case lr.tol <= 0:
		return errors.NewValidationError("tol", "must be positive", lr.tol)
	}
	return nil
}

// Fit trains the model on X (n_samples × n_features) and y (n_samples × 1).
// y must hold exactly two distinct integer labels; the larger one is the
// positive class.
func (lr *LogisticRegression) Fit(X, y mat.Matrix) error {
	if err := lr.validate(); err != nil {
		return err
	}
	nSamples, nFeatures := X.Dims()
	yRows, yCols := y.Dims()
	if nSamples == 0 || nFeatures == 0 {
		return errors.NewModelError("LogisticRegression.Fit", "empty data", errors.ErrEmptyData)
	}
	if nSamples != yRows {
		return errors.NewDimensionError("LogisticRegression.Fit", nSamples, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewDimensionError("LogisticRegression.Fit", 1, yCols, 1)
	}
	if err := checkFinite("LogisticRegression.Fit", X); err != nil {
		return err
	}

	classes := uniqueClasses(y)
	if len(classes) != 2 {
		return errors.NewValueError("LogisticRegression.Fit", "binary classification requires exactly two classes in y")
	}
	lr.classes = classes

	target := mat.NewVecDense(nSamples, nil)
	for i := 0; i < nSamples; i++ {
		if int(y.At(i, 0)) == classes[1] {
			target.SetVec(i, 1)
		}
	}
	weights := lr.sampleWeights(target)

	lr.coef = make([]float64, nFeatures)
	for j := range lr.coef {
		lr.coef[j] = lr.rand.NormFloat64() * 0.01
	}
	lr.intercept = 0

	lr.fitBinary(X, target, weights)

	if err := errors.CheckNumericalStability("LogisticRegression.Fit", lr.coef, lr.nIter); err != nil {
		return err
	}
	lr.state.SetFitted(nFeatures, nSamples)

	log.GetLoggerWithName("linear_model").Debug("LogisticRegression fitted",
		log.ModelNameKey, modelName,
		log.SamplesKey, nSamples,
		log.FeaturesKey, nFeatures,
		log.IterationKey, lr.nIter,
	)
	return nil
}

// sampleWeights returns per-sample weights for the 0/1 target vector.
func (lr *LogisticRegression) sampleWeights(target *mat.VecDense) *mat.VecDense {
	n := target.Len()
	w := mat.NewVecDense(n, nil)
	var nPos float64
	for i := 0; i < n; i++ {
		nPos += target.AtVec(i)
	}
	wPos, wNeg := 1.0, 1.0
	if lr.classWeight == "balanced" {
		wPos = float64(n) / (2 * nPos)
		wNeg = float64(n) / (2 * (float64(n) - nPos))
	}
	for i := 0; i < n; i++ {
		if target.AtVec(i) == 1 {
			w.SetVec(i, wPos)
		} else {
			w.SetVec(i, wNeg)
		}
	}
	return w
}

// fitBinary runs gradient descent with a decaying learning rate. It stops
// once the largest gradient component falls below tol.
func (lr *LogisticRegression) fitBinary(X mat.Matrix, target, weights *mat.VecDense) {
	nSamples, nFeatures := X.Dims()
	coef := mat.NewVecDense(nFeatures, lr.coef)
	residual := mat.NewVecDense(nSamples, nil)
	grad := mat.NewVecDense(nFeatures, nil)
	var z mat.VecDense

	const baseLearningRate = 1.0
	converged := false

	for iter := 0; iter < lr.maxIter; iter++ {
		z.MulVec(X, coef)
		gradIntercept := 0.0
		for i := 0; i < nSamples; i++ {
			r := weights.AtVec(i) * (sigmoid(z.AtVec(i)+lr.intercept) - target.AtVec(i))
			residual.SetVec(i, r)
			gradIntercept += r
		}
		grad.MulVec(X.T(), residual)
		grad.ScaleVec(1/float64(nSamples), grad)
		gradIntercept /= float64(nSamples)

		if lr.penalty == "l2" {
			grad.AddScaledVec(grad, 1/lr.C, coef)
		}

		learningRate := baseLearningRate / (1.0 + 0.1*float64(iter))
		coef.AddScaledVec(coef, -learningRate, grad)
		if lr.fitIntercept {
			lr.intercept -= learningRate * gradIntercept
		}
		lr.nIter = iter + 1

		maxGrad := math.Abs(gradIntercept)
		for j := 0; j < nFeatures; j++ {
			maxGrad = math.Max(maxGrad, math.Abs(grad.AtVec(j)))
		}
		if maxGrad < lr.tol {
			converged = true
			break
		}
	}

	if !converged {
		errors.Warn(errors.NewConvergenceWarning(modelName, lr.maxIter, "increase max_iter or scale the features"))
	}
}

// DecisionFunction returns the linear score X·coef + intercept.
func (lr *LogisticRegression) DecisionFunction(X mat.Matrix) (*mat.VecDense, error) {
	if err := lr.state.RequireFitted("DecisionFunction"); err != nil {
		return nil, err
	}
	nSamples, nFeatures := X.Dims()
	if err := lr.state.RequireFeatures("LogisticRegression.DecisionFunction", nFeatures); err != nil {
		return nil, err
	}
	scores := mat.NewVecDense(nSamples, nil)
	scores.MulVec(X, mat.NewVecDense(nFeatures, lr.coef))
	for i := 0; i < nSamples; i++ {
		scores.SetVec(i, scores.AtVec(i)+lr.intercept)
	}
	return scores, nil
}

// Predict returns the predicted class label for each row as an n × 1 matrix.
func (lr *LogisticRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	scores, err := lr.DecisionFunction(X)
	if err != nil {
		return nil, err
	}
	n := scores.Len()
	predictions := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		label := lr.classes[0]
		if sigmoid(scores.AtVec(i)) >= 0.5 {
			label = lr.classes[1]
		}
		predictions.Set(i, 0, float64(label))
	}
	return predictions, nil
}

// PredictProba returns an n × 2 matrix with P(classes[0]) and P(classes[1]).
func (lr *LogisticRegression) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	scores, err := lr.DecisionFunction(X)
	if err != nil {
		return nil, err
	}
	n := scores.Len()
	probas := mat.NewDense(n, 2, nil)
	for i := 0; i < n; i++ {
		p := sigmoid(scores.AtVec(i))
		probas.Set(i, 0, 1-p)
		probas.Set(i, 1, p)
	}
	return probas, nil
}

// Score returns the mean accuracy on the given test data and labels
func (lr *LogisticRegression) Score(X, y mat.Matrix) (float64, error) {
	predictions, err := lr.Predict(X)
	if err != nil {
		return 0, err
	}
	nSamples, _ := X.Dims()
	if rows, _ := y.Dims(); rows != nSamples {
		return 0, errors.NewDimensionError("LogisticRegression.Score", nSamples, rows, 0)
	}
	correct := 0
	for i := 0; i < nSamples; i++ {
		if predictions.At(i, 0) == y.At(i, 0) {
			correct++
		}
	}
	return float64(correct) / float64(nSamples), nil
}

// Coef returns a copy of the fitted coefficients.
func (lr *LogisticRegression) Coef() []float64 {
	return append([]float64(nil), lr.coef...)
}

// Intercept returns the fitted intercept.
func (lr *LogisticRegression) Intercept() float64 {
	return lr.intercept
}

// Classes returns the two class labels, negative class first.
func (lr *LogisticRegression) Classes() []int {
	return append([]int(nil), lr.classes...)
}

// NIter returns the number of gradient steps taken by the last Fit.
func (lr *LogisticRegression) NIter() int {
	return lr.nIter
}

// GetParams returns the model hyperparameters
func (lr *LogisticRegression) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"penalty":       lr.penalty,
		"C":             lr.C,
		"fit_intercept": lr.fitIntercept,
		"class_weight":  lr.classWeight,
		"random_state":  lr.randomState,
		"max_iter":      lr.maxIter,
		"tol":           lr.tol,
	}
}

// ExportWeights returns the fitted parameters for serialisation. features
// names the columns of X in order and may be nil.
func (lr *LogisticRegression) ExportWeights(features []string) (*model.ModelWeights, error) {
	if err := lr.state.RequireFitted("ExportWeights"); err != nil {
		return nil, err
	}
	nFeatures, nSamples := lr.state.Dimensions()
	mw := &model.ModelWeights{
		ModelType:       modelName,
		Version:         model.WeightsVersion,
		Coefficients:    lr.Coef(),
		Intercept:       lr.intercept,
		Classes:         lr.Classes(),
		Features:        append([]string(nil), features...),
		Hyperparameters: lr.GetParams(),
		Metadata: map[string]interface{}{
			"n_features": nFeatures,
			"n_samples":  nSamples,
			"n_iter":     lr.nIter,
		},
		IsFitted: true,
	}
	if err := mw.Validate(); err != nil {
		return nil, err
	}
	return mw, nil
}

// ImportWeights restores a model exported by ExportWeights.
func (lr *LogisticRegression) ImportWeights(mw *model.ModelWeights) error {
	if err := mw.Validate(); err != nil {
		return err
	}
	if mw.ModelType != modelName {
		return errors.NewValidationError("model_type", "expected "+modelName, mw.ModelType)
	}
	if len(mw.Classes) != 2 {
		return errors.NewValidationError("classes", "binary model requires two classes", mw.Classes)
	}
	lr.coef = append([]float64(nil), mw.Coefficients...)
	lr.intercept = mw.Intercept
	lr.classes = append([]int(nil), mw.Classes...)
	lr.state.SetFitted(len(lr.coef), 0)
	return nil
}

func uniqueClasses(y mat.Matrix) []int {
	rows, _ := y.Dims()
	seen := make(map[int]struct{})
	for i := 0; i < rows; i++ {
		seen[int(y.At(i, 0))] = struct{}{}
	}
	classes := make([]int, 0, len(seen))
	for c := range seen {
		classes = append(classes, c)
	}
	sort.Ints(classes)
	return classes
}

func checkFinite(op string, X mat.Matrix) error {
	r, c := X.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if v := X.At(i, j); math.IsNaN(v) || math.IsInf(v, 0) {
				return errors.NewValueError(op, "input contains NaN or infinity")
			}
		}
	}
	return nil
}

// sigmoid computes the sigmoid function
func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + errors.StabilizeExp(-z))
}
