// Package feature implements the feature-engineering stage of the pipeline.
//
// A Strategy transforms the feature columns of a labeled dataset and leaves
// the label column untouched. The Handler holds the active strategy and
// forwards calls to it, so call sites do not depend on a concrete
// transformation:
//
//	h := feature.NewHandler(feature.NewNormalizeStrategy(nil))
//	out, err := h.ApplyTransformation(df, "flag")
//
// Every call fits fresh transformers over the whole input. Strategies keep
// no fitted state between calls.
package feature

import (
	"sync"

	"github.com/YuminosukeSato/fraudflow/pkg/errors"
	"github.com/go-gota/gota/dataframe"
)

// Strategy transforms the feature columns of df.
//
// Implementations return a new DataFrame with the same row count and the
// same label values, each transformed feature replaced by a float column
// of the same name, and the label moved to the last position. A missing
// targetColumn yields a MissingColumnError.
type Strategy interface {
	ApplyTransformation(df dataframe.DataFrame, targetColumn string) (dataframe.DataFrame, error)
}

// Result is the outcome of one transformation including the parameters
// that were fitted for each feature.
type Result struct {
	Dataset dataframe.DataFrame

	// Features lists the columns that were transformed, in input order.
	Features []string

	// Passthrough lists zero-variance columns copied through unchanged.
	Passthrough []string

	// Params maps a feature to its fitted parameters, e.g. "lambda".
	Params map[string]map[string]float64
}

// Fitter is implemented by strategies that can report their fitted
// parameters alongside the transformed dataset.
type Fitter interface {
	Strategy
	FitTransform(df dataframe.DataFrame, targetColumn string) (Result, error)
}

// Apply runs strategy on df. It is the stateless alternative to a Handler.
func Apply(strategy Strategy, df dataframe.DataFrame, targetColumn string) (dataframe.DataFrame, error) {
	if strategy == nil {
		return dataframe.DataFrame{}, errors.NewValidationError("strategy", "must not be nil", nil)
	}
	return strategy.ApplyTransformation(df, targetColumn)
}

// Transform runs strategy on df and returns the fitted parameters when the
// strategy is a Fitter.
func Transform(strategy Strategy, df dataframe.DataFrame, targetColumn string) (Result, error) {
	if fitter, ok := strategy.(Fitter); ok {
		return fitter.FitTransform(df, targetColumn)
	}
	out, err := Apply(strategy, df, targetColumn)
	if err != nil {
		return Result{}, err
	}
	return Result{Dataset: out}, nil
}

// Handler holds the active Strategy. It is safe for concurrent use: the
// strategy is read once per call, so SetStrategy never affects a call that
// is already running.
type Handler struct {
	mu       sync.RWMutex
	strategy Strategy
}

// NewHandler returns a Handler using strategy. A nil strategy, typed or
// not, makes every call fail with a ValidationError.
func NewHandler(strategy Strategy) *Handler {
	return &Handler{strategy: strategy}
}

// SetStrategy replaces the active strategy.
func (h *Handler) SetStrategy(strategy Strategy) {
	h.mu.Lock()
	h.strategy = strategy
	h.mu.Unlock()
}

// Strategy returns the active strategy.
func (h *Handler) Strategy() Strategy {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.strategy
}

// ApplyTransformation forwards to the active strategy.
func (h *Handler) ApplyTransformation(df dataframe.DataFrame, targetColumn string) (dataframe.DataFrame, error) {
	return Apply(h.Strategy(), df, targetColumn)
}

// Transform forwards to the active strategy and returns its Result.
func (h *Handler) Transform(df dataframe.DataFrame, targetColumn string) (Result, error) {
	strategy := h.Strategy()
	if strategy == nil {
		return Result{}, errors.NewValidationError("strategy", "must not be nil", nil)
	}
	return Transform(strategy, df, targetColumn)
}
