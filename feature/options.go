package feature

import (
	"strings"

	"github.com/YuminosukeSato/fraudflow/pkg/errors"
	"github.com/YuminosukeSato/fraudflow/pkg/log"
	"github.com/YuminosukeSato/fraudflow/preprocessing"
)

// DegeneratePolicy decides what happens to a zero-variance feature.
type DegeneratePolicy int

const (
	// DegenerateFail rejects the dataset with a DegenerateFeatureError.
	DegenerateFail DegeneratePolicy = iota
	// DegeneratePassthrough copies the column through unchanged as floats
	// and emits a DegenerateFeatureWarning.
	DegeneratePassthrough
)

func (p DegeneratePolicy) String() string {
	switch p {
	case DegenerateFail:
		return "fail"
	case DegeneratePassthrough:
		return "passthrough"
	default:
		return "unknown"
	}
}

// ParseDegeneratePolicy parses "fail" or "passthrough". Empty means fail.
func ParseDegeneratePolicy(s string) (DegeneratePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "fail":
		return DegenerateFail, nil
	case "passthrough", "skip":
		return DegeneratePassthrough, nil
	default:
		return DegenerateFail, errors.NewValidationError("degenerate_policy", "must be 'fail' or 'passthrough'", s)
	}
}

type options struct {
	policy       DegeneratePolicy
	logger       log.Logger
	method       preprocessing.PowerMethod
	standardize  bool
	featureRange [2]float64
}

func defaultOptions() options {
	return options{
		policy:       DegenerateFail,
		method:       preprocessing.MethodYeoJohnson,
		standardize:  true,
		featureRange: [2]float64{0, 1},
	}
}

// Option configures a strategy.
type Option func(*options)

// WithDegeneratePolicy sets the zero-variance policy.
func WithDegeneratePolicy(policy DegeneratePolicy) Option {
	return func(o *options) { o.policy = policy }
}

// WithLogger sets the logger. The default is the "feature" component logger.
func WithLogger(logger log.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithPowerMethod selects Yeo-Johnson or Box-Cox for NormalizeStrategy.
func WithPowerMethod(method preprocessing.PowerMethod) Option {
	return func(o *options) { o.method = method }
}

// WithStandardize toggles standardisation after the power transform.
func WithStandardize(standardize bool) Option {
	return func(o *options) { o.standardize = standardize }
}

// WithFeatureRange sets the output range of MinMaxScalingStrategy.
func WithFeatureRange(min, max float64) Option {
	return func(o *options) { o.featureRange = [2]float64{min, max} }
}

// New builds a strategy by name: "normalize", "log", "standard" or "minmax".
func New(name string, features []string, opts ...Option) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "normalize", "":
		return NewNormalizeStrategy(features, opts...), nil
	case "log":
		return NewLogTransformStrategy(features, opts...), nil
	case "standard":
		return NewStandardScalingStrategy(features, opts...), nil
	case "minmax":
		return NewMinMaxScalingStrategy(features, opts...), nil
	default:
		return nil, errors.NewValidationError("strategy", "must be one of normalize, log, standard, minmax", name)
	}
}
