package feature

import (
	"github.com/YuminosukeSato/fraudflow/dataset"
	"github.com/YuminosukeSato/fraudflow/pkg/errors"
	"github.com/YuminosukeSato/fraudflow/pkg/log"
	"github.com/YuminosukeSato/fraudflow/preprocessing"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"gonum.org/v1/gonum/mat"
)

// fitFunc transforms the feature matrix and returns per-column parameters
// keyed by parameter name.
type fitFunc func(X *mat.Dense) (mat.Matrix, map[string][]float64, error)

// columnTransform is the part every strategy shares: resolve the feature
// columns, coerce them to floats, apply the zero-variance policy, run fit on
// the remaining columns and put the label last.
type columnTransform struct {
	name     string
	features []string
	// needsVariance is false for strategies that are well defined on
	// constant columns.
	needsVariance bool
	opts          options
}

func newColumnTransform(name string, features []string, needsVariance bool, opts []Option) columnTransform {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return columnTransform{
		name:          name,
		features:      append([]string(nil), features...),
		needsVariance: needsVariance,
		opts:          o,
	}
}

// errNilStrategy reports a typed nil strategy, e.g. (*NormalizeStrategy)(nil)
// stored in a Handler.
func errNilStrategy(op string) error {
	return errors.NewValidationError("strategy", op+" called on a nil strategy", nil)
}

func (c *columnTransform) logger() log.Logger {
	if c.opts.logger != nil {
		return c.opts.logger
	}
	return log.GetLoggerWithName("feature")
}

func (c *columnTransform) run(op string, df dataframe.DataFrame, target string, fit fitFunc) (Result, error) {
	if df.Err != nil {
		return Result{}, errors.Wrap(df.Err, op)
	}
	if err := dataset.RequireColumns(op, df, target); err != nil {
		return Result{}, err
	}
	features, err := dataset.FeatureColumns(op, df, target, c.features)
	if err != nil {
		return Result{}, err
	}

	logger := c.logger().With(log.StrategyKey, c.name, log.TargetColumnKey, target)
	logger.Info("Starting feature transformation",
		log.SamplesKey, df.Nrow(),
		log.FeaturesKey, len(features),
	)

	if len(features) == 0 {
		return Result{Dataset: dataset.ReorderTargetLast(df.Copy(), target)}, nil
	}
	if df.Nrow() == 0 {
		return Result{}, errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}

	out := df.Copy()
	var active, passthrough []string
	var activeCols [][]float64
	for _, name := range features {
		values, err := dataset.FloatColumn(op, df, name)
		if err != nil {
			return Result{}, err
		}
		if c.needsVariance && preprocessing.IsConstant(values) {
			if c.opts.policy == DegenerateFail {
				return Result{}, errors.NewDegenerateFeatureError(op, name, preprocessing.ColumnVariance(values))
			}
			errors.Warn(errors.NewDegenerateFeatureWarning(name, "passed through unchanged"))
			logger.Warn("Zero-variance feature passed through", log.ColumnKey, name)
			out = out.Mutate(series.New(values, series.Float, name))
			passthrough = append(passthrough, name)
			continue
		}
		active = append(active, name)
		activeCols = append(activeCols, values)
	}

	result := Result{
		Features:    active,
		Passthrough: passthrough,
		Params:      make(map[string]map[string]float64, len(active)),
	}
	if len(active) > 0 {
		X := mat.NewDense(df.Nrow(), len(active), nil)
		for j, values := range activeCols {
			X.SetCol(j, values)
		}
		Y, params, err := fit(X)
		if err != nil {
			return Result{}, errors.Wrapf(err, "%s: %s", op, c.name)
		}
		out = dataset.ReplaceColumns(out, active, Y)
		for j, name := range active {
			p := make(map[string]float64, len(params))
			for key, perColumn := range params {
				p[key] = perColumn[j]
			}
			result.Params[name] = p
		}
	}
	result.Dataset = dataset.ReorderTargetLast(out, target)

	logger.Info("Feature engineering completed",
		log.FeaturesKey, len(active),
		"passthrough", len(passthrough),
	)
	return result, nil
}
