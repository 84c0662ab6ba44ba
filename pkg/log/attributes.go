// Package log defines standard attribute keys for pipeline logging.
//
// Using these keys keeps step, dataset and model logs consistent so that a
// run can be filtered by step ("pipeline.step") or by column ("data.column").
// Keys follow a hierarchical naming convention.

package log

// Model and Operation Context
const (
	// ModelNameKey identifies the estimator or strategy type.
	// Examples: "PowerTransformer", "NormalizeStrategy", "LogisticRegression"
	ModelNameKey = "model.name"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "predict", "transform", "fit_transform"
	OperationKey = "ml.operation"

	// ComponentKey identifies which package is logging.
	// Examples: "feature", "preprocessing", "pipeline"
	ComponentKey = "ml.component"

	// PhaseKey indicates the phase of the run.
	PhaseKey = "ml.phase"
)

// Pipeline Context
const (
	// StepKey names the pipeline step, e.g. "feature_engineering".
	StepKey = "pipeline.step"

	// RunIDKey identifies one pipeline run.
	RunIDKey = "pipeline.run_id"

	// StrategyKey names the active feature engineering strategy.
	StrategyKey = "feature.strategy"

	// LambdaKey records a fitted power transform lambda.
	LambdaKey = "feature.lambda"
)

// Data Shape and Characteristics
const (
	// SamplesKey indicates the number of rows in the dataset.
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of feature columns.
	FeaturesKey = "data.features"

	// ColumnKey names a single dataset column.
	ColumnKey = "data.column"

	// TargetColumnKey names the label column.
	TargetColumnKey = "data.target"

	// SourceKey describes where a dataset was read from.
	SourceKey = "data.source"
)

// Performance Metrics
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// AccuracyKey records model accuracy on the evaluation split.
	AccuracyKey = "metrics.accuracy"

	// AUCKey records ROC AUC on the evaluation split.
	AUCKey = "metrics.auc"

	// LossKey records a loss value.
	LossKey = "metrics.loss"

	// IterationKey records the current iteration of an iterative algorithm.
	IterationKey = "training.iteration"
)

// Error and Warning Context
const (
	// ErrorTypeKey categorizes the type of error encountered.
	// Examples: "MissingColumnError", "NonNumericFeatureError"
	ErrorTypeKey = "error.type"

	// SuggestionKey provides a hint for resolving an issue.
	SuggestionKey = "error.suggestion"
)

// Standard attribute values.
const (
	OperationFit          = "fit"
	OperationPredict      = "predict"
	OperationTransform    = "transform"
	OperationFitTransform = "fit_transform"
	OperationScore        = "score"

	PhaseIngestion     = "ingestion"
	PhasePreprocessing = "preprocessing"
	PhaseTraining      = "training"
	PhaseEvaluation    = "evaluation"
)
