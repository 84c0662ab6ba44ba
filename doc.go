// Package fraudflow is a batch training pipeline for Ethereum transaction
// fraud detection, written in Go.
//
// A run loads the labeled transaction dataset, handles missing values,
// cleans the feature columns, normalises every feature with a Yeo-Johnson
// power transform followed by standardisation, splits the rows into train
// and test parts, fits a binary logistic regression and evaluates it.
//
// # Quick Start
//
// Run the pipeline from a YAML configuration:
//
//	fraudflow run -config configs/pipeline.yaml
//
// Or apply the feature engineering stage on its own:
//
//	package main
//
//	import (
//	    "context"
//	    "fmt"
//	    "log"
//
//	    "github.com/YuminosukeSato/fraudflow/feature"
//	    "github.com/YuminosukeSato/fraudflow/ingest"
//	)
//
//	func main() {
//	    df, err := (&ingest.CSVIngestor{Path: "transactions.csv"}).Load(context.Background())
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    h := feature.NewHandler(feature.NewNormalizeStrategy(nil))
//	    out, err := h.ApplyTransformation(df, "flag")
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(out.Names())
//	}
//
// # Packages
//
//   - feature: Strategy, NormalizeStrategy and the Handler
//   - preprocessing: PowerTransformer, StandardScaler, MinMaxScaler
//   - dataset: column helpers over gota DataFrames
//   - ingest: CSV and SQLite loaders
//   - steps: the training steps
//   - pipeline: the step runner and shared Artifacts
//   - sklearn/linear_model: binary LogisticRegression
//   - metrics: classification metrics
//   - report: YAML run summary and feature histograms
//   - core/model: estimator interfaces, fitted state and model weights
//   - core/parallel: per-column parallel helpers
//   - pkg/errors, pkg/log: error types and structured logging
//
// # scikit-learn Compatibility
//
// PowerTransformer, StandardScaler and LogisticRegression follow the
// parameter names and fitted attributes of their scikit-learn counterparts,
// so lambdas and scaled values can be compared against a Python reference.
package fraudflow
