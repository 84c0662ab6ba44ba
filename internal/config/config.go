// Package config loads the pipeline configuration from a YAML file layered
// with FRAUDFLOW__ environment variables.
package config

import (
	"io/fs"
	"strings"

	"github.com/YuminosukeSato/fraudflow/pkg/errors"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// SchemaVersion is the only supported schema_version.
const SchemaVersion = "v1"

// EnvPrefix prefixes environment overrides. FRAUDFLOW__SPLIT__TEST_SIZE=0.3
// sets split.test_size.
const EnvPrefix = "FRAUDFLOW__"

type IngestCfg struct {
	Kind      string `koanf:"kind" yaml:"kind"` // csv|sqlite
	Path      string `koanf:"path" yaml:"path"`
	Table     string `koanf:"table" yaml:"table"`
	Delimiter string `koanf:"delimiter" yaml:"delimiter"`
}

type MissingCfg struct {
	Strategy string  `koanf:"strategy" yaml:"strategy"` // drop|fill
	Method   string  `koanf:"method" yaml:"method"`     // mean|median|constant
	Value    float64 `koanf:"value" yaml:"value"`
}

type CleaningCfg struct {
	Unwanted       []string `koanf:"unwanted" yaml:"unwanted"`
	NormalizeNames *bool    `koanf:"normalize_names" yaml:"normalize_names"`
	DropConstant   bool     `koanf:"drop_constant" yaml:"drop_constant"`
	DropNonNumeric bool     `koanf:"drop_non_numeric" yaml:"drop_non_numeric"`
}

type FeatureCfg struct {
	Strategy    string    `koanf:"strategy" yaml:"strategy"` // normalize|log|standard|minmax
	Features    []string  `koanf:"features" yaml:"features"`
	Degenerate  string    `koanf:"degenerate" yaml:"degenerate"` // fail|passthrough
	Method      string    `koanf:"method" yaml:"method"`         // yeo-johnson|box-cox
	Standardize *bool     `koanf:"standardize" yaml:"standardize"`
	Range       []float64 `koanf:"range" yaml:"range"`
}

type SplitCfg struct {
	TestSize    float64 `koanf:"test_size" yaml:"test_size"`
	RandomState int64   `koanf:"random_state" yaml:"random_state"`
	Stratify    bool    `koanf:"stratify" yaml:"stratify"`
}

type ModelCfg struct {
	C            float64 `koanf:"c" yaml:"c"`
	MaxIter      int     `koanf:"max_iter" yaml:"max_iter"`
	Tol          float64 `koanf:"tol" yaml:"tol"`
	ClassWeight  string  `koanf:"class_weight" yaml:"class_weight"` // balanced|none
	RandomState  int64   `koanf:"random_state" yaml:"random_state"`
	FitIntercept *bool   `koanf:"fit_intercept" yaml:"fit_intercept"`
}

type OutputCfg struct {
	Dir         string `koanf:"dir" yaml:"dir"`
	Plots       bool   `koanf:"plots" yaml:"plots"`
	MetricsFile string `koanf:"metrics_file" yaml:"metrics_file"`
	MetricsAddr string `koanf:"metrics_addr" yaml:"metrics_addr"`
}

type LogCfg struct {
	Level string `koanf:"level" yaml:"level"`
}

// Config is the full pipeline configuration.
type Config struct {
	SchemaVersion string      `koanf:"schema_version" yaml:"schema_version"`
	Name          string      `koanf:"name" yaml:"name"`
	Target        string      `koanf:"target" yaml:"target"`
	Ingest        IngestCfg   `koanf:"ingest" yaml:"ingest"`
	Missing       MissingCfg  `koanf:"missing" yaml:"missing"`
	Cleaning      CleaningCfg `koanf:"cleaning" yaml:"cleaning"`
	Feature       FeatureCfg  `koanf:"feature" yaml:"feature"`
	Split         SplitCfg    `koanf:"split" yaml:"split"`
	Model         ModelCfg    `koanf:"model" yaml:"model"`
	Output        OutputCfg   `koanf:"output" yaml:"output"`
	Log           LogCfg      `koanf:"log" yaml:"log"`
}

// ---------------------------------------------------------------------------
// Loader
// ---------------------------------------------------------------------------

// Load merges YAML at path (if present) with environment variables and
// applies defaults. It does not call Validate.
func Load(path string) (Config, error) {
	k := koanf.New(".")
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil &&
			!errors.Is(err, fs.ErrNotExist) {
			return Config{}, errors.Wrapf(err, "load config %s", path)
		}
	}
	// schema version check (only when YAML is present)
	if sv := k.String("schema_version"); sv != "" && sv != SchemaVersion {
		return Config{}, errors.NewValidationError("schema_version", "not supported (want "+SchemaVersion+")", sv)
	}

	if err := k.Load(env.Provider(EnvPrefix, "__", envKey), nil); err != nil {
		return Config{}, errors.Wrap(err, "load environment")
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, errors.Wrap(err, "decode config")
	}
	applyDefaults(&cfg)
	return cfg, nil
}

// envKey maps FRAUDFLOW__SPLIT__TEST_SIZE to split__test_size. The env
// provider then splits on the "__" delimiter.
func envKey(s string) string {
	return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
}

// ---------------------------------------------------------------------------
// defaults
// ---------------------------------------------------------------------------

func applyDefaults(c *Config) {
	if c.SchemaVersion == "" {
		c.SchemaVersion = SchemaVersion
	}
	if c.Name == "" {
		c.Name = "ethereum_fraud_detection"
	}
	if c.Target == "" {
		c.Target = "FLAG"
	}
	if c.Ingest.Kind == "" {
		c.Ingest.Kind = "csv"
	}
	if c.Missing.Strategy == "" {
		c.Missing.Strategy = "drop"
	}
	if c.Missing.Strategy == "fill" && c.Missing.Method == "" {
		c.Missing.Method = "median"
	}
	if c.Cleaning.Unwanted == nil {
		c.Cleaning.Unwanted = []string{"Unnamed: 0", "Index"}
	}
	if c.Cleaning.NormalizeNames == nil {
		c.Cleaning.NormalizeNames = boolPtr(true)
	}
	if c.Feature.Strategy == "" {
		c.Feature.Strategy = "normalize"
	}
	if c.Feature.Degenerate == "" {
		c.Feature.Degenerate = "fail"
	}
	if c.Feature.Method == "" {
		c.Feature.Method = "yeo-johnson"
	}
	if c.Feature.Standardize == nil {
		c.Feature.Standardize = boolPtr(true)
	}
	if len(c.Feature.Range) == 0 {
		c.Feature.Range = []float64{0, 1}
	}
	if c.Split.TestSize == 0 {
		c.Split.TestSize = 0.2
	}
	if c.Split.RandomState == 0 {
		c.Split.RandomState = 42
	}
	if c.Model.C == 0 {
		c.Model.C = 1.0
	}
	if c.Model.MaxIter == 0 {
		c.Model.MaxIter = 100
	}
	if c.Model.Tol == 0 {
		c.Model.Tol = 1e-4
	}
	if c.Model.ClassWeight == "" {
		c.Model.ClassWeight = "none"
	}
	if c.Model.RandomState == 0 {
		c.Model.RandomState = 42
	}
	if c.Model.FitIntercept == nil {
		c.Model.FitIntercept = boolPtr(true)
	}
	if c.Output.Dir == "" {
		c.Output.Dir = "artifacts"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

func boolPtr(b bool) *bool { return &b }

// ---------------------------------------------------------------------------
// validation
// ---------------------------------------------------------------------------

// Validate reports the first invalid setting as a ValidationError.
func (c Config) Validate() error {
	switch {
	case c.Target == "":
		return errors.NewValidationError("target", "is required", c.Target)
	case !oneOf(c.Ingest.Kind, "csv", "sqlite"):
		return errors.NewValidationError("ingest.kind", "must be csv or sqlite", c.Ingest.Kind)
	case c.Ingest.Path == "":
		return errors.NewValidationError("ingest.path", "is required", c.Ingest.Path)
	case c.Ingest.Kind == "sqlite" && c.Ingest.Table == "":
		return errors.NewValidationError("ingest.table", "is required for sqlite", c.Ingest.Table)
	case len([]rune(c.Ingest.Delimiter)) > 1:
		return errors.NewValidationError("ingest.delimiter", "must be a single character", c.Ingest.Delimiter)
	case !oneOf(c.Missing.Strategy, "drop", "fill"):
		return errors.NewValidationError("missing.strategy", "must be drop or fill", c.Missing.Strategy)
	case c.Missing.Strategy == "fill" && !oneOf(c.Missing.Method, "mean", "median", "constant"):
		return errors.NewValidationError("missing.method", "must be mean, median or constant", c.Missing.Method)
	case !oneOf(c.Feature.Strategy, "normalize", "log", "standard", "minmax"):
		return errors.NewValidationError("feature.strategy", "must be normalize, log, standard or minmax", c.Feature.Strategy)
	case !oneOf(c.Feature.Degenerate, "fail", "passthrough", "skip"):
		return errors.NewValidationError("feature.degenerate", "must be fail or passthrough", c.Feature.Degenerate)
	case !oneOf(c.Feature.Method, "yeo-johnson", "box-cox"):
		return errors.NewValidationError("feature.method", "must be yeo-johnson or box-cox", c.Feature.Method)
	case len(c.Feature.Range) != 2 || c.Feature.Range[0] >= c.Feature.Range[1]:
		return errors.NewValidationError("feature.range", "must be [min, max] with min < max", c.Feature.Range)
	case c.Split.TestSize <= 0 || c.Split.TestSize >= 1:
		return errors.NewValidationError("split.test_size", "must be in (0, 1)", c.Split.TestSize)
	case c.Model.C <= 0:
		return errors.NewValidationError("model.c", "must be positive", c.Model.C)
	case c.Model.MaxIter <= 0:
		return errors.NewValidationError("model.max_iter", "must be positive", c.Model.MaxIter)
	case c.Model.Tol <= 0:
		return errors.NewValidationError("model.tol", "must be positive", c.Model.Tol)
	case !oneOf(c.Model.ClassWeight, "balanced", "none"):
		return errors.NewValidationError("model.class_weight", "must be balanced or none", c.Model.ClassWeight)
	case !oneOf(strings.ToLower(c.Log.Level), "debug", "info", "warn", "warning", "error"):
		return errors.NewValidationError("log.level", "must be debug, info, warn or error", c.Log.Level)
	}
	return nil
}

func oneOf(v string, allowed ...string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}
