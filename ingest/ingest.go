// Package ingest loads the raw transaction dataset from a CSV file or a
// SQLite table into a gota DataFrame.
package ingest

import (
	"context"
	"os"
	"regexp"
	"strings"

	"github.com/YuminosukeSato/fraudflow/pkg/errors"
	"github.com/YuminosukeSato/fraudflow/pkg/log"
	"github.com/go-gota/gota/dataframe"
)

// NaNTokens are the cell values read as missing.
var NaNTokens = []string{"", "NA", "NaN", "nan", "null"}

// Ingestor loads a dataset.
type Ingestor interface {
	Load(ctx context.Context) (dataframe.DataFrame, error)
	Source() string
}

// Options configures New.
type Options struct {
	Path      string
	Table     string
	Delimiter rune
}

// New returns the ingestor for kind, "csv" or "sqlite".
func New(kind string, opts Options) (Ingestor, error) {
	switch strings.ToLower(kind) {
	case "csv", "":
		if opts.Path == "" {
			return nil, errors.NewValidationError("ingest.path", "is required", opts.Path)
		}
		return &CSVIngestor{Path: opts.Path, Delimiter: opts.Delimiter}, nil
	case "sqlite":
		if opts.Path == "" {
			return nil, errors.NewValidationError("ingest.path", "is required", opts.Path)
		}
		if !tablePattern.MatchString(opts.Table) {
			return nil, errors.NewValidationError("ingest.table", "must be a plain SQL identifier", opts.Table)
		}
		return &SQLiteIngestor{Path: opts.Path, Table: opts.Table}, nil
	default:
		return nil, errors.NewValidationError("ingest.kind", "must be 'csv' or 'sqlite'", kind)
	}
}

// CSVIngestor reads a CSV file with a header row. Column types are detected
// from the data.
type CSVIngestor struct {
	Path      string
	Delimiter rune
}

// Source implements Ingestor.
func (c *CSVIngestor) Source() string { return "csv:" + c.Path }

// Load implements Ingestor.
func (c *CSVIngestor) Load(ctx context.Context) (dataframe.DataFrame, error) {
	if err := ctx.Err(); err != nil {
		return dataframe.DataFrame{}, err
	}
	f, err := os.Open(c.Path)
	if err != nil {
		return dataframe.DataFrame{}, errors.Wrapf(err, "open %s", c.Path)
	}
	defer f.Close()

	opts := []dataframe.LoadOption{
		dataframe.HasHeader(true),
		dataframe.DetectTypes(true),
		dataframe.NaNValues(NaNTokens),
	}
	if c.Delimiter != 0 {
		opts = append(opts, dataframe.WithDelimiter(c.Delimiter))
	}
	df := dataframe.ReadCSV(f, opts...)
	if df.Err != nil {
		return dataframe.DataFrame{}, errors.Wrapf(df.Err, "parse %s", c.Path)
	}
	logLoaded(c.Source(), df)
	return df, nil
}

var tablePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func logLoaded(source string, df dataframe.DataFrame) {
	log.GetLoggerWithName("ingest").Info("Dataset loaded",
		log.SourceKey, source,
		log.SamplesKey, df.Nrow(),
		log.FeaturesKey, df.Ncol(),
	)
}
