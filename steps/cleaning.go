package steps

import (
	"context"
	"strings"
	"unicode"

	"github.com/YuminosukeSato/fraudflow/dataset"
	"github.com/YuminosukeSato/fraudflow/pipeline"
	"github.com/YuminosukeSato/fraudflow/pkg/errors"
	"github.com/YuminosukeSato/fraudflow/pkg/log"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeName lower-cases name, strips accents and joins whitespace
// separated words with "_", so " Avg Min  Between Sent Tnx" becomes
// "avg_min_between_sent_tnx".
func NormalizeName(name string) string {
	stripAccents := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	s, _, err := transform.String(stripAccents, strings.TrimSpace(name))
	if err != nil {
		s = strings.TrimSpace(name)
	}
	s = cases.Lower(language.Und).String(s)
	return strings.Join(strings.Fields(s), "_")
}

// CleaningOptions configures CleanFeatures.
type CleaningOptions struct {
	// Unwanted columns are dropped when present. Names are matched before
	// normalisation.
	Unwanted []string

	NormalizeNames bool

	// DropConstant drops columns holding a single distinct non-missing value.
	DropConstant bool

	// DropNonNumeric drops String and Bool columns.
	DropNonNumeric bool
}

// CleaningReport lists what CleanFeatures removed or renamed.
type CleaningReport struct {
	Target     string            `yaml:"target"`
	Dropped    []string          `yaml:"dropped,omitempty"`
	Constant   []string          `yaml:"constant,omitempty"`
	NonNumeric []string          `yaml:"non_numeric,omitempty"`
	Renamed    map[string]string `yaml:"renamed,omitempty"`
}

// CleanFeatures applies opts to df. It returns the cleaned dataset and the
// target column name after normalisation. The target must exist both
// before and after cleaning and is never dropped.
func CleanFeatures(df dataframe.DataFrame, target string, opts CleaningOptions) (dataframe.DataFrame, CleaningReport, error) {
	report := CleaningReport{Target: target}
	if err := dataset.RequireColumns(NameCleaning, df, target); err != nil {
		return dataframe.DataFrame{}, report, err
	}

	drop := make(map[string]struct{})
	for _, name := range opts.Unwanted {
		if name == target {
			return dataframe.DataFrame{}, report, errors.NewValidationError("cleaning.unwanted", "must not include the target column", name)
		}
		if dataset.HasColumn(df, name) {
			if _, dup := drop[name]; !dup {
				report.Dropped = append(report.Dropped, name)
			}
			drop[name] = struct{}{}
		}
	}

	for _, name := range df.Names() {
		if name == target {
			continue
		}
		if _, ok := drop[name]; ok {
			continue
		}
		col := df.Col(name)
		if opts.DropNonNumeric && col.Type() != series.Float && col.Type() != series.Int {
			report.NonNumeric = append(report.NonNumeric, name)
			drop[name] = struct{}{}
			continue
		}
		if opts.DropConstant && isConstant(col) {
			report.Constant = append(report.Constant, name)
			drop[name] = struct{}{}
		}
	}

	keep := make([]string, 0, df.Ncol())
	for _, name := range df.Names() {
		if _, ok := drop[name]; !ok {
			keep = append(keep, name)
		}
	}
	out := df.Select(keep)
	if out.Err != nil {
		return dataframe.DataFrame{}, report, errors.Wrap(out.Err, "select cleaned columns")
	}

	if opts.NormalizeNames {
		renamed := make([]string, len(keep))
		seen := make(map[string]string, len(keep))
		for i, name := range keep {
			n := NormalizeName(name)
			if n == "" {
				return dataframe.DataFrame{}, report, errors.NewValidationError("column", "name is empty after normalisation", name)
			}
			if other, dup := seen[n]; dup {
				return dataframe.DataFrame{}, report, errors.NewValidationError("column", "normalises to the same name as '"+other+"'", name)
			}
			seen[n] = name
			renamed[i] = n
			if n != name {
				if report.Renamed == nil {
					report.Renamed = make(map[string]string)
				}
				report.Renamed[name] = n
			}
		}
		if err := out.SetNames(renamed...); err != nil {
			return dataframe.DataFrame{}, report, errors.Wrap(err, "rename columns")
		}
		report.Target = NormalizeName(target)
	}
	return out, report, nil
}

// isConstant reports whether s holds at most one distinct non-missing value.
func isConstant(s series.Series) bool {
	first := ""
	seen := false
	for i := 0; i < s.Len(); i++ {
		e := s.Elem(i)
		if e.IsNA() {
			continue
		}
		v := e.String()
		if !seen {
			first, seen = v, true
			continue
		}
		if v != first {
			return false
		}
	}
	return true
}

// Cleaning is the feature cleaning step. It updates Artifacts.Target to the
// cleaned target name.
type Cleaning struct {
	Options CleaningOptions

	// Report is filled by Run.
	Report CleaningReport
}

// Name implements pipeline.Step.
func (s *Cleaning) Name() string { return NameCleaning }

// Run implements pipeline.Step.
func (s *Cleaning) Run(ctx context.Context, a *pipeline.Artifacts) error {
	out, report, err := CleanFeatures(a.Data, a.Target, s.Options)
	if err != nil {
		return err
	}
	s.Report = report
	a.Data = out
	a.Cleaned = out
	a.Target = report.Target

	log.GetLoggerWithName("steps").Info("Features cleaned",
		log.StepKey, NameCleaning,
		log.TargetColumnKey, report.Target,
		log.FeaturesKey, out.Ncol()-1,
		"cleaning.dropped", len(report.Dropped)+len(report.Constant)+len(report.NonNumeric),
	)
	return nil
}
