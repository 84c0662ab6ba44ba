package steps

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/YuminosukeSato/fraudflow/dataset"
	"github.com/YuminosukeSato/fraudflow/internal/config"
	"github.com/YuminosukeSato/fraudflow/pipeline"
	"github.com/YuminosukeSato/fraudflow/pkg/errors"
	"github.com/YuminosukeSato/fraudflow/pkg/log"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func rawFrame() dataframe.DataFrame {
	return dataframe.New(
		series.New([]int{0, 1, 2, 3}, series.Int, "Index"),
		series.New([]int{1, 0, 1, 0}, series.Int, "FLAG"),
		series.New([]float64{1.5, 2.5, 0.5, 4}, series.Float, " Avg min between sent tnx"),
		series.New([]string{"ETH", "NaN", "USDT", "ETH"}, series.String, "ERC20 most sent token type"),
		series.New([]float64{7, 7, 7, 7}, series.Float, "Const"),
		series.New([]float64{1, 2, 3, 4}, series.Float, "Café Fee"),
	)
}

func TestNormalizeName(t *testing.T) {
	tests := map[string]string{
		"FLAG":                         "flag",
		" Avg min between sent tnx":    "avg_min_between_sent_tnx",
		"ERC20 total Ether  received ": "erc20_total_ether_received",
		"Café Fee":                     "cafe_fee",
		"Élodie":                       "elodie",
		"already_clean":                "already_clean",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeName(in), in)
	}
}

func TestCleanFeatures(t *testing.T) {
	out, report, err := CleanFeatures(rawFrame(), "FLAG", CleaningOptions{
		Unwanted:       []string{"Unnamed: 0", "Index"},
		NormalizeNames: true,
		DropConstant:   true,
		DropNonNumeric: true,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"flag", "avg_min_between_sent_tnx", "cafe_fee"}, out.Names())
	assert.Equal(t, "flag", report.Target)
	assert.Equal(t, []string{"Index"}, report.Dropped)
	assert.Equal(t, []string{"Const"}, report.Constant)
	assert.Equal(t, []string{"ERC20 most sent token type"}, report.NonNumeric)
	assert.Equal(t, "cafe_fee", report.Renamed["Café Fee"])
	assert.Equal(t, []float64{1, 0, 1, 0}, out.Col("flag").Float())
}

func TestCleanFeatures_KeepsNamesWhenNotNormalizing(t *testing.T) {
	out, report, err := CleanFeatures(rawFrame(), "FLAG", CleaningOptions{Unwanted: []string{"Index"}})
	require.NoError(t, err)
	assert.Equal(t, "FLAG", report.Target)
	assert.Equal(t, []string{"FLAG", " Avg min between sent tnx", "ERC20 most sent token type", "Const", "Café Fee"}, out.Names())
}

func TestCleanFeatures_Errors(t *testing.T) {
	_, _, err := CleanFeatures(rawFrame(), "flag", CleaningOptions{})
	var missing *errors.MissingColumnError
	assert.True(t, errors.As(err, &missing))

	_, _, err = CleanFeatures(rawFrame(), "FLAG", CleaningOptions{Unwanted: []string{"FLAG"}})
	var vErr *errors.ValidationError
	assert.True(t, errors.As(err, &vErr))

	clash := dataframe.New(
		series.New([]int{0, 1}, series.Int, "flag"),
		series.New([]float64{1, 2}, series.Float, "Total Value"),
		series.New([]float64{3, 4}, series.Float, "total  value"),
	)
	_, _, err = CleanFeatures(clash, "flag", CleaningOptions{NormalizeNames: true})
	assert.True(t, errors.As(err, &vErr))
}

func TestHandleMissingValues(t *testing.T) {
	df := dataframe.New(
		series.New([]string{"1", "NaN", "3", "4"}, series.Float, "a"),
		series.New([]int{0, 1, 0, 1}, series.Int, "flag"),
	)

	dropped, err := HandleMissingValues(df, MissingDrop, "", 0)
	require.NoError(t, err)
	assert.Equal(t, 3, dropped.Nrow())

	filled, err := HandleMissingValues(df, MissingFill, dataset.FillMedian, 0)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 3, 3, 4}, filled.Col("a").Float())

	_, err = HandleMissingValues(df, "impute", "", 0)
	var vErr *errors.ValidationError
	assert.True(t, errors.As(err, &vErr))
}

func TestMissingValues_RejectsEmptyResult(t *testing.T) {
	a := &pipeline.Artifacts{Data: dataframe.New(
		series.New([]string{"NaN", "NaN"}, series.Float, "a"),
		series.New([]int{0, 1}, series.Int, "flag"),
	)}
	err := (&MissingValues{Strategy: MissingDrop}).Run(context.Background(), a)
	assert.True(t, errors.Is(err, errors.ErrEmptyData))
}

func labeledFrame(n int) dataframe.DataFrame {
	a := make([]float64, n)
	b := make([]float64, n)
	flag := make([]int, n)
	for i := 0; i < n; i++ {
		a[i] = float64(i)
		b[i] = float64((i * 7) % 11)
		if i >= n/2 {
			flag[i] = 1
		}
	}
	return dataframe.New(
		series.New(a, series.Float, "a"),
		series.New(flag, series.Int, "flag"),
		series.New(b, series.Float, "b"),
	)
}

func TestTrainTestSplit(t *testing.T) {
	df := labeledFrame(10)
	split, features, err := TrainTestSplit(df, "flag", SplitOptions{TestSize: 0.2, RandomState: 42})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, features)
	assert.Len(t, split.TestRows, 2)
	assert.Len(t, split.TrainRows, 8)

	all := append(append([]int(nil), split.TrainRows...), split.TestRows...)
	sort.Ints(all)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, all)

	r, c := split.XTrain.Dims()
	assert.Equal(t, 8, r)
	assert.Equal(t, 2, c)
	for i, row := range split.TestRows {
		assert.Equal(t, float64(row), split.XTest.At(i, 0))
		assert.Equal(t, df.Col("flag").Elem(row).Float(), split.YTest.At(i, 0))
	}

	again, _, err := TrainTestSplit(df, "flag", SplitOptions{TestSize: 0.2, RandomState: 42})
	require.NoError(t, err)
	assert.Equal(t, split.TestRows, again.TestRows)
}

func TestTrainTestSplit_Stratified(t *testing.T) {
	split, _, err := TrainTestSplit(labeledFrame(20), "flag", SplitOptions{TestSize: 0.2, RandomState: 7, Stratify: true})
	require.NoError(t, err)

	require.Len(t, split.TestRows, 4)
	positives := 0
	for i := range split.TestRows {
		positives += int(split.YTest.At(i, 0))
	}
	assert.Equal(t, 2, positives)
}

func TestTrainTestSplit_Errors(t *testing.T) {
	df := labeledFrame(10)
	var vErr *errors.ValidationError

	_, _, err := TrainTestSplit(df, "flag", SplitOptions{TestSize: 1})
	assert.True(t, errors.As(err, &vErr))

	_, _, err = TrainTestSplit(df, "label", SplitOptions{TestSize: 0.2})
	var missing *errors.MissingColumnError
	assert.True(t, errors.As(err, &missing))

	withText := df.Mutate(series.New([]string{"x", "y", "z", "x", "y", "z", "x", "y", "z", "x"}, series.String, "b"))
	_, _, err = TrainTestSplit(withText, "flag", SplitOptions{TestSize: 0.2})
	var nonNumeric *errors.NonNumericFeatureError
	assert.True(t, errors.As(err, &nonNumeric))

	noLabel := df.Mutate(series.New([]string{"0", "NaN", "0", "0", "0", "1", "1", "1", "1", "1"}, series.Float, "flag"))
	_, _, err = TrainTestSplit(noLabel, "flag", SplitOptions{TestSize: 0.2})
	var valErr *errors.ValueError
	assert.True(t, errors.As(err, &valErr))
}

type fixedClassifier struct {
	pred  []float64
	proba []float64
}

func (f *fixedClassifier) Fit(X, y mat.Matrix) error { return nil }

func (f *fixedClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	return mat.NewDense(len(f.pred), 1, f.pred), nil
}

func (f *fixedClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	out := mat.NewDense(len(f.proba), 2, nil)
	for i, p := range f.proba {
		out.Set(i, 0, 1-p)
		out.Set(i, 1, p)
	}
	return out, nil
}

func TestEvaluateModel(t *testing.T) {
	clf := &fixedClassifier{
		pred:  []float64{1, 0, 1, 0},
		proba: []float64{0.9, 0.2, 0.6, 0.4},
	}
	y := mat.NewDense(4, 1, []float64{1, 0, 0, 1})

	report, err := EvaluateModel(clf, mat.NewDense(4, 1, nil), y)
	require.NoError(t, err)

	assert.Equal(t, 4, report.Samples)
	assert.Equal(t, 0.5, report.Accuracy)
	assert.Equal(t, 1, report.Confusion.TruePositive)
	assert.Equal(t, 1, report.Confusion.FalsePositive)
	assert.Equal(t, 1, report.Confusion.FalseNegative)
	assert.Equal(t, 1, report.Confusion.TrueNegative)
	assert.InDelta(t, 0.75, report.AUC, 1e-12)

	_, err = EvaluateModel(nil, nil, y)
	assert.Error(t, err)
}

func TestStepsRequirePriorArtifacts(t *testing.T) {
	ctx := context.Background()
	assert.Error(t, (&Modelling{}).Run(ctx, &pipeline.Artifacts{}))
	assert.Error(t, (&Evaluation{}).Run(ctx, &pipeline.Artifacts{}))
	assert.Error(t, (&Ingestion{}).Run(ctx, &pipeline.Artifacts{}))
	assert.Error(t, (&Engineering{}).Run(ctx, &pipeline.Artifacts{}))
}

func writeTransactions(t *testing.T, dir string, n int) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("Unnamed: 0,Index,Address,FLAG,Avg min between sent tnx,Total Ether Sent,ERC20 most sent token type,Const\n")
	for i := 0; i < n; i++ {
		flag := 0
		if i%2 == 1 {
			flag = 1
		}
		sent := fmt.Sprintf("%.2f", float64(i%5)+0.5)
		if i == 3 {
			sent = "NA"
		}
		avg := float64(i%7) + 40*float64(flag)
		fmt.Fprintf(&b, "%d,%d,0x%04x,%d,%.2f,%s,ETH,1\n", i, i+1, i, flag, avg, sent)
	}
	path := filepath.Join(dir, "transactions.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func TestFromConfig_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	data := writeTransactions(t, dir, 40)
	cfgPath := filepath.Join(dir, "pipeline.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(fmt.Sprintf(`
schema_version: v1
target: FLAG
ingest:
  path: %s
cleaning:
  unwanted: ["Unnamed: 0", "Index", "Address"]
  drop_constant: true
  drop_non_numeric: true
split:
  stratify: true
model:
  max_iter: 300
`, data)), 0o644))

	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	stepList, err := FromConfig(cfg)
	require.NoError(t, err)
	logger, _ := log.NewTestLogger(log.LevelInfo)
	p := pipeline.New(cfg.Name, stepList, pipeline.WithLogger(logger))
	assert.Equal(t, []string{
		NameIngestion, NameMissing, NameCleaning, NameEngineering,
		NameSplitting, NameModelling, NameEvaluation,
	}, p.Steps())

	res, err := p.Run(context.Background(), &pipeline.Artifacts{Target: cfg.Target})
	require.NoError(t, err)
	a := res.Artifacts

	assert.Equal(t, 40, a.Raw.Nrow())
	assert.Equal(t, 39, a.Cleaned.Nrow())
	assert.Equal(t, "flag", a.Target)
	assert.Equal(t, []string{"avg_min_between_sent_tnx", "total_ether_sent", "flag"}, a.Engineered.Names())
	assert.Equal(t, []string{"avg_min_between_sent_tnx", "total_ether_sent"}, a.Features)
	assert.Equal(t, a.Features, a.Transformed)
	assert.Contains(t, a.Params["total_ether_sent"], "lambda")

	require.NotNil(t, a.Split)
	assert.Len(t, a.Split.TestRows, 8)
	require.NotNil(t, a.Weights)
	assert.Equal(t, a.Features, a.Weights.Features)

	require.NotNil(t, a.Evaluation)
	assert.Equal(t, 8, a.Evaluation.Samples)
	assert.GreaterOrEqual(t, a.Evaluation.Accuracy, 0.75)
	assert.Len(t, res.Steps, 7)
}

func TestFromConfig_InvalidStrategy(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Ingest.Path = "tx.csv"
	cfg.Feature.Strategy = "pca"

	_, err = FromConfig(cfg)
	var vErr *errors.ValidationError
	assert.True(t, errors.As(err, &vErr))
}
