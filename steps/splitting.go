package steps

import (
	"context"
	"math"
	"math/rand"
	"sort"

	"github.com/YuminosukeSato/fraudflow/dataset"
	"github.com/YuminosukeSato/fraudflow/pipeline"
	"github.com/YuminosukeSato/fraudflow/pkg/errors"
	"github.com/YuminosukeSato/fraudflow/pkg/log"
	"github.com/go-gota/gota/dataframe"
	"gonum.org/v1/gonum/mat"
)

// SplitOptions configures TrainTestSplit.
type SplitOptions struct {
	// TestSize is the fraction of rows held out, in (0, 1).
	TestSize float64
	// RandomState seeds the shuffle.
	RandomState int64
	// Stratify keeps the label proportions equal in both parts.
	Stratify bool
}

// TrainTestSplit shuffles the rows of df and splits them into a train and a
// test part. Every column except target is a feature. The test part holds
// ceil(TestSize * n) rows, per label when stratified.
func TrainTestSplit(df dataframe.DataFrame, target string, opts SplitOptions) (*pipeline.Split, []string, error) {
	if opts.TestSize <= 0 || opts.TestSize >= 1 {
		return nil, nil, errors.NewValidationError("test_size", "must be in (0, 1)", opts.TestSize)
	}
	if err := dataset.RequireColumns(NameSplitting, df, target); err != nil {
		return nil, nil, err
	}
	features, err := dataset.FeatureColumns(NameSplitting, df, target, nil)
	if err != nil {
		return nil, nil, err
	}
	X, err := dataset.ToMatrix(NameSplitting, df, features)
	if err != nil {
		return nil, nil, err
	}
	y, err := dataset.FloatColumn(NameSplitting, df, target)
	if err != nil {
		return nil, nil, err
	}
	for i, v := range y {
		if math.IsNaN(v) {
			return nil, nil, errors.NewValueError(NameSplitting, "label is missing at row "+itoa(i))
		}
	}

	n := len(y)
	rng := rand.New(rand.NewSource(opts.RandomState))
	var trainRows, testRows []int
	if opts.Stratify {
		trainRows, testRows = stratifiedSplit(y, opts.TestSize, rng)
	} else {
		perm := rng.Perm(n)
		nTest := int(math.Ceil(opts.TestSize * float64(n)))
		testRows, trainRows = perm[:nTest], perm[nTest:]
	}
	if len(trainRows) == 0 || len(testRows) == 0 {
		return nil, nil, errors.NewValidationError("test_size", "leaves an empty train or test part", opts.TestSize)
	}

	yCol := mat.NewDense(n, 1, y)
	return &pipeline.Split{
		XTrain:    selectRows(X, trainRows),
		XTest:     selectRows(X, testRows),
		YTrain:    selectRows(yCol, trainRows),
		YTest:     selectRows(yCol, testRows),
		TrainRows: trainRows,
		TestRows:  testRows,
	}, features, nil
}

func stratifiedSplit(y []float64, testSize float64, rng *rand.Rand) (train, test []int) {
	byLabel := make(map[float64][]int)
	for i, v := range y {
		byLabel[v] = append(byLabel[v], i)
	}
	labels := make([]float64, 0, len(byLabel))
	for l := range byLabel {
		labels = append(labels, l)
	}
	sort.Float64s(labels)

	for _, l := range labels {
		rows := byLabel[l]
		rng.Shuffle(len(rows), func(i, j int) { rows[i], rows[j] = rows[j], rows[i] })
		nTest := int(math.Ceil(testSize * float64(len(rows))))
		if nTest == len(rows) && len(rows) > 1 {
			nTest--
		}
		test = append(test, rows[:nTest]...)
		train = append(train, rows[nTest:]...)
	}
	rng.Shuffle(len(train), func(i, j int) { train[i], train[j] = train[j], train[i] })
	rng.Shuffle(len(test), func(i, j int) { test[i], test[j] = test[j], test[i] })
	return train, test
}

func selectRows(m *mat.Dense, rows []int) *mat.Dense {
	_, c := m.Dims()
	out := mat.NewDense(len(rows), c, nil)
	for i, r := range rows {
		out.SetRow(i, m.RawRowView(r))
	}
	return out
}

// Splitting is the train/test split step.
type Splitting struct {
	Options SplitOptions
}

// Name implements pipeline.Step.
func (s *Splitting) Name() string { return NameSplitting }

// Run implements pipeline.Step.
func (s *Splitting) Run(ctx context.Context, a *pipeline.Artifacts) error {
	split, features, err := TrainTestSplit(a.Data, a.Target, s.Options)
	if err != nil {
		return err
	}
	a.Split = split
	a.Features = features

	log.GetLoggerWithName("steps").Info("Dataset split",
		log.StepKey, NameSplitting,
		"split.train", len(split.TrainRows),
		"split.test", len(split.TestRows),
		"split.stratify", s.Options.Stratify,
	)
	return nil
}
