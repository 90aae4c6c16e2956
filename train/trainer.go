// Package train runs the stratified cross-validation loop: it balances the
// dataset, carves off a holdout part, trains a fresh model per fold and
// aggregates the per-fold metrics into one report.
package train

import (
	"fmt"
	"math"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"

	"github.com/echolab/songbird/config"
	"github.com/echolab/songbird/dataset"
	"github.com/echolab/songbird/features"
	"github.com/echolab/songbird/logging"
	"github.com/echolab/songbird/model"
	"github.com/echolab/songbird/nn"
)

const (
	// balanceSeed drives the oversampling draw.
	balanceSeed = 0
	// splitSeed drives the holdout and fold shuffles.
	splitSeed = 42

	defaultHoldoutFraction = 0.2
)

// State tracks the trainer's lifecycle. Operations guard on it so the stages
// cannot run out of order.
type State string

const (
	StateConfigured State = "configured"
	StateDataLoaded State = "data_loaded"
	StateTrained    State = "trained"
)

// TrainOptions tunes one Run. Zero values fall back to the settings the
// trainer was configured with.
type TrainOptions struct {
	Epochs          int
	BatchSize       int
	Splits          int
	HoldoutFraction float64

	// CollectPartial keeps going when a fold fails and aggregates over
	// the folds that succeeded. By default the first failure aborts.
	CollectPartial bool
}

// MetricSummary is one aggregated score: the mean over the folds and its
// population standard deviation.
type MetricSummary struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Std   float64 `json:"std"`
}

// NamedHistory pairs a fold's label with its training curve.
type NamedHistory struct {
	Name    string      `json:"name"`
	History *nn.History `json:"history"`
}

// ConfusionReport is the fold-averaged confusion matrix with display labels.
type ConfusionReport struct {
	Title      string   `json:"title"`
	ClassNames []string `json:"class_names"`
	Matrix     [][]int  `json:"matrix"`
}

// Predictions concatenates every fold's validation output in fold order.
type Predictions struct {
	Predicted   [][]float64 `json:"predicted"`
	GroundTruth []int       `json:"ground_truth"`
}

// FoldResult is the outcome of one cross-validation fold. Err is set when
// the fold failed under CollectPartial; the other fields are then empty.
type FoldResult struct {
	Index         int
	Metrics       Metrics
	History       *nn.History
	Probabilities [][]float64
	GroundTruth   []int
	Err           error
}

// Report is the aggregated outcome of a cross-validation run.
type Report struct {
	RunID       string          `json:"run_id"`
	Model       string          `json:"model"`
	Folds       int             `json:"folds"`
	FailedFolds int             `json:"failed_folds"`
	Metrics     []MetricSummary `json:"metrics"`
	Confusion   ConfusionReport `json:"confusion"`
	Histories   []NamedHistory  `json:"histories"`
	Predictions Predictions     `json:"predictions"`
}

// HoldoutResult is the score of a fresh model, trained on the full training
// pool, against the untouched holdout part.
type HoldoutResult struct {
	Metrics     Metrics     `json:"metrics"`
	Predictions Predictions `json:"predictions"`
}

// Trainer owns one cross-validation run over one dataset.
type Trainer struct {
	cfg     config.Settings
	builder model.Builder
	logger  logging.Logger

	runID string
	state State

	data    *dataset.Set // as loaded
	pool    *dataset.Set // balanced, minus holdout
	holdout *dataset.Set
	results []*FoldResult
}

// New configures a trainer for the given settings. Zero-valued fields are
// filled from the family defaults.
func New(cfg config.Settings) (*Trainer, error) {
	cfg = cfg.Normalize()
	builder, err := model.New(cfg)
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	return &Trainer{
		cfg:     cfg,
		builder: builder,
		runID:   runID,
		state:   StateConfigured,
		logger: logging.WithFields(logging.Fields{
			"component": "trainer",
			"model":     builder.Name(),
			"run_id":    runID,
		}),
	}, nil
}

// RunID returns the unique identifier of this trainer's run.
func (t *Trainer) RunID() string { return t.runID }

// State returns the trainer's current lifecycle state.
func (t *Trainer) State() State { return t.state }

// LoadData extracts features from the class directories under root.
func (t *Trainer) LoadData(root string) error {
	if t.state != StateConfigured {
		return fmt.Errorf("data already loaded (state %s)", t.state)
	}

	extractor, err := features.New(t.cfg)
	if err != nil {
		return err
	}
	set, err := dataset.NewLoader(extractor, t.cfg.FilePattern).Load(root)
	if err != nil {
		return err
	}
	return t.UseData(set)
}

// UseData adopts an already materialized feature set.
func (t *Trainer) UseData(set *dataset.Set) error {
	if t.state != StateConfigured {
		return fmt.Errorf("data already loaded (state %s)", t.state)
	}
	if set == nil || set.Len() == 0 {
		return fmt.Errorf("empty dataset")
	}
	t.data = set
	t.state = StateDataLoaded
	return nil
}

// Run executes the full cross-validation: balance, holdout split, k folds
// with a fresh model each, then aggregation.
func (t *Trainer) Run(opts TrainOptions) (*Report, error) {
	if t.state != StateDataLoaded && t.state != StateTrained {
		return nil, fmt.Errorf("no data loaded (state %s)", t.state)
	}
	opts = t.fillOptions(opts)

	trainIdx, testIdx, err := HoldoutSplit(t.data.Labels(), opts.HoldoutFraction, splitSeed)
	if err != nil {
		return nil, err
	}
	t.holdout = t.data.Subset(testIdx)

	// Oversample minority classes after the holdout is carved off, so every
	// class can populate every fold but the holdout stays untouched.
	t.pool = dataset.Balance(t.data.Subset(trainIdx), balanceSeed)

	folds, err := StratifiedKFold(t.pool.Labels(), opts.Splits, splitSeed)
	if err != nil {
		return nil, err
	}

	t.logger.Info("cross-validation starting", logging.Fields{
		"samples": t.data.Len(),
		"pool":    t.pool.Len(),
		"holdout": t.holdout.Len(),
		"folds":   len(folds),
		"epochs":  opts.Epochs,
	})

	t.results = t.results[:0]
	for i, fold := range folds {
		result := t.trainFold(i, fold, opts)
		if result.Err != nil {
			if !opts.CollectPartial {
				return nil, fmt.Errorf("fold %d: %w", i+1, result.Err)
			}
			t.logger.Error(result.Err, "fold failed, continuing", logging.Fields{"fold": i + 1})
		}
		t.results = append(t.results, result)
	}

	report, err := t.aggregate()
	if err != nil {
		return nil, err
	}
	t.state = StateTrained
	return report, nil
}

// EvaluateHoldout trains one fresh model on the entire training pool and
// scores it against the holdout part. Valid only after Run.
func (t *Trainer) EvaluateHoldout(opts TrainOptions) (*HoldoutResult, error) {
	if t.state != StateTrained {
		return nil, fmt.Errorf("no completed run (state %s)", t.state)
	}
	opts = t.fillOptions(opts)

	trainX, trainY := tensors(t.pool)
	testX, testY := tensors(t.holdout)

	net, err := t.builder.Build(t.pool.Shape)
	if err != nil {
		return nil, err
	}
	if _, err := net.Fit(trainX, trainY, t.pool.Shape, nn.FitOptions{
		Epochs:    opts.Epochs,
		BatchSize: opts.BatchSize,
		Optimizer: t.cfg.OptimizerFunction,
	}); err != nil {
		return nil, err
	}

	probs := net.Predict(testX, t.pool.Shape)
	metrics := Evaluate(testY, PredictedClasses(probs), t.cfg.NumberClasses)

	t.logger.Info("holdout evaluation complete", logging.Fields{
		"samples":  len(testY),
		"accuracy": metrics.Accuracy,
		"f1":       metrics.F1,
	})
	return &HoldoutResult{
		Metrics:     metrics,
		Predictions: Predictions{Predicted: probs, GroundTruth: testY},
	}, nil
}

func (t *Trainer) fillOptions(opts TrainOptions) TrainOptions {
	if opts.Epochs == 0 {
		opts.Epochs = t.cfg.NumberEpochs
	}
	if opts.BatchSize == 0 {
		opts.BatchSize = t.cfg.BatchSize
	}
	if opts.Splits == 0 {
		opts.Splits = t.cfg.NumberSplits
	}
	if opts.HoldoutFraction == 0 {
		opts.HoldoutFraction = defaultHoldoutFraction
	}
	return opts
}

// trainFold builds a fresh model, fits it on the fold's balanced training
// part and scores it on the fold's validation part.
func (t *Trainer) trainFold(index int, fold Fold, opts TrainOptions) *FoldResult {
	result := &FoldResult{Index: index}

	trainSet := dataset.Balance(t.pool.Subset(fold.Train), balanceSeed)
	valSet := t.pool.Subset(fold.Val)
	trainX, trainY := tensors(trainSet)
	valX, valY := tensors(valSet)

	net, err := t.builder.Build(t.pool.Shape)
	if err != nil {
		result.Err = fmt.Errorf("building model: %w", err)
		return result
	}
	if index == 0 {
		net.Summary()
	}

	t.logger.Info("fold starting", logging.Fields{
		"fold":       index + 1,
		"train":      len(trainY),
		"validation": len(valY),
	})

	history, err := net.Fit(trainX, trainY, t.pool.Shape, nn.FitOptions{
		Epochs:    opts.Epochs,
		BatchSize: opts.BatchSize,
		Optimizer: t.cfg.OptimizerFunction,
		ValX:      valX,
		ValY:      valY,
	})
	if err != nil {
		result.Err = fmt.Errorf("fitting: %w", err)
		return result
	}

	probs := net.Predict(valX, t.pool.Shape)
	result.History = history
	result.Probabilities = probs
	result.GroundTruth = valY
	result.Metrics = Evaluate(valY, PredictedClasses(probs), t.cfg.NumberClasses)

	t.logger.Info("fold complete", logging.Fields{
		"fold":     index + 1,
		"accuracy": result.Metrics.Accuracy,
		"f1":       result.Metrics.F1,
	})
	return result
}

// aggregate folds the per-fold results into one report.
func (t *Trainer) aggregate() (*Report, error) {
	var ok []*FoldResult
	for _, r := range t.results {
		if r.Err == nil {
			ok = append(ok, r)
		}
	}
	if len(ok) == 0 {
		return nil, fmt.Errorf("every fold failed")
	}

	collect := func(pick func(Metrics) float64) []float64 {
		values := make([]float64, len(ok))
		for i, r := range ok {
			values[i] = pick(r.Metrics)
		}
		return values
	}
	summarize := func(name string, values []float64) MetricSummary {
		return MetricSummary{
			Name:  name,
			Value: stat.Mean(values, nil),
			Std:   stat.PopStdDev(values, nil),
		}
	}

	numClasses := t.cfg.NumberClasses
	meanConfusion := make([][]int, numClasses)
	for row := range numClasses {
		meanConfusion[row] = make([]int, numClasses)
		for col := range numClasses {
			sum := 0
			for _, r := range ok {
				sum += r.Metrics.Confusion[row][col]
			}
			meanConfusion[row][col] = int(math.Round(float64(sum) / float64(len(ok))))
		}
	}

	classNames := make([]string, numClasses)
	for i := range classNames {
		classNames[i] = fmt.Sprintf("Class %d", i)
	}

	report := &Report{
		RunID:       t.runID,
		Model:       t.builder.Name(),
		Folds:       len(t.results),
		FailedFolds: len(t.results) - len(ok),
		Metrics: []MetricSummary{
			summarize("Acc.", collect(func(m Metrics) float64 { return m.Accuracy })),
			summarize("Prec.", collect(func(m Metrics) float64 { return m.Precision })),
			summarize("Rec.", collect(func(m Metrics) float64 { return m.Recall })),
			summarize("F1.", collect(func(m Metrics) float64 { return m.F1 })),
		},
		Confusion: ConfusionReport{
			Title:      fmt.Sprintf("%s mean confusion matrix", t.builder.Name()),
			ClassNames: classNames,
			Matrix:     meanConfusion,
		},
	}

	for _, r := range ok {
		report.Histories = append(report.Histories, NamedHistory{
			Name:    fmt.Sprintf("%s fold %d", t.builder.Name(), r.Index+1),
			History: r.History,
		})
		report.Predictions.Predicted = append(report.Predictions.Predicted, r.Probabilities...)
		report.Predictions.GroundTruth = append(report.Predictions.GroundTruth, r.GroundTruth...)
	}

	t.logger.Info("cross-validation complete", logging.Fields{
		"folds":    report.Folds,
		"failed":   report.FailedFolds,
		"accuracy": report.Metrics[0].Value,
		"f1":       report.Metrics[3].Value,
	})
	return report, nil
}

// tensors flattens a set into parallel feature and label slices.
func tensors(set *dataset.Set) ([][]float64, []int) {
	x := make([][]float64, set.Len())
	y := make([]int, set.Len())
	for i, smp := range set.Samples {
		x[i] = smp.Data
		y[i] = smp.Label
	}
	return x, y
}
