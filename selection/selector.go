// Package selection implements sequential feature selection over
// estimators. A selector wraps any estimator and searches feature
// subsets by fitting and scoring it on restricted column views of the
// input, either with cross-validation or by scoring on the training
// data directly.
package selection

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/combin"

	"github.com/YuminosukeSato/selgo/core/model"
	"github.com/YuminosukeSato/selgo/core/parallel"
	"github.com/YuminosukeSato/selgo/modelselection"
	"github.com/YuminosukeSato/selgo/pkg/errors"
	"github.com/YuminosukeSato/selgo/pkg/log"
)

// RoundRecord captures the winning subset of one selection round.
// The JSON field names follow the export format of the results log.
type RoundRecord struct {
	// FeatureSize is the subset size searched in this round
	FeatureSize int `json:"featureSize"`
	// Score is the best score found among subsets of this size
	Score float64 `json:"score"`
	// Features holds the winning feature indices in ascending order,
	// referring to columns of the original fit input
	Features []int `json:"features"`
}

// CrossValidator evaluates an estimator on a feature-restricted dataset
// and returns one score per fold. modelselection.KFoldValidator is the
// standard implementation.
type CrossValidator interface {
	Evaluate(est model.Estimator, X, y mat.Matrix) ([]float64, error)
}

// Option configures a selector
type Option func(*config)

type config struct {
	reducedFeatureSize int
	useCV              bool
	cv                 CrossValidator
	nJobs              int
}

func defaultConfig() config {
	return config{
		reducedFeatureSize: 1,
		useCV:              true,
		nJobs:              1,
	}
}

// WithReducedFeatureSize sets the number of features the selector keeps.
// The default is 1.
func WithReducedFeatureSize(n int) Option {
	return func(c *config) {
		c.reducedFeatureSize = n
	}
}

// WithCrossValidation enables cross-validated scoring using the given
// validator. Passing nil keeps the default 5-fold validator.
func WithCrossValidation(cv CrossValidator) Option {
	return func(c *config) {
		c.useCV = true
		c.cv = cv
	}
}

// WithoutCrossValidation makes each subset score come from fitting and
// scoring the estimator on the same restricted data.
func WithoutCrossValidation() Option {
	return func(c *config) {
		c.useCV = false
	}
}

// WithNJobs sets the number of workers used to score the subsets of a
// round. 1 (the default) scores sequentially; values below 1 use one
// worker per CPU core. Parallel scoring requires the estimator to
// implement model.Cloner and falls back to sequential scoring otherwise.
func WithNJobs(n int) Option {
	return func(c *config) {
		c.nJobs = n
	}
}

// search carries the state shared by the selector types: the wrapped
// estimator, the accumulated record log and the scoring policy.
// Selectors are not safe for concurrent use.
type search struct {
	state     *model.StateManager
	estimator model.Estimator
	cfg       config
	records   []RoundRecord
	logger    log.Logger
	op        string

	// Scoring strategy for the current Fit, resolved in begin
	workers int
	cloner  model.Cloner
}

func newSearch(op, loggerName string, estimator model.Estimator, opts []Option) search {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.useCV && cfg.cv == nil {
		cfg.cv = modelselection.NewKFoldValidator(5)
	}
	return search{
		state:     model.NewStateManager(),
		estimator: estimator,
		cfg:       cfg,
		logger:    log.GetLoggerWithName(loggerName),
		op:        op,
	}
}

// begin validates the inputs, discards any previous search result and
// resolves the scoring strategy for this Fit.
func (s *search) begin(X, y mat.Matrix) (nSamples, nFeatures int, err error) {
	if s.estimator == nil {
		return 0, 0, errors.NewValueError(s.op+".Fit", "estimator must not be nil")
	}
	if s.cfg.reducedFeatureSize < 1 {
		return 0, 0, errors.NewValidationError("reduced_feature_size",
			"must be at least 1", s.cfg.reducedFeatureSize)
	}

	nSamples, nFeatures = X.Dims()
	yRows, yCols := y.Dims()
	if nSamples == 0 || nFeatures == 0 {
		return 0, 0, errors.NewModelError(s.op+".Fit", "empty data", errors.ErrEmptyData)
	}
	if yRows != nSamples {
		return 0, 0, errors.NewDimensionError(s.op+".Fit", nSamples, yRows, 0)
	}
	if yCols != 1 {
		return 0, 0, errors.NewValueError(s.op+".Fit", "y must be a column vector")
	}

	// Refitting restarts the search from scratch
	s.records = nil
	s.state.Reset()

	s.workers = 1
	s.cloner = nil
	if s.cfg.nJobs != 1 {
		if cloner, ok := s.estimator.(model.Cloner); ok {
			s.workers = s.cfg.nJobs
			s.cloner = cloner
		} else {
			s.logger.Warn("estimator does not implement Cloner; scoring subsets sequentially",
				log.OperationKey, s.op)
		}
	}
	return nSamples, nFeatures, nil
}

// finish marks the search complete.
func (s *search) finish(nFeatures, nSamples int) {
	s.state.SetDimensions(nFeatures, nSamples)
	s.state.SetFitted()
}

// scoreSubset scores the estimator on the feature-restricted data.
// With cross-validation enabled the score is the mean of the fold
// scores; otherwise the estimator is fit and scored on the same data.
func (s *search) scoreSubset(est model.Estimator, X, y mat.Matrix, features []int) (float64, error) {
	subX := columnSubset(X, features)

	if s.cfg.useCV {
		foldScores, err := s.cfg.cv.Evaluate(est, subX, y)
		if err != nil {
			return 0, err
		}
		if len(foldScores) == 0 {
			return 0, errors.NewValueError(s.op, "cross-validator returned no fold scores")
		}
		return floats.Sum(foldScores) / float64(len(foldScores)), nil
	}

	if err := est.Fit(subX, y); err != nil {
		return 0, err
	}
	return est.Score(subX, y)
}

// evaluateSubsets scores every subset and returns the scores in
// enumeration order. Subsets are scored in parallel when begin resolved
// a multi-worker strategy; the order of the returned scores is the
// same either way.
func (s *search) evaluateSubsets(X, y mat.Matrix, subsets [][]int) ([]float64, error) {
	scores := make([]float64, len(subsets))

	if s.workers != 1 && s.cloner != nil {
		errs := make([]error, len(subsets))
		parallel.ParallelizeWithWorkers(len(subsets), s.workers, func(start, end int) {
			est := s.cloner.Clone()
			for i := start; i < end; i++ {
				scores[i], errs[i] = s.scoreSubset(est, X, y, subsets[i])
			}
		})
		for _, err := range errs {
			if err != nil {
				return nil, err
			}
		}
	} else {
		for i, subset := range subsets {
			score, err := s.scoreSubset(s.estimator, X, y, subset)
			if err != nil {
				return nil, err
			}
			scores[i] = score
		}
	}

	// Subset scores must be finite to take part in the argmax
	for i, score := range scores {
		if err := errors.CheckScalar(s.op, score, i); err != nil {
			return nil, err
		}
	}
	return scores, nil
}

// bestRound picks the winning subset of a round. A subset wins only by
// strictly beating the current best, starting from a baseline of zero:
// the first subset in enumeration order takes any tie, and a round
// where no subset scores above zero fails the search.
func (s *search) bestRound(size int, subsets [][]int, scores []float64) (RoundRecord, error) {
	bestScore := 0.0
	bestIdx := -1
	for i, score := range scores {
		if score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}
	if bestIdx < 0 {
		return RoundRecord{}, errors.NewNoImprovementError(s.op, size, len(subsets), 0)
	}

	features := make([]int, len(subsets[bestIdx]))
	copy(features, subsets[bestIdx])
	return RoundRecord{
		FeatureSize: size,
		Score:       bestScore,
		Features:    features,
	}, nil
}

// IsFitted reports whether Fit has completed successfully
func (s *search) IsFitted() bool {
	return s.state.IsFitted()
}

// Records returns the per-round record log in search order. The log is
// rebuilt on every Fit.
func (s *search) Records() []RoundRecord {
	records := make([]RoundRecord, len(s.records))
	for i, rec := range s.records {
		records[i] = copyRecord(rec)
	}
	return records
}

// Best returns the record with the highest score. Ties resolve to the
// smaller feature size.
func (s *search) Best() (RoundRecord, error) {
	if !s.state.IsFitted() {
		return RoundRecord{}, errors.NewNotFittedError(s.op, "Best")
	}
	if len(s.records) == 0 {
		return RoundRecord{}, errors.NewValueError(s.op+".Best", "no selection rounds were recorded")
	}

	best := 0
	for i := 1; i < len(s.records); i++ {
		r, b := s.records[i], s.records[best]
		if r.Score > b.Score || (r.Score == b.Score && r.FeatureSize < b.FeatureSize) {
			best = i
		}
	}
	return copyRecord(s.records[best]), nil
}

// Transform returns a copy of X restricted to the columns of the best
// recorded subset. X must have the same number of columns as the data
// the selector was fit on.
func (s *search) Transform(X mat.Matrix) (mat.Matrix, error) {
	if !s.state.IsFitted() {
		return nil, errors.NewNotFittedError(s.op, "Transform")
	}

	best, err := s.Best()
	if err != nil {
		return nil, err
	}

	_, c := X.Dims()
	nFeatures, _ := s.state.GetDimensions()
	if c != nFeatures {
		return nil, errors.NewDimensionError(s.op+".Transform", nFeatures, c, 1)
	}
	return columnSubset(X, best.Features), nil
}

func copyRecord(rec RoundRecord) RoundRecord {
	features := make([]int, len(rec.Features))
	copy(features, rec.Features)
	return RoundRecord{
		FeatureSize: rec.FeatureSize,
		Score:       rec.Score,
		Features:    features,
	}
}

// columnSubset copies the selected columns of X into a new matrix,
// leaving the input untouched.
func columnSubset(X mat.Matrix, features []int) *mat.Dense {
	r, _ := X.Dims()
	out := mat.NewDense(r, len(features), nil)
	for i := 0; i < r; i++ {
		for j, f := range features {
			out.Set(i, j, X.At(i, f))
		}
	}
	return out
}

// subsetsFromPool enumerates all subsets of the given size from the
// pool, in lexicographic order. The pool must be sorted ascending so
// the enumeration order matches the feature indices.
func subsetsFromPool(pool []int, size int) [][]int {
	combos := combin.Combinations(len(pool), size)
	for _, combo := range combos {
		for i, p := range combo {
			combo[i] = pool[p]
		}
	}
	return combos
}
