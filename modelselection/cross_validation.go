package modelselection

import (
	"math"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/selgo/core/model"
	"github.com/YuminosukeSato/selgo/pkg/errors"
	"github.com/YuminosukeSato/selgo/pkg/log"
)

// CVResult stores per-fold cross-validation results
type CVResult struct {
	TrainScores []float64
	TestScores  []float64
	FitTimes    []float64 // Seconds spent in Fit per fold
	ScoreTimes  []float64 // Seconds spent scoring per fold

	// Estimators holds the fitted estimator per fold. Only populated
	// when the estimator implements model.Cloner; otherwise the caller's
	// estimator is refit in place and every entry is nil.
	Estimators []model.Estimator

	BestFold  int
	BestScore float64
}

// GetMeanScore returns the mean test score across folds
func (cv *CVResult) GetMeanScore() float64 {
	if len(cv.TestScores) == 0 {
		return 0.0
	}

	sum := 0.0
	for _, score := range cv.TestScores {
		sum += score
	}
	return sum / float64(len(cv.TestScores))
}

// GetStdScore returns the sample standard deviation of the test scores
func (cv *CVResult) GetStdScore() float64 {
	if len(cv.TestScores) <= 1 {
		return 0.0
	}

	mean := cv.GetMeanScore()
	sumSq := 0.0
	for _, score := range cv.TestScores {
		diff := score - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(len(cv.TestScores)-1))
}

// CrossValidate evaluates an estimator with cross-validation.
//
// When the estimator implements model.Cloner the folds run concurrently,
// each on its own clone, and the fitted clones are returned in
// CVResult.Estimators. Otherwise the folds run sequentially and the
// estimator is refit in place, ending up fitted on the last fold.
func CrossValidate(est model.Estimator, X, y mat.Matrix, splitter Splitter) (*CVResult, error) {
	logger := log.GetLoggerWithName("modelselection.cv")

	folds, err := splitter.Split(X, y)
	if err != nil {
		return nil, err
	}
	nFolds := len(folds)
	if nFolds == 0 {
		return nil, errors.NewValueError("CrossValidate", "splitter produced no folds")
	}

	result := &CVResult{
		TrainScores: make([]float64, nFolds),
		TestScores:  make([]float64, nFolds),
		FitTimes:    make([]float64, nFolds),
		ScoreTimes:  make([]float64, nFolds),
		Estimators:  make([]model.Estimator, nFolds),
	}

	runFold := func(idx int, foldEst model.Estimator) error {
		fold := folds[idx]
		trainX, trainY := extractSubset(X, y, fold.TrainIndices)
		testX, testY := extractSubset(X, y, fold.TestIndices)

		fitStart := time.Now()
		if err := foldEst.Fit(trainX, trainY); err != nil {
			return errors.Wrapf(err, "fold %d training failed", idx)
		}
		result.FitTimes[idx] = time.Since(fitStart).Seconds()

		scoreStart := time.Now()
		trainScore, err := foldEst.Score(trainX, trainY)
		if err != nil {
			return errors.Wrapf(err, "fold %d train scoring failed", idx)
		}
		testScore, err := foldEst.Score(testX, testY)
		if err != nil {
			return errors.Wrapf(err, "fold %d test scoring failed", idx)
		}
		result.ScoreTimes[idx] = time.Since(scoreStart).Seconds()

		result.TrainScores[idx] = trainScore
		result.TestScores[idx] = testScore

		logger.Debug("fold evaluated",
			"fold", idx,
			log.SamplesKey, len(fold.TrainIndices),
			"train_score", trainScore,
			"test_score", testScore,
		)
		return nil
	}

	if cloner, ok := est.(model.Cloner); ok {
		var g errgroup.Group
		for foldIdx := 0; foldIdx < nFolds; foldIdx++ {
			idx := foldIdx
			clone := cloner.Clone()
			result.Estimators[idx] = clone
			g.Go(func() error {
				return runFold(idx, clone)
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for foldIdx := 0; foldIdx < nFolds; foldIdx++ {
			if err := runFold(foldIdx, est); err != nil {
				return nil, err
			}
		}
	}

	// Fold scores must be finite to be aggregated
	if err := errors.CheckNumericalStability("CrossValidate", result.TestScores, 0); err != nil {
		return nil, err
	}

	result.BestFold = 0
	result.BestScore = result.TestScores[0]
	for i := 1; i < nFolds; i++ {
		if result.TestScores[i] > result.BestScore {
			result.BestScore = result.TestScores[i]
			result.BestFold = i
		}
	}

	logger.Debug("cross-validation finished",
		log.CVFoldsKey, nFolds,
		"mean_score", result.GetMeanScore(),
		"std_score", result.GetStdScore(),
	)
	return result, nil
}

// CrossValScore evaluates an estimator with cross-validation and returns
// only the per-fold test scores.
func CrossValScore(est model.Estimator, X, y mat.Matrix, splitter Splitter) ([]float64, error) {
	result, err := CrossValidate(est, X, y, splitter)
	if err != nil {
		return nil, err
	}
	return result.TestScores, nil
}

// KFoldValidator adapts a Splitter into a per-fold score evaluator,
// for callers that consume fold scores directly.
type KFoldValidator struct {
	Splitter Splitter
}

// NewKFoldValidator creates a KFoldValidator over an unshuffled KFold
// with the given number of splits.
func NewKFoldValidator(nSplits int) *KFoldValidator {
	return &KFoldValidator{Splitter: NewKFold(nSplits, false, 0)}
}

// Evaluate fits and scores the estimator on each fold and returns the
// per-fold test scores.
func (v *KFoldValidator) Evaluate(est model.Estimator, X, y mat.Matrix) ([]float64, error) {
	return CrossValScore(est, X, y, v.Splitter)
}

// extractSubset copies the selected rows of X and y into new matrices.
// Indices are applied in ascending order so relative sample order from
// the input survives into the subset.
func extractSubset(X, y mat.Matrix, indices []int) (mat.Matrix, mat.Matrix) {
	rows := len(indices)
	_, xCols := X.Dims()
	_, yCols := y.Dims()

	sortedIndices := make([]int, len(indices))
	copy(sortedIndices, indices)
	sort.Ints(sortedIndices)

	xSubset := mat.NewDense(rows, xCols, nil)
	ySubset := mat.NewDense(rows, yCols, nil)

	for i, idx := range sortedIndices {
		for j := 0; j < xCols; j++ {
			xSubset.Set(i, j, X.At(idx, j))
		}
		for j := 0; j < yCols; j++ {
			ySubset.Set(i, j, y.At(idx, j))
		}
	}

	return xSubset, ySubset
}
