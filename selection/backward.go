package selection

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/selgo/core/model"
	"github.com/YuminosukeSato/selgo/pkg/errors"
	"github.com/YuminosukeSato/selgo/pkg/log"
)

// SequentialBackwardSelector searches feature subsets by elimination.
// Starting from the full feature set, each round enumerates every
// subset one feature smaller than the previous winner, scores each with
// the wrapped estimator and keeps the best. The search stops once the
// subset size reaches the reduced feature size, recording one
// RoundRecord per round.
type SequentialBackwardSelector struct {
	search
}

// NewSequentialBackwardSelector creates a backward selector around the
// given estimator. By default the selector reduces to a single feature
// and scores subsets with 5-fold cross-validation.
func NewSequentialBackwardSelector(estimator model.Estimator, opts ...Option) *SequentialBackwardSelector {
	return &SequentialBackwardSelector{
		search: newSearch("SequentialBackwardSelector", "selection.backward", estimator, opts),
	}
}

// Fit runs the backward search on X and y. X is (samples x features)
// and y is a column vector of targets; neither is modified. Any record
// log from a previous Fit is discarded.
//
// Each round starts from a baseline score of zero, so a round where no
// subset scores above zero stops the search with a NoImprovementError.
// When the reduced feature size exceeds the number of columns of X the
// search body never runs and the record log stays empty.
func (sel *SequentialBackwardSelector) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "SequentialBackwardSelector.Fit")

	nSamples, nFeatures, err := sel.begin(X, y)
	if err != nil {
		return err
	}

	sel.logger.Debug("backward search started",
		log.SamplesKey, nSamples,
		log.FeatureSizeKey, nFeatures,
		"reduced_feature_size", sel.cfg.reducedFeatureSize,
	)

	pool := make([]int, nFeatures)
	for i := range pool {
		pool[i] = i
	}

	round := 0
	for size := nFeatures; size >= sel.cfg.reducedFeatureSize; size-- {
		subsets := subsetsFromPool(pool, size)
		scores, err := sel.evaluateSubsets(X, y, subsets)
		if err != nil {
			return err
		}

		rec, err := sel.bestRound(size, subsets, scores)
		if err != nil {
			return err
		}
		sel.records = append(sel.records, rec)
		round++

		// The next round eliminates from this round's winner
		pool = make([]int, len(rec.Features))
		copy(pool, rec.Features)

		sel.logger.Info("round complete",
			log.RoundKey, round,
			log.FeatureSizeKey, rec.FeatureSize,
			log.CombinationsKey, len(subsets),
			log.BestScoreKey, rec.Score,
			"features", rec.Features,
		)
	}

	sel.finish(nFeatures, nSamples)
	return nil
}

// FitTransform runs Fit and returns X restricted to the best subset
func (sel *SequentialBackwardSelector) FitTransform(X, y mat.Matrix) (mat.Matrix, error) {
	if err := sel.Fit(X, y); err != nil {
		return nil, err
	}
	return sel.Transform(X)
}
