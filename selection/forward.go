package selection

import (
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/selgo/core/model"
	"github.com/YuminosukeSato/selgo/pkg/errors"
	"github.com/YuminosukeSato/selgo/pkg/log"
)

// SequentialForwardSelector is the greedy counterpart of the backward
// selector. Starting from an empty set, each round tries adding every
// remaining feature to the current winner and keeps the addition that
// scores best, growing the set one feature per round until it reaches
// the reduced feature size.
//
// Unlike the backward selector it never enumerates full combinations,
// so each round costs at most one evaluation per remaining feature.
type SequentialForwardSelector struct {
	search
}

// NewSequentialForwardSelector creates a forward selector around the
// given estimator. The selector grows the set to the reduced feature
// size, scoring candidates with 5-fold cross-validation by default.
func NewSequentialForwardSelector(estimator model.Estimator, opts ...Option) *SequentialForwardSelector {
	return &SequentialForwardSelector{
		search: newSearch("SequentialForwardSelector", "selection.forward", estimator, opts),
	}
}

// Fit runs the forward search on X and y. The scoring policy, baseline
// and tie-breaking match the backward selector: a candidate wins a
// round only by strictly beating the zero baseline, ties go to the
// smallest feature index, and a round with no winner stops the search
// with a NoImprovementError.
//
// When the reduced feature size exceeds the number of columns of X the
// search stops after every feature has been added.
func (sel *SequentialForwardSelector) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "SequentialForwardSelector.Fit")

	nSamples, nFeatures, err := sel.begin(X, y)
	if err != nil {
		return err
	}

	sel.logger.Debug("forward search started",
		log.SamplesKey, nSamples,
		log.FeatureSizeKey, nFeatures,
		"reduced_feature_size", sel.cfg.reducedFeatureSize,
	)

	target := sel.cfg.reducedFeatureSize
	if target > nFeatures {
		target = nFeatures
	}

	var selected []int
	round := 0
	for len(selected) < target {
		subsets := growSubsets(selected, nFeatures)
		scores, err := sel.evaluateSubsets(X, y, subsets)
		if err != nil {
			return err
		}

		rec, err := sel.bestRound(len(selected)+1, subsets, scores)
		if err != nil {
			return err
		}
		sel.records = append(sel.records, rec)
		round++

		selected = make([]int, len(rec.Features))
		copy(selected, rec.Features)

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
func (sel *SequentialForwardSelector) FitTransform(X, y mat.Matrix) (mat.Matrix, error) {
	if err := sel.Fit(X, y); err != nil {
		return nil, err
	}
	return sel.Transform(X)
}

// growSubsets produces one candidate subset per feature not yet in
// selected, each extending selected by that feature. Candidates are
// enumerated in ascending feature order and every subset stays sorted.
func growSubsets(selected []int, nFeatures int) [][]int {
	inSet := make(map[int]bool, len(selected))
	for _, f := range selected {
		inSet[f] = true
	}

	subsets := make([][]int, 0, nFeatures-len(selected))
	for f := 0; f < nFeatures; f++ {
		if inSet[f] {
			continue
		}
		subset := make([]int, 0, len(selected)+1)
		subset = append(subset, selected...)
		subset = append(subset, f)
		sort.Ints(subset)
		subsets = append(subsets, subset)
	}
	return subsets
}
