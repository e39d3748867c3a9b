// Package model provides additional interfaces and types for machine learning models.
// This file complements the basic interfaces in estimator.go and transformer.go
package model

import (
	"gonum.org/v1/gonum/mat"
)

// Scorer is the interface for models that can compute a score.
type Scorer interface {
	// Score returns a scalar quality measure of the prediction on X against y,
	// such as R^2 for regressors or accuracy for classifiers.
	Score(X mat.Matrix, y mat.Matrix) (float64, error)
}

// Estimator is the minimal contract a trainable model exposes to feature
// selection and cross-validation: fit on a feature subset, score on a
// feature subset. Models must tolerate repeated fits with differing
// column counts.
type Estimator interface {
	Fitter
	Scorer
}

// Cloner is the interface for estimators that can produce an independent,
// unfitted copy of themselves with identical hyperparameters. Cloning
// enables parallel evaluation and per-fold cross-validation without
// sharing mutable fit state.
type Cloner interface {
	// Clone returns a fresh estimator configured like the receiver.
	Clone() Estimator
}

// Regressor combines interfaces for regression models.
type Regressor interface {
	Estimator
	Predictor
}

// Classifier combines interfaces for classification models.
type Classifier interface {
	Estimator
	Predictor

	// Classes returns the unique classes seen during fitting.
	Classes() []int
}
