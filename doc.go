// Package selgo provides sequential feature selection for Go, built
// around a small scikit-learn-like estimator API.
//
// selgo wraps any estimator that can fit and score itself and searches
// for the feature subset that scores best, keeping a per-round record
// log of every winning subset along the way.
//
// # Features
//
// - Sequential backward and forward selection over arbitrary estimators
// - Cross-validated or train-score subset evaluation
// - Parallel combination scoring for estimators that support cloning
// - JSON export of the per-round record log
// - Robust error handling with typed errors and stack traces
//
// # Installation
//
// Install selgo using go get:
//
//	go get github.com/YuminosukeSato/selgo
//
// # Quick Start
//
// Here's a backward search over a linear regression:
//
//	package main
//
//	import (
//	    "fmt"
//	    "log"
//
//	    "github.com/YuminosukeSato/selgo/linear"
//	    "github.com/YuminosukeSato/selgo/selection"
//	    "gonum.org/v1/gonum/mat"
//	)
//
//	func main() {
//	    X := mat.NewDense(4, 3, []float64{
//	        1, 0.5, 2,
//	        2, 0.1, 4,
//	        3, 0.9, 6,
//	        4, 0.2, 8,
//	    })
//	    y := mat.NewDense(4, 1, []float64{2, 4, 6, 8})
//
//	    sel := selection.NewSequentialBackwardSelector(
//	        linear.NewRegression(),
//	        selection.WithReducedFeatureSize(1),
//	        selection.WithoutCrossValidation(),
//	    )
//	    if err := sel.Fit(X, y); err != nil {
//	        log.Fatal(err)
//	    }
//
//	    for _, rec := range sel.Records() {
//	        fmt.Println(rec.FeatureSize, rec.Score, rec.Features)
//	    }
//	}
//
// # Packages
//
// The library is organized into several packages:
//
//   - selection: Sequential backward and forward feature selection
//   - modelselection: K-fold splitting and cross-validation
//   - linear: Linear regression via normal equations
//   - neighbors: K-nearest-neighbor classification
//   - metrics: Evaluation metrics (MSE, RMSE, MAE, R², accuracy)
//   - preprocessing: Feature standardization
//   - core/model: Core interfaces, state management and persistence
//   - core/parallel: Parallel processing utilities
//
// # Performance
//
// Subset enumeration is exhaustive per round, so the search cost is
// dominated by estimator fits. Estimators that implement model.Cloner
// can score combinations on multiple workers, and the bundled models
// parallelize their own fit and predict paths on large inputs.
package selgo
