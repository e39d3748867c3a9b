// Package neighbors implements k-nearest neighbor estimators.
package neighbors

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/selgo/core/model"
	"github.com/YuminosukeSato/selgo/core/parallel"
	"github.com/YuminosukeSato/selgo/metrics"
	"github.com/YuminosukeSato/selgo/pkg/errors"
)

// Vote weighting strategies.
const (
	WeightsUniform  = "uniform"
	WeightsDistance = "distance"
)

// Distance metrics.
const (
	MetricEuclidean = "euclidean"
	MetricManhattan = "manhattan"
)

// Queries below this count are predicted sequentially.
const predictParallelThreshold = 100

// KNNClassifier implements k-nearest neighbor classification.
// Compatible with scikit-learn's KNeighborsClassifier.
//
// KNN is a lazy learner: Fit stores the training data and all work
// happens at prediction time.
type KNNClassifier struct {
	state *model.StateManager

	// Hyperparameters
	k       int    // Number of neighbors
	weights string // Vote weighting: "uniform" or "distance"
	metric  string // Distance metric: "euclidean" or "manhattan"

	// Training data
	trainX *mat.Dense
	trainY []float64

	// Learned attributes
	classes_ []int
}

// KNNOption is a functional option for KNNClassifier
type KNNOption func(*KNNClassifier)

// NewKNNClassifier creates a new KNNClassifier
func NewKNNClassifier(opts ...KNNOption) *KNNClassifier {
	knn := &KNNClassifier{
		state:   model.NewStateManager(),
		k:       5,
		weights: WeightsUniform,
		metric:  MetricEuclidean,
	}
	for _, opt := range opts {
		opt(knn)
	}
	return knn
}

// WithK sets the number of neighbors
func WithK(k int) KNNOption {
	return func(knn *KNNClassifier) {
		knn.k = k
	}
}

// WithWeights sets the vote weighting strategy
func WithWeights(weights string) KNNOption {
	return func(knn *KNNClassifier) {
		knn.weights = weights
	}
}

// WithMetric sets the distance metric
func WithMetric(metric string) KNNOption {
	return func(knn *KNNClassifier) {
		knn.metric = metric
	}
}

// Fit stores the training data and extracts the class labels
func (knn *KNNClassifier) Fit(X, y mat.Matrix) error {
	nSamples, nFeatures := X.Dims()
	yRows, yCols := y.Dims()

	if nSamples == 0 || nFeatures == 0 {
		return errors.NewModelError("KNNClassifier.Fit", "empty data", errors.ErrEmptyData)
	}
	if yRows != nSamples {
		return errors.NewDimensionError("KNNClassifier.Fit", nSamples, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewValueError("KNNClassifier.Fit", "y must be a column vector")
	}

	if knn.k < 1 {
		return errors.NewValidationError("k", "must be at least 1", knn.k)
	}
	if knn.k > nSamples {
		return errors.NewValidationError("k", "must not exceed the number of training samples", knn.k)
	}
	if knn.weights != WeightsUniform && knn.weights != WeightsDistance {
		return errors.NewValidationError("weights", `must be "uniform" or "distance"`, knn.weights)
	}
	if knn.metric != MetricEuclidean && knn.metric != MetricManhattan {
		return errors.NewValidationError("metric", `must be "euclidean" or "manhattan"`, knn.metric)
	}

	knn.trainX = mat.DenseCopyOf(X)
	knn.trainY = make([]float64, nSamples)
	classSet := make(map[int]bool)
	for i := 0; i < nSamples; i++ {
		knn.trainY[i] = y.At(i, 0)
		classSet[int(knn.trainY[i])] = true
	}

	knn.classes_ = make([]int, 0, len(classSet))
	for class := range classSet {
		knn.classes_ = append(knn.classes_, class)
	}
	sort.Ints(knn.classes_)

	knn.state.SetDimensions(nFeatures, nSamples)
	knn.state.SetFitted()
	return nil
}

// Predict returns the predicted class label for each row of X as an n×1 matrix
func (knn *KNNClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !knn.state.IsFitted() {
		return nil, errors.NewNotFittedError("KNNClassifier", "Predict")
	}

	r, c := X.Dims()
	nFeatures, _ := knn.state.GetDimensions()
	if c != nFeatures {
		return nil, errors.NewDimensionError("KNNClassifier.Predict", nFeatures, c, 1)
	}

	predictions := mat.NewDense(r, 1, nil)
	parallel.ParallelizeWithThreshold(r, predictParallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			query := mat.Row(nil, i, X)
			predictions.Set(i, 0, knn.predictOne(query))
		}
	})

	return predictions, nil
}

// neighbor pairs a training sample index with its distance to the query.
type neighbor struct {
	dist float64
	idx  int
}

// predictOne classifies a single query point by majority vote among
// the k nearest training samples.
func (knn *KNNClassifier) predictOne(query []float64) float64 {
	nTrain := len(knn.trainY)
	candidates := make([]neighbor, nTrain)
	for j := 0; j < nTrain; j++ {
		candidates[j] = neighbor{
			dist: knn.distance(query, knn.trainX.RawRowView(j)),
			idx:  j,
		}
	}

	// Ties on distance resolve to the lower sample index so that
	// predictions are deterministic.
	sort.Slice(candidates, func(a, b int) bool {
		if candidates[a].dist != candidates[b].dist {
			return candidates[a].dist < candidates[b].dist
		}
		return candidates[a].idx < candidates[b].idx
	})
	nearest := candidates[:knn.k]

	votes := make(map[float64]float64)
	if knn.weights == WeightsDistance && nearest[0].dist == 0 {
		// Exact matches override distance weighting: vote only among
		// the zero-distance neighbors.
		for _, nb := range nearest {
			if nb.dist > 0 {
				break
			}
			votes[knn.trainY[nb.idx]]++
		}
	} else {
		for _, nb := range nearest {
			w := 1.0
			if knn.weights == WeightsDistance {
				w = errors.SafeDivide(1.0, nb.dist)
			}
			votes[knn.trainY[nb.idx]] += w
		}
	}

	// Vote ties resolve to the smallest class label.
	var best float64
	bestWeight := -1.0
	for label, w := range votes {
		if w > bestWeight || (w == bestWeight && label < best) {
			best = label
			bestWeight = w
		}
	}
	return best
}

// distance computes the configured metric between two points.
func (knn *KNNClassifier) distance(a, b []float64) float64 {
	switch knn.metric {
	case MetricManhattan:
		return floats.Distance(a, b, 1)
	default:
		return floats.Distance(a, b, 2)
	}
}

// Score returns the mean accuracy on the given test data and labels
func (knn *KNNClassifier) Score(X, y mat.Matrix) (float64, error) {
	if !knn.state.IsFitted() {
		return 0, errors.NewNotFittedError("KNNClassifier", "Score")
	}

	yPred, err := knn.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.AccuracyMatrix(y, yPred)
}

// Classes returns the sorted unique class labels seen during Fit
func (knn *KNNClassifier) Classes() []int {
	if knn.classes_ == nil {
		return nil
	}
	classes := make([]int, len(knn.classes_))
	copy(classes, knn.classes_)
	return classes
}

// Clone returns an unfitted copy with the same hyperparameters
func (knn *KNNClassifier) Clone() model.Estimator {
	return &KNNClassifier{
		state:   model.NewStateManager(),
		k:       knn.k,
		weights: knn.weights,
		metric:  knn.metric,
	}
}

// IsFitted reports whether Fit has completed successfully
func (knn *KNNClassifier) IsFitted() bool {
	return knn.state.IsFitted()
}
