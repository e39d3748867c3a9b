package neighbors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/YuminosukeSato/selgo/core/model"
	"github.com/YuminosukeSato/selgo/pkg/errors"
)

func TestKNNClassifierBasic(t *testing.T) {
	// Two well separated groups in 2D
	X := mat.NewDense(6, 2, []float64{
		0.0, 0.0,
		0.5, 0.5,
		0.0, 0.5,
		10.0, 10.0,
		10.5, 10.5,
		10.0, 10.5,
	})
	y := mat.NewDense(6, 1, []float64{0, 0, 0, 1, 1, 1})

	knn := NewKNNClassifier(WithK(3))
	require.NoError(t, knn.Fit(X, y))
	assert.True(t, knn.IsFitted())

	XTest := mat.NewDense(2, 2, []float64{
		0.2, 0.2,
		10.2, 10.2,
	})
	pred, err := knn.Predict(XTest)
	require.NoError(t, err)

	assert.Equal(t, 0.0, pred.At(0, 0))
	assert.Equal(t, 1.0, pred.At(1, 0))
}

func TestKNNClassifierDistanceWeights(t *testing.T) {
	// One close class-0 sample against two farther class-1 samples.
	// Uniform voting picks class 1 (2 votes vs 1), distance weighting
	// picks class 0 (1/0.5 > 1/1.5 + 1/1.7).
	X := mat.NewDense(3, 1, []float64{0.0, 2.0, 2.2})
	y := mat.NewDense(3, 1, []float64{0, 1, 1})
	XQuery := mat.NewDense(1, 1, []float64{0.5})

	uniform := NewKNNClassifier(WithK(3), WithWeights(WeightsUniform))
	require.NoError(t, uniform.Fit(X, y))
	pred, err := uniform.Predict(XQuery)
	require.NoError(t, err)
	assert.Equal(t, 1.0, pred.At(0, 0), "uniform voting should pick the majority class")

	weighted := NewKNNClassifier(WithK(3), WithWeights(WeightsDistance))
	require.NoError(t, weighted.Fit(X, y))
	pred, err = weighted.Predict(XQuery)
	require.NoError(t, err)
	assert.Equal(t, 0.0, pred.At(0, 0), "distance weighting should pick the closest class")
}

func TestKNNClassifierExactMatch(t *testing.T) {
	// A query identical to a training sample must return its label when
	// using distance weights, regardless of the other neighbors.
	X := mat.NewDense(4, 1, []float64{1.0, 1.01, 1.02, 1.03})
	y := mat.NewDense(4, 1, []float64{7, 3, 3, 3})

	knn := NewKNNClassifier(WithK(4), WithWeights(WeightsDistance))
	require.NoError(t, knn.Fit(X, y))

	pred, err := knn.Predict(mat.NewDense(1, 1, []float64{1.0}))
	require.NoError(t, err)
	assert.Equal(t, 7.0, pred.At(0, 0))
}

func TestKNNClassifierMetricChoice(t *testing.T) {
	// The nearest neighbor differs between metrics:
	// query (0,0) vs (2,2): euclidean sqrt(8)≈2.83, manhattan 4
	// query (0,0) vs (0,3): euclidean 3,               manhattan 3
	X := mat.NewDense(2, 2, []float64{
		2, 2,
		0, 3,
	})
	y := mat.NewDense(2, 1, []float64{0, 1})
	XQuery := mat.NewDense(1, 2, []float64{0, 0})

	euclidean := NewKNNClassifier(WithK(1), WithMetric(MetricEuclidean))
	require.NoError(t, euclidean.Fit(X, y))
	pred, err := euclidean.Predict(XQuery)
	require.NoError(t, err)
	assert.Equal(t, 0.0, pred.At(0, 0))

	manhattan := NewKNNClassifier(WithK(1), WithMetric(MetricManhattan))
	require.NoError(t, manhattan.Fit(X, y))
	pred, err = manhattan.Predict(XQuery)
	require.NoError(t, err)
	assert.Equal(t, 1.0, pred.At(0, 0))
}

func TestKNNClassifierVoteTieBreak(t *testing.T) {
	// With one vote per class the tie resolves to the smaller label
	X := mat.NewDense(2, 1, []float64{1.0, 3.0})
	y := mat.NewDense(2, 1, []float64{5, 2})

	knn := NewKNNClassifier(WithK(2))
	require.NoError(t, knn.Fit(X, y))

	pred, err := knn.Predict(mat.NewDense(1, 1, []float64{2.0}))
	require.NoError(t, err)
	assert.Equal(t, 2.0, pred.At(0, 0))
}

func TestKNNClassifierValidation(t *testing.T) {
	X := mat.NewDense(3, 2, []float64{1, 2, 3, 4, 5, 6})
	y := mat.NewDense(3, 1, []float64{0, 1, 0})

	tests := []struct {
		name string
		knn  *KNNClassifier
	}{
		{"k below 1", NewKNNClassifier(WithK(0))},
		{"k above sample count", NewKNNClassifier(WithK(4))},
		{"unknown weights", NewKNNClassifier(WithWeights("gaussian"))},
		{"unknown metric", NewKNNClassifier(WithMetric("cosine"))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.knn.Fit(X, y)
			require.Error(t, err)
			var ve *errors.ValidationError
			assert.True(t, errors.As(err, &ve))
		})
	}

	t.Run("mismatched rows", func(t *testing.T) {
		knn := NewKNNClassifier(WithK(1))
		assert.Error(t, knn.Fit(X, mat.NewDense(2, 1, []float64{0, 1})))
	})
	t.Run("y not a column vector", func(t *testing.T) {
		knn := NewKNNClassifier(WithK(1))
		assert.Error(t, knn.Fit(X, mat.NewDense(3, 2, []float64{0, 1, 0, 1, 0, 1})))
	})
}

func TestKNNClassifierNotFitted(t *testing.T) {
	knn := NewKNNClassifier()
	X := mat.NewDense(1, 2, []float64{1, 2})

	_, err := knn.Predict(X)
	require.Error(t, err)
	var nfe *errors.NotFittedError
	assert.True(t, errors.As(err, &nfe))

	_, err = knn.Score(X, mat.NewDense(1, 1, []float64{0}))
	assert.Error(t, err)
}

func TestKNNClassifierClasses(t *testing.T) {
	X := mat.NewDense(5, 1, []float64{1, 2, 3, 4, 5})
	y := mat.NewDense(5, 1, []float64{3, 1, 3, 2, 1})

	knn := NewKNNClassifier(WithK(1))
	require.NoError(t, knn.Fit(X, y))

	assert.Equal(t, []int{1, 2, 3}, knn.Classes())

	// The returned slice is a copy
	knn.Classes()[0] = 99
	assert.Equal(t, []int{1, 2, 3}, knn.Classes())
}

func TestKNNClassifierScore(t *testing.T) {
	X := mat.NewDense(4, 1, []float64{0, 1, 10, 11})
	y := mat.NewDense(4, 1, []float64{0, 0, 1, 1})

	knn := NewKNNClassifier(WithK(1))
	require.NoError(t, knn.Fit(X, y))

	// With k=1 every training point is its own nearest neighbor
	score, err := knn.Score(X, y)
	require.NoError(t, err)
	assert.Equal(t, 1.0, score)
}

func TestKNNClassifierClone(t *testing.T) {
	X := mat.NewDense(2, 1, []float64{0, 10})
	y := mat.NewDense(2, 1, []float64{0, 1})

	knn := NewKNNClassifier(WithK(1), WithWeights(WeightsDistance), WithMetric(MetricManhattan))
	require.NoError(t, knn.Fit(X, y))

	clone, ok := knn.Clone().(*KNNClassifier)
	require.True(t, ok)

	assert.False(t, clone.IsFitted())
	assert.Equal(t, knn.k, clone.k)
	assert.Equal(t, knn.weights, clone.weights)
	assert.Equal(t, knn.metric, clone.metric)

	require.NoError(t, clone.Fit(X, y))
	score, err := clone.Score(X, y)
	require.NoError(t, err)
	assert.Equal(t, 1.0, score)
}

func TestKNNClassifierGaussianClusters(t *testing.T) {
	// Two widely separated Gaussian clusters
	nPerClass := 40
	nFeatures := 3
	X := mat.NewDense(2*nPerClass, nFeatures, nil)
	y := mat.NewDense(2*nPerClass, 1, nil)
	for i := 0; i < nPerClass; i++ {
		for j := 0; j < nFeatures; j++ {
			X.Set(i, j, distuv.Normal{Mu: 0, Sigma: 1}.Rand())
			X.Set(nPerClass+i, j, distuv.Normal{Mu: 10, Sigma: 1}.Rand())
		}
		y.Set(i, 0, 0)
		y.Set(nPerClass+i, 0, 1)
	}

	knn := NewKNNClassifier(WithK(5))
	require.NoError(t, knn.Fit(X, y))

	score, err := knn.Score(X, y)
	require.NoError(t, err)
	assert.Greater(t, score, 0.95)
}

func TestKNNClassifierImplementsInterfaces(t *testing.T) {
	var _ model.Classifier = (*KNNClassifier)(nil)
	var _ model.Cloner = (*KNNClassifier)(nil)
}
