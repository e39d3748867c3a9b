package metrics

import (
	"gonum.org/v1/gonum/mat"
)

// Accuracy computes the fraction of predictions that exactly match the
// true labels. Labels are class identifiers encoded as float64, so exact
// comparison is intended.
func Accuracy(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := validatePair("Accuracy", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	correct := 0
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == yPred.AtVec(i) {
			correct++
		}
	}
	return float64(correct) / float64(n), nil
}

// AccuracyMatrix computes Accuracy for n×1 matrix inputs.
func AccuracyMatrix(yTrue, yPred mat.Matrix) (float64, error) {
	yTrueVec, err := columnVector("AccuracyMatrix", yTrue)
	if err != nil {
		return 0, err
	}
	yPredVec, err := columnVector("AccuracyMatrix", yPred)
	if err != nil {
		return 0, err
	}
	return Accuracy(yTrueVec, yPredVec)
}

// ClassificationError computes the fraction of misclassified samples,
// i.e. 1 - Accuracy.
func ClassificationError(yTrue, yPred *mat.VecDense) (float64, error) {
	acc, err := Accuracy(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return 1 - acc, nil
}
