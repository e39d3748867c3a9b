// Package linear は線形回帰モデルを提供する。
package linear

import (
	"bytes"
	"encoding/gob"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/selgo/core/model"
	"github.com/YuminosukeSato/selgo/core/parallel"
	"github.com/YuminosukeSato/selgo/metrics"
	"github.com/YuminosukeSato/selgo/pkg/errors"
)

// 並列処理の閾値（この値以下の行数では逐次処理を使用）
const parallelThreshold = 1000

// Regression は最小二乗法による線形回帰モデル
type Regression struct {
	model.BaseEstimator

	// Weights は学習された重み（係数）
	Weights *mat.VecDense

	// Intercept は学習された切片
	Intercept float64

	// NFeatures は学習時の特徴量の数
	NFeatures int

	fitIntercept bool
}

// NewRegression は新しい線形回帰モデルを作成する
func NewRegression(opts ...Option) *Regression {
	lr := &Regression{
		fitIntercept: true,
	}
	for _, opt := range opts {
		opt(lr)
	}
	return lr
}

// Fit はモデルを訓練データで学習させる
// 正規方程式 w = (X^T * X)^(-1) * X^T * y を使用する。
// X^T * X が特異な場合は対角に微小値を加えて再試行する。
func (lr *Regression) Fit(X, y mat.Matrix) error {
	r, c := X.Dims()
	ry, cy := y.Dims()

	if r == 0 || c == 0 {
		return errors.NewModelError("Regression.Fit", "empty data", errors.ErrEmptyData)
	}
	if ry != r {
		return errors.NewDimensionError("Regression.Fit", r, ry, 0)
	}
	if cy != 1 {
		return errors.NewValueError("Regression.Fit", "y must be a column vector")
	}

	lr.NFeatures = c

	// 切片項のために X に 1 の列を追加
	// X_design = [1, X]（fitIntercept が false の場合は X のまま）
	nCols := c
	if lr.fitIntercept {
		nCols = c + 1
	}
	XDesign := mat.NewDense(r, nCols, nil)

	parallel.ParallelizeWithThreshold(r, parallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			if lr.fitIntercept {
				XDesign.Set(i, 0, 1.0)
				for j := 0; j < c; j++ {
					XDesign.Set(i, j+1, X.At(i, j))
				}
			} else {
				for j := 0; j < c; j++ {
					XDesign.Set(i, j, X.At(i, j))
				}
			}
		}
	})

	// 正規方程式を解く
	var XT mat.Dense
	XT.CloneFrom(XDesign.T())

	var XTX mat.Dense
	XTX.Mul(&XT, XDesign)

	var XTXInv mat.Dense
	if err := XTXInv.Inverse(&XTX); err != nil {
		// 特異行列の場合は対角に微小値を加えて再試行する
		n, _ := XTX.Dims()
		for i := 0; i < n; i++ {
			XTX.Set(i, i, XTX.At(i, i)+1e-10)
		}
		if err := XTXInv.Inverse(&XTX); err != nil {
			var cond mat.Condition
			if !errors.As(err, &cond) {
				return errors.NewModelError("Regression.Fit", "singular matrix", errors.ErrSingularMatrix)
			}
			// 条件数が大きいだけなら結果は格納されているので続行する
		}
	}

	// y を VecDense に変換して X^T * y を計算
	yVec := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		yVec.SetVec(i, y.At(i, 0))
	}

	var XTy mat.VecDense
	XTy.MulVec(&XT, yVec)

	// 重みを計算: (X^T * X)^(-1) * X^T * y
	solution := mat.NewVecDense(nCols, nil)
	solution.MulVec(&XTXInv, &XTy)

	// 切片と重みを分離
	if lr.fitIntercept {
		lr.Intercept = solution.AtVec(0)
		lr.Weights = mat.NewVecDense(c, nil)
		for i := 0; i < c; i++ {
			lr.Weights.SetVec(i, solution.AtVec(i+1))
		}
	} else {
		lr.Intercept = 0
		lr.Weights = mat.VecDenseCopyOf(solution)
	}

	lr.SetFitted()
	return nil
}

// Predict は入力データに対する予測を行う
func (lr *Regression) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !lr.IsFitted() {
		return nil, errors.NewNotFittedError("Regression", "Predict")
	}

	r, c := X.Dims()
	if c != lr.NFeatures {
		return nil, errors.NewDimensionError("Regression.Predict", lr.NFeatures, c, 1)
	}

	// 予測: y = X * weights + intercept
	predictions := mat.NewDense(r, 1, nil)
	parallel.ParallelizeWithThreshold(r, parallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			pred := lr.Intercept
			for j := 0; j < c; j++ {
				pred += X.At(i, j) * lr.Weights.AtVec(j)
			}
			predictions.Set(i, 0, pred)
		}
	})

	return predictions, nil
}

// Score はモデルの決定係数（R²）を計算する
func (lr *Regression) Score(X, y mat.Matrix) (float64, error) {
	if !lr.IsFitted() {
		return 0, errors.NewNotFittedError("Regression", "Score")
	}

	yPred, err := lr.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.R2ScoreMatrix(y, yPred)
}

// Clone は同じ設定を持つ未学習のモデルを返す
func (lr *Regression) Clone() model.Estimator {
	return &Regression{
		fitIntercept: lr.fitIntercept,
	}
}

// GetWeights は学習された重み（係数）をスライスで返す
func (lr *Regression) GetWeights() []float64 {
	if lr.Weights == nil {
		return nil
	}

	weights := make([]float64, lr.Weights.Len())
	for i := 0; i < lr.Weights.Len(); i++ {
		weights[i] = lr.Weights.AtVec(i)
	}
	return weights
}

// GetIntercept は学習された切片を返す
func (lr *Regression) GetIntercept() float64 {
	if !lr.IsFitted() {
		return 0
	}
	return lr.Intercept
}

// regressionState は gob 永続化用の内部表現
type regressionState struct {
	Weights      []float64
	Intercept    float64
	NFeatures    int
	FitIntercept bool
	Fitted       bool
}

// GobEncode は学習済み状態を含めてモデルをシリアライズする
func (lr *Regression) GobEncode() ([]byte, error) {
	state := regressionState{
		Weights:      lr.GetWeights(),
		Intercept:    lr.Intercept,
		NFeatures:    lr.NFeatures,
		FitIntercept: lr.fitIntercept,
		Fitted:       lr.IsFitted(),
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(state); err != nil {
		return nil, errors.Wrap(err, "Regression.GobEncode")
	}
	return buf.Bytes(), nil
}

// GobDecode はシリアライズされたモデルを復元する
func (lr *Regression) GobDecode(data []byte) error {
	var state regressionState
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&state); err != nil {
		return errors.Wrap(err, "Regression.GobDecode")
	}

	if state.Weights != nil {
		lr.Weights = mat.NewVecDense(len(state.Weights), state.Weights)
	} else {
		lr.Weights = nil
	}
	lr.Intercept = state.Intercept
	lr.NFeatures = state.NFeatures
	lr.fitIntercept = state.FitIntercept
	if state.Fitted {
		lr.SetFitted()
	} else {
		lr.Reset()
	}
	return nil
}
