package predictor

import "gonum.org/v1/gonum/stat"

// StandardScaler normalises features to zero mean and unit variance. Fitted
// once at training time and stored with the classifier; inference always
// reuses the training-time parameters, never recomputes them.
type StandardScaler struct {
	Mean []float64 `json:"mean"`
	Std  []float64 `json:"std"`
}

// FitScaler computes per-column mean and standard deviation.
func FitScaler(features [][]float64) StandardScaler {
	if len(features) == 0 {
		return StandardScaler{}
	}
	cols := len(features[0])
	scaler := StandardScaler{
		Mean: make([]float64, cols),
		Std:  make([]float64, cols),
	}
	column := make([]float64, len(features))
	for c := 0; c < cols; c++ {
		for r, row := range features {
			column[r] = row[c]
		}
		scaler.Mean[c] = stat.Mean(column, nil)
		scaler.Std[c] = stat.StdDev(column, nil)
		if scaler.Std[c] == 0 || len(features) < 2 {
			scaler.Std[c] = 1
		}
	}
	return scaler
}

// Transform scales one feature vector. Vectors wider than the fitted columns
// are truncated; narrower ones are returned zero-padded in scaled space.
func (s StandardScaler) Transform(x []float64) []float64 {
	out := make([]float64, len(s.Mean))
	for i := range out {
		if i >= len(x) {
			break
		}
		out[i] = (x[i] - s.Mean[i]) / s.Std[i]
	}
	return out
}

// TransformAll scales a whole matrix.
func (s StandardScaler) TransformAll(features [][]float64) [][]float64 {
	out := make([][]float64, len(features))
	for i, row := range features {
		out[i] = s.Transform(row)
	}
	return out
}
