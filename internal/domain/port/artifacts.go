package port

import "github.com/healthbox/diabetes-risk/internal/domain/model"

// QuantileTransformer is a pre-fitted monotonic mapping of one feature onto a
// fixed output distribution. Input and output are tables of shape n x 1.
type QuantileTransformer interface {
	Transform(rows [][]float64) ([][]float64, error)
}

// FeatureScaler is a pre-fitted linear center/scale transform. Input and
// output are tables of shape n x k, where k and the column order are those
// the scaler was fitted on.
type FeatureScaler interface {
	Transform(rows [][]float64) ([][]float64, error)
}

// Classifier is a pre-trained binary classifier over named feature columns.
type Classifier interface {
	// Predict returns the predicted class, 0 or 1.
	Predict(features model.FeatureVector) (int, error)

	// PredictProba returns the probability of class 1, in [0, 1].
	PredictProba(features model.FeatureVector) (float64, error)
}
