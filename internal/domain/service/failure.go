package service

import (
	"errors"
	"fmt"
)

// ErrPredictionFailed matches every PredictionFailure via errors.Is.
var ErrPredictionFailed = errors.New("prediction failed")

// Pipeline stages reported by PredictionFailure.
const (
	StageQuantile = "quantile_transform"
	StageScale    = "scale"
	StageAssemble = "assemble_features"
	StageClassify = "classify"
)

// PredictionFailure is the single error kind of the risk pipeline. When it is
// returned the accompanying PredictionResult is the zero value.
type PredictionFailure struct {
	Err   error
	Stage string
}

func newFailure(stage string, err error) *PredictionFailure {
	return &PredictionFailure{Stage: stage, Err: err}
}

// Error returns the human-readable message shown to the user.
func (f *PredictionFailure) Error() string {
	if f.Err == nil {
		return fmt.Sprintf("%s failed", f.Stage)
	}
	return f.Err.Error()
}

func (f *PredictionFailure) Unwrap() error {
	return f.Err
}

func (f *PredictionFailure) Is(target error) bool {
	return target == ErrPredictionFailed
}
