package model

import (
	"fmt"

	"github.com/healthbox/diabetes-risk/internal/domain/valueobject"
)

// ColumnInsulinQuantile replaces the raw Insulin column after the quantile transform.
const ColumnInsulinQuantile = "Insulin_quantile"

// FeatureColumns is the column order the classifier was trained on.
var FeatureColumns = []string{
	string(FieldPregnancies),
	ColumnInsulinQuantile,
	string(FieldGlucose),
	string(FieldSkinThickness),
	string(FieldBMI),
	string(FieldAge),
}

// ScaledColumns is the column group the feature scaler was fitted on, in order.
var ScaledColumns = []string{
	string(FieldGlucose),
	string(FieldSkinThickness),
	string(FieldBMI),
	string(FieldAge),
}

// FeatureVector is a single row of named model inputs derived from a PatientRecord.
type FeatureVector struct {
	columns []string
	values  []float64
}

// NewFeatureVector pairs column names with values. Both slices are copied.
func NewFeatureVector(columns []string, values []float64) (FeatureVector, error) {
	if len(columns) != len(values) {
		return FeatureVector{}, fmt.Errorf("feature vector has %d columns but %d values", len(columns), len(values))
	}
	seen := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		if _, dup := seen[c]; dup {
			return FeatureVector{}, fmt.Errorf("duplicate feature column %q", c)
		}
		seen[c] = struct{}{}
	}

	fv := FeatureVector{
		columns: make([]string, len(columns)),
		values:  make([]float64, len(values)),
	}
	copy(fv.columns, columns)
	copy(fv.values, values)
	return fv, nil
}

// Columns returns a copy of the column names.
func (v FeatureVector) Columns() []string {
	out := make([]string, len(v.columns))
	copy(out, v.columns)
	return out
}

// Values returns a copy of the values, in column order.
func (v FeatureVector) Values() []float64 {
	out := make([]float64, len(v.values))
	copy(out, v.values)
	return out
}

// Len returns the number of columns.
func (v FeatureVector) Len() int {
	return len(v.columns)
}

// Value looks up a column by name.
func (v FeatureVector) Value(column string) (float64, bool) {
	for i, c := range v.columns {
		if c == column {
			return v.values[i], true
		}
	}
	return 0, false
}

// PredictionResult is the outcome of one successful pipeline run.
type PredictionResult struct {
	Features       FeatureVector
	RiskLevel      valueobject.RiskLevel
	ProbabilityPct float64
	PredictedClass int
}

// ScaledGlucose returns the scaled Glucose value shown in the key-factors panel.
func (r PredictionResult) ScaledGlucose() float64 {
	v, _ := r.Features.Value(string(FieldGlucose))
	return v
}

// ScaledBMI returns the scaled BMI value shown in the key-factors panel.
func (r PredictionResult) ScaledBMI() float64 {
	v, _ := r.Features.Value(string(FieldBMI))
	return v
}
