package dto

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/healthbox/diabetes-risk/internal/domain/model"
	"github.com/healthbox/diabetes-risk/internal/domain/valueobject"
)

// AnalyzeRequest is the input DTO for the AnalyzeRisk use case. Absent
// fields take the form default; out-of-range values are clamped.
type AnalyzeRequest struct {
	Pregnancies   *float64 `json:"pregnancies,omitempty"`
	Glucose       *float64 `json:"glucose,omitempty"`
	SkinThickness *float64 `json:"skin_thickness,omitempty"`
	BMI           *float64 `json:"bmi,omitempty"`
	Age           *float64 `json:"age,omitempty"`
	Insulin       *float64 `json:"insulin,omitempty"`
}

// UnmarshalJSON accepts any JSON object. A field that is not a number (or a
// string holding one) is treated as absent; a number beyond float64 range
// saturates so the collector clamps it. Only a body that is not an object
// is an error.
func (r *AnalyzeRequest) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = AnalyzeRequest{
		Pregnancies:   jsonNumber(raw["pregnancies"]),
		Glucose:       jsonNumber(raw["glucose"]),
		SkinThickness: jsonNumber(raw["skin_thickness"]),
		BMI:           jsonNumber(raw["bmi"]),
		Age:           jsonNumber(raw["age"]),
		Insulin:       jsonNumber(raw["insulin"]),
	}
	return nil
}

func jsonNumber(raw json.RawMessage) *float64 {
	if len(raw) == 0 {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return ParseNumber(s)
	}
	return ParseNumber(string(raw))
}

// ParseNumber reads a submitted value. Non-numeric text yields nil, which
// the collector replaces with the field default; out-of-range magnitudes
// come back as ±Inf.
func ParseNumber(s string) *float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return nil
	}
	return &v
}

// Values returns the fields that were supplied, keyed by model field.
func (r AnalyzeRequest) Values() map[model.Field]float64 {
	values := make(map[model.Field]float64, 6)
	set := func(f model.Field, v *float64) {
		if v != nil {
			values[f] = *v
		}
	}
	set(model.FieldPregnancies, r.Pregnancies)
	set(model.FieldGlucose, r.Glucose)
	set(model.FieldSkinThickness, r.SkinThickness)
	set(model.FieldBMI, r.BMI)
	set(model.FieldAge, r.Age)
	set(model.FieldInsulin, r.Insulin)
	return values
}

// Record collects the request into a PatientRecord.
func (r AnalyzeRequest) Record() model.PatientRecord {
	return model.Collect(r.Values())
}

// PatientInputs echoes the clamped values the prediction was made from.
type PatientInputs struct {
	BMI           float64 `json:"bmi"`
	Pregnancies   int     `json:"pregnancies"`
	Glucose       int     `json:"glucose"`
	SkinThickness int     `json:"skin_thickness"`
	Age           int     `json:"age"`
	Insulin       int     `json:"insulin"`
}

// KeyFactors carries the scaled values shown in the key-factors panel.
type KeyFactors struct {
	ScaledGlucoseDisplay string  `json:"scaled_glucose_display"`
	ScaledBMIDisplay     string  `json:"scaled_bmi_display"`
	ScaledGlucose        float64 `json:"scaled_glucose"`
	ScaledBMI            float64 `json:"scaled_bmi"`
}

// AssessmentResponse is the output DTO returned after an assessment.
type AssessmentResponse struct {
	AssessedAt         time.Time      `json:"assessed_at"`
	Inputs             *PatientInputs `json:"inputs,omitempty"`
	KeyFactors         *KeyFactors    `json:"key_factors,omitempty"`
	RiskLevel          string         `json:"risk_level"`
	RiskCode           string         `json:"risk_code"`
	RiskColor          string         `json:"risk_color"`
	RiskIcon           string         `json:"risk_icon"`
	ProbabilityDisplay string         `json:"probability_display"`
	ModelVersion       string         `json:"model_version"`
	ProbabilityPct     float64        `json:"probability_pct"`
	PredictedClass     int            `json:"predicted_class"`
	ID                 uuid.UUID      `json:"id"`
}

// FromModel maps an Assessment to the response DTO.
func FromModel(a *model.Assessment) AssessmentResponse {
	level := a.RiskLevel()
	return AssessmentResponse{
		ID:                 a.ID(),
		PredictedClass:     a.PredictedClass(),
		ProbabilityPct:     a.ProbabilityPct(),
		ProbabilityDisplay: FormatPercent(a.ProbabilityPct()),
		RiskLevel:          level.String(),
		RiskCode:           level.Code(),
		RiskColor:          level.Color(),
		RiskIcon:           level.Icon(),
		ModelVersion:       a.ModelVersion(),
		AssessedAt:         a.AssessedAt(),
	}
}

// FromAnalysis maps a fresh analysis, including the inputs and scaled
// factors that are never persisted.
func FromAnalysis(a *model.Assessment, record model.PatientRecord, result model.PredictionResult) AssessmentResponse {
	resp := FromModel(a)
	resp.Inputs = &PatientInputs{
		Pregnancies:   record.Pregnancies(),
		Glucose:       record.Glucose(),
		SkinThickness: record.SkinThickness(),
		BMI:           record.BMI(),
		Age:           record.Age(),
		Insulin:       record.Insulin(),
	}
	resp.KeyFactors = &KeyFactors{
		ScaledGlucose:        result.ScaledGlucose(),
		ScaledBMI:            result.ScaledBMI(),
		ScaledGlucoseDisplay: FormatScaled(result.ScaledGlucose()),
		ScaledBMIDisplay:     FormatScaled(result.ScaledBMI()),
	}
	return resp
}

// FormatPercent renders a percentage with one decimal place, e.g. "18.3%".
func FormatPercent(pct float64) string {
	return decimal.NewFromFloat(pct).StringFixed(1) + "%"
}

// FormatScaled renders a scaled feature value with two decimal places.
func FormatScaled(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// RiskSummaryResponse counts assessments per tier over a window.
type RiskSummaryResponse struct {
	Since  time.Time      `json:"since"`
	Counts map[string]int `json:"counts"`
	Total  int            `json:"total"`
}

// FieldDescriptor describes one form input for external front-ends.
type FieldDescriptor struct {
	Name    string  `json:"name"`
	Label   string  `json:"label"`
	Help    string  `json:"help"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Default float64 `json:"default"`
	Step    float64 `json:"step"`
	Integer bool    `json:"integer"`
}

// FormResponse lists the collected fields in form order.
type FormResponse struct {
	Fields           []FieldDescriptor `json:"fields"`
	LowRiskThreshold float64           `json:"low_risk_threshold_pct"`
}

// NewFormResponse builds the form description from the collector's field specs.
func NewFormResponse() FormResponse {
	specs := model.FieldSpecs()
	fields := make([]FieldDescriptor, 0, len(specs))
	for _, s := range specs {
		fields = append(fields, FieldDescriptor{
			Name:    string(s.Field),
			Label:   s.Label,
			Help:    s.Help,
			Min:     s.Min,
			Max:     s.Max,
			Default: s.Default,
			Step:    s.Step,
			Integer: s.Integer,
		})
	}
	return FormResponse{Fields: fields, LowRiskThreshold: valueobject.LowRiskThresholdPct}
}
