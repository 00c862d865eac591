package event

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/healthbox/diabetes-risk/pkg/events"
)

const (
	// AggregateTypeAssessment is the aggregate type carried by every risk event.
	AggregateTypeAssessment = "RiskAssessment"

	// EventTypeAssessmentCompleted is emitted when a risk assessment finishes.
	EventTypeAssessmentCompleted = "diabetes.assessment.completed"

	// EventTypeHighRiskDetected is emitted when the classifier predicts the positive class.
	EventTypeHighRiskDetected = "diabetes.high_risk.detected"
)

// AssessmentCompletedPayload is the serialized body of AssessmentCompleted.
// It carries model outputs only, never the patient's metrics.
type AssessmentCompletedPayload struct {
	AssessedAt     time.Time `json:"assessed_at"`
	RiskLevel      string    `json:"risk_level"`
	ModelVersion   string    `json:"model_version"`
	ProbabilityPct float64   `json:"probability_pct"`
	PredictedClass int       `json:"predicted_class"`
	AssessmentID   uuid.UUID `json:"assessment_id"`
}

// AssessmentCompleted is published for every successful assessment.
type AssessmentCompleted struct {
	events.BaseEvent
	Data AssessmentCompletedPayload
}

// NewAssessmentCompleted builds the event and serializes its payload.
func NewAssessmentCompleted(data AssessmentCompletedPayload) (AssessmentCompleted, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return AssessmentCompleted{}, err
	}
	return AssessmentCompleted{
		BaseEvent: events.NewBaseEvent(EventTypeAssessmentCompleted, data.AssessmentID, AggregateTypeAssessment, data.AssessedAt, payload),
		Data:      data,
	}, nil
}

// HighRiskDetectedPayload is the serialized body of HighRiskDetected.
type HighRiskDetectedPayload struct {
	DetectedAt     time.Time `json:"detected_at"`
	ModelVersion   string    `json:"model_version"`
	ProbabilityPct float64   `json:"probability_pct"`
	AssessmentID   uuid.UUID `json:"assessment_id"`
}

// HighRiskDetected is published when an assessment lands in the High Risk tier.
type HighRiskDetected struct {
	events.BaseEvent
	Data HighRiskDetectedPayload
}

// NewHighRiskDetected builds the event and serializes its payload.
func NewHighRiskDetected(data HighRiskDetectedPayload) (HighRiskDetected, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return HighRiskDetected{}, err
	}
	return HighRiskDetected{
		BaseEvent: events.NewBaseEvent(EventTypeHighRiskDetected, data.AssessmentID, AggregateTypeAssessment, data.DetectedAt, payload),
		Data:      data,
	}, nil
}
