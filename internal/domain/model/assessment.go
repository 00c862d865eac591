package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/healthbox/diabetes-risk/internal/domain/event"
	"github.com/healthbox/diabetes-risk/internal/domain/valueobject"
	"github.com/healthbox/diabetes-risk/pkg/events"
)

// Assessment is the auditable record of one prediction. It holds model
// outputs only; the PatientRecord it came from is not retained.
type Assessment struct {
	events.EventCollector
	assessedAt     time.Time
	riskLevel      valueobject.RiskLevel
	modelVersion   string
	probabilityPct float64
	predictedClass int
	id             uuid.UUID
}

// NewAssessment creates an Assessment from a successful prediction and
// records its domain events.
func NewAssessment(result PredictionResult, modelVersion string) (*Assessment, error) {
	if result.PredictedClass != 0 && result.PredictedClass != 1 {
		return nil, fmt.Errorf("predicted class must be 0 or 1, got %d", result.PredictedClass)
	}
	if result.ProbabilityPct < 0 || result.ProbabilityPct > 100 {
		return nil, fmt.Errorf("probability must be between 0 and 100, got %v", result.ProbabilityPct)
	}
	if result.RiskLevel.IsZero() {
		return nil, fmt.Errorf("risk level is required")
	}

	a := &Assessment{
		id:             uuid.New(),
		predictedClass: result.PredictedClass,
		probabilityPct: result.ProbabilityPct,
		riskLevel:      result.RiskLevel,
		modelVersion:   modelVersion,
		assessedAt:     time.Now().UTC(),
	}

	completed, err := event.NewAssessmentCompleted(event.AssessmentCompletedPayload{
		AssessmentID:   a.id,
		PredictedClass: a.predictedClass,
		ProbabilityPct: a.probabilityPct,
		RiskLevel:      a.riskLevel.String(),
		ModelVersion:   a.modelVersion,
		AssessedAt:     a.assessedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build completion event: %w", err)
	}
	a.Record(completed)

	if a.riskLevel.Equal(valueobject.RiskLevelHigh) {
		highRisk, err := event.NewHighRiskDetected(event.HighRiskDetectedPayload{
			AssessmentID:   a.id,
			ProbabilityPct: a.probabilityPct,
			ModelVersion:   a.modelVersion,
			DetectedAt:     a.assessedAt,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to build high risk event: %w", err)
		}
		a.Record(highRisk)
	}

	return a, nil
}

// ReconstructAssessment rebuilds an Assessment from persisted data (no validation, no events).
func ReconstructAssessment(
	id uuid.UUID,
	predictedClass int,
	probabilityPct float64,
	riskLevel valueobject.RiskLevel,
	modelVersion string,
	assessedAt time.Time,
) *Assessment {
	return &Assessment{
		id:             id,
		predictedClass: predictedClass,
		probabilityPct: probabilityPct,
		riskLevel:      riskLevel,
		modelVersion:   modelVersion,
		assessedAt:     assessedAt,
	}
}

// --- Accessors ---

func (a *Assessment) ID() uuid.UUID                    { return a.id }
func (a *Assessment) PredictedClass() int              { return a.predictedClass }
func (a *Assessment) ProbabilityPct() float64          { return a.probabilityPct }
func (a *Assessment) RiskLevel() valueobject.RiskLevel { return a.riskLevel }
func (a *Assessment) ModelVersion() string             { return a.modelVersion }
func (a *Assessment) AssessedAt() time.Time            { return a.assessedAt }

// DomainEvents returns all accumulated domain events and clears them.
func (a *Assessment) DomainEvents() []events.DomainEvent {
	return a.ClearEvents()
}
