package port

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/healthbox/diabetes-risk/internal/domain/model"
	"github.com/healthbox/diabetes-risk/pkg/events"
)

// AssessmentRepository defines the persistence port for the assessment audit log.
type AssessmentRepository interface {
	// Save persists a completed assessment.
	Save(ctx context.Context, assessment *model.Assessment) error

	// FindByID retrieves an assessment by its identifier. It returns nil, nil when absent.
	FindByID(ctx context.Context, id uuid.UUID) (*model.Assessment, error)

	// CountByRiskLevel returns the number of assessments per risk label since the given time.
	CountByRiskLevel(ctx context.Context, since time.Time) (map[string]int, error)
}

// EventPublisher defines the port for publishing domain events.
type EventPublisher interface {
	// Publish sends one or more domain events to the messaging infrastructure.
	Publish(ctx context.Context, evts ...events.DomainEvent) error
}
