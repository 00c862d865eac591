package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/healthbox/diabetes-risk/internal/application/dto"
	"github.com/healthbox/diabetes-risk/internal/domain/port"
)

// ErrAssessmentNotFound is returned when no audited assessment has the requested ID.
var ErrAssessmentNotFound = errors.New("assessment not found")

// ErrAuditDisabled is returned by audit queries when no repository is configured.
var ErrAuditDisabled = errors.New("assessment audit log is not configured")

// GetAssessment is the use case for retrieving an audited assessment.
type GetAssessment struct {
	repo port.AssessmentRepository
}

// NewGetAssessment creates a new GetAssessment use case.
func NewGetAssessment(repo port.AssessmentRepository) *GetAssessment {
	return &GetAssessment{repo: repo}
}

// Execute retrieves an assessment by ID.
func (uc *GetAssessment) Execute(ctx context.Context, id uuid.UUID) (dto.AssessmentResponse, error) {
	if uc.repo == nil {
		return dto.AssessmentResponse{}, ErrAuditDisabled
	}

	assessment, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return dto.AssessmentResponse{}, fmt.Errorf("failed to find assessment: %w", err)
	}
	if assessment == nil {
		return dto.AssessmentResponse{}, fmt.Errorf("%w: %s", ErrAssessmentNotFound, id)
	}

	return dto.FromModel(assessment), nil
}
