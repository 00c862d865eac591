package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/healthbox/diabetes-risk/internal/application/dto"
	"github.com/healthbox/diabetes-risk/internal/domain/port"
	"github.com/healthbox/diabetes-risk/internal/domain/valueobject"
)

// DefaultSummaryWindow is used when the caller does not give a start time.
const DefaultSummaryWindow = 24 * time.Hour

// RiskSummary is the use case for counting audited assessments per tier.
type RiskSummary struct {
	repo port.AssessmentRepository
	now  func() time.Time
}

// NewRiskSummary creates a new RiskSummary use case.
func NewRiskSummary(repo port.AssessmentRepository) *RiskSummary {
	return &RiskSummary{repo: repo, now: time.Now}
}

// Execute counts assessments made since the given time. A zero since means
// the last DefaultSummaryWindow. Every tier is present in the result.
func (uc *RiskSummary) Execute(ctx context.Context, since time.Time) (dto.RiskSummaryResponse, error) {
	if uc.repo == nil {
		return dto.RiskSummaryResponse{}, ErrAuditDisabled
	}
	if since.IsZero() {
		since = uc.now().Add(-DefaultSummaryWindow)
	}
	since = since.UTC()

	counts, err := uc.repo.CountByRiskLevel(ctx, since)
	if err != nil {
		return dto.RiskSummaryResponse{}, fmt.Errorf("failed to count assessments: %w", err)
	}

	resp := dto.RiskSummaryResponse{
		Since:  since,
		Counts: make(map[string]int, 3),
	}
	for _, level := range []valueobject.RiskLevel{
		valueobject.RiskLevelLow,
		valueobject.RiskLevelModerate,
		valueobject.RiskLevelHigh,
	} {
		n := counts[level.String()]
		resp.Counts[level.String()] = n
		resp.Total += n
	}
	return resp, nil
}
