package rest_test

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/healthbox/diabetes-risk/internal/application/dto"
)

type stubAnalyzer struct {
	executeFunc func(ctx context.Context, req dto.AnalyzeRequest) (dto.AssessmentResponse, error)
	lastRequest dto.AnalyzeRequest
}

func (s *stubAnalyzer) Execute(ctx context.Context, req dto.AnalyzeRequest) (dto.AssessmentResponse, error) {
	s.lastRequest = req
	return s.executeFunc(ctx, req)
}

type stubFinder struct {
	executeFunc func(ctx context.Context, id uuid.UUID) (dto.AssessmentResponse, error)
}

func (s *stubFinder) Execute(ctx context.Context, id uuid.UUID) (dto.AssessmentResponse, error) {
	return s.executeFunc(ctx, id)
}

type stubSummary struct {
	executeFunc func(ctx context.Context, since time.Time) (dto.RiskSummaryResponse, error)
}

func (s *stubSummary) Execute(ctx context.Context, since time.Time) (dto.RiskSummaryResponse, error) {
	return s.executeFunc(ctx, since)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func lowRiskResponse() dto.AssessmentResponse {
	return dto.AssessmentResponse{
		ID:                 uuid.MustParse("0b9d7a4e-5c1f-4f59-9e0f-2f4f1c7f3a10"),
		PredictedClass:     0,
		ProbabilityPct:     12.3456,
		ProbabilityDisplay: "12.3%",
		RiskLevel:          "Low Risk",
		RiskCode:           "low",
		RiskColor:          "#2ecc71",
		RiskIcon:           "✅",
		ModelVersion:       "logistic-v1",
		AssessedAt:         time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC),
	}
}
