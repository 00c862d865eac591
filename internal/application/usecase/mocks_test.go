package usecase_test

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/healthbox/diabetes-risk/internal/domain/model"
	"github.com/healthbox/diabetes-risk/pkg/events"
)

// --- Mock implementations ---

type mockAnalyzer struct {
	analyzeFunc func(ctx context.Context, record model.PatientRecord) (model.PredictionResult, error)
	lastRecord  model.PatientRecord
	calls       int
}

func (m *mockAnalyzer) Analyze(ctx context.Context, record model.PatientRecord) (model.PredictionResult, error) {
	m.calls++
	m.lastRecord = record
	return m.analyzeFunc(ctx, record)
}

func (m *mockAnalyzer) ModelVersion() string { return "mock-v1" }

type mockAssessmentRepository struct {
	savedAssessment *model.Assessment
	saveFunc        func(ctx context.Context, assessment *model.Assessment) error
	findByIDFunc    func(ctx context.Context, id uuid.UUID) (*model.Assessment, error)
	countFunc       func(ctx context.Context, since time.Time) (map[string]int, error)
}

func (m *mockAssessmentRepository) Save(ctx context.Context, assessment *model.Assessment) error {
	if m.saveFunc != nil {
		return m.saveFunc(ctx, assessment)
	}
	m.savedAssessment = assessment
	return nil
}

func (m *mockAssessmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Assessment, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockAssessmentRepository) CountByRiskLevel(ctx context.Context, since time.Time) (map[string]int, error) {
	if m.countFunc != nil {
		return m.countFunc(ctx, since)
	}
	return map[string]int{}, nil
}

type mockEventPublisher struct {
	publishedEvents []events.DomainEvent
	publishFunc     func(ctx context.Context, evts ...events.DomainEvent) error
}

func (m *mockEventPublisher) Publish(ctx context.Context, evts ...events.DomainEvent) error {
	if m.publishFunc != nil {
		return m.publishFunc(ctx, evts...)
	}
	m.publishedEvents = append(m.publishedEvents, evts...)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
