package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/healthbox/diabetes-risk/internal/application/dto"
	"github.com/healthbox/diabetes-risk/internal/domain/model"
	"github.com/healthbox/diabetes-risk/internal/domain/port"
	"github.com/healthbox/diabetes-risk/internal/domain/service"
)

const meterName = "github.com/healthbox/diabetes-risk/internal/application/usecase"

// sinkTimeout bounds the audit and event writes that follow a prediction.
const sinkTimeout = 5 * time.Second

// RiskAnalyzer runs the prediction pipeline.
type RiskAnalyzer interface {
	Analyze(ctx context.Context, record model.PatientRecord) (model.PredictionResult, error)
	ModelVersion() string
}

// AnalyzeRisk is the use case for scoring one patient record.
type AnalyzeRisk struct {
	analyzer  RiskAnalyzer
	repo      port.AssessmentRepository
	publisher port.EventPublisher
	logger    *slog.Logger

	assessments metric.Int64Counter
	failures    metric.Int64Counter
	probability metric.Float64Histogram
	duration    metric.Float64Histogram
}

// NewAnalyzeRisk creates a new AnalyzeRisk use case. repo and publisher may
// be nil, in which case assessments are neither audited nor published.
func NewAnalyzeRisk(
	analyzer RiskAnalyzer,
	repo port.AssessmentRepository,
	publisher port.EventPublisher,
	logger *slog.Logger,
) (*AnalyzeRisk, error) {
	meter := otel.Meter(meterName)

	assessments, err := meter.Int64Counter("risk_assessments_total",
		metric.WithDescription("Completed risk assessments by tier"))
	if err != nil {
		return nil, fmt.Errorf("creating assessments counter: %w", err)
	}
	failures, err := meter.Int64Counter("risk_prediction_failures_total",
		metric.WithDescription("Failed predictions by pipeline stage"))
	if err != nil {
		return nil, fmt.Errorf("creating failures counter: %w", err)
	}
	probability, err := meter.Float64Histogram("risk_probability_pct",
		metric.WithDescription("Predicted probability of diabetes"),
		metric.WithUnit("%"),
		metric.WithExplicitBucketBoundaries(10, 20, 30, 40, 50, 60, 70, 80, 90))
	if err != nil {
		return nil, fmt.Errorf("creating probability histogram: %w", err)
	}
	duration, err := meter.Float64Histogram("risk_analysis_duration_seconds",
		metric.WithDescription("Time spent in the prediction pipeline"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, fmt.Errorf("creating duration histogram: %w", err)
	}

	return &AnalyzeRisk{
		analyzer:    analyzer,
		repo:        repo,
		publisher:   publisher,
		logger:      logger,
		assessments: assessments,
		failures:    failures,
		probability: probability,
		duration:    duration,
	}, nil
}

// Execute collects the request into a PatientRecord, runs the pipeline and
// records the outcome. Pipeline errors are returned as *service.PredictionFailure.
// Audit and event failures are logged and never fail the request.
func (uc *AnalyzeRisk) Execute(ctx context.Context, req dto.AnalyzeRequest) (dto.AssessmentResponse, error) {
	record := req.Record()

	start := time.Now()
	result, err := uc.analyzer.Analyze(ctx, record)
	uc.duration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		stage := "unknown"
		var pf *service.PredictionFailure
		if errors.As(err, &pf) {
			stage = pf.Stage
		}
		uc.failures.Add(ctx, 1, metric.WithAttributes(attribute.String("stage", stage)))
		uc.logger.ErrorContext(ctx, "prediction failed", "stage", stage, "error", err)
		return dto.AssessmentResponse{}, err
	}

	assessment, err := model.NewAssessment(result, uc.analyzer.ModelVersion())
	if err != nil {
		return dto.AssessmentResponse{}, fmt.Errorf("failed to create assessment: %w", err)
	}

	level := assessment.RiskLevel()
	uc.assessments.Add(ctx, 1, metric.WithAttributes(attribute.String("risk_level", level.Code())))
	uc.probability.Record(ctx, assessment.ProbabilityPct())

	uc.record(ctx, assessment)

	uc.logger.InfoContext(ctx, "risk assessed",
		"assessment_id", assessment.ID(),
		"risk_level", level.Code(),
		"probability_pct", assessment.ProbabilityPct(),
		"model_version", assessment.ModelVersion(),
	)

	return dto.FromAnalysis(assessment, record, result), nil
}

func (uc *AnalyzeRisk) record(ctx context.Context, assessment *model.Assessment) {
	evts := assessment.DomainEvents()
	if uc.repo == nil && uc.publisher == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sinkTimeout)
	defer cancel()

	if uc.repo != nil {
		if err := uc.repo.Save(ctx, assessment); err != nil {
			uc.logger.WarnContext(ctx, "failed to save assessment",
				"assessment_id", assessment.ID(), "error", err)
		}
	}

	if uc.publisher != nil && len(evts) > 0 {
		if err := uc.publisher.Publish(ctx, evts...); err != nil {
			uc.logger.WarnContext(ctx, "failed to publish assessment events",
				"assessment_id", assessment.ID(), "error", err)
		}
	}
}
