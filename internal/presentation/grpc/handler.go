package grpc

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/healthbox/diabetes-risk/internal/application/dto"
	"github.com/healthbox/diabetes-risk/internal/application/usecase"
	"github.com/healthbox/diabetes-risk/internal/domain/service"
)

// RiskAnalyzer runs one assessment.
type RiskAnalyzer interface {
	Execute(ctx context.Context, req dto.AnalyzeRequest) (dto.AssessmentResponse, error)
}

// AssessmentFinder looks up an audited assessment.
type AssessmentFinder interface {
	Execute(ctx context.Context, id uuid.UUID) (dto.AssessmentResponse, error)
}

// Compile-time assertion that RiskServiceHandler implements RiskAssessmentServiceServer.
var _ RiskAssessmentServiceServer = (*RiskServiceHandler)(nil)

// RiskServiceHandler implements the gRPC RiskAssessmentServiceServer interface.
type RiskServiceHandler struct {
	UnimplementedRiskAssessmentServiceServer
	analyzer RiskAnalyzer
	finder   AssessmentFinder
	logger   *slog.Logger
}

// NewRiskServiceHandler creates a new gRPC handler.
func NewRiskServiceHandler(analyzer RiskAnalyzer, finder AssessmentFinder, logger *slog.Logger) *RiskServiceHandler {
	return &RiskServiceHandler{
		analyzer: analyzer,
		finder:   finder,
		logger:   logger,
	}
}

// Proto-aligned request/response message types.

// AssessRequest represents the proto AssessRequest message. Unset fields
// take the form default.
type AssessRequest struct {
	Pregnancies   *float64 `json:"pregnancies,omitempty"`
	Glucose       *float64 `json:"glucose,omitempty"`
	SkinThickness *float64 `json:"skin_thickness,omitempty"`
	BMI           *float64 `json:"bmi,omitempty"`
	Age           *float64 `json:"age,omitempty"`
	Insulin       *float64 `json:"insulin,omitempty"`
}

// AssessmentMsg represents the proto Assessment message.
type AssessmentMsg struct {
	ScaledGlucose      *float64               `json:"scaled_glucose,omitempty"`
	ScaledBMI          *float64               `json:"scaled_bmi,omitempty"`
	AssessedAt         *timestamppb.Timestamp `json:"assessed_at"`
	ID                 string                 `json:"id"`
	ProbabilityDisplay string                 `json:"probability_display"`
	RiskLevel          string                 `json:"risk_level"`
	ModelVersion       string                 `json:"model_version"`
	ProbabilityPct     float64                `json:"probability_pct"`
	PredictedClass     int32                  `json:"predicted_class"`
}

// AssessResponse represents the proto AssessResponse message.
type AssessResponse struct {
	Assessment *AssessmentMsg `json:"assessment"`
}

// GetAssessmentRequest represents the proto GetAssessmentRequest message.
type GetAssessmentRequest struct {
	ID string `json:"id"`
}

// GetAssessmentResponse represents the proto GetAssessmentResponse message.
type GetAssessmentResponse struct {
	Assessment *AssessmentMsg `json:"assessment"`
}

// Assess handles an assessment request.
func (h *RiskServiceHandler) Assess(ctx context.Context, req *AssessRequest) (*AssessResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	result, err := h.analyzer.Execute(ctx, dto.AnalyzeRequest{
		Pregnancies:   req.Pregnancies,
		Glucose:       req.Glucose,
		SkinThickness: req.SkinThickness,
		BMI:           req.BMI,
		Age:           req.Age,
		Insulin:       req.Insulin,
	})
	if err != nil {
		var pf *service.PredictionFailure
		if errors.As(err, &pf) {
			return nil, status.Errorf(codes.FailedPrecondition, "prediction failed at %s: %s", pf.Stage, pf.Error())
		}
		h.logger.ErrorContext(ctx, "failed to assess risk", slog.String("error", err.Error()))
		return nil, status.Error(codes.Internal, "internal error")
	}

	return &AssessResponse{Assessment: toMsg(result)}, nil
}

// GetAssessment handles a get assessment request.
func (h *RiskServiceHandler) GetAssessment(ctx context.Context, req *GetAssessmentRequest) (*GetAssessmentResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	id, err := uuid.Parse(req.ID)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid id: %v", err)
	}

	result, err := h.finder.Execute(ctx, id)
	switch {
	case err == nil:
	case errors.Is(err, usecase.ErrAssessmentNotFound):
		return nil, status.Error(codes.NotFound, "assessment not found")
	case errors.Is(err, usecase.ErrAuditDisabled):
		return nil, status.Error(codes.Unavailable, err.Error())
	default:
		h.logger.ErrorContext(ctx, "failed to get assessment",
			slog.String("assessment_id", id.String()),
			slog.String("error", err.Error()),
		)
		return nil, status.Error(codes.Internal, "internal error")
	}

	return &GetAssessmentResponse{Assessment: toMsg(result)}, nil
}

func toMsg(r dto.AssessmentResponse) *AssessmentMsg {
	msg := &AssessmentMsg{
		ID:                 r.ID.String(),
		PredictedClass:     int32(r.PredictedClass),
		ProbabilityPct:     r.ProbabilityPct,
		ProbabilityDisplay: r.ProbabilityDisplay,
		RiskLevel:          r.RiskLevel,
		ModelVersion:       r.ModelVersion,
		AssessedAt:         timestamppb.New(r.AssessedAt),
	}
	if r.KeyFactors != nil {
		glucose, bmi := r.KeyFactors.ScaledGlucose, r.KeyFactors.ScaledBMI
		msg.ScaledGlucose = &glucose
		msg.ScaledBMI = &bmi
	}
	return msg
}
