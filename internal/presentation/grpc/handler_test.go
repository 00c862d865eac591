package grpc_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/healthbox/diabetes-risk/internal/application/dto"
	"github.com/healthbox/diabetes-risk/internal/application/usecase"
	"github.com/healthbox/diabetes-risk/internal/domain/service"
	grpcpresentation "github.com/healthbox/diabetes-risk/internal/presentation/grpc"
)

type stubAnalyzer struct {
	err         error
	lastRequest dto.AnalyzeRequest
}

func (s *stubAnalyzer) Execute(_ context.Context, req dto.AnalyzeRequest) (dto.AssessmentResponse, error) {
	s.lastRequest = req
	if s.err != nil {
		return dto.AssessmentResponse{}, s.err
	}
	return dto.AssessmentResponse{
		ID:                 uuid.MustParse("9f1c2b7e-0d55-4a8e-8f3a-2c6d7e8f9a01"),
		PredictedClass:     1,
		ProbabilityPct:     76.5,
		ProbabilityDisplay: "76.5%",
		RiskLevel:          "High Risk",
		ModelVersion:       "forest-2",
		AssessedAt:         time.Date(2026, 7, 1, 8, 0, 0, 0, time.UTC),
		KeyFactors:         &dto.KeyFactors{ScaledGlucose: 1.91, ScaledBMI: 0.42},
	}, nil
}

type stubFinder struct {
	err error
}

func (s *stubFinder) Execute(_ context.Context, id uuid.UUID) (dto.AssessmentResponse, error) {
	if s.err != nil {
		return dto.AssessmentResponse{}, s.err
	}
	return dto.AssessmentResponse{
		ID:                 id,
		ProbabilityPct:     12,
		ProbabilityDisplay: "12.0%",
		RiskLevel:          "Low Risk",
		ModelVersion:       "logistic-v1",
		AssessedAt:         time.Date(2026, 7, 1, 8, 0, 0, 0, time.UTC),
	}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func f(v float64) *float64 { return &v }

func TestAssess(t *testing.T) {
	t.Run("maps request and response", func(t *testing.T) {
		analyzer := &stubAnalyzer{}
		h := grpcpresentation.NewRiskServiceHandler(analyzer, &stubFinder{}, discardLogger())

		resp, err := h.Assess(context.Background(), &grpcpresentation.AssessRequest{Glucose: f(190), Age: f(61)})
		require.NoError(t, err)

		require.NotNil(t, resp.Assessment)
		assert.Equal(t, "9f1c2b7e-0d55-4a8e-8f3a-2c6d7e8f9a01", resp.Assessment.ID)
		assert.Equal(t, int32(1), resp.Assessment.PredictedClass)
		assert.Equal(t, "High Risk", resp.Assessment.RiskLevel)
		assert.Equal(t, time.Date(2026, 7, 1, 8, 0, 0, 0, time.UTC), resp.Assessment.AssessedAt.AsTime())
		require.NotNil(t, resp.Assessment.ScaledGlucose)
		assert.Equal(t, 1.91, *resp.Assessment.ScaledGlucose)

		assert.Equal(t, 190.0, *analyzer.lastRequest.Glucose)
		assert.Equal(t, 61.0, *analyzer.lastRequest.Age)
		assert.Nil(t, analyzer.lastRequest.BMI)
	})

	tests := []struct {
		name     string
		req      *grpcpresentation.AssessRequest
		err      error
		wantCode codes.Code
	}{
		{"nil request", nil, nil, codes.InvalidArgument},
		{"prediction failure", &grpcpresentation.AssessRequest{},
			&service.PredictionFailure{Stage: service.StageQuantile, Err: errors.New("expects 1 column")}, codes.FailedPrecondition},
		{"unexpected error", &grpcpresentation.AssessRequest{}, errors.New("boom"), codes.Internal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := grpcpresentation.NewRiskServiceHandler(&stubAnalyzer{err: tt.err}, &stubFinder{}, discardLogger())
			_, err := h.Assess(context.Background(), tt.req)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, status.Code(err))
		})
	}
}

func TestGetAssessment(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name     string
		id       string
		err      error
		wantCode codes.Code
	}{
		{"found", id.String(), nil, codes.OK},
		{"invalid id", "nope", nil, codes.InvalidArgument},
		{"not found", id.String(), fmt.Errorf("%w: %s", usecase.ErrAssessmentNotFound, id), codes.NotFound},
		{"audit disabled", id.String(), usecase.ErrAuditDisabled, codes.Unavailable},
		{"repository error", id.String(), errors.New("conn reset"), codes.Internal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := grpcpresentation.NewRiskServiceHandler(&stubAnalyzer{}, &stubFinder{err: tt.err}, discardLogger())
			resp, err := h.GetAssessment(context.Background(), &grpcpresentation.GetAssessmentRequest{ID: tt.id})
			assert.Equal(t, tt.wantCode, status.Code(err))
			if tt.wantCode == codes.OK {
				assert.Equal(t, id.String(), resp.Assessment.ID)
				assert.Nil(t, resp.Assessment.ScaledGlucose)
			}
		})
	}
}
