package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/healthbox/diabetes-risk/internal/application/dto"
	"github.com/healthbox/diabetes-risk/internal/application/usecase"
	"github.com/healthbox/diabetes-risk/internal/domain/service"
)

const maxBodyBytes = 64 << 10

// RiskAnalyzer runs one assessment.
type RiskAnalyzer interface {
	Execute(ctx context.Context, req dto.AnalyzeRequest) (dto.AssessmentResponse, error)
}

// AssessmentFinder looks up an audited assessment.
type AssessmentFinder interface {
	Execute(ctx context.Context, id uuid.UUID) (dto.AssessmentResponse, error)
}

// SummaryReader counts audited assessments per tier.
type SummaryReader interface {
	Execute(ctx context.Context, since time.Time) (dto.RiskSummaryResponse, error)
}

// AssessmentHandler serves the JSON assessment API.
type AssessmentHandler struct {
	analyze RiskAnalyzer
	find    AssessmentFinder
	summary SummaryReader
	logger  *slog.Logger
}

// NewAssessmentHandler creates the JSON API handler.
func NewAssessmentHandler(analyzer RiskAnalyzer, finder AssessmentFinder, summary SummaryReader, logger *slog.Logger) *AssessmentHandler {
	return &AssessmentHandler{
		analyze: analyzer,
		find:    finder,
		summary: summary,
		logger:  logger,
	}
}

// RegisterRoutes registers the API endpoints on the provided ServeMux.
func (h *AssessmentHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/assessments", h.Create)
	mux.HandleFunc("GET /api/v1/assessments/summary", h.Summary)
	mux.HandleFunc("GET /api/v1/assessments/{id}", h.Get)
	mux.HandleFunc("GET /api/v1/form", h.Form)
}

// Create runs an assessment on the posted patient metrics.
func (h *AssessmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.AnalyzeRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Details: err.Error()})
		return
	}

	resp, err := h.analyze.Execute(r.Context(), req)
	if err != nil {
		var pf *service.PredictionFailure
		if errors.As(err, &pf) {
			writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
				Error:   service.ErrPredictionFailed.Error(),
				Details: pf.Error(),
				Stage:   pf.Stage,
			})
			return
		}
		h.logger.ErrorContext(r.Context(), "assessment failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Get returns an audited assessment by ID.
func (h *AssessmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid assessment id")
		return
	}

	resp, err := h.find.Execute(r.Context(), id)
	if err != nil {
		h.auditError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Summary counts audited assessments per tier. The optional since query
// parameter is an RFC 3339 timestamp.
func (h *AssessmentHandler) Summary(w http.ResponseWriter, r *http.Request) {
	var since time.Time
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "since must be an RFC 3339 timestamp")
			return
		}
		since = parsed
	}

	resp, err := h.summary.Execute(r.Context(), since)
	if err != nil {
		h.auditError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Form describes the collected fields so other front-ends can mirror the form.
func (h *AssessmentHandler) Form(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, dto.NewFormResponse())
}

func (h *AssessmentHandler) auditError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, usecase.ErrAssessmentNotFound):
		writeError(w, http.StatusNotFound, "assessment not found")
	case errors.Is(err, usecase.ErrAuditDisabled):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		h.logger.ErrorContext(r.Context(), "audit query failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
