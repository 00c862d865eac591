// Package web serves the server-rendered assessment form.
package web

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/healthbox/diabetes-risk/internal/application/dto"
	"github.com/healthbox/diabetes-risk/internal/domain/model"
)

//go:embed templates/index.html
var templateFS embed.FS

var page = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// RiskAnalyzer runs one assessment.
type RiskAnalyzer interface {
	Execute(ctx context.Context, req dto.AnalyzeRequest) (dto.AssessmentResponse, error)
}

// Handler renders the form and its results.
type Handler struct {
	analyzer RiskAnalyzer
	logger   *slog.Logger
}

// NewHandler creates the form handler.
func NewHandler(analyzer RiskAnalyzer, logger *slog.Logger) *Handler {
	return &Handler{analyzer: analyzer, logger: logger}
}

// RegisterRoutes registers the page routes on the provided ServeMux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.Index)
	mux.HandleFunc("POST /analyze", h.Analyze)
}

type fieldView struct {
	Name  string
	Label string
	Help  string
	Min   string
	Max   string
	Step  string
	Value string
}

type pageView struct {
	Result  *dto.AssessmentResponse
	Error   string
	Columns [][]fieldView
}

// Index renders the empty form with default values.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, pageView{Columns: columns(model.DefaultPatientRecord())})
}

// Analyze collects the submitted form, runs the assessment and renders the
// results below the form. Blank or non-numeric inputs take their default.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render(w, r, http.StatusBadRequest, pageView{
			Columns: columns(model.DefaultPatientRecord()),
			Error:   err.Error(),
		})
		return
	}

	req := requestFromForm(r)
	view := pageView{Columns: columns(req.Record())}

	resp, err := h.analyzer.Execute(r.Context(), req)
	if err != nil {
		view.Error = err.Error()
	} else {
		view.Result = &resp
	}
	h.render(w, r, http.StatusOK, view)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, view pageView) {
	var buf bytes.Buffer
	if err := page.Execute(&buf, view); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to render page", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func requestFromForm(r *http.Request) dto.AnalyzeRequest {
	value := func(f model.Field) *float64 {
		return dto.ParseNumber(r.PostFormValue(string(f)))
	}
	return dto.AnalyzeRequest{
		Pregnancies:   value(model.FieldPregnancies),
		Glucose:       value(model.FieldGlucose),
		SkinThickness: value(model.FieldSkinThickness),
		BMI:           value(model.FieldBMI),
		Age:           value(model.FieldAge),
		Insulin:       value(model.FieldInsulin),
	}
}

// columns lays the fields out in two columns of three, in form order.
func columns(record model.PatientRecord) [][]fieldView {
	values := record.Values()
	specs := model.FieldSpecs()

	views := make([]fieldView, 0, len(specs))
	for _, s := range specs {
		views = append(views, fieldView{
			Name:  string(s.Field),
			Label: s.Label,
			Help:  s.Help,
			Min:   formatNumber(s.Min),
			Max:   formatNumber(s.Max),
			Step:  formatNumber(s.Step),
			Value: formatNumber(values[s.Field]),
		})
	}
	half := (len(views) + 1) / 2
	return [][]fieldView{views[:half], views[half:]}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
