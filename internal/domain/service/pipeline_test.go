package service_test

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthbox/diabetes-risk/internal/domain/model"
	"github.com/healthbox/diabetes-risk/internal/domain/service"
	"github.com/healthbox/diabetes-risk/internal/domain/valueobject"
)

// --- Stub artifacts ---

type stubQuantile struct {
	calls    [][][]float64
	err      error
	out      [][]float64
	panicMsg string
}

func (s *stubQuantile) Transform(rows [][]float64) ([][]float64, error) {
	s.calls = append(s.calls, rows)
	if s.panicMsg != "" {
		panic(s.panicMsg)
	}
	if s.err != nil {
		return nil, s.err
	}
	if s.out != nil {
		return s.out, nil
	}
	out := make([][]float64, len(rows))
	for i, r := range rows {
		out[i] = []float64{r[0] / 1000}
	}
	return out, nil
}

type stubScaler struct {
	calls    [][][]float64
	err      error
	extra    bool
	panicMsg string
}

func (s *stubScaler) Transform(rows [][]float64) ([][]float64, error) {
	s.calls = append(s.calls, rows)
	if s.panicMsg != "" {
		panic(s.panicMsg)
	}
	if s.err != nil {
		return nil, s.err
	}
	out := make([][]float64, len(rows))
	for i, r := range rows {
		scaled := make([]float64, len(r))
		for j, v := range r {
			scaled[j] = (v - 10) / 100
		}
		if s.extra {
			scaled = append(scaled, 0)
		}
		out[i] = scaled
	}
	return out, nil
}

type stubClassifier struct {
	class    int
	proba    float64
	seen     []model.FeatureVector
	panicMsg string
}

func (c *stubClassifier) check(fv model.FeatureVector) error {
	if !slices.Equal(fv.Columns(), model.FeatureColumns) {
		return fmt.Errorf("feature names mismatch: %v", fv.Columns())
	}
	return nil
}

func (c *stubClassifier) Predict(fv model.FeatureVector) (int, error) {
	if c.panicMsg != "" {
		panic(c.panicMsg)
	}
	c.seen = append(c.seen, fv)
	if err := c.check(fv); err != nil {
		return 0, err
	}
	return c.class, nil
}

func (c *stubClassifier) PredictProba(fv model.FeatureVector) (float64, error) {
	if err := c.check(fv); err != nil {
		return 0, err
	}
	return c.proba, nil
}

func newPipeline(t *testing.T, q *stubQuantile, s *stubScaler, c *stubClassifier) *service.RiskPipeline {
	t.Helper()
	p, err := service.NewRiskPipeline(service.Artifacts{
		Quantile:     q,
		Scaler:       s,
		Classifier:   c,
		ModelVersion: "test",
	})
	require.NoError(t, err)
	return p
}

func exampleRecord() model.PatientRecord {
	return model.NewPatientRecord(0, 117, 23, 23.3, 29, 102)
}

// --- Tests ---

func TestNewRiskPipeline_MissingArtifacts(t *testing.T) {
	_, err := service.NewRiskPipeline(service.Artifacts{Scaler: &stubScaler{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quantile transformer is missing")
	assert.Contains(t, err.Error(), "classifier is missing")
	assert.NotContains(t, err.Error(), "feature scaler is missing")
}

func TestAnalyze_ExampleRecord(t *testing.T) {
	q := &stubQuantile{}
	s := &stubScaler{}
	c := &stubClassifier{class: 0, proba: 0.183}
	p := newPipeline(t, q, s, c)

	result, err := p.Analyze(context.Background(), exampleRecord())
	require.NoError(t, err)

	// Each transform is called with exactly its designated column group.
	require.Len(t, q.calls, 1)
	assert.Equal(t, [][]float64{{102}}, q.calls[0])
	require.Len(t, s.calls, 1)
	assert.Equal(t, [][]float64{{117, 23, 23.3, 29}}, s.calls[0])

	assert.Equal(t, model.FeatureColumns, result.Features.Columns())
	_, hasRaw := result.Features.Value("Insulin")
	assert.False(t, hasRaw)

	values := result.Features.Values()
	assert.Equal(t, 0.0, values[0])
	assert.InDelta(t, 0.102, values[1], 1e-12)
	assert.InDelta(t, 1.07, values[2], 1e-12)
	assert.InDelta(t, 0.13, values[3], 1e-12)
	assert.InDelta(t, 0.133, values[4], 1e-12)
	assert.InDelta(t, 0.19, values[5], 1e-12)

	assert.Equal(t, 0, result.PredictedClass)
	assert.InDelta(t, 18.3, result.ProbabilityPct, 1e-9)
	assert.Equal(t, valueobject.RiskLevelLow, result.RiskLevel)
	assert.InDelta(t, 1.07, result.ScaledGlucose(), 1e-12)
	assert.InDelta(t, 0.133, result.ScaledBMI(), 1e-12)
}

func TestAnalyze_PregnanciesPassThrough(t *testing.T) {
	for _, preg := range []int{0, 1, 7, 20} {
		t.Run(fmt.Sprintf("pregnancies=%d", preg), func(t *testing.T) {
			p := newPipeline(t, &stubQuantile{}, &stubScaler{}, &stubClassifier{proba: 0.5})
			rec := model.NewPatientRecord(preg, 140, 30, 31.5, 44, 250)

			result, err := p.Analyze(context.Background(), rec)
			require.NoError(t, err)

			v, ok := result.Features.Value(string(model.FieldPregnancies))
			require.True(t, ok)
			assert.Equal(t, float64(preg), v)
		})
	}
}

func TestAnalyze_LabelFollowsClassifier(t *testing.T) {
	tests := []struct {
		name      string
		class     int
		proba     float64
		wantLevel valueobject.RiskLevel
		wantPct   float64
	}{
		{"positive low probability", 1, 0.10, valueobject.RiskLevelHigh, 10},
		{"negative below threshold", 0, 0.299, valueobject.RiskLevelLow, 29.9},
		{"negative at threshold", 0, 0.30, valueobject.RiskLevelModerate, 30},
		{"negative high probability", 0, 0.95, valueobject.RiskLevelModerate, 95},
		{"probability zero", 0, 0, valueobject.RiskLevelLow, 0},
		{"probability one", 1, 1, valueobject.RiskLevelHigh, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newPipeline(t, &stubQuantile{}, &stubScaler{}, &stubClassifier{class: tt.class, proba: tt.proba})

			result, err := p.Analyze(context.Background(), exampleRecord())
			require.NoError(t, err)
			assert.Equal(t, tt.class, result.PredictedClass)
			assert.InDelta(t, tt.wantPct, result.ProbabilityPct, 1e-9)
			assert.GreaterOrEqual(t, result.ProbabilityPct, 0.0)
			assert.LessOrEqual(t, result.ProbabilityPct, 100.0)
			assert.Equal(t, tt.wantLevel, result.RiskLevel)
		})
	}
}

func TestAnalyze_Idempotent(t *testing.T) {
	p := newPipeline(t, &stubQuantile{}, &stubScaler{}, &stubClassifier{class: 1, proba: 0.71})

	first, err := p.Analyze(context.Background(), exampleRecord())
	require.NoError(t, err)
	second, err := p.Analyze(context.Background(), exampleRecord())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestAnalyze_Failures(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name      string
		q         *stubQuantile
		s         *stubScaler
		c         *stubClassifier
		wantStage string
	}{
		{
			name:      "quantile error",
			q:         &stubQuantile{err: boom},
			s:         &stubScaler{},
			c:         &stubClassifier{},
			wantStage: service.StageQuantile,
		},
		{
			name:      "quantile wrong shape",
			q:         &stubQuantile{out: [][]float64{{1, 2}}},
			s:         &stubScaler{},
			c:         &stubClassifier{},
			wantStage: service.StageQuantile,
		},
		{
			name:      "scaler error",
			q:         &stubQuantile{},
			s:         &stubScaler{err: boom},
			c:         &stubClassifier{},
			wantStage: service.StageScale,
		},
		{
			name:      "scaler extra column",
			q:         &stubQuantile{},
			s:         &stubScaler{extra: true},
			c:         &stubClassifier{},
			wantStage: service.StageScale,
		},
		{
			name:      "class out of range",
			q:         &stubQuantile{},
			s:         &stubScaler{},
			c:         &stubClassifier{class: 2, proba: 0.5},
			wantStage: service.StageClassify,
		},
		{
			name:      "probability out of range",
			q:         &stubQuantile{},
			s:         &stubScaler{},
			c:         &stubClassifier{proba: 1.2},
			wantStage: service.StageClassify,
		},
		{
			name:      "classifier panics",
			q:         &stubQuantile{},
			s:         &stubScaler{},
			c:         &stubClassifier{panicMsg: "index out of range"},
			wantStage: service.StageClassify,
		},
		{
			name:      "quantile transformer panics",
			q:         &stubQuantile{panicMsg: "nil quantiles"},
			s:         &stubScaler{},
			c:         &stubClassifier{},
			wantStage: service.StageQuantile,
		},
		{
			name:      "scaler panics",
			q:         &stubQuantile{},
			s:         &stubScaler{panicMsg: "index out of range"},
			c:         &stubClassifier{},
			wantStage: service.StageScale,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newPipeline(t, tt.q, tt.s, tt.c)

			result, err := p.Analyze(context.Background(), exampleRecord())
			require.Error(t, err)
			assert.ErrorIs(t, err, service.ErrPredictionFailed)

			var failure *service.PredictionFailure
			require.ErrorAs(t, err, &failure)
			assert.Equal(t, tt.wantStage, failure.Stage)
			assert.NotEmpty(t, failure.Error())
			assert.Equal(t, model.PredictionResult{}, result)
		})
	}
}

func TestAnalyze_ClassifierRejectsColumnMismatch(t *testing.T) {
	c := &stubClassifier{proba: 0.4}

	missing, err := model.NewFeatureVector(model.FeatureColumns[:5], []float64{1, 2, 3, 4, 5})
	require.NoError(t, err)
	_, err = c.Predict(missing)
	require.Error(t, err)

	extra, err := model.NewFeatureVector(
		append(slices.Clone(model.FeatureColumns), "Insulin"),
		[]float64{1, 2, 3, 4, 5, 6, 7},
	)
	require.NoError(t, err)
	_, err = c.PredictProba(extra)
	require.Error(t, err)

	// Through the pipeline, an extra scaled column never reaches the classifier.
	p := newPipeline(t, &stubQuantile{}, &stubScaler{extra: true}, c)
	_, err = p.Analyze(context.Background(), exampleRecord())
	assert.ErrorIs(t, err, service.ErrPredictionFailed)
	assert.Len(t, c.seen, 1)
}
