package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/healthbox/diabetes-risk/internal/domain/model"
	"github.com/healthbox/diabetes-risk/internal/domain/port"
	"github.com/healthbox/diabetes-risk/internal/domain/valueobject"
)

const tracerName = "github.com/healthbox/diabetes-risk/internal/domain/service"

// Artifacts is the frozen set of externally trained objects the pipeline
// runs on. It is built once at startup and never mutated afterwards, so a
// single value can be shared by concurrent requests.
type Artifacts struct {
	Quantile     port.QuantileTransformer
	Scaler       port.FeatureScaler
	Classifier   port.Classifier
	ModelVersion string
}

// Validate checks that every artifact is present.
func (a Artifacts) Validate() error {
	var errs []error
	if a.Quantile == nil {
		errs = append(errs, errors.New("quantile transformer is missing"))
	}
	if a.Scaler == nil {
		errs = append(errs, errors.New("feature scaler is missing"))
	}
	if a.Classifier == nil {
		errs = append(errs, errors.New("classifier is missing"))
	}
	return errors.Join(errs...)
}

// RiskPipeline turns a PatientRecord into a PredictionResult:
// quantile-transform Insulin, scale the four-column group, drop raw Insulin,
// classify, and derive the risk tier.
type RiskPipeline struct {
	tracer    trace.Tracer
	artifacts Artifacts
}

// NewRiskPipeline creates a pipeline bound to the given artifacts.
func NewRiskPipeline(artifacts Artifacts) (*RiskPipeline, error) {
	if err := artifacts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid artifacts: %w", err)
	}
	return &RiskPipeline{
		artifacts: artifacts,
		tracer:    otel.Tracer(tracerName),
	}, nil
}

// ModelVersion returns the version string of the loaded classifier.
func (p *RiskPipeline) ModelVersion() string {
	return p.artifacts.ModelVersion
}

// Analyze runs the full transform-then-classify sequence. On any failure it
// returns a *PredictionFailure and a zero PredictionResult.
func (p *RiskPipeline) Analyze(ctx context.Context, record model.PatientRecord) (result model.PredictionResult, err error) {
	_, span := p.tracer.Start(ctx, "RiskPipeline.Analyze")
	// stage names the step running when an artifact panics.
	stage := StageQuantile
	defer func() {
		if r := recover(); r != nil {
			result = model.PredictionResult{}
			err = newFailure(stage, fmt.Errorf("artifact panicked: %v", r))
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	features, err := p.buildFeatures(record, &stage)
	if err != nil {
		return model.PredictionResult{}, err
	}

	stage = StageClassify
	predictedClass, err := p.artifacts.Classifier.Predict(features)
	if err != nil {
		return model.PredictionResult{}, newFailure(StageClassify, err)
	}
	if predictedClass != 0 && predictedClass != 1 {
		return model.PredictionResult{}, newFailure(StageClassify,
			fmt.Errorf("classifier returned class %d, expected 0 or 1", predictedClass))
	}

	probability, err := p.artifacts.Classifier.PredictProba(features)
	if err != nil {
		return model.PredictionResult{}, newFailure(StageClassify, err)
	}
	if math.IsNaN(probability) || probability < 0 || probability > 1 {
		return model.PredictionResult{}, newFailure(StageClassify,
			fmt.Errorf("classifier returned probability %v outside [0, 1]", probability))
	}

	probabilityPct := probability * 100
	level := valueobject.RiskLevelFromPrediction(predictedClass, probabilityPct)

	span.SetAttributes(
		attribute.Int("risk.predicted_class", predictedClass),
		attribute.Float64("risk.probability_pct", probabilityPct),
		attribute.String("risk.level", level.Code()),
	)

	return model.PredictionResult{
		Features:       features,
		PredictedClass: predictedClass,
		ProbabilityPct: probabilityPct,
		RiskLevel:      level,
	}, nil
}

// BuildFeatures applies the two feature transforms and returns the
// six-column vector the classifier expects. Pregnancies passes through unchanged.
func (p *RiskPipeline) BuildFeatures(record model.PatientRecord) (model.FeatureVector, error) {
	var stage string
	return p.buildFeatures(record, &stage)
}

func (p *RiskPipeline) buildFeatures(record model.PatientRecord, stage *string) (model.FeatureVector, error) {
	*stage = StageQuantile
	quantiles, err := p.artifacts.Quantile.Transform([][]float64{{float64(record.Insulin())}})
	if err != nil {
		return model.FeatureVector{}, newFailure(StageQuantile, err)
	}
	if len(quantiles) != 1 || len(quantiles[0]) != 1 {
		return model.FeatureVector{}, newFailure(StageQuantile,
			fmt.Errorf("quantile transformer returned shape %s, expected 1x1", shapeOf(quantiles)))
	}

	*stage = StageScale
	scaled, err := p.artifacts.Scaler.Transform([][]float64{{
		float64(record.Glucose()),
		float64(record.SkinThickness()),
		record.BMI(),
		float64(record.Age()),
	}})
	if err != nil {
		return model.FeatureVector{}, newFailure(StageScale, err)
	}
	if len(scaled) != 1 || len(scaled[0]) != len(model.ScaledColumns) {
		return model.FeatureVector{}, newFailure(StageScale,
			fmt.Errorf("scaler returned shape %s, expected 1x%d", shapeOf(scaled), len(model.ScaledColumns)))
	}

	*stage = StageAssemble
	row := scaled[0]
	features, err := model.NewFeatureVector(model.FeatureColumns, []float64{
		float64(record.Pregnancies()),
		quantiles[0][0],
		row[0],
		row[1],
		row[2],
		row[3],
	})
	if err != nil {
		return model.FeatureVector{}, newFailure(StageAssemble, err)
	}
	return features, nil
}

func shapeOf(rows [][]float64) string {
	if len(rows) == 0 {
		return "0x0"
	}
	return fmt.Sprintf("%dx%d", len(rows), len(rows[0]))
}
