// Package artifact loads the frozen preprocessing and classification
// artifacts exported from the training environment.
package artifact

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/healthbox/diabetes-risk/internal/domain/model"
	"github.com/healthbox/diabetes-risk/internal/domain/service"
)

// Artifact file names inside the artifact directory.
const (
	QuantileFile   = "quantile_transformer.yaml"
	ScalerFile     = "scaler.yaml"
	ClassifierFile = "diabetes_model.yaml"
)

// MaxModelVersionLen matches risk_assessments.model_version.
const MaxModelVersionLen = 100

// Load reads all three artifacts from dir.
func Load(dir string) (service.Artifacts, error) {
	return LoadFS(os.DirFS(dir))
}

// LoadFS reads all three artifacts from fsys and checks they fit together.
func LoadFS(fsys fs.FS) (service.Artifacts, error) {
	var qs QuantileSpec
	if _, err := decodeFile(fsys, QuantileFile, &qs); err != nil {
		return service.Artifacts{}, err
	}
	if len(qs.FeatureNames) == 1 && qs.FeatureNames[0] != string(model.FieldInsulin) {
		return service.Artifacts{}, fmt.Errorf("%s: fitted on %q, expected %q", QuantileFile, qs.FeatureNames[0], model.FieldInsulin)
	}
	quantile, err := NewQuantileTransformer(qs)
	if err != nil {
		return service.Artifacts{}, fmt.Errorf("%s: %w", QuantileFile, err)
	}

	var ss ScalerSpec
	if _, err := decodeFile(fsys, ScalerFile, &ss); err != nil {
		return service.Artifacts{}, err
	}
	scaler, err := NewScaler(ss, model.ScaledColumns)
	if err != nil {
		return service.Artifacts{}, fmt.Errorf("%s: %w", ScalerFile, err)
	}

	var cs ClassifierSpec
	raw, err := decodeFile(fsys, ClassifierFile, &cs)
	if err != nil {
		return service.Artifacts{}, err
	}
	if !slices.Equal(cs.FeatureNames, model.FeatureColumns) {
		return service.Artifacts{}, fmt.Errorf("%s: trained on %v, expected %v", ClassifierFile, cs.FeatureNames, model.FeatureColumns)
	}
	classifier, err := NewClassifier(cs)
	if err != nil {
		return service.Artifacts{}, fmt.Errorf("%s: %w", ClassifierFile, err)
	}

	version := cs.Version
	if len(version) > MaxModelVersionLen {
		return service.Artifacts{}, fmt.Errorf("%s: version is %d bytes, limit is %d", ClassifierFile, len(version), MaxModelVersionLen)
	}
	if version == "" {
		sum := sha256.Sum256(raw)
		version = cs.Kind + "-" + hex.EncodeToString(sum[:6])
	}

	return service.Artifacts{
		Quantile:     quantile,
		Scaler:       scaler,
		Classifier:   classifier,
		ModelVersion: version,
	}, nil
}

func decodeFile(fsys fs.FS, name string, out any) ([]byte, error) {
	raw, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("reading artifact: %w", err)
	}
	if err := yaml.Unmarshal(raw, out); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", name, err)
	}
	return raw, nil
}
