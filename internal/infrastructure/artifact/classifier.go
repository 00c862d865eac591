package artifact

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"

	"github.com/healthbox/diabetes-risk/internal/domain/model"
)

// Classifier kinds.
const (
	ClassifierLogistic = "logistic"
	ClassifierForest   = "forest"
)

// ClassifierSpec is the exported form of a trained binary classifier.
type ClassifierSpec struct {
	Kind         string     `yaml:"kind"`
	Version      string     `yaml:"version"`
	FeatureNames []string   `yaml:"feature_names"`
	Classes      []int      `yaml:"classes"`
	Coef         []float64  `yaml:"coef"`
	Trees        []TreeSpec `yaml:"trees"`
	Intercept    float64    `yaml:"intercept"`
}

// TreeSpec holds the parallel node arrays of one fitted decision tree. A
// node whose left child is -1 is a leaf; Value holds per-class weights.
type TreeSpec struct {
	ChildrenLeft  []int       `yaml:"children_left"`
	ChildrenRight []int       `yaml:"children_right"`
	Feature       []int       `yaml:"feature"`
	Threshold     []float64   `yaml:"threshold"`
	Value         [][]float64 `yaml:"value"`
}

// NewClassifier builds the classifier described by spec.
func NewClassifier(spec ClassifierSpec) (Model, error) {
	if len(spec.FeatureNames) == 0 {
		return nil, errors.New("classifier has no feature_names")
	}
	if len(spec.Classes) != 0 && !slices.Equal(spec.Classes, []int{0, 1}) {
		return nil, fmt.Errorf("classifier classes must be [0 1], got %v", spec.Classes)
	}

	switch spec.Kind {
	case ClassifierLogistic:
		m, err := newLogistic(spec)
		if err != nil {
			return nil, err
		}
		return m, nil
	case ClassifierForest:
		m, err := newForest(spec)
		if err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unsupported classifier kind %q", spec.Kind)
	}
}

// Model is a classifier that also reports what it was trained on.
type Model interface {
	Predict(features model.FeatureVector) (int, error)
	PredictProba(features model.FeatureVector) (float64, error)
	FeatureNames() []string
}

// featureGate rejects vectors whose columns differ from the trained ones.
type featureGate struct {
	names []string
}

func (g featureGate) FeatureNames() []string {
	return slices.Clone(g.names)
}

func (g featureGate) values(fv model.FeatureVector) ([]float64, error) {
	got := fv.Columns()
	if slices.Equal(got, g.names) {
		return fv.Values(), nil
	}

	var missing, unexpected []string
	for _, n := range g.names {
		if !slices.Contains(got, n) {
			missing = append(missing, n)
		}
	}
	for _, n := range got {
		if !slices.Contains(g.names, n) {
			unexpected = append(unexpected, n)
		}
	}
	switch {
	case len(missing) > 0 && len(unexpected) > 0:
		return nil, fmt.Errorf("feature names mismatch: missing %v, unexpected %v", missing, unexpected)
	case len(missing) > 0:
		return nil, fmt.Errorf("feature names mismatch: missing %v", missing)
	case len(unexpected) > 0:
		return nil, fmt.Errorf("feature names mismatch: unexpected %v", unexpected)
	default:
		return nil, fmt.Errorf("feature names must be in the order seen at fit time: %v", g.names)
	}
}

// LogisticModel is a fitted binary logistic regression.
type LogisticModel struct {
	featureGate
	coef      []float64
	intercept float64
}

func newLogistic(spec ClassifierSpec) (*LogisticModel, error) {
	if len(spec.Coef) != len(spec.FeatureNames) {
		return nil, fmt.Errorf("logistic model has %d coefficients for %d features", len(spec.Coef), len(spec.FeatureNames))
	}
	return &LogisticModel{
		featureGate: featureGate{names: slices.Clone(spec.FeatureNames)},
		coef:        slices.Clone(spec.Coef),
		intercept:   spec.Intercept,
	}, nil
}

func (m *LogisticModel) decision(fv model.FeatureVector) (float64, error) {
	x, err := m.values(fv)
	if err != nil {
		return 0, err
	}
	return floats.Dot(m.coef, x) + m.intercept, nil
}

// Predict returns 1 when the decision function is positive.
func (m *LogisticModel) Predict(fv model.FeatureVector) (int, error) {
	d, err := m.decision(fv)
	if err != nil {
		return 0, err
	}
	if d > 0 {
		return 1, nil
	}
	return 0, nil
}

// PredictProba returns the logistic of the decision function.
func (m *LogisticModel) PredictProba(fv model.FeatureVector) (float64, error) {
	d, err := m.decision(fv)
	if err != nil {
		return 0, err
	}
	return 1 / (1 + math.Exp(-d)), nil
}

// ForestModel is a fitted random forest; class probabilities are the mean
// of the per-tree leaf distributions.
type ForestModel struct {
	featureGate
	trees []tree
}

type tree struct {
	left      []int
	right     []int
	feature   []int
	threshold []float64
	proba     [][2]float64
}

func newForest(spec ClassifierSpec) (*ForestModel, error) {
	if len(spec.Trees) == 0 {
		return nil, errors.New("forest has no trees")
	}
	m := &ForestModel{
		featureGate: featureGate{names: slices.Clone(spec.FeatureNames)},
		trees:       make([]tree, 0, len(spec.Trees)),
	}
	for i, ts := range spec.Trees {
		t, err := newTree(ts, len(spec.FeatureNames))
		if err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
		m.trees = append(m.trees, t)
	}
	return m, nil
}

func newTree(ts TreeSpec, nFeatures int) (tree, error) {
	n := len(ts.ChildrenLeft)
	if n == 0 {
		return tree{}, errors.New("no nodes")
	}
	if len(ts.ChildrenRight) != n || len(ts.Feature) != n || len(ts.Threshold) != n || len(ts.Value) != n {
		return tree{}, errors.New("node arrays differ in length")
	}

	t := tree{
		left:      slices.Clone(ts.ChildrenLeft),
		right:     slices.Clone(ts.ChildrenRight),
		feature:   slices.Clone(ts.Feature),
		threshold: slices.Clone(ts.Threshold),
		proba:     make([][2]float64, n),
	}
	for i := range n {
		if t.left[i] == -1 {
			if t.right[i] != -1 {
				return tree{}, fmt.Errorf("node %d has only one child", i)
			}
			v := ts.Value[i]
			if len(v) != 2 {
				return tree{}, fmt.Errorf("leaf %d has %d class values, expected 2", i, len(v))
			}
			total := floats.Sum(v)
			if total <= 0 {
				return tree{}, fmt.Errorf("leaf %d has no weight", i)
			}
			t.proba[i] = [2]float64{v[0] / total, v[1] / total}
			continue
		}
		// Children always follow their parent in the exported arrays.
		if t.left[i] <= i || t.left[i] >= n || t.right[i] <= i || t.right[i] >= n {
			return tree{}, fmt.Errorf("node %d has invalid children", i)
		}
		if t.feature[i] < 0 || t.feature[i] >= nFeatures {
			return tree{}, fmt.Errorf("node %d splits on feature %d", i, t.feature[i])
		}
	}
	return t, nil
}

// leaf walks the tree. Inputs are compared at float32 precision, as they
// were during training.
func (t tree) leaf(x []float64) [2]float64 {
	node := 0
	for t.left[node] != -1 {
		if float64(float32(x[t.feature[node]])) <= t.threshold[node] {
			node = t.left[node]
		} else {
			node = t.right[node]
		}
	}
	return t.proba[node]
}

func (m *ForestModel) proba(fv model.FeatureVector) ([2]float64, error) {
	x, err := m.values(fv)
	if err != nil {
		return [2]float64{}, err
	}
	var sum [2]float64
	for _, t := range m.trees {
		p := t.leaf(x)
		sum[0] += p[0]
		sum[1] += p[1]
	}
	n := float64(len(m.trees))
	return [2]float64{sum[0] / n, sum[1] / n}, nil
}

// Predict returns the class with the highest mean probability; ties go to 0.
func (m *ForestModel) Predict(fv model.FeatureVector) (int, error) {
	p, err := m.proba(fv)
	if err != nil {
		return 0, err
	}
	if p[1] > p[0] {
		return 1, nil
	}
	return 0, nil
}

// PredictProba returns the mean class-1 probability.
func (m *ForestModel) PredictProba(fv model.FeatureVector) (float64, error) {
	p, err := m.proba(fv)
	if err != nil {
		return 0, err
	}
	return p[1], nil
}
