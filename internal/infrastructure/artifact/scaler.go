package artifact

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/floats"
)

// Scaler kinds.
const (
	ScalerStandard = "standard"
	ScalerRobust   = "robust"
	ScalerMinMax   = "minmax"
)

// ScalerSpec is the exported form of a fitted feature scaler. Standard and
// robust scalers use center and scale; min-max scalers use min and scale.
type ScalerSpec struct {
	Kind         string    `yaml:"kind"`
	FeatureNames []string  `yaml:"feature_names"`
	Center       []float64 `yaml:"center"`
	Scale        []float64 `yaml:"scale"`
	Min          []float64 `yaml:"min"`
}

// Scaler applies a fitted per-column linear transform to rows whose columns
// are in the fitted order.
type Scaler struct {
	kind         string
	featureNames []string
	center       []float64
	scale        []float64
	offset       []float64
}

// NewScaler validates a spec against the expected column group.
func NewScaler(spec ScalerSpec, wantColumns []string) (*Scaler, error) {
	if !slices.Equal(spec.FeatureNames, wantColumns) {
		return nil, fmt.Errorf("scaler fitted on columns %v, expected %v", spec.FeatureNames, wantColumns)
	}
	k := len(wantColumns)
	if len(spec.Scale) != k {
		return nil, fmt.Errorf("scaler has %d scale values for %d columns", len(spec.Scale), k)
	}

	s := &Scaler{
		kind:         spec.Kind,
		featureNames: slices.Clone(spec.FeatureNames),
		scale:        slices.Clone(spec.Scale),
	}

	switch spec.Kind {
	case ScalerStandard, ScalerRobust:
		if len(spec.Center) != k {
			return nil, fmt.Errorf("scaler has %d center values for %d columns", len(spec.Center), k)
		}
		for i, v := range spec.Scale {
			if v == 0 {
				return nil, fmt.Errorf("scaler column %q has zero scale", spec.FeatureNames[i])
			}
		}
		s.center = slices.Clone(spec.Center)
	case ScalerMinMax:
		if len(spec.Min) != k {
			return nil, fmt.Errorf("scaler has %d min values for %d columns", len(spec.Min), k)
		}
		s.offset = slices.Clone(spec.Min)
	default:
		return nil, fmt.Errorf("unsupported scaler kind %q", spec.Kind)
	}
	return s, nil
}

// FeatureNames returns the fitted column order.
func (s *Scaler) FeatureNames() []string {
	return slices.Clone(s.featureNames)
}

// Transform scales an n x k table. Inputs are not modified.
func (s *Scaler) Transform(rows [][]float64) ([][]float64, error) {
	k := len(s.featureNames)
	out := make([][]float64, len(rows))
	for i, row := range rows {
		if len(row) != k {
			return nil, fmt.Errorf("scaler expects %d columns, row %d has %d", k, i, len(row))
		}
		scaled := slices.Clone(row)
		if s.kind == ScalerMinMax {
			floats.Mul(scaled, s.scale)
			floats.Add(scaled, s.offset)
		} else {
			floats.Sub(scaled, s.center)
			floats.Div(scaled, s.scale)
		}
		out[i] = scaled
	}
	return out, nil
}
