package artifact

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

// boundsThreshold is the tolerance used by normal output when pinning inputs
// to the ends of the fitted quantile range. Uniform output pins only exact
// matches.
const boundsThreshold = 1e-7

// Output distributions supported by QuantileTransformer.
const (
	DistributionUniform = "uniform"
	DistributionNormal  = "normal"
)

// QuantileSpec is the exported form of a fitted single-feature quantile transformer.
type QuantileSpec struct {
	OutputDistribution string    `yaml:"output_distribution"`
	FeatureNames       []string  `yaml:"feature_names"`
	Quantiles          []float64 `yaml:"quantiles"`
	References         []float64 `yaml:"references"`
	NQuantiles         int       `yaml:"n_quantiles"`
}

// QuantileTransformer maps one feature onto a uniform or standard normal
// distribution through its fitted empirical quantiles.
type QuantileTransformer struct {
	distribution string
	quantiles    []float64
	references   []float64
	negQuantiles []float64
	negRefs      []float64
	clipMin      float64
	clipMax      float64
}

// NewQuantileTransformer validates a spec and precomputes the reversed tables
// used for backward interpolation.
func NewQuantileTransformer(spec QuantileSpec) (*QuantileTransformer, error) {
	n := len(spec.Quantiles)
	if n < 2 {
		return nil, fmt.Errorf("quantile transformer needs at least 2 quantiles, got %d", n)
	}
	if spec.NQuantiles != 0 && spec.NQuantiles != n {
		return nil, fmt.Errorf("n_quantiles is %d but %d quantiles were given", spec.NQuantiles, n)
	}
	if len(spec.FeatureNames) > 1 {
		return nil, fmt.Errorf("quantile transformer must be fitted on one feature, got %d", len(spec.FeatureNames))
	}
	if !sort.Float64sAreSorted(spec.Quantiles) || slices.ContainsFunc(spec.Quantiles, math.IsNaN) {
		return nil, errors.New("quantiles must be finite and non-decreasing")
	}

	refs := spec.References
	if len(refs) == 0 {
		refs = floats.Span(make([]float64, n), 0, 1)
	}
	if len(refs) != n {
		return nil, fmt.Errorf("got %d references for %d quantiles", len(refs), n)
	}
	if !sort.Float64sAreSorted(refs) || refs[0] < 0 || refs[n-1] > 1 {
		return nil, errors.New("references must be non-decreasing within [0, 1]")
	}

	dist := spec.OutputDistribution
	if dist == "" {
		dist = DistributionUniform
	}
	if dist != DistributionUniform && dist != DistributionNormal {
		return nil, fmt.Errorf("unsupported output distribution %q", dist)
	}

	q := &QuantileTransformer{
		distribution: dist,
		quantiles:    slices.Clone(spec.Quantiles),
		references:   slices.Clone(refs),
		negQuantiles: negatedReverse(spec.Quantiles),
		negRefs:      negatedReverse(refs),
	}

	// Match numpy's spacing(1) so the clip range equals the one used at fit time.
	eps := math.Nextafter(1, 2) - 1
	q.clipMin = distuv.UnitNormal.Quantile(boundsThreshold - eps)
	q.clipMax = distuv.UnitNormal.Quantile(1 - (boundsThreshold - eps))
	return q, nil
}

// Distribution returns the output distribution name.
func (q *QuantileTransformer) Distribution() string {
	return q.distribution
}

// Transform maps an n x 1 table.
func (q *QuantileTransformer) Transform(rows [][]float64) ([][]float64, error) {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		if len(row) != 1 {
			return nil, fmt.Errorf("quantile transformer expects 1 column, row %d has %d", i, len(row))
		}
		out[i] = []float64{q.transformValue(row[0])}
	}
	return out, nil
}

func (q *QuantileTransformer) transformValue(x float64) float64 {
	if math.IsNaN(x) {
		return x
	}

	lo, hi := q.quantiles[0], q.quantiles[len(q.quantiles)-1]
	atLower, atUpper := x == lo, x == hi
	if q.distribution == DistributionNormal {
		atLower, atUpper = x-boundsThreshold < lo, x+boundsThreshold > hi
	}

	var y float64
	switch {
	case atLower:
		y = 0
	case atUpper:
		y = 1
	default:
		// Averaging forward and backward interpolation places repeated
		// quantiles at the middle of their reference span.
		y = 0.5 * (interp(x, q.quantiles, q.references) - interp(-x, q.negQuantiles, q.negRefs))
	}

	if q.distribution == DistributionUniform {
		return y
	}
	return math.Max(q.clipMin, math.Min(q.clipMax, distuv.UnitNormal.Quantile(clampUnit(y))))
}

// interp is one-dimensional piecewise linear interpolation over a
// non-decreasing xp. Outside the table the end values are returned. With
// repeated xp values the rightmost matching knot wins.
func interp(x float64, xp, fp []float64) float64 {
	n := len(xp)
	if x > xp[n-1] {
		return fp[n-1]
	}
	if x < xp[0] {
		return fp[0]
	}

	j := sort.Search(n, func(i int) bool { return xp[i] > x }) - 1
	if j == n-1 || xp[j] == x {
		return fp[j]
	}
	slope := (fp[j+1] - fp[j]) / (xp[j+1] - xp[j])
	return slope*(x-xp[j]) + fp[j]
}

func negatedReverse(v []float64) []float64 {
	out := slices.Clone(v)
	slices.Reverse(out)
	floats.Scale(-1, out)
	return out
}

func clampUnit(y float64) float64 {
	return math.Max(0, math.Min(1, y))
}
