package valueobject

import "fmt"

// LowRiskThresholdPct is the probability (in percent) below which a
// predicted-negative case is reported as Low Risk.
const LowRiskThresholdPct = 30.0

// RiskLevel is an immutable value object representing the displayed risk tier.
type RiskLevel struct {
	value string
}

var (
	RiskLevelLow      = RiskLevel{value: "Low Risk"}
	RiskLevelModerate = RiskLevel{value: "Moderate Risk"}
	RiskLevelHigh     = RiskLevel{value: "High Risk"}
)

// RiskLevelFromString reconstructs a RiskLevel from its label.
func RiskLevelFromString(s string) (RiskLevel, error) {
	switch s {
	case "Low Risk":
		return RiskLevelLow, nil
	case "Moderate Risk":
		return RiskLevelModerate, nil
	case "High Risk":
		return RiskLevelHigh, nil
	default:
		return RiskLevel{}, fmt.Errorf("invalid risk level: %s", s)
	}
}

// RiskLevelFromPrediction maps a classifier output to a risk tier.
// A positive predicted class is always High Risk, regardless of probability.
// Only predicted-negative cases are split on the probability threshold.
func RiskLevelFromPrediction(predictedClass int, probabilityPct float64) RiskLevel {
	switch {
	case predictedClass == 1:
		return RiskLevelHigh
	case probabilityPct < LowRiskThresholdPct:
		return RiskLevelLow
	default:
		return RiskLevelModerate
	}
}

// String returns the display label.
func (r RiskLevel) String() string {
	return r.value
}

// Code returns a short lowercase identifier suitable for metric attributes.
func (r RiskLevel) Code() string {
	switch r.value {
	case "Low Risk":
		return "low"
	case "Moderate Risk":
		return "moderate"
	case "High Risk":
		return "high"
	default:
		return "unknown"
	}
}

// Color returns the banner background color for this tier.
func (r RiskLevel) Color() string {
	switch r.value {
	case "Low Risk":
		return "#2ecc71"
	case "Moderate Risk":
		return "#f1c40f"
	case "High Risk":
		return "#ff4b4b"
	default:
		return "#f0f2f6"
	}
}

// Icon returns the emoji shown next to the label.
func (r RiskLevel) Icon() string {
	switch r.value {
	case "Low Risk":
		return "✅"
	case "Moderate Risk":
		return "⚠️"
	case "High Risk":
		return "🚨"
	default:
		return ""
	}
}

// IsZero returns true if the RiskLevel has not been set.
func (r RiskLevel) IsZero() bool {
	return r.value == ""
}

// Equal checks equality with another RiskLevel.
func (r RiskLevel) Equal(other RiskLevel) bool {
	return r.value == other.value
}
