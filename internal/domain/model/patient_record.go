package model

import "math"

// Field names one of the six collected patient metrics. The values match the
// column names the artifacts were fitted on.
type Field string

const (
	FieldPregnancies   Field = "Pregnancies"
	FieldGlucose       Field = "Glucose"
	FieldSkinThickness Field = "SkinThickness"
	FieldBMI           Field = "BMI"
	FieldAge           Field = "Age"
	FieldInsulin       Field = "Insulin"
)

// FieldSpec describes how a metric is collected: its bounds, default and help text.
type FieldSpec struct {
	Field   Field   `json:"field"`
	Label   string  `json:"label"`
	Help    string  `json:"help"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Default float64 `json:"default"`
	Step    float64 `json:"step"`
	Integer bool    `json:"integer"`
}

var fieldSpecs = []FieldSpec{
	{Field: FieldPregnancies, Label: "Pregnancies", Help: "Number of times pregnant", Min: 0, Max: 20, Default: 0, Step: 1, Integer: true},
	{Field: FieldGlucose, Label: "Glucose Level", Help: "Plasma glucose concentration (mg/dL)", Min: 50, Max: 300, Default: 117, Step: 1, Integer: true},
	{Field: FieldSkinThickness, Label: "Skin Thickness", Help: "Triceps skin fold thickness (mm)", Min: 0, Max: 99, Default: 23, Step: 1, Integer: true},
	{Field: FieldBMI, Label: "BMI", Help: "Body Mass Index (kg/m²)", Min: 10.0, Max: 60.0, Default: 23.3, Step: 0.1, Integer: false},
	{Field: FieldAge, Label: "Age", Help: "Age in years", Min: 21, Max: 100, Default: 29, Step: 1, Integer: true},
	{Field: FieldInsulin, Label: "Insulin Level", Help: "2-Hour serum insulin (mu U/ml)", Min: 0, Max: 500, Default: 102, Step: 1, Integer: true},
}

// FieldSpecs returns the collected fields in form order.
func FieldSpecs() []FieldSpec {
	specs := make([]FieldSpec, len(fieldSpecs))
	copy(specs, fieldSpecs)
	return specs
}

// SpecFor returns the spec of a single field.
func SpecFor(f Field) (FieldSpec, bool) {
	for _, s := range fieldSpecs {
		if s.Field == f {
			return s, true
		}
	}
	return FieldSpec{}, false
}

// Clamp forces v into the field's domain. Integer fields are rounded to the
// nearest whole number first; NaN falls back to the default.
func (s FieldSpec) Clamp(v float64) float64 {
	if math.IsNaN(v) {
		return s.Default
	}
	if s.Integer {
		v = math.Round(v)
	}
	return math.Min(s.Max, math.Max(s.Min, v))
}

// PatientRecord is the immutable set of six metrics a prediction is made from.
// Every field is always inside its declared domain.
type PatientRecord struct {
	bmi           float64
	pregnancies   int
	glucose       int
	skinThickness int
	age           int
	insulin       int
}

// Collect builds a PatientRecord from raw values. Missing fields take their
// default and out-of-range values are clamped; there is no rejection path.
func Collect(values map[Field]float64) PatientRecord {
	get := func(f Field) float64 {
		spec, _ := SpecFor(f)
		v, ok := values[f]
		if !ok {
			return spec.Default
		}
		return spec.Clamp(v)
	}

	return PatientRecord{
		pregnancies:   int(get(FieldPregnancies)),
		glucose:       int(get(FieldGlucose)),
		skinThickness: int(get(FieldSkinThickness)),
		bmi:           get(FieldBMI),
		age:           int(get(FieldAge)),
		insulin:       int(get(FieldInsulin)),
	}
}

// NewPatientRecord builds a record from typed values, clamping each one.
func NewPatientRecord(pregnancies, glucose, skinThickness int, bmi float64, age, insulin int) PatientRecord {
	return Collect(map[Field]float64{
		FieldPregnancies:   float64(pregnancies),
		FieldGlucose:       float64(glucose),
		FieldSkinThickness: float64(skinThickness),
		FieldBMI:           bmi,
		FieldAge:           float64(age),
		FieldInsulin:       float64(insulin),
	})
}

// DefaultPatientRecord returns the record the form shows before any input.
func DefaultPatientRecord() PatientRecord {
	return Collect(nil)
}

// --- Accessors ---

func (p PatientRecord) Pregnancies() int   { return p.pregnancies }
func (p PatientRecord) Glucose() int       { return p.glucose }
func (p PatientRecord) SkinThickness() int { return p.skinThickness }
func (p PatientRecord) BMI() float64       { return p.bmi }
func (p PatientRecord) Age() int           { return p.age }
func (p PatientRecord) Insulin() int       { return p.insulin }

// Values returns the record keyed by field.
func (p PatientRecord) Values() map[Field]float64 {
	return map[Field]float64{
		FieldPregnancies:   float64(p.pregnancies),
		FieldGlucose:       float64(p.glucose),
		FieldSkinThickness: float64(p.skinThickness),
		FieldBMI:           p.bmi,
		FieldAge:           float64(p.age),
		FieldInsulin:       float64(p.insulin),
	}
}
