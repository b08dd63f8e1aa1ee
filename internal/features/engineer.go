package features

import (
	"fmt"
	"strings"

	"maternal-risk/internal/models"
)

// EngineeredFeatureNames lists the derived columns appended after the
// six base vitals, in pinned order. The scaler was fit on exactly this
// order; it is serialized into the artifact and validated at load time.
var EngineeredFeatureNames = []string{
	"age_systolic_bp",
	"pulse_pressure",
	"mean_arterial_pressure",
	"hr_temp_ratio",
	"age_blood_sugar",
	"bp_product",
	"age_squared",
	"temp_hr_interaction",
	"sys_dia_ratio",
	"shock_index",
	"temp_deviation",
	"bs_deviation",
	"age_category",
	"hypertension_flag",
}

// MissingFeatureError reports required vital-sign fields absent from
// the input, in canonical field order.
type MissingFeatureError struct {
	Fields []string
}

func (e *MissingFeatureError) Error() string {
	return fmt.Sprintf("missing required features: [%s]", strings.Join(e.Fields, ", "))
}

// Engineer derives the extended feature vector from raw vitals.
// Pure arithmetic, no learned state: Fit only validates.
type Engineer struct{}

// NewEngineer creates a feature engineer.
func NewEngineer() *Engineer {
	return &Engineer{}
}

// FeatureNames returns all output column names in pinned order:
// the six base vitals followed by the engineered columns.
func (e *Engineer) FeatureNames() []string {
	names := make([]string, 0, len(models.RequiredFields)+len(EngineeredFeatureNames))
	names = append(names, models.RequiredFields...)
	names = append(names, EngineeredFeatureNames...)
	return names
}

// Fit validates the input. Nothing is learned from data: the
// engineered features are hand-specified.
func (e *Engineer) Fit(samples []models.VitalSample) error {
	for _, s := range samples {
		if err := e.validate(&s); err != nil {
			return err
		}
	}
	return nil
}

// Transform maps one sample to its engineered feature vector.
func (e *Engineer) Transform(sample models.VitalSample) ([]float64, error) {
	if err := e.validate(&sample); err != nil {
		return nil, err
	}

	age := *sample.Age
	sys := *sample.SystolicBP
	dia := *sample.DiastolicBP
	bs := *sample.BloodSugar
	temp := *sample.BodyTemp
	hr := *sample.HeartRate

	pulsePressure := sys - dia

	out := make([]float64, 0, len(models.RequiredFields)+len(EngineeredFeatureNames))
	out = append(out, age, sys, dia, bs, temp, hr)
	out = append(out,
		age*sys,                 // age_systolic_bp
		pulsePressure,           // pulse_pressure
		dia+pulsePressure/3,     // mean_arterial_pressure
		hr/temp,                 // hr_temp_ratio
		age*bs,                  // age_blood_sugar
		sys*dia,                 // bp_product
		age*age,                 // age_squared
		temp*hr,                 // temp_hr_interaction
		sys/dia,                 // sys_dia_ratio
		hr/sys,                  // shock_index
		temp-37,                 // temp_deviation
		bs-7,                    // bs_deviation
		ageCategory(age),        // age_category
		hypertensionFlag(sys, dia),
	)
	return out, nil
}

// TransformBatch maps samples to feature vectors, preserving row order.
func (e *Engineer) TransformBatch(samples []models.VitalSample) ([][]float64, error) {
	rows := make([][]float64, 0, len(samples))
	for _, s := range samples {
		row, err := e.Transform(s)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (e *Engineer) validate(sample *models.VitalSample) error {
	var missing []string
	for _, name := range models.RequiredFields {
		if sample.Field(name) == nil {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return &MissingFeatureError{Fields: missing}
	}
	return nil
}

// ageCategory buckets age: 0 for <=20, 1 for 20-35, 2 for >35.
func ageCategory(age float64) float64 {
	switch {
	case age <= 20:
		return 0
	case age <= 35:
		return 1
	default:
		return 2
	}
}

func hypertensionFlag(sys, dia float64) float64 {
	if sys >= 140 || dia >= 90 {
		return 1
	}
	return 0
}
