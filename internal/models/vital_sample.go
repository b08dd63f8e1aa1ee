package models

// VitalSample is one set of raw maternal vital-sign measurements.
// Fields are pointers so that a missing measurement is distinguishable
// from a zero value; validation happens in the pipeline before any
// computation touches the sample.
type VitalSample struct {
	Age         *float64 `json:"age"`
	SystolicBP  *float64 `json:"systolic_bp"`
	DiastolicBP *float64 `json:"diastolic_bp"`
	BloodSugar  *float64 `json:"blood_sugar"`
	BodyTemp    *float64 `json:"body_temp"`
	HeartRate   *float64 `json:"heart_rate"`
}

// RequiredFields is the canonical ordered list of required vital-sign
// fields. Validation errors report missing fields in this order.
var RequiredFields = []string{
	"age",
	"systolic_bp",
	"diastolic_bp",
	"blood_sugar",
	"body_temp",
	"heart_rate",
}

// NewVitalSample builds a fully-populated sample. Convenience for
// callers that already hold all six measurements.
func NewVitalSample(age, systolicBP, diastolicBP, bloodSugar, bodyTemp, heartRate float64) VitalSample {
	return VitalSample{
		Age:         &age,
		SystolicBP:  &systolicBP,
		DiastolicBP: &diastolicBP,
		BloodSugar:  &bloodSugar,
		BodyTemp:    &bodyTemp,
		HeartRate:   &heartRate,
	}
}

// Field returns the value pointer for a canonical field name.
func (s *VitalSample) Field(name string) *float64 {
	switch name {
	case "age":
		return s.Age
	case "systolic_bp":
		return s.SystolicBP
	case "diastolic_bp":
		return s.DiastolicBP
	case "blood_sugar":
		return s.BloodSugar
	case "body_temp":
		return s.BodyTemp
	case "heart_rate":
		return s.HeartRate
	}
	return nil
}

// Values returns the six measurements in canonical field order.
// All fields must be set; callers validate first.
func (s *VitalSample) Values() []float64 {
	return []float64{
		*s.Age,
		*s.SystolicBP,
		*s.DiastolicBP,
		*s.BloodSugar,
		*s.BodyTemp,
		*s.HeartRate,
	}
}
