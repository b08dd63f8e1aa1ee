package model

import "fmt"

// Range is an inclusive clinical plausibility range for one vital.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether v falls inside the range.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// RiskCosts holds the asymmetric misclassification penalties used by
// the clinical evaluator. Missing a true high-risk case costs far more
// than a false alarm.
type RiskCosts struct {
	FalseNegativeHigh float64 `json:"false_negative_high"`
	FalsePositiveHigh float64 `json:"false_positive_high"`
	FalseNegativeMid  float64 `json:"false_negative_mid"`
	FalsePositiveMid  float64 `json:"false_positive_mid"`
	FalseNegativeLow  float64 `json:"false_negative_low"`
	FalsePositiveLow  float64 `json:"false_positive_low"`
}

// Config is the model-level configuration carried inside the pipeline
// artifact: alert thresholds, clinical plausibility ranges, and the
// clinical cost table.
type Config struct {
	HighRiskThreshold float64          `json:"high_risk_threshold"`
	MidRiskThreshold  float64          `json:"mid_risk_threshold"`
	LowRiskConfidence float64          `json:"low_risk_confidence"`
	ClinicalRanges    map[string]Range `json:"clinical_ranges"`
	RiskCosts         RiskCosts        `json:"risk_costs"`
}

// DefaultConfig returns the deployed defaults.
func DefaultConfig() *Config {
	return &Config{
		HighRiskThreshold: 0.7,
		MidRiskThreshold:  0.4,
		LowRiskConfidence: 0.9,
		ClinicalRanges: map[string]Range{
			"age":          {Min: 13, Max: 60},
			"systolic_bp":  {Min: 70, Max: 200},
			"diastolic_bp": {Min: 40, Max: 120},
			"blood_sugar":  {Min: 1, Max: 30},
			"body_temp":    {Min: 95, Max: 104},
			"heart_rate":   {Min: 40, Max: 200},
		},
		RiskCosts: RiskCosts{
			FalseNegativeHigh: 10,
			FalsePositiveHigh: 3,
			FalseNegativeMid:  5,
			FalsePositiveMid:  2,
			FalseNegativeLow:  1,
			FalsePositiveLow:  1,
		},
	}
}

// Validate checks threshold sanity.
func (c *Config) Validate() error {
	for name, v := range map[string]float64{
		"high_risk_threshold": c.HighRiskThreshold,
		"mid_risk_threshold":  c.MidRiskThreshold,
		"low_risk_confidence": c.LowRiskConfidence,
	} {
		if v <= 0 || v > 1 {
			return fmt.Errorf("%s must be in (0, 1], got %v", name, v)
		}
	}
	for field, r := range c.ClinicalRanges {
		if r.Min >= r.Max {
			return fmt.Errorf("clinical range for %s is inverted: [%v, %v]", field, r.Min, r.Max)
		}
	}
	return nil
}
