package model

import (
	"fmt"
	"math"
)

// probability vectors must sum to 1 within this relative tolerance
const probSumTolerance = 0.01

// Classifier wraps the fitted tree ensemble together with its
// per-class isotonic calibrators. Probabilities leaving this type are
// calibrated, renormalized, and validated; a malformed vector is an
// error, never a value passed downstream.
type Classifier struct {
	Ensemble    *TreeEnsemble        `json:"ensemble"`
	Calibrators []IsotonicCalibrator `json:"calibrators,omitempty"`
}

// NumClasses returns the number of risk classes the classifier knows.
func (c *Classifier) NumClasses() int {
	return c.Ensemble.NumClasses
}

// HasTreeStructure reports whether the underlying model exposes
// native tree structure for exact attribution.
func (c *Classifier) HasTreeStructure() bool {
	return c.Ensemble != nil && len(c.Ensemble.Trees) > 0
}

// TreeStructure exposes the fitted ensemble for exact attribution, or
// nil when no tree structure is available.
func (c *Classifier) TreeStructure() *TreeEnsemble {
	if c.HasTreeStructure() {
		return c.Ensemble
	}
	return nil
}

// PredictProba returns the calibrated class distribution for a scaled
// feature row.
func (c *Classifier) PredictProba(row []float64) ([]float64, error) {
	raw, err := c.Ensemble.PredictProba(row)
	if err != nil {
		return nil, err
	}
	if err := checkProbabilities(raw); err != nil {
		return nil, fmt.Errorf("raw classifier output invalid: %w", err)
	}

	if len(c.Calibrators) == 0 {
		return raw, nil
	}
	if len(c.Calibrators) != len(raw) {
		return nil, fmt.Errorf("have %d calibrators for %d classes", len(c.Calibrators), len(raw))
	}

	calibrated := make([]float64, len(raw))
	sum := 0.0
	for i, p := range raw {
		calibrated[i] = c.Calibrators[i].Calibrate(p)
		sum += calibrated[i]
	}
	if sum <= 0 {
		return nil, fmt.Errorf("calibrated probabilities sum to %.6f", sum)
	}
	for i := range calibrated {
		calibrated[i] /= sum
	}
	return calibrated, nil
}

// Predict returns the index of the most probable class.
func (c *Classifier) Predict(row []float64) (int, error) {
	probs, err := c.PredictProba(row)
	if err != nil {
		return 0, err
	}
	return Argmax(probs), nil
}

// Validate checks the classifier's internal consistency.
func (c *Classifier) Validate() error {
	if c.Ensemble == nil {
		return fmt.Errorf("classifier has no ensemble")
	}
	if err := c.Ensemble.Validate(); err != nil {
		return err
	}
	if len(c.Calibrators) > 0 && len(c.Calibrators) != c.Ensemble.NumClasses {
		return fmt.Errorf("have %d calibrators for %d classes", len(c.Calibrators), c.Ensemble.NumClasses)
	}
	for i := range c.Calibrators {
		if err := c.Calibrators[i].Validate(); err != nil {
			return fmt.Errorf("calibrator %d: %w", i, err)
		}
	}
	return nil
}

// Argmax returns the index of the largest value. Ties keep the first.
func Argmax(values []float64) int {
	best := 0
	for i, v := range values {
		if v > values[best] {
			best = i
		}
	}
	return best
}

func checkProbabilities(probs []float64) error {
	sum := 0.0
	for _, p := range probs {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return fmt.Errorf("probability is not finite: %v", p)
		}
		if p < 0 || p > 1 {
			return fmt.Errorf("probability out of [0,1]: %v", p)
		}
		sum += p
	}
	if math.Abs(sum-1) > probSumTolerance {
		return fmt.Errorf("probabilities must sum to ~1.0, got %.4f", sum)
	}
	return nil
}

// CheckProbabilities validates a probability vector: finite entries in
// [0,1] summing to 1 within tolerance.
func CheckProbabilities(probs []float64) error {
	return checkProbabilities(probs)
}
