package model

import "fmt"

// IsotonicCalibrator is a fitted isotonic regression stored as its
// breakpoints. Calibrate maps a raw probability through piecewise
// linear interpolation; inputs outside the fitted range clamp to the
// boundary values.
type IsotonicCalibrator struct {
	X []float64 `json:"x"`
	Y []float64 `json:"y"`
}

// Calibrate maps one raw score to a calibrated probability.
func (c *IsotonicCalibrator) Calibrate(p float64) float64 {
	n := len(c.X)
	if n == 0 {
		return p
	}
	if p <= c.X[0] {
		return c.Y[0]
	}
	if p >= c.X[n-1] {
		return c.Y[n-1]
	}
	// find the segment containing p
	for i := 1; i < n; i++ {
		if p <= c.X[i] {
			x0, x1 := c.X[i-1], c.X[i]
			y0, y1 := c.Y[i-1], c.Y[i]
			if x1 == x0 {
				return y1
			}
			return y0 + (y1-y0)*(p-x0)/(x1-x0)
		}
	}
	return c.Y[n-1]
}

// Validate checks that breakpoints are well-formed and monotone.
func (c *IsotonicCalibrator) Validate() error {
	if len(c.X) != len(c.Y) {
		return fmt.Errorf("calibrator breakpoint lengths differ: %d x, %d y", len(c.X), len(c.Y))
	}
	for i := 1; i < len(c.X); i++ {
		if c.X[i] < c.X[i-1] {
			return fmt.Errorf("calibrator x breakpoints not sorted at index %d", i)
		}
		if c.Y[i] < c.Y[i-1] {
			return fmt.Errorf("calibrator y breakpoints not monotone at index %d", i)
		}
	}
	return nil
}
