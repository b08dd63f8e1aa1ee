package model

import "fmt"

// Scaler applies a pre-fitted standardization transform. The column
// order it was fit on is part of its serialized state; transforms
// against a different order must fail loudly, never realign silently.
type Scaler struct {
	Columns []string  `json:"columns"`
	Mean    []float64 `json:"mean"`
	Std     []float64 `json:"std"`
}

// ValidateColumns checks that the given column order matches the order
// the scaler was fit on.
func (s *Scaler) ValidateColumns(columns []string) error {
	if len(columns) != len(s.Columns) {
		return fmt.Errorf("scaler fit on %d columns, got %d", len(s.Columns), len(columns))
	}
	for i, col := range columns {
		if col != s.Columns[i] {
			return fmt.Errorf("scaler column order mismatch at position %d: fit on %q, got %q", i, s.Columns[i], col)
		}
	}
	return nil
}

// Transform standardizes one feature row using fit-time mean/std.
func (s *Scaler) Transform(row []float64) ([]float64, error) {
	if len(row) != len(s.Mean) {
		return nil, fmt.Errorf("scaler expects %d features, got %d", len(s.Mean), len(row))
	}
	out := make([]float64, len(row))
	for i, v := range row {
		std := s.Std[i]
		if std == 0 {
			// constant column at fit time, pass through centered
			std = 1
		}
		out[i] = (v - s.Mean[i]) / std
	}
	return out, nil
}

// TransformBatch standardizes rows, preserving order.
func (s *Scaler) TransformBatch(rows [][]float64) ([][]float64, error) {
	out := make([][]float64, 0, len(rows))
	for _, row := range rows {
		scaled, err := s.Transform(row)
		if err != nil {
			return nil, err
		}
		out = append(out, scaled)
	}
	return out, nil
}
