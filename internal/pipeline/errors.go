package pipeline

import (
	"fmt"
	"strings"
)

// NullFeatureError reports required fields that were present in the
// input but explicitly null. Caller-correctable; raised before any
// computation.
type NullFeatureError struct {
	Fields []string
}

func (e *NullFeatureError) Error() string {
	return fmt.Sprintf("null values found in required fields: [%s]", strings.Join(e.Fields, ", "))
}

// PredictionError indicates an internal scaler/classifier failure such
// as a malformed probability vector or a shape mismatch. It signals
// model or artifact corruption and must never be silently swallowed.
type PredictionError struct {
	Stage string
	Err   error
}

func (e *PredictionError) Error() string {
	return fmt.Sprintf("prediction failed at %s: %v", e.Stage, e.Err)
}

func (e *PredictionError) Unwrap() error {
	return e.Err
}
