package models

import "time"

// Alert levels produced by the alert policy.
const (
	AlertLevelHigh       = "HIGH_ALERT"
	AlertLevelMedium     = "MEDIUM_ALERT"
	AlertLevelLow        = "LOW_ALERT"
	AlertLevelNoSpecific = "NO_SPECIFIC_ALERT"
	AlertLevelError      = "ERROR"
)

// Alert urgencies.
const (
	UrgencyCritical = "CRITICAL"
	UrgencyModerate = "MODERATE"
	UrgencyLow      = "LOW"
	UrgencyUnknown  = "UNKNOWN"
)

// AlertInfo is the clinical alert derived from one probability vector.
// It is always embedded in a PredictionResult, never stored on its own.
type AlertInfo struct {
	Level        string  `json:"level"`
	Message      string  `json:"message"`
	Urgency      string  `json:"urgency"`
	RiskScore    float64 `json:"risk_score"`
	RiskCategory string  `json:"risk_category"`
}

// PredictionResult is the full outcome of one inference call.
// Immutable after construction.
type PredictionResult struct {
	PredictedRiskLevel string             `json:"predicted_risk_level"`
	Probability        map[string]float64 `json:"probability"`
	Alert              AlertInfo          `json:"alert"`
	ConfidenceScore    float64            `json:"confidence_score"`
	Timestamp          time.Time          `json:"timestamp"`
	ModelVersion       string             `json:"model_version"`
	Explanation        []ExplanationEntry `json:"explanation"`
}
