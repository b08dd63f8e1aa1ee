// Package alert turns a probability vector into a clinical alert
// state. Classification here must always return a renderable state:
// any internal failure degrades to the ERROR alert instead of
// propagating, because a missing alert on a health system is worse
// than a degraded one.
package alert

import (
	"fmt"

	"maternal-risk/internal/model"
	"maternal-risk/internal/models"

	"go.uber.org/zap"
)

// Alert messages shown to clinical staff.
const (
	msgHigh       = "Immediate clinical evaluation recommended."
	msgMedium     = "Clinical follow-up recommended."
	msgLow        = "Continue regular monitoring. Low risk confirmed."
	msgNoSpecific = "Risk level determined, but no specific alert threshold met."
	msgError      = "Unable to determine risk level due to internal error."
)

// RiskIndices pins the three tracked risk classes by identity. They
// are resolved once from the label encoder at startup, never at
// request time.
type RiskIndices struct {
	High int
	Mid  int
	Low  int
}

// ResolveRiskIndices looks up the three required class names in the
// encoder. Absence of any name is a startup failure.
func ResolveRiskIndices(encoder *model.LabelEncoder) (RiskIndices, error) {
	var idx RiskIndices
	var ok bool
	if idx.High, ok = encoder.Index(model.ClassHighRisk); !ok {
		return idx, fmt.Errorf("label encoder missing expected class: %q", model.ClassHighRisk)
	}
	if idx.Mid, ok = encoder.Index(model.ClassMidRisk); !ok {
		return idx, fmt.Errorf("label encoder missing expected class: %q", model.ClassMidRisk)
	}
	if idx.Low, ok = encoder.Index(model.ClassLowRisk); !ok {
		return idx, fmt.Errorf("label encoder missing expected class: %q", model.ClassLowRisk)
	}
	return idx, nil
}

// Policy classifies probability vectors into alert states using the
// configured thresholds.
type Policy struct {
	indices RiskIndices
	encoder *model.LabelEncoder
	config  *model.Config
	logger  *zap.Logger
}

// NewPolicy builds an alert policy. Fails fast when the encoder lacks
// a required risk class.
func NewPolicy(encoder *model.LabelEncoder, cfg *model.Config, logger *zap.Logger) (*Policy, error) {
	indices, err := ResolveRiskIndices(encoder)
	if err != nil {
		return nil, err
	}
	logger.Info("Risk indices resolved",
		zap.Int("high", indices.High),
		zap.Int("mid", indices.Mid),
		zap.Int("low", indices.Low),
	)
	return &Policy{
		indices: indices,
		encoder: encoder,
		config:  cfg,
		logger:  logger,
	}, nil
}

// Classify maps a probability vector to an alert. The decision order
// matters: each tracked class is gated by its own threshold, checked
// only when that class is the argmax, and the first match wins.
func (p *Policy) Classify(probs []float64) models.AlertInfo {
	info, err := p.classify(probs)
	if err != nil {
		p.logger.Error("Alert classification failed", zap.Error(err))
		return models.AlertInfo{
			Level:        models.AlertLevelError,
			Message:      msgError,
			Urgency:      models.UrgencyUnknown,
			RiskScore:    0.0,
			RiskCategory: "ERROR",
		}
	}
	return info
}

func (p *Policy) classify(probs []float64) (models.AlertInfo, error) {
	if err := model.CheckProbabilities(probs); err != nil {
		return models.AlertInfo{}, err
	}
	if len(probs) != len(p.encoder.Classes) {
		return models.AlertInfo{}, fmt.Errorf("probability count (%d) must match risk classes (%d)",
			len(probs), len(p.encoder.Classes))
	}

	maxIdx := model.Argmax(probs)
	maxProb := probs[maxIdx]
	category, err := p.encoder.InverseTransform(maxIdx)
	if err != nil {
		return models.AlertInfo{}, err
	}

	switch {
	case maxIdx == p.indices.High && maxProb >= p.config.HighRiskThreshold:
		return models.AlertInfo{
			Level:        models.AlertLevelHigh,
			Message:      msgHigh,
			Urgency:      models.UrgencyCritical,
			RiskScore:    maxProb,
			RiskCategory: category,
		}, nil
	case maxIdx == p.indices.Mid && maxProb >= p.config.MidRiskThreshold:
		return models.AlertInfo{
			Level:        models.AlertLevelMedium,
			Message:      msgMedium,
			Urgency:      models.UrgencyModerate,
			RiskScore:    maxProb,
			RiskCategory: category,
		}, nil
	case maxIdx == p.indices.Low && maxProb >= p.config.LowRiskConfidence:
		return models.AlertInfo{
			Level:        models.AlertLevelLow,
			Message:      msgLow,
			Urgency:      models.UrgencyLow,
			RiskScore:    maxProb,
			RiskCategory: category,
		}, nil
	default:
		// a classification was made but confidence did not clear the
		// class-specific bar; this is an expected outcome
		return models.AlertInfo{
			Level:        models.AlertLevelNoSpecific,
			Message:      msgNoSpecific,
			Urgency:      models.UrgencyLow,
			RiskScore:    maxProb,
			RiskCategory: category,
		}, nil
	}
}
