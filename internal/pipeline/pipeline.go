// Package pipeline wires feature engineering, scaling, classification,
// alerting and explanation into a single inference path. The pipeline
// is built once from a validated model bundle and is safe for
// concurrent use.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"maternal-risk/internal/alert"
	"maternal-risk/internal/explain"
	"maternal-risk/internal/features"
	"maternal-risk/internal/model"
	"maternal-risk/internal/models"

	"go.uber.org/zap"
)

type Pipeline struct {
	engineer   *features.Engineer
	scaler     *model.Scaler
	classifier *model.Classifier
	encoder    *model.LabelEncoder
	config     *model.Config
	policy     *alert.Policy
	explainer  *explain.Engine
	version    string
	logger     *zap.Logger
}

// New builds the inference pipeline from a model bundle. The bundle is
// re-validated and the alert policy resolves its class indices here, so
// a corrupt artifact fails at startup rather than on the first request.
func New(bundle *model.Bundle, explainOpts explain.Options, logger *zap.Logger) (*Pipeline, error) {
	if err := bundle.Validate(); err != nil {
		return nil, fmt.Errorf("invalid model bundle: %w", err)
	}

	engineer := features.NewEngineer()
	if err := bundle.Scaler.ValidateColumns(engineer.FeatureNames()); err != nil {
		return nil, fmt.Errorf("bundle incompatible with feature engineering: %w", err)
	}

	policy, err := alert.NewPolicy(bundle.Encoder, bundle.Config, logger)
	if err != nil {
		return nil, err
	}

	explainer := explain.NewEngine(bundle.Classifier, engineer, bundle.Scaler, explainOpts, logger)
	logger.Info("Pipeline ready",
		zap.String("model_version", bundle.Version),
		zap.String("explain_strategy", explainer.Strategy().String()),
	)

	return &Pipeline{
		engineer:   engineer,
		scaler:     bundle.Scaler,
		classifier: bundle.Classifier,
		encoder:    bundle.Encoder,
		config:     bundle.Config,
		policy:     policy,
		explainer:  explainer,
		version:    bundle.Version,
		logger:     logger,
	}, nil
}

// Explainer exposes the explanation engine for callers that need
// global importance or summaries outside the prediction path.
func (p *Pipeline) Explainer() *explain.Engine {
	return p.explainer
}

// Version returns the loaded model artifact version.
func (p *Pipeline) Version() string {
	return p.version
}

// Predict runs one sample through the full inference path.
func (p *Pipeline) Predict(ctx context.Context, sample models.VitalSample) (models.PredictionResult, error) {
	results, err := p.PredictBatch(ctx, []models.VitalSample{sample})
	if err != nil {
		return models.PredictionResult{}, err
	}
	return results[0], nil
}

// PredictBatch runs a batch of samples through the inference path.
// Validation is all-or-nothing: if any sample is missing required
// fields the whole batch is rejected before any computation, so a
// partial-result batch can never be mistaken for a complete one.
func (p *Pipeline) PredictBatch(ctx context.Context, samples []models.VitalSample) ([]models.PredictionResult, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("empty batch")
	}

	engineered := make([][]float64, 0, len(samples))
	for i := range samples {
		row, err := p.engineer.Transform(samples[i])
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w", i, err)
		}
		p.warnOutOfRange(&samples[i])
		engineered = append(engineered, row)
	}

	scaled, err := p.scaler.TransformBatch(engineered)
	if err != nil {
		return nil, &PredictionError{Stage: "scaling", Err: err}
	}

	now := time.Now().UTC()
	results := make([]models.PredictionResult, 0, len(samples))
	for i, row := range scaled {
		probs, err := p.classifier.PredictProba(row)
		if err != nil {
			return nil, &PredictionError{Stage: "classification", Err: err}
		}

		maxIdx := model.Argmax(probs)
		label, err := p.encoder.InverseTransform(maxIdx)
		if err != nil {
			return nil, &PredictionError{Stage: "label decoding", Err: err}
		}

		probability := make(map[string]float64, len(probs))
		for class, prob := range probs {
			name, err := p.encoder.InverseTransform(class)
			if err != nil {
				return nil, &PredictionError{Stage: "label decoding", Err: err}
			}
			probability[name] = prob
		}

		results = append(results, models.PredictionResult{
			PredictedRiskLevel: label,
			Probability:        probability,
			Alert:              p.policy.Classify(probs),
			ConfidenceScore:    probs[maxIdx],
			Timestamp:          now,
			ModelVersion:       p.version,
			Explanation:        p.explainSample(ctx, samples[i]),
		})
	}
	return results, nil
}

// explainSample attaches an explanation on a best-effort basis. A
// failed or unavailable explanation never blocks the prediction.
func (p *Pipeline) explainSample(ctx context.Context, sample models.VitalSample) []models.ExplanationEntry {
	entries, err := p.explainer.Explain(ctx, sample)
	if err != nil {
		p.logger.Warn("Explanation failed, returning prediction without it", zap.Error(err))
		return nil
	}
	return entries
}

// warnOutOfRange flags physiologically implausible measurements. The
// sample is still scored: a clinician decides what to do with it, not
// the pipeline.
func (p *Pipeline) warnOutOfRange(sample *models.VitalSample) {
	for _, name := range models.RequiredFields {
		r, ok := p.config.ClinicalRanges[name]
		if !ok {
			continue
		}
		v := sample.Field(name)
		if v != nil && !r.Contains(*v) {
			p.logger.Warn("Vital sign outside clinical range",
				zap.String("field", name),
				zap.Float64("value", *v),
				zap.Float64("min", r.Min),
				zap.Float64("max", r.Max),
			)
		}
	}
}
