// Package cache is the request-level cache for predictions and
// explanation summaries. Identical vitals hash to the same key, so
// repeat queries skip the classifier entirely. The cache is an
// accelerator, not a dependency: every Redis failure degrades to a
// miss and the pipeline computes as usual.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"maternal-risk/internal/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Manager caches per-sample results in Redis keyed by a hash of the
// input vitals.
type Manager struct {
	redisClient       *redis.Client
	predictionPrefix  string
	explanationPrefix string
	ttl               time.Duration
	logger            *zap.Logger
}

// NewManager creates a cache manager with the given key prefixes and TTL.
func NewManager(redisClient *redis.Client, predictionPrefix, explanationPrefix string, ttl time.Duration, logger *zap.Logger) *Manager {
	return &Manager{
		redisClient:       redisClient,
		predictionPrefix:  predictionPrefix,
		explanationPrefix: explanationPrefix,
		ttl:               ttl,
		logger:            logger,
	}
}

// FeatureHash derives the cache identity of a sample. The six
// measurements are serialized in canonical field order before hashing,
// so hash equality tracks value equality regardless of how the caller
// built the sample.
func FeatureHash(sample models.VitalSample) string {
	canonical := make(map[string]float64, len(models.RequiredFields))
	for _, name := range models.RequiredFields {
		if v := sample.Field(name); v != nil {
			canonical[name] = *v
		}
	}
	// map keys are sorted by encoding/json, the serialization is stable
	data, _ := json.Marshal(canonical)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// GetPrediction returns the cached result for a sample, or a miss.
// Redis errors are logged and reported as misses so a cache outage
// never breaks prediction.
func (m *Manager) GetPrediction(ctx context.Context, sample models.VitalSample) (*models.PredictionResult, bool) {
	key := m.predictionPrefix + FeatureHash(sample)
	var result models.PredictionResult
	if !m.get(ctx, key, &result) {
		return nil, false
	}
	return &result, true
}

// SetPrediction stores a result with the configured TTL. Best effort.
func (m *Manager) SetPrediction(ctx context.Context, sample models.VitalSample, result *models.PredictionResult) error {
	key := m.predictionPrefix + FeatureHash(sample)
	if err := m.set(ctx, key, result); err != nil {
		return err
	}
	m.logger.Debug("Cached prediction",
		zap.String("key", key),
		zap.String("risk_level", result.PredictedRiskLevel),
	)
	return nil
}

// DeletePrediction removes a cached result, e.g. after a model reload.
func (m *Manager) DeletePrediction(ctx context.Context, sample models.VitalSample) error {
	key := m.predictionPrefix + FeatureHash(sample)
	if err := m.redisClient.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete cached prediction: %w", err)
	}
	return nil
}

// GetSummary returns the cached explanation summary for a sample.
func (m *Manager) GetSummary(ctx context.Context, sample models.VitalSample) (*models.ExplanationSummary, bool) {
	key := m.explanationPrefix + FeatureHash(sample)
	var summary models.ExplanationSummary
	if !m.get(ctx, key, &summary) {
		return nil, false
	}
	return &summary, true
}

// SetSummary stores an explanation summary with the configured TTL.
func (m *Manager) SetSummary(ctx context.Context, sample models.VitalSample, summary *models.ExplanationSummary) error {
	return m.set(ctx, m.explanationPrefix+FeatureHash(sample), summary)
}

func (m *Manager) get(ctx context.Context, key string, out interface{}) bool {
	val, err := m.redisClient.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			m.logger.Warn("Cache read failed, treating as miss",
				zap.String("key", key),
				zap.Error(err),
			)
		}
		return false
	}
	if err := json.Unmarshal([]byte(val), out); err != nil {
		m.logger.Warn("Corrupt cache entry, treating as miss",
			zap.String("key", key),
			zap.Error(err),
		)
		return false
	}
	return true
}

func (m *Manager) set(ctx context.Context, key string, value interface{}) error {
	jsonData, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}
	if err := m.redisClient.Set(ctx, key, jsonData, m.ttl).Err(); err != nil {
		m.logger.Warn("Cache write failed",
			zap.String("key", key),
			zap.Error(err),
		)
		return fmt.Errorf("failed to set cache entry: %w", err)
	}
	return nil
}
