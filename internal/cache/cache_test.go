package cache

import (
	"context"
	"testing"
	"time"

	"maternal-risk/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	testPredictionPrefix  = "maternal-risk:prediction:"
	testExplanationPrefix = "maternal-risk:explanation:"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *Manager) {
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	return mr, NewManager(redisClient, testPredictionPrefix, testExplanationPrefix, time.Hour, zap.NewNop())
}

func sampleResult() *models.PredictionResult {
	return &models.PredictionResult{
		PredictedRiskLevel: "low risk",
		Probability:        map[string]float64{"high risk": 0.05, "low risk": 0.79, "mid risk": 0.16},
		Alert: models.AlertInfo{
			Level:        models.AlertLevelNoSpecific,
			Urgency:      models.UrgencyLow,
			RiskScore:    0.79,
			RiskCategory: "low risk",
		},
		ConfidenceScore: 0.79,
		Timestamp:       time.Now().UTC().Truncate(time.Second),
		ModelVersion:    "1.0.0",
	}
}

func TestManager_SetGetPrediction(t *testing.T) {
	_, manager := setupTestRedis(t)
	sample := models.NewVitalSample(25, 120, 80, 8, 98.6, 72)

	err := manager.SetPrediction(context.Background(), sample, sampleResult())
	require.NoError(t, err)

	cached, hit := manager.GetPrediction(context.Background(), sample)
	require.True(t, hit)
	assert.Equal(t, "low risk", cached.PredictedRiskLevel)
	assert.Equal(t, 0.79, cached.ConfidenceScore)
	assert.Equal(t, models.AlertLevelNoSpecific, cached.Alert.Level)
}

func TestManager_GetPrediction_Miss(t *testing.T) {
	_, manager := setupTestRedis(t)
	sample := models.NewVitalSample(25, 120, 80, 8, 98.6, 72)

	cached, hit := manager.GetPrediction(context.Background(), sample)
	assert.False(t, hit)
	assert.Nil(t, cached)
}

func TestManager_TTLExpiry(t *testing.T) {
	mr, manager := setupTestRedis(t)
	sample := models.NewVitalSample(25, 120, 80, 8, 98.6, 72)

	require.NoError(t, manager.SetPrediction(context.Background(), sample, sampleResult()))
	mr.FastForward(2 * time.Hour)

	_, hit := manager.GetPrediction(context.Background(), sample)
	assert.False(t, hit)
}

func TestManager_RedisDownDegradesToMiss(t *testing.T) {
	mr, manager := setupTestRedis(t)
	sample := models.NewVitalSample(25, 120, 80, 8, 98.6, 72)

	require.NoError(t, manager.SetPrediction(context.Background(), sample, sampleResult()))
	mr.Close()

	cached, hit := manager.GetPrediction(context.Background(), sample)
	assert.False(t, hit)
	assert.Nil(t, cached)

	err := manager.SetPrediction(context.Background(), sample, sampleResult())
	assert.Error(t, err)
}

func TestManager_CorruptEntryDegradesToMiss(t *testing.T) {
	mr, manager := setupTestRedis(t)
	sample := models.NewVitalSample(25, 120, 80, 8, 98.6, 72)

	require.NoError(t, mr.Set(testPredictionPrefix+FeatureHash(sample), "not json"))

	cached, hit := manager.GetPrediction(context.Background(), sample)
	assert.False(t, hit)
	assert.Nil(t, cached)
}

func TestManager_DeletePrediction(t *testing.T) {
	_, manager := setupTestRedis(t)
	sample := models.NewVitalSample(25, 120, 80, 8, 98.6, 72)

	require.NoError(t, manager.SetPrediction(context.Background(), sample, sampleResult()))
	require.NoError(t, manager.DeletePrediction(context.Background(), sample))

	_, hit := manager.GetPrediction(context.Background(), sample)
	assert.False(t, hit)
}

func TestManager_SetGetSummary(t *testing.T) {
	_, manager := setupTestRedis(t)
	sample := models.NewVitalSample(45, 160, 100, 15, 101.5, 110)

	top := models.ExplanationEntry{
		Feature:        "systolic_bp",
		Value:          160,
		ShapValue:      0.21,
		AbsShapValue:   0.21,
		Impact:         models.ImpactPositive,
		ImportanceRank: 1,
	}
	summary := &models.ExplanationSummary{
		TopContributingFeatures: []models.ExplanationEntry{top},
		PositiveContributors:    []models.ExplanationEntry{top},
		TotalPositiveImpact:     0.21,
		MostImportantFeature:    &top,
		ExplanationQuality:      "high",
	}

	require.NoError(t, manager.SetSummary(context.Background(), sample, summary))

	cached, hit := manager.GetSummary(context.Background(), sample)
	require.True(t, hit)
	assert.Equal(t, "high", cached.ExplanationQuality)
	require.NotNil(t, cached.MostImportantFeature)
	assert.Equal(t, "systolic_bp", cached.MostImportantFeature.Feature)

	// prediction and summary caches do not collide
	_, hit = manager.GetPrediction(context.Background(), sample)
	assert.False(t, hit)
}

func TestFeatureHash_TracksValueEquality(t *testing.T) {
	a := models.NewVitalSample(25, 120, 80, 8, 98.6, 72)
	b := models.NewVitalSample(25, 120, 80, 8, 98.6, 72)
	c := models.NewVitalSample(26, 120, 80, 8, 98.6, 72)

	assert.Equal(t, FeatureHash(a), FeatureHash(b))
	assert.NotEqual(t, FeatureHash(a), FeatureHash(c))
	assert.Len(t, FeatureHash(a), 64)
}
