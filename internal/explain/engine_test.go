package explain

import (
	"context"
	"testing"
	"time"

	"maternal-risk/internal/features"
	"maternal-risk/internal/model"
	"maternal-risk/internal/models"
	"maternal-risk/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// plainPredictor wraps a classifier while hiding its tree structure,
// forcing the kernel strategy.
type plainPredictor struct {
	classifier *model.Classifier
}

func (p *plainPredictor) PredictProba(row []float64) ([]float64, error) {
	return p.classifier.PredictProba(row)
}

func (p *plainPredictor) NumClasses() int {
	return p.classifier.NumClasses()
}

func newTreeEngine(t *testing.T, opts Options) *Engine {
	t.Helper()
	bundle := testutil.NewBundle()
	return NewEngine(bundle.Classifier, features.NewEngineer(), bundle.Scaler, opts, zap.NewNop())
}

func newKernelEngine(t *testing.T, opts Options) *Engine {
	t.Helper()
	bundle := testutil.NewBundle()
	predictor := &plainPredictor{classifier: bundle.Classifier}
	return NewEngine(predictor, features.NewEngineer(), bundle.Scaler, opts, zap.NewNop())
}

func TestNewEngine_StrategySelection(t *testing.T) {
	assert.Equal(t, StrategyTree, newTreeEngine(t, Options{}).Strategy())
	assert.Equal(t, StrategyKernel, newKernelEngine(t, Options{}).Strategy())

	degraded := NewEngine(nil, features.NewEngineer(), testutil.NewBundle().Scaler, Options{}, zap.NewNop())
	assert.Equal(t, StrategyUnavailable, degraded.Strategy())
}

func TestEngine_Explain_Tree(t *testing.T) {
	engine := newTreeEngine(t, Options{})
	sample := models.NewVitalSample(45, 160, 100, 15.0, 101.5, 110)

	entries, err := engine.Explain(context.Background(), sample)
	require.NoError(t, err)
	require.Len(t, entries, 6)

	assertRankedEntries(t, entries)

	// elevated systolic BP drives the fixture trees; it must carry
	// non-zero attribution
	var systolic *models.ExplanationEntry
	for i := range entries {
		if entries[i].Feature == "systolic_bp" {
			systolic = &entries[i]
		}
	}
	require.NotNil(t, systolic)
	assert.NotZero(t, systolic.ShapValue)
	assert.Equal(t, 160.0, systolic.Value)
	assert.NotEmpty(t, systolic.FeatureDescription)
}

func TestEngine_Explain_Kernel(t *testing.T) {
	engine := newKernelEngine(t, Options{})
	sample := models.NewVitalSample(45, 160, 100, 15.0, 101.5, 110)

	entries, err := engine.Explain(context.Background(), sample)
	require.NoError(t, err)
	require.Len(t, entries, 6)

	assertRankedEntries(t, entries)
}

func TestEngine_Explain_Unavailable(t *testing.T) {
	engine := NewEngine(nil, features.NewEngineer(), testutil.NewBundle().Scaler, Options{}, zap.NewNop())

	entries, err := engine.Explain(context.Background(), models.NewVitalSample(25, 120, 80, 8, 98.6, 72))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestEngine_Explain_Deterministic(t *testing.T) {
	engine := newTreeEngine(t, Options{})
	sample := models.NewVitalSample(25, 120, 80, 8.0, 98.6, 72)

	first, err := engine.Explain(context.Background(), sample)
	require.NoError(t, err)
	second, err := engine.Explain(context.Background(), sample)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestKernelShap_Efficiency(t *testing.T) {
	// attributions must telescope: sum(phi) = f(x) - mean f(background)
	engine := newKernelEngine(t, Options{})
	x := []float64{45, 160, 100, 15.0, 101.5, 110}

	f := engine.classValue(testutil.HighIdx)
	phi, err := kernelShap(context.Background(), f, x, backgroundSamples)
	require.NoError(t, err)

	fx, err := f(x)
	require.NoError(t, err)

	baseline := 0.0
	for _, b := range backgroundSamples {
		fb, err := f(b)
		require.NoError(t, err)
		baseline += fb
	}
	baseline /= float64(len(backgroundSamples))

	sum := 0.0
	for _, v := range phi {
		sum += v
	}
	assert.InDelta(t, fx-baseline, sum, 1e-9)
}

func TestKernelShap_Cancellation(t *testing.T) {
	engine := newKernelEngine(t, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := kernelShap(ctx, engine.classValue(0), []float64{25, 120, 80, 8, 98.6, 72}, backgroundSamples)
	assert.Error(t, err)
}

func TestEngine_GlobalImportance(t *testing.T) {
	engine := newTreeEngine(t, Options{})

	result, err := engine.GlobalImportance(context.Background(), 20)
	require.NoError(t, err)

	assert.Equal(t, 20, result.SampleSize)
	assert.Equal(t, 6, result.TotalFeatures)
	require.Len(t, result.FeatureImportance, 6)

	for i, fi := range result.FeatureImportance {
		assert.Equal(t, i+1, fi.Rank)
		assert.GreaterOrEqual(t, fi.MeanAbsShap, 0.0)
		if i > 0 {
			assert.LessOrEqual(t, fi.MeanAbsShap, result.FeatureImportance[i-1].MeanAbsShap)
		}
	}
}

func TestEngine_GlobalImportance_ClampsSampleSize(t *testing.T) {
	engine := newTreeEngine(t, Options{MaxSampleSize: 100})

	result, err := engine.GlobalImportance(context.Background(), 150)
	require.NoError(t, err)
	assert.Equal(t, 100, result.SampleSize)
}

func TestEngine_GlobalImportance_Cached(t *testing.T) {
	engine := newTreeEngine(t, Options{})

	first, err := engine.GlobalImportance(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 1, engine.cache.len())

	second, err := engine.GlobalImportance(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, engine.cache.len())

	_, err = engine.GlobalImportance(context.Background(), 11)
	require.NoError(t, err)
	assert.Equal(t, 2, engine.cache.len())
}

func TestEngine_GlobalImportance_Unavailable(t *testing.T) {
	engine := NewEngine(nil, features.NewEngineer(), testutil.NewBundle().Scaler, Options{}, zap.NewNop())

	_, err := engine.GlobalImportance(context.Background(), 10)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestEngine_GlobalImportance_TimeoutNotCached(t *testing.T) {
	engine := newKernelEngine(t, Options{Timeout: time.Nanosecond})

	_, err := engine.GlobalImportance(context.Background(), 10)
	require.Error(t, err)
	assert.Equal(t, 0, engine.cache.len())
}

func TestImportanceCache_Eviction(t *testing.T) {
	cache := newImportanceCache(2)

	cache.set(globalKey{sampleSize: 1, seed: 42}, models.GlobalImportance{SampleSize: 1})
	cache.set(globalKey{sampleSize: 2, seed: 42}, models.GlobalImportance{SampleSize: 2})
	cache.set(globalKey{sampleSize: 3, seed: 42}, models.GlobalImportance{SampleSize: 3})

	assert.Equal(t, 2, cache.len())
	_, ok := cache.get(globalKey{sampleSize: 1, seed: 42})
	assert.False(t, ok, "oldest entry should be evicted")
	_, ok = cache.get(globalKey{sampleSize: 3, seed: 42})
	assert.True(t, ok)
}

func TestSummarize(t *testing.T) {
	engine := newTreeEngine(t, Options{})
	entries, err := engine.Explain(context.Background(), models.NewVitalSample(45, 160, 100, 15.0, 101.5, 110))
	require.NoError(t, err)

	summary, err := Summarize(entries)
	require.NoError(t, err)

	assert.Len(t, summary.TopContributingFeatures, 3)
	assert.Equal(t, entries[0].Feature, summary.MostImportantFeature.Feature)
	assert.Equal(t, "high", summary.ExplanationQuality)
	assert.Len(t, summary.PositiveContributors, 6-len(summary.NegativeContributors))

	for _, entry := range summary.PositiveContributors {
		assert.Equal(t, models.ImpactPositive, entry.Impact)
	}
	for _, entry := range summary.NegativeContributors {
		assert.Equal(t, models.ImpactNegative, entry.Impact)
	}
}

func TestSummarize_Empty(t *testing.T) {
	_, err := Summarize(nil)
	assert.ErrorIs(t, err, ErrEmptyExplanation)
}

func TestSummarize_QualityMedium(t *testing.T) {
	entries := []models.ExplanationEntry{
		{Feature: "age", ShapValue: 0.2, AbsShapValue: 0.2, Impact: models.ImpactPositive, ImportanceRank: 1},
		{Feature: "heart_rate", ShapValue: -0.1, AbsShapValue: 0.1, Impact: models.ImpactNegative, ImportanceRank: 2},
	}

	summary, err := Summarize(entries)
	require.NoError(t, err)
	assert.Equal(t, "medium", summary.ExplanationQuality)
	assert.Len(t, summary.TopContributingFeatures, 2)
	assert.InDelta(t, 0.2, summary.TotalPositiveImpact, 1e-9)
	assert.InDelta(t, -0.1, summary.TotalNegativeImpact, 1e-9)
}

func assertRankedEntries(t *testing.T, entries []models.ExplanationEntry) {
	t.Helper()
	for i, entry := range entries {
		assert.Equal(t, i+1, entry.ImportanceRank)
		if i > 0 {
			assert.LessOrEqual(t, entry.AbsShapValue, entries[i-1].AbsShapValue,
				"entries must be sorted by non-increasing absolute contribution")
		}
		if entry.ShapValue > 0 {
			assert.Equal(t, models.ImpactPositive, entry.Impact)
		} else {
			assert.Equal(t, models.ImpactNegative, entry.Impact)
		}
	}
}
