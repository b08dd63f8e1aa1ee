// Package explain attributes risk predictions to their contributing
// vital signs. The attribution strategy is fixed once at construction:
// exact tree attribution when the classifier exposes tree structure, a
// sampling approximation against a fixed background otherwise, or a
// degraded mode that returns empty results when neither is possible.
package explain

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"maternal-risk/internal/features"
	"maternal-risk/internal/model"
	"maternal-risk/internal/models"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Strategy is the attribution method chosen at initialization.
type Strategy int

const (
	StrategyUnavailable Strategy = iota
	StrategyTree
	StrategyKernel
)

func (s Strategy) String() string {
	switch s {
	case StrategyTree:
		return "tree"
	case StrategyKernel:
		return "kernel"
	default:
		return "unavailable"
	}
}

// ErrUnavailable marks requests that need an explainer when none could
// be constructed. Individual explanations degrade to empty results
// instead; only dataset-level requests surface this.
var ErrUnavailable = errors.New("explainer not available")

// Predictor is the classifier capability the engine needs.
type Predictor interface {
	PredictProba(row []float64) ([]float64, error)
	NumClasses() int
}

// TreeCapable is implemented by classifiers that expose native tree
// structure for exact attribution.
type TreeCapable interface {
	TreeStructure() *model.TreeEnsemble
}

// featureDescriptions explains each base vital for display.
var featureDescriptions = map[string]string{
	"age":          "Patient age in years",
	"systolic_bp":  "Systolic blood pressure (mmHg)",
	"diastolic_bp": "Diastolic blood pressure (mmHg)",
	"blood_sugar":  "Blood sugar level (mmol/L)",
	"body_temp":    "Body temperature (°F)",
	"heart_rate":   "Heart rate (beats per minute)",
}

// backgroundSamples are representative vital-sign combinations spanning
// normal-to-elevated ranges, used as the kernel baseline.
var backgroundSamples = [][]float64{
	{25, 120, 80, 8, 98.6, 70},
	{30, 130, 85, 9, 99.0, 75},
	{35, 140, 90, 10, 99.5, 80},
	{40, 150, 95, 11, 100.0, 85},
}

// samplingRanges bound the synthetic samples drawn for global
// importance, per base feature in canonical order.
var samplingRanges = [][2]float64{
	{20, 45},  // age
	{90, 180}, // systolic_bp
	{60, 110}, // diastolic_bp
	{6, 15},   // blood_sugar
	{97, 102}, // body_temp
	{60, 100}, // heart_rate
}

// Options tune the engine's cost bounds.
type Options struct {
	MaxSampleSize int           // cap for global importance sampling
	CacheSize     int           // LRU entries for global importance results
	Workers       int           // concurrent attribution computations
	Timeout       time.Duration // per-request bound on attribution work
	Seed          int64         // seed for synthetic sampling
}

func (o *Options) withDefaults() Options {
	out := *o
	if out.MaxSampleSize <= 0 {
		out.MaxSampleSize = 100
	}
	if out.CacheSize <= 0 {
		out.CacheSize = 32
	}
	if out.Workers <= 0 {
		out.Workers = 4
	}
	if out.Timeout <= 0 {
		out.Timeout = 10 * time.Second
	}
	if out.Seed == 0 {
		out.Seed = 42
	}
	return out
}

// Engine produces per-prediction attributions and dataset-level
// importance. Safe for concurrent use; the only mutable state is the
// internal result cache.
type Engine struct {
	strategy  Strategy
	predictor Predictor
	trees     *model.TreeEnsemble
	engineer  *features.Engineer
	scaler    *model.Scaler
	opts      Options
	sem       *semaphore.Weighted
	cache     *importanceCache
	logger    *zap.Logger
}

// NewEngine selects the attribution strategy from the classifier's
// declared capabilities and fixes it for the engine's lifetime. A nil
// predictor yields a degraded engine whose explanations are empty.
func NewEngine(predictor Predictor, engineer *features.Engineer, scaler *model.Scaler, opts Options, logger *zap.Logger) *Engine {
	opts = opts.withDefaults()
	e := &Engine{
		strategy:  StrategyUnavailable,
		predictor: predictor,
		engineer:  engineer,
		scaler:    scaler,
		opts:      opts,
		sem:       semaphore.NewWeighted(int64(opts.Workers)),
		cache:     newImportanceCache(opts.CacheSize),
		logger:    logger,
	}

	if predictor == nil {
		logger.Warn("No classifier available, explanations disabled")
		return e
	}
	if tc, ok := predictor.(TreeCapable); ok {
		if trees := tc.TreeStructure(); trees != nil {
			e.strategy = StrategyTree
			e.trees = trees
			logger.Info("Explainer initialized", zap.String("strategy", e.strategy.String()))
			return e
		}
	}
	e.strategy = StrategyKernel
	logger.Info("Explainer initialized, tree attribution not supported",
		zap.String("strategy", e.strategy.String()),
		zap.Int("background_samples", len(backgroundSamples)),
	)
	return e
}

// Strategy returns the attribution method fixed at construction.
func (e *Engine) Strategy() Strategy {
	return e.strategy
}

// Explain computes per-feature attributions for one sample, ranked by
// absolute contribution. An unavailable explainer yields an empty
// result, not an error: callers treat empty as "unavailable", never as
// "zero impact".
func (e *Engine) Explain(ctx context.Context, sample models.VitalSample) ([]models.ExplanationEntry, error) {
	if e.strategy == StrategyUnavailable {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, e.opts.Timeout)
	defer cancel()

	phi, err := e.attribute(ctx, sample)
	if err != nil {
		return nil, err
	}
	return e.buildEntries(sample, phi), nil
}

// attribute returns attributions for the six base features of one
// sample, toward its predicted class.
func (e *Engine) attribute(ctx context.Context, sample models.VitalSample) ([]float64, error) {
	engineered, err := e.engineer.Transform(sample)
	if err != nil {
		return nil, err
	}
	scaled, err := e.scaler.Transform(engineered)
	if err != nil {
		return nil, err
	}
	probs, err := e.predictor.PredictProba(scaled)
	if err != nil {
		return nil, err
	}
	class := model.Argmax(probs)

	switch e.strategy {
	case StrategyTree:
		// exact attribution over the engineered vector; the six base
		// vitals are its first six columns
		phi := ensembleShap(e.trees, scaled, class)
		return phi[:len(models.RequiredFields)], nil
	case StrategyKernel:
		if err := e.sem.Acquire(ctx, 1); err != nil {
			return nil, fmt.Errorf("explanation timed out waiting for worker: %w", err)
		}
		defer e.sem.Release(1)
		return kernelShap(ctx, e.classValue(class), sample.Values(), backgroundSamples)
	default:
		return nil, ErrUnavailable
	}
}

// classValue builds the scalar model function the kernel approximation
// explains: raw vitals in, calibrated probability of one class out.
func (e *Engine) classValue(class int) func([]float64) (float64, error) {
	return func(raw []float64) (float64, error) {
		sample := models.NewVitalSample(raw[0], raw[1], raw[2], raw[3], raw[4], raw[5])
		engineered, err := e.engineer.Transform(sample)
		if err != nil {
			return 0, err
		}
		scaled, err := e.scaler.Transform(engineered)
		if err != nil {
			return 0, err
		}
		probs, err := e.predictor.PredictProba(scaled)
		if err != nil {
			return 0, err
		}
		return probs[class], nil
	}
}

func (e *Engine) buildEntries(sample models.VitalSample, phi []float64) []models.ExplanationEntry {
	values := sample.Values()
	entries := make([]models.ExplanationEntry, 0, len(models.RequiredFields))
	for i, name := range models.RequiredFields {
		impact := models.ImpactNegative
		if phi[i] > 0 {
			impact = models.ImpactPositive
		}
		entries = append(entries, models.ExplanationEntry{
			Feature:            name,
			FeatureDescription: featureDescriptions[name],
			Value:              values[i],
			ShapValue:          phi[i],
			AbsShapValue:       math.Abs(phi[i]),
			Impact:             impact,
		})
	}

	// rank by absolute contribution; stable sort keeps input order on ties
	sort.SliceStable(entries, func(a, b int) bool {
		return entries[a].AbsShapValue > entries[b].AbsShapValue
	})
	for i := range entries {
		entries[i].ImportanceRank = i + 1
	}
	return entries
}

// GlobalImportance computes dataset-level importance from seeded
// synthetic samples. Oversized requests are clamped, not rejected,
// and repeated requests for the same (sample size, seed) pair are
// served from the bounded in-process cache.
func (e *Engine) GlobalImportance(ctx context.Context, sampleSize int) (models.GlobalImportance, error) {
	if e.strategy == StrategyUnavailable {
		return models.GlobalImportance{}, ErrUnavailable
	}

	if sampleSize <= 0 {
		sampleSize = e.opts.MaxSampleSize
	}
	if sampleSize > e.opts.MaxSampleSize {
		e.logger.Debug("Clamping global importance sample size",
			zap.Int("requested", sampleSize),
			zap.Int("max", e.opts.MaxSampleSize),
		)
		sampleSize = e.opts.MaxSampleSize
	}

	key := globalKey{sampleSize: sampleSize, seed: e.opts.Seed}
	if cached, ok := e.cache.get(key); ok {
		return cached, nil
	}

	ctx, cancel := context.WithTimeout(ctx, e.opts.Timeout)
	defer cancel()

	samples := e.drawSamples(sampleSize)

	attributions := make([][]float64, len(samples))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)
	for i := range samples {
		i := i
		g.Go(func() error {
			phi, err := e.attribute(gctx, samples[i])
			if err != nil {
				return err
			}
			attributions[i] = phi
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		// partial results must not be cached as if complete
		return models.GlobalImportance{}, fmt.Errorf("global importance computation failed: %w", err)
	}

	meanAbs := make([]float64, len(models.RequiredFields))
	for _, phi := range attributions {
		for i, v := range phi {
			meanAbs[i] += math.Abs(v)
		}
	}
	for i := range meanAbs {
		meanAbs[i] /= float64(len(attributions))
	}

	ranked := make([]models.FeatureImportance, 0, len(models.RequiredFields))
	for i, name := range models.RequiredFields {
		ranked = append(ranked, models.FeatureImportance{
			Feature:     name,
			Description: featureDescriptions[name],
			MeanAbsShap: meanAbs[i],
		})
	}
	sort.SliceStable(ranked, func(a, b int) bool {
		return ranked[a].MeanAbsShap > ranked[b].MeanAbsShap
	})
	for i := range ranked {
		ranked[i].Rank = i + 1
	}

	result := models.GlobalImportance{
		FeatureImportance: ranked,
		SampleSize:        sampleSize,
		TotalFeatures:     len(models.RequiredFields),
	}
	e.cache.set(key, result)
	return result, nil
}

// drawSamples generates synthetic vitals from the fixed plausible
// ranges, reproducibly for a given seed.
func (e *Engine) drawSamples(n int) []models.VitalSample {
	rng := rand.New(rand.NewSource(e.opts.Seed))
	samples := make([]models.VitalSample, 0, n)
	for i := 0; i < n; i++ {
		raw := make([]float64, len(samplingRanges))
		for j, r := range samplingRanges {
			raw[j] = r[0] + rng.Float64()*(r[1]-r[0])
		}
		samples = append(samples, models.NewVitalSample(raw[0], raw[1], raw[2], raw[3], raw[4], raw[5]))
	}
	return samples
}
