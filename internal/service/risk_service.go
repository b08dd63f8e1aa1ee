// Package service exposes the inference surface consumed by transport
// layers: predict, explain, summarize, global importance. It owns the
// process-lifetime pipeline artifact and the optional Redis cache.
package service

import (
	"context"
	"time"

	"maternal-risk/internal/cache"
	"maternal-risk/internal/config"
	"maternal-risk/internal/explain"
	"maternal-risk/internal/model"
	"maternal-risk/internal/models"
	"maternal-risk/internal/pipeline"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// RiskService is the top-level inference service. Safe for concurrent
// use after construction.
type RiskService struct {
	pipeline    *pipeline.Pipeline
	cache       *cache.Manager
	redisClient *redis.Client
	logger      *zap.Logger
}

// NewRiskService loads the pipeline artifact and connects the cache.
// An unreachable Redis is downgraded to cache-less operation; a broken
// artifact is fatal.
func NewRiskService(cfg *config.Config, logger *zap.Logger) (*RiskService, error) {
	bundle, err := model.LoadBundle(cfg.Model.BundlePath)
	if err != nil {
		return nil, err
	}

	explainOpts := explain.Options{
		MaxSampleSize: cfg.Explain.MaxSampleSize,
		CacheSize:     cfg.Explain.CacheSize,
		Workers:       cfg.Explain.Workers,
		Timeout:       time.Duration(cfg.Explain.Timeout) * time.Second,
	}
	pipe, err := pipeline.New(bundle, explainOpts, logger)
	if err != nil {
		return nil, err
	}

	svc := &RiskService{
		pipeline: pipe,
		logger:   logger,
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		logger.Warn("Redis unreachable, running without prediction cache",
			zap.String("addr", cfg.Redis.Addr),
			zap.Error(err),
		)
		_ = redisClient.Close()
	} else {
		svc.redisClient = redisClient
		svc.cache = cache.NewManager(
			redisClient,
			cfg.Cache.PredictionKeyPrefix,
			cfg.Cache.ExplanationKeyPrefix,
			time.Duration(cfg.Cache.TTL)*time.Second,
			logger,
		)
		logger.Info("Prediction cache connected", zap.String("addr", cfg.Redis.Addr))
	}

	return svc, nil
}

// ModelVersion returns the loaded artifact version.
func (s *RiskService) ModelVersion() string {
	return s.pipeline.Version()
}

// PredictOne scores a single sample, cache-aside.
func (s *RiskService) PredictOne(ctx context.Context, sample models.VitalSample) (*models.PredictionResult, error) {
	if s.cache != nil {
		if cached, hit := s.cache.GetPrediction(ctx, sample); hit {
			s.logger.Debug("Prediction cache hit")
			return cached, nil
		}
	}

	result, err := s.pipeline.Predict(ctx, sample)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		// best effort, a failed write only costs a recompute later
		_ = s.cache.SetPrediction(ctx, sample, &result)
	}
	return &result, nil
}

// PredictBatch scores a batch. Batch rows bypass the cache: batches
// are training-time and backfill traffic, not repeat lookups.
func (s *RiskService) PredictBatch(ctx context.Context, samples []models.VitalSample) ([]models.PredictionResult, error) {
	return s.pipeline.PredictBatch(ctx, samples)
}

// Explain returns the ranked per-feature attribution for a sample.
// Empty when no explainer is available.
func (s *RiskService) Explain(ctx context.Context, sample models.VitalSample) ([]models.ExplanationEntry, error) {
	return s.pipeline.Explainer().Explain(ctx, sample)
}

// Summarize condenses a sample's explanation, cache-aside.
func (s *RiskService) Summarize(ctx context.Context, sample models.VitalSample) (*models.ExplanationSummary, error) {
	if s.cache != nil {
		if cached, hit := s.cache.GetSummary(ctx, sample); hit {
			return cached, nil
		}
	}

	entries, err := s.Explain(ctx, sample)
	if err != nil {
		return nil, err
	}
	summary, err := explain.Summarize(entries)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.SetSummary(ctx, sample, &summary)
	}
	return &summary, nil
}

// GlobalImportance computes dataset-level feature importance over a
// deterministic synthetic sample.
func (s *RiskService) GlobalImportance(ctx context.Context, sampleSize int) (models.GlobalImportance, error) {
	return s.pipeline.Explainer().GlobalImportance(ctx, sampleSize)
}

// Close releases the Redis connection if one was established.
func (s *RiskService) Close() error {
	if s.redisClient != nil {
		return s.redisClient.Close()
	}
	return nil
}
