package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"maternal-risk/internal/config"
	"maternal-risk/internal/logger"
	"maternal-risk/internal/pipeline"
	"maternal-risk/internal/service"

	"go.uber.org/zap"
)

// The service reads one JSON vitals object per stdin line and writes
// one JSON prediction result per stdout line. Malformed lines produce
// an error object instead of aborting the stream.
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format, "maternal-risk")
	if err != nil {
		panic(fmt.Sprintf("Failed to init logger: %v", err))
	}
	defer log.Sync()

	riskService, err := service.NewRiskService(cfg, log)
	if err != nil {
		log.Fatal("Failed to create risk service", zap.Error(err))
	}
	defer riskService.Close()

	log.Info("Risk service ready",
		zap.String("model_version", riskService.ModelVersion()),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- run(ctx, riskService, log)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.Info("Received signal, shutting down",
			zap.String("signal", sig.String()),
		)
		cancel()
		<-done
	case err := <-done:
		if err != nil {
			log.Fatal("Service error", zap.Error(err))
		}
	}

	log.Info("Risk service stopped")
}

func run(ctx context.Context, riskService *service.RiskService, log *zap.Logger) error {
	scanner := bufio.NewScanner(os.Stdin)
	encoder := json.NewEncoder(os.Stdout)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		sample, err := pipeline.ParseSample(line)
		if err != nil {
			log.Warn("Rejected input line", zap.Error(err))
			if encodeErr := encoder.Encode(map[string]string{"error": err.Error()}); encodeErr != nil {
				return encodeErr
			}
			continue
		}

		result, err := riskService.PredictOne(ctx, sample)
		if err != nil {
			log.Error("Prediction failed", zap.Error(err))
			if encodeErr := encoder.Encode(map[string]string{"error": err.Error()}); encodeErr != nil {
				return encodeErr
			}
			continue
		}

		if err := encoder.Encode(result); err != nil {
			return err
		}
	}
	return scanner.Err()
}
