package model

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Bundle is the pipeline artifact: everything training produced that
// inference needs, loaded once at process start and immutable after.
type Bundle struct {
	Version    string        `json:"version"`
	CreatedAt  time.Time     `json:"created_at"`
	Scaler     *Scaler       `json:"scaler"`
	Classifier *Classifier   `json:"classifier"`
	Encoder    *LabelEncoder `json:"encoder"`
	Config     *Config       `json:"config"`
}

// Validate checks that the bundle is complete and internally
// consistent. A bundle that fails here must never serve predictions.
func (b *Bundle) Validate() error {
	if b.Scaler == nil {
		return fmt.Errorf("bundle missing scaler")
	}
	if b.Classifier == nil {
		return fmt.Errorf("bundle missing classifier")
	}
	if b.Encoder == nil {
		return fmt.Errorf("bundle missing label encoder")
	}
	if b.Config == nil {
		return fmt.Errorf("bundle missing config")
	}
	if b.Version == "" {
		return fmt.Errorf("bundle missing version")
	}

	if err := b.Encoder.Validate(); err != nil {
		return err
	}
	if err := b.Classifier.Validate(); err != nil {
		return err
	}
	if err := b.Config.Validate(); err != nil {
		return err
	}

	if len(b.Scaler.Mean) != len(b.Scaler.Columns) || len(b.Scaler.Std) != len(b.Scaler.Columns) {
		return fmt.Errorf("scaler vectors (%d mean, %d std) do not match %d columns",
			len(b.Scaler.Mean), len(b.Scaler.Std), len(b.Scaler.Columns))
	}
	if b.Classifier.Ensemble.NumFeatures != len(b.Scaler.Columns) {
		return fmt.Errorf("classifier expects %d features, scaler provides %d",
			b.Classifier.Ensemble.NumFeatures, len(b.Scaler.Columns))
	}
	if b.Classifier.Ensemble.NumClasses != len(b.Encoder.Classes) {
		return fmt.Errorf("classifier has %d classes, label encoder has %d",
			b.Classifier.Ensemble.NumClasses, len(b.Encoder.Classes))
	}
	return nil
}

// Save writes the bundle as JSON, creating parent directories.
func (b *Bundle) Save(path string) error {
	if err := b.Validate(); err != nil {
		return fmt.Errorf("refusing to save invalid bundle: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create bundle directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal bundle: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write bundle to %s: %w", path, err)
	}
	return nil
}

// LoadBundle reads and validates a bundle from disk.
func LoadBundle(path string) (*Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read bundle from %s: %w", path, err)
	}
	var b Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("failed to parse bundle %s: %w", path, err)
	}
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("bundle %s is invalid: %w", path, err)
	}
	return &b, nil
}
