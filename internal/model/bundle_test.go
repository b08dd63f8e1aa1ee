package model_test

import (
	"path/filepath"
	"testing"

	"maternal-risk/internal/model"
	"maternal-risk/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBundle_SaveLoad_RoundTrip(t *testing.T) {
	bundle := testutil.NewBundle()
	path := filepath.Join(t.TempDir(), "models", "bundle.json")

	require.NoError(t, bundle.Save(path))

	loaded, err := model.LoadBundle(path)
	require.NoError(t, err)

	assert.Equal(t, bundle.Version, loaded.Version)
	assert.True(t, bundle.CreatedAt.Equal(loaded.CreatedAt))
	assert.Equal(t, bundle.Scaler.Columns, loaded.Scaler.Columns)
	assert.Equal(t, bundle.Scaler.Mean, loaded.Scaler.Mean)
	assert.Equal(t, bundle.Encoder.Classes, loaded.Encoder.Classes)

	// the loaded classifier must be bit-identical in behavior
	row := make([]float64, 20)
	row[1] = 2.0
	row[3] = 1.5
	want, err := bundle.Classifier.PredictProba(row)
	require.NoError(t, err)
	got, err := loaded.Classifier.PredictProba(row)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestBundle_Validate_MissingParts(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*model.Bundle)
	}{
		{"missing scaler", func(b *model.Bundle) { b.Scaler = nil }},
		{"missing classifier", func(b *model.Bundle) { b.Classifier = nil }},
		{"missing encoder", func(b *model.Bundle) { b.Encoder = nil }},
		{"missing config", func(b *model.Bundle) { b.Config = nil }},
		{"missing version", func(b *model.Bundle) { b.Version = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := testutil.NewBundle()
			tt.mutate(b)
			assert.Error(t, b.Validate())
		})
	}
}

func TestBundle_Validate_MissingRiskClass(t *testing.T) {
	b := testutil.NewBundle()
	b.Encoder.Classes = []string{model.ClassHighRisk, model.ClassLowRisk, "unknown"}

	err := b.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mid risk")
}

func TestBundle_Validate_ColumnVectorMismatch(t *testing.T) {
	b := testutil.NewBundle()
	b.Scaler.Mean = b.Scaler.Mean[:10]

	assert.Error(t, b.Validate())
}

func TestBundle_Validate_ClassCountMismatch(t *testing.T) {
	b := testutil.NewBundle()
	b.Encoder.Classes = append(b.Encoder.Classes, "extreme risk")

	assert.Error(t, b.Validate())
}

func TestLoadBundle_MissingFile(t *testing.T) {
	_, err := model.LoadBundle(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}

func TestBundle_Save_RefusesInvalid(t *testing.T) {
	b := testutil.NewBundle()
	b.Classifier = nil

	err := b.Save(filepath.Join(t.TempDir(), "bundle.json"))
	assert.Error(t, err)
}
