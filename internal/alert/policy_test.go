package alert

import (
	"testing"

	"maternal-risk/internal/model"
	"maternal-risk/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// encoder fit alphabetically: high risk = 0, low risk = 1, mid risk = 2
func testEncoder() *model.LabelEncoder {
	return &model.LabelEncoder{
		Classes: []string{model.ClassHighRisk, model.ClassLowRisk, model.ClassMidRisk},
	}
}

func testPolicy(t *testing.T) *Policy {
	t.Helper()
	p, err := NewPolicy(testEncoder(), model.DefaultConfig(), zap.NewNop())
	require.NoError(t, err)
	return p
}

func TestNewPolicy_MissingClass(t *testing.T) {
	encoder := &model.LabelEncoder{Classes: []string{model.ClassHighRisk, model.ClassLowRisk}}
	_, err := NewPolicy(encoder, model.DefaultConfig(), zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mid risk")
}

func TestPolicy_Classify(t *testing.T) {
	p := testPolicy(t)

	tests := []struct {
		name         string
		probs        []float64
		wantLevel    string
		wantUrgency  string
		wantCategory string
	}{
		{
			name:         "high risk above threshold",
			probs:        []float64{0.85, 0.05, 0.10},
			wantLevel:    models.AlertLevelHigh,
			wantUrgency:  models.UrgencyCritical,
			wantCategory: model.ClassHighRisk,
		},
		{
			name:         "high risk argmax below threshold",
			probs:        []float64{0.50, 0.20, 0.30},
			wantLevel:    models.AlertLevelNoSpecific,
			wantUrgency:  models.UrgencyLow,
			wantCategory: model.ClassHighRisk,
		},
		{
			name:         "mid risk above threshold",
			probs:        []float64{0.25, 0.25, 0.50},
			wantLevel:    models.AlertLevelMedium,
			wantUrgency:  models.UrgencyModerate,
			wantCategory: model.ClassMidRisk,
		},
		{
			name:         "confident low risk",
			probs:        []float64{0.02, 0.93, 0.05},
			wantLevel:    models.AlertLevelLow,
			wantUrgency:  models.UrgencyLow,
			wantCategory: model.ClassLowRisk,
		},
		{
			name:         "low risk argmax below confidence bar",
			probs:        []float64{0.10, 0.60, 0.30},
			wantLevel:    models.AlertLevelNoSpecific,
			wantUrgency:  models.UrgencyLow,
			wantCategory: model.ClassLowRisk,
		},
		{
			// argmax is low risk, but a non-trivial high-risk mass
			// exists; only the low-risk confidence bar is checked
			name:         "low argmax with high risk mass falls through",
			probs:        []float64{0.45, 0.50, 0.05},
			wantLevel:    models.AlertLevelNoSpecific,
			wantUrgency:  models.UrgencyLow,
			wantCategory: model.ClassLowRisk,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := p.Classify(tt.probs)
			assert.Equal(t, tt.wantLevel, info.Level)
			assert.Equal(t, tt.wantUrgency, info.Urgency)
			assert.Equal(t, tt.wantCategory, info.RiskCategory)
			assert.NotEmpty(t, info.Message)
		})
	}
}

func TestPolicy_Classify_ThresholdMonotonicity(t *testing.T) {
	p := testPolicy(t)

	// with high risk as the fixed argmax, crossing the threshold must
	// flip NO_SPECIFIC_ALERT to HIGH_ALERT and stay there
	below := p.Classify([]float64{0.69, 0.16, 0.15})
	assert.Equal(t, models.AlertLevelNoSpecific, below.Level)

	at := p.Classify([]float64{0.70, 0.15, 0.15})
	assert.Equal(t, models.AlertLevelHigh, at.Level)

	above := p.Classify([]float64{0.95, 0.02, 0.03})
	assert.Equal(t, models.AlertLevelHigh, above.Level)
}

func TestPolicy_Classify_MalformedInput(t *testing.T) {
	p := testPolicy(t)

	tests := []struct {
		name  string
		probs []float64
	}{
		{"does not sum to one", []float64{0.9, 0.9, 0.9}},
		{"wrong class count", []float64{0.5, 0.5}},
		{"negative probability", []float64{-0.2, 0.7, 0.5}},
		{"empty", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := p.Classify(tt.probs)
			assert.Equal(t, models.AlertLevelError, info.Level)
			assert.Equal(t, models.UrgencyUnknown, info.Urgency)
			assert.Equal(t, 0.0, info.RiskScore)
			assert.Equal(t, "ERROR", info.RiskCategory)
		})
	}
}

func TestPolicy_Classify_SumTolerance(t *testing.T) {
	p := testPolicy(t)

	// within 1% tolerance is accepted
	info := p.Classify([]float64{0.85, 0.05, 0.095})
	assert.NotEqual(t, models.AlertLevelError, info.Level)
}
