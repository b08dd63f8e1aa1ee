package explain

import (
	"errors"

	"maternal-risk/internal/models"
)

// ErrEmptyExplanation marks a summary request with nothing to
// summarize. Returning zeros instead would read as "no impact", which
// is not what an unavailable explainer means.
var ErrEmptyExplanation = errors.New("no explanation available to summarize")

const topFeatureCount = 3

// Summarize condenses a ranked explanation: top contributors, the
// positive/negative partitions with their summed impact, and a coarse
// quality label.
func Summarize(explanation []models.ExplanationEntry) (models.ExplanationSummary, error) {
	if len(explanation) == 0 {
		return models.ExplanationSummary{}, ErrEmptyExplanation
	}

	var positive, negative []models.ExplanationEntry
	totalPositive, totalNegative := 0.0, 0.0
	for _, entry := range explanation {
		if entry.Impact == models.ImpactPositive {
			positive = append(positive, entry)
			totalPositive += entry.ShapValue
		} else {
			negative = append(negative, entry)
			totalNegative += entry.ShapValue
		}
	}

	top := explanation
	if len(top) > topFeatureCount {
		top = top[:topFeatureCount]
	}

	quality := "medium"
	if len(explanation) >= 4 {
		quality = "high"
	}

	most := explanation[0]
	return models.ExplanationSummary{
		TopContributingFeatures: top,
		PositiveContributors:    positive,
		NegativeContributors:    negative,
		TotalPositiveImpact:     totalPositive,
		TotalNegativeImpact:     totalNegative,
		MostImportantFeature:    &most,
		ExplanationQuality:      quality,
	}, nil
}
