package models

// Impact direction of a feature attribution.
const (
	ImpactPositive = "positive"
	ImpactNegative = "negative"
)

// ExplanationEntry is one feature's signed attribution for a single
// prediction, ranked by absolute contribution.
type ExplanationEntry struct {
	Feature            string  `json:"feature"`
	FeatureDescription string  `json:"feature_description"`
	Value              float64 `json:"value"`
	ShapValue          float64 `json:"shap_value"`
	AbsShapValue       float64 `json:"abs_shap_value"`
	Impact             string  `json:"impact"`
	ImportanceRank     int     `json:"importance_rank"`
}

// ExplanationSummary condenses a full explanation for display.
type ExplanationSummary struct {
	TopContributingFeatures []ExplanationEntry `json:"top_contributing_features"`
	PositiveContributors    []ExplanationEntry `json:"positive_contributors"`
	NegativeContributors    []ExplanationEntry `json:"negative_contributors"`
	TotalPositiveImpact     float64            `json:"total_positive_impact"`
	TotalNegativeImpact     float64            `json:"total_negative_impact"`
	MostImportantFeature    *ExplanationEntry  `json:"most_important_feature"`
	ExplanationQuality      string             `json:"explanation_quality"`
}

// FeatureImportance is one feature's dataset-level importance.
type FeatureImportance struct {
	Feature     string  `json:"feature"`
	Description string  `json:"description"`
	MeanAbsShap float64 `json:"mean_abs_shap"`
	Rank        int     `json:"rank"`
}

// GlobalImportance is the ranked dataset-level importance report.
type GlobalImportance struct {
	FeatureImportance []FeatureImportance `json:"feature_importance"`
	SampleSize        int                 `json:"sample_size"`
	TotalFeatures     int                 `json:"total_features"`
}
