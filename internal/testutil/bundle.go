// Package testutil provides shared fixtures for tests: a small,
// hand-fitted pipeline artifact with realistic behavior on normal and
// elevated vitals.
package testutil

import (
	"time"

	"maternal-risk/internal/model"
)

// Class order matches an alphabetically-fit label encoder:
// high risk = 0, low risk = 1, mid risk = 2.
const (
	HighIdx = 0
	LowIdx  = 1
	MidIdx  = 2
)

// Feature column indices used by the fixture trees (scaled space).
const (
	colSystolic  = 1
	colBloodSug  = 3
	colBodyTemp  = 4
	colHeartRate = 5
)

// NewBundle builds a complete, valid pipeline artifact. The trees are
// hand-built over scaled features so that near-normal vitals land in
// low-risk-heavy leaves and elevated vitals land in high-risk-heavy
// leaves.
func NewBundle() *model.Bundle {
	scaler := &model.Scaler{
		Columns: []string{
			"age", "systolic_bp", "diastolic_bp", "blood_sugar", "body_temp", "heart_rate",
			"age_systolic_bp", "pulse_pressure", "mean_arterial_pressure", "hr_temp_ratio",
			"age_blood_sugar", "bp_product", "age_squared", "temp_hr_interaction",
			"sys_dia_ratio", "shock_index", "temp_deviation", "bs_deviation",
			"age_category", "hypertension_flag",
		},
		Mean: []float64{
			30, 125, 82, 8, 98.7, 75,
			3750, 43, 96, 0.76,
			240, 10250, 1000, 7400,
			1.52, 0.6, 61.7, 1,
			1, 0.3,
		},
		Std: []float64{
			10, 20, 12, 3, 1.2, 12,
			1500, 12, 12, 0.12,
			120, 3500, 600, 1200,
			0.18, 0.12, 1.2, 3,
			0.7, 0.46,
		},
	}

	// Split thresholds in scaled units:
	// systolic 140 -> 0.75, blood sugar 10 -> 0.667,
	// body temp 100.4 -> 1.417, heart rate 100 -> 2.083.
	tree1 := model.Tree{Nodes: []model.TreeNode{
		{Feature: colSystolic, Threshold: 0.75, Left: 1, Right: 2, Cover: 100},
		{Feature: colBloodSug, Threshold: 0.667, Left: 3, Right: 4, Cover: 70},
		{Feature: colBloodSug, Threshold: 0.667, Left: 5, Right: 6, Cover: 30},
		{Feature: -1, Cover: 55, Value: []float64{0.05, 0.80, 0.15}},
		{Feature: -1, Cover: 15, Value: []float64{0.20, 0.20, 0.60}},
		{Feature: -1, Cover: 12, Value: []float64{0.50, 0.10, 0.40}},
		{Feature: -1, Cover: 18, Value: []float64{0.85, 0.03, 0.12}},
	}}
	tree2 := model.Tree{Nodes: []model.TreeNode{
		{Feature: colBodyTemp, Threshold: 1.417, Left: 1, Right: 2, Cover: 100},
		{Feature: colHeartRate, Threshold: 2.083, Left: 3, Right: 4, Cover: 75},
		{Feature: colSystolic, Threshold: 0.75, Left: 5, Right: 6, Cover: 25},
		{Feature: -1, Cover: 60, Value: []float64{0.08, 0.72, 0.20}},
		{Feature: -1, Cover: 15, Value: []float64{0.35, 0.15, 0.50}},
		{Feature: -1, Cover: 10, Value: []float64{0.40, 0.15, 0.45}},
		{Feature: -1, Cover: 15, Value: []float64{0.90, 0.02, 0.08}},
	}}

	calibrator := model.IsotonicCalibrator{
		X: []float64{0, 0.1, 0.7, 1.0},
		Y: []float64{0, 0.08, 0.75, 1.0},
	}

	return &model.Bundle{
		Version:   "1.0.0",
		CreatedAt: time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC),
		Scaler:    scaler,
		Classifier: &model.Classifier{
			Ensemble: &model.TreeEnsemble{
				Trees:       []model.Tree{tree1, tree2},
				NumClasses:  3,
				NumFeatures: 20,
			},
			Calibrators: []model.IsotonicCalibrator{calibrator, calibrator, calibrator},
		},
		Encoder: &model.LabelEncoder{
			Classes: []string{model.ClassHighRisk, model.ClassLowRisk, model.ClassMidRisk},
		},
		Config: model.DefaultConfig(),
	}
}
