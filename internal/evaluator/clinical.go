// Package evaluator computes the pre-deployment clinical metrics for a
// fitted classifier: standard accuracy/F1/recall, a confusion matrix,
// an asymmetric clinical cost, and a calibration-reliability curve for
// the high-risk class. Training-time only; nothing here runs on the
// inference path.
package evaluator

import (
	"fmt"
	"sort"

	"maternal-risk/internal/model"

	"go.uber.org/zap"
)

const calibrationBins = 5

// Classifier is the model capability the evaluator needs.
type Classifier interface {
	Predict(row []float64) (int, error)
	PredictProba(row []float64) ([]float64, error)
}

// CalibrationCurve holds per-bin (observed frequency, mean predicted
// probability) pairs for the high-risk class. Both slices are empty
// when the evaluation set has no high-risk samples.
type CalibrationCurve struct {
	ProbTrue []float64 `json:"prob_true"`
	ProbPred []float64 `json:"prob_pred"`
}

// Metrics is the full evaluation report.
type Metrics struct {
	Accuracy        float64            `json:"accuracy"`
	F1Weighted      float64            `json:"f1_weighted"`
	ClinicalCost    float64            `json:"clinical_cost"`
	Recall          map[string]float64 `json:"recall"`
	ConfusionMatrix [][]int            `json:"confusion_matrix"`
	Calibration     CalibrationCurve   `json:"calibration"`
}

// Evaluate scores a classifier on labeled, already-scaled feature rows.
func Evaluate(clf Classifier, X [][]float64, y []int, classNames []string, costs model.RiskCosts, logger *zap.Logger) (Metrics, error) {
	if len(X) == 0 {
		return Metrics{}, fmt.Errorf("empty evaluation set")
	}
	if len(X) != len(y) {
		return Metrics{}, fmt.Errorf("feature rows (%d) and labels (%d) must match", len(X), len(y))
	}
	n := len(classNames)

	predicted := make([]int, len(X))
	probabilities := make([][]float64, len(X))
	for i, row := range X {
		pred, err := clf.Predict(row)
		if err != nil {
			return Metrics{}, fmt.Errorf("evaluation row %d: %w", i, err)
		}
		probs, err := clf.PredictProba(row)
		if err != nil {
			return Metrics{}, fmt.Errorf("evaluation row %d: %w", i, err)
		}
		predicted[i] = pred
		probabilities[i] = probs
	}

	confusion := make([][]int, n)
	for i := range confusion {
		confusion[i] = make([]int, n)
	}
	correct := 0
	for i, trueClass := range y {
		if trueClass < 0 || trueClass >= n {
			return Metrics{}, fmt.Errorf("label %d at row %d out of range [0, %d)", trueClass, i, n)
		}
		confusion[trueClass][predicted[i]]++
		if predicted[i] == trueClass {
			correct++
		}
	}

	metrics := Metrics{
		Accuracy:        float64(correct) / float64(len(y)),
		F1Weighted:      weightedF1(confusion, len(y)),
		ClinicalCost:    clinicalCost(confusion, classNames, costs, logger),
		Recall:          perClassRecall(confusion, classNames),
		ConfusionMatrix: confusion,
		Calibration:     highRiskCalibration(y, probabilities, classNames, logger),
	}

	logger.Info("Clinical evaluation complete",
		zap.Float64("accuracy", metrics.Accuracy),
		zap.Float64("f1_weighted", metrics.F1Weighted),
		zap.Float64("clinical_cost", metrics.ClinicalCost),
	)
	return metrics, nil
}

// weightedF1 is per-class F1 averaged with support weights. Classes
// absent from the truth labels contribute nothing.
func weightedF1(confusion [][]int, total int) float64 {
	var sum float64
	for class := range confusion {
		support := 0
		for _, count := range confusion[class] {
			support += count
		}
		if support == 0 {
			continue
		}
		tp := confusion[class][class]
		predictedAs := 0
		for trueClass := range confusion {
			predictedAs += confusion[trueClass][class]
		}
		var f1 float64
		if tp > 0 {
			precision := float64(tp) / float64(predictedAs)
			recall := float64(tp) / float64(support)
			f1 = 2 * precision * recall / (precision + recall)
		}
		sum += f1 * float64(support) / float64(total)
	}
	return sum
}

func perClassRecall(confusion [][]int, classNames []string) map[string]float64 {
	recall := make(map[string]float64, len(classNames))
	for class, name := range classNames {
		support := 0
		for _, count := range confusion[class] {
			support += count
		}
		if support == 0 {
			continue
		}
		recall[name] = float64(confusion[class][class]) / float64(support)
	}
	return recall
}

// clinicalCost sums count(true->pred) times the asymmetric penalty for
// that misclassification pair. Missing a true high-risk case is the
// expensive direction.
func clinicalCost(confusion [][]int, classNames []string, costs model.RiskCosts, logger *zap.Logger) float64 {
	var total float64
	for trueClass, row := range confusion {
		for predClass, count := range row {
			if trueClass == predClass || count == 0 {
				continue
			}
			cost := misclassificationCost(classNames[trueClass], classNames[predClass], costs)
			if cost > 0 {
				logger.Debug("Misclassification cost",
					zap.String("true", classNames[trueClass]),
					zap.String("predicted", classNames[predClass]),
					zap.Int("count", count),
					zap.Float64("cost_per", cost),
				)
			}
			total += float64(count) * cost
		}
	}
	return total
}

func misclassificationCost(trueName, predName string, costs model.RiskCosts) float64 {
	switch trueName {
	case model.ClassHighRisk:
		return costs.FalseNegativeHigh
	case model.ClassMidRisk:
		if predName == model.ClassLowRisk {
			return costs.FalseNegativeMid
		}
		return costs.FalsePositiveMid
	case model.ClassLowRisk:
		return costs.FalsePositiveLow
	}
	return 0
}

// highRiskCalibration bins the high-risk probabilities by quantile and
// reports observed frequency against mean predicted probability per
// non-empty bin. Degrades to an empty curve, never an error.
func highRiskCalibration(y []int, probabilities [][]float64, classNames []string, logger *zap.Logger) CalibrationCurve {
	empty := CalibrationCurve{ProbTrue: []float64{}, ProbPred: []float64{}}

	highIdx := -1
	for i, name := range classNames {
		if name == model.ClassHighRisk {
			highIdx = i
			break
		}
	}
	if highIdx < 0 {
		logger.Warn("High-risk class not found, skipping calibration curve")
		return empty
	}

	positives := 0
	probs := make([]float64, len(y))
	for i, trueClass := range y {
		if trueClass == highIdx {
			positives++
		}
		probs[i] = probabilities[i][highIdx]
	}
	if positives == 0 {
		logger.Warn("No high-risk samples in evaluation set, returning empty calibration data")
		return empty
	}

	edges := quantileEdges(probs, calibrationBins)
	counts := make([]int, calibrationBins)
	sumTrue := make([]float64, calibrationBins)
	sumPred := make([]float64, calibrationBins)
	for i, p := range probs {
		bin := sort.SearchFloat64s(edges, p)
		if bin >= calibrationBins {
			bin = calibrationBins - 1
		}
		counts[bin]++
		sumPred[bin] += p
		if y[i] == highIdx {
			sumTrue[bin]++
		}
	}

	curve := CalibrationCurve{ProbTrue: []float64{}, ProbPred: []float64{}}
	for bin := 0; bin < calibrationBins; bin++ {
		if counts[bin] == 0 {
			continue
		}
		curve.ProbTrue = append(curve.ProbTrue, sumTrue[bin]/float64(counts[bin]))
		curve.ProbPred = append(curve.ProbPred, sumPred[bin]/float64(counts[bin]))
	}
	return curve
}

// quantileEdges returns the interior quantile boundaries that split the
// values into bins of roughly equal population.
func quantileEdges(values []float64, bins int) []float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	edges := make([]float64, 0, bins-1)
	for i := 1; i < bins; i++ {
		edges = append(edges, quantile(sorted, float64(i)/float64(bins)))
	}
	return edges
}

// quantile is the linear-interpolation quantile of pre-sorted values.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(pos)
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[lo+1]*frac
}
