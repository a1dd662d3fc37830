package ml

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

type ClassMetrics struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1-score"`
	Support   int     `json:"support"`
}

// ClassificationReport holds per-class precision, recall and F1 plus their
// macro and support-weighted averages.
type ClassificationReport struct {
	Classes     []int                `json:"classes"`
	PerClass    map[int]ClassMetrics `json:"per_class"`
	Accuracy    float64              `json:"accuracy"`
	MacroAvg    ClassMetrics         `json:"macro_avg"`
	WeightedAvg ClassMetrics         `json:"weighted_avg"`
}

// Evaluation is what Predictor.Evaluate reports.
type Evaluation struct {
	Accuracy float64              `json:"accuracy"`
	Report   ClassificationReport `json:"report"`
	ROCAUC   float64              `json:"roc_auc"`
}

func Accuracy(yTrue, yPred []int) float64 {
	if len(yTrue) == 0 {
		return 0
	}
	correct := 0
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(yTrue))
}

// Report builds a classification report over the union of true and
// predicted labels. Zero divisions yield 0.
func Report(yTrue, yPred []int) ClassificationReport {
	seen := make(map[int]struct{})
	for _, y := range yTrue {
		seen[y] = struct{}{}
	}
	for _, y := range yPred {
		seen[y] = struct{}{}
	}
	classes := make([]int, 0, len(seen))
	for c := range seen {
		classes = append(classes, c)
	}
	sort.Ints(classes)

	report := ClassificationReport{
		Classes:  classes,
		PerClass: make(map[int]ClassMetrics, len(classes)),
		Accuracy: Accuracy(yTrue, yPred),
	}
	total := 0
	for _, c := range classes {
		var tp, fp, fn int
		for i := range yTrue {
			switch {
			case yPred[i] == c && yTrue[i] == c:
				tp++
			case yPred[i] == c:
				fp++
			case yTrue[i] == c:
				fn++
			}
		}
		m := ClassMetrics{
			Precision: safeDiv(float64(tp), float64(tp+fp)),
			Recall:    safeDiv(float64(tp), float64(tp+fn)),
			Support:   tp + fn,
		}
		m.F1 = safeDiv(2*m.Precision*m.Recall, m.Precision+m.Recall)
		report.PerClass[c] = m
		total += m.Support

		report.MacroAvg.Precision += m.Precision
		report.MacroAvg.Recall += m.Recall
		report.MacroAvg.F1 += m.F1
		report.WeightedAvg.Precision += m.Precision * float64(m.Support)
		report.WeightedAvg.Recall += m.Recall * float64(m.Support)
		report.WeightedAvg.F1 += m.F1 * float64(m.Support)
	}
	if n := float64(len(classes)); n > 0 {
		report.MacroAvg.Precision /= n
		report.MacroAvg.Recall /= n
		report.MacroAvg.F1 /= n
	}
	report.MacroAvg.Support = total
	report.WeightedAvg.Precision = safeDiv(report.WeightedAvg.Precision, float64(total))
	report.WeightedAvg.Recall = safeDiv(report.WeightedAvg.Recall, float64(total))
	report.WeightedAvg.F1 = safeDiv(report.WeightedAvg.F1, float64(total))
	report.WeightedAvg.Support = total
	return report
}

// String renders the report as a fixed-width table.
func (r ClassificationReport) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%14s %10s %10s %10s %10s\n\n", "", "precision", "recall", "f1-score", "support")
	for _, c := range r.Classes {
		m := r.PerClass[c]
		fmt.Fprintf(&b, "%14d %10.2f %10.2f %10.2f %10d\n", c, m.Precision, m.Recall, m.F1, m.Support)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "%14s %10s %10s %10.2f %10d\n", "accuracy", "", "", r.Accuracy, r.MacroAvg.Support)
	fmt.Fprintf(&b, "%14s %10.2f %10.2f %10.2f %10d\n", "macro avg", r.MacroAvg.Precision, r.MacroAvg.Recall, r.MacroAvg.F1, r.MacroAvg.Support)
	fmt.Fprintf(&b, "%14s %10.2f %10.2f %10.2f %10d\n", "weighted avg", r.WeightedAvg.Precision, r.WeightedAvg.Recall, r.WeightedAvg.F1, r.WeightedAvg.Support)
	return b.String()
}

// ROCAUC computes the area under the ROC curve from class-1 scores using the
// rank-sum formulation, averaging ranks over ties.
func ROCAUC(yTrue []int, scores []float64) (float64, error) {
	if len(yTrue) != len(scores) {
		return 0, errors.New("labels and scores size mismatch")
	}
	var pos, neg int
	for _, y := range yTrue {
		if y != 0 {
			pos++
		} else {
			neg++
		}
	}
	if pos == 0 || neg == 0 {
		return 0, errors.New("ROC AUC is undefined when only one class is present")
	}

	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return scores[order[a]] < scores[order[b]] })

	rankSum := 0.0
	for i := 0; i < len(order); {
		j := i
		for j+1 < len(order) && scores[order[j+1]] == scores[order[i]] {
			j++
		}
		avgRank := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			if yTrue[order[k]] != 0 {
				rankSum += avgRank
			}
		}
		i = j + 1
	}
	p, n := float64(pos), float64(neg)
	return (rankSum - p*(p+1)/2) / (p * n), nil
}

func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}
