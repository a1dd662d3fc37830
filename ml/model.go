package ml

// Classifier is a binary classifier over dense, already preprocessed
// feature vectors. Labels are 0 and 1.
type Classifier interface {
	Name() string
	Fit(features [][]float64, labels []int) error
	// PredictProba returns the class probabilities [P(0), P(1)].
	PredictProba(features []float64) ([]float64, error)
}

// Supported classifier names.
const (
	RandomForestName     = "RandomForestClassifier"
	DecisionTreeName     = "DecisionTreeClassifier"
	GradientBoostingName = "GradientBoostingClassifier"
)

// SupportedClassifiers lists the names accepted by the builder.
func SupportedClassifiers() []string {
	return []string{RandomForestName, DecisionTreeName, GradientBoostingName}
}

func labelFromProba(proba []float64) int {
	if len(proba) == 2 && proba[1] > proba[0] {
		return 1
	}
	return 0
}
