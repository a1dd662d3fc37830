package ml

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// paramSetter applies one hyperparameter value to a classifier.
type paramSetter func(value interface{}) error

// applyParams hands every entry of params to the matching setter. Unknown
// names and ill-typed values are configuration errors.
func applyParams(model string, params map[string]interface{}, setters map[string]paramSetter) error {
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		set, ok := setters[key]
		if !ok {
			allowed := make([]string, 0, len(setters))
			for name := range setters {
				allowed = append(allowed, name)
			}
			sort.Strings(allowed)
			return &ConfigError{
				Field:  "model.params." + key,
				Value:  params[key],
				Reason: fmt.Sprintf("unknown hyperparameter for %s (allowed: %s)", model, strings.Join(allowed, ", ")),
			}
		}
		if err := set(params[key]); err != nil {
			return &ConfigError{Field: "model.params." + key, Value: params[key], Reason: err.Error()}
		}
	}
	return nil
}

func treeSetters(p *treeParams, seed **int64) map[string]paramSetter {
	return map[string]paramSetter{
		"max_depth": func(v interface{}) error {
			if v == nil {
				p.MaxDepth = 0
				return nil
			}
			n, err := positiveInt(v)
			p.MaxDepth = n
			return err
		},
		"min_samples_split": func(v interface{}) error {
			n, err := toInt(v)
			if err == nil && n < 2 {
				err = fmt.Errorf("must be at least 2")
			}
			p.MinSamplesSplit = n
			return err
		},
		"min_samples_leaf": func(v interface{}) error {
			n, err := positiveInt(v)
			p.MinSamplesLeaf = n
			return err
		},
		"max_features": func(v interface{}) error {
			m, err := toMaxFeatures(v)
			p.MaxFeatures = m
			return err
		},
		"random_state": func(v interface{}) error {
			if v == nil {
				*seed = nil
				return nil
			}
			n, err := toInt(v)
			if err != nil {
				return err
			}
			s := int64(n)
			*seed = &s
			return nil
		},
	}
}

// criterionSetter accepts only the split criteria the tree implements.
func criterionSetter(allowed ...string) paramSetter {
	return func(v interface{}) error {
		name, ok := v.(string)
		if ok {
			for _, a := range allowed {
				if name == a {
					return nil
				}
			}
		}
		return fmt.Errorf("supported criteria are %s", strings.Join(allowed, ", "))
	}
}

func decisionTreeSetters(dt *DecisionTree) map[string]paramSetter {
	setters := treeSetters(&dt.Params, &dt.RandomState)
	setters["criterion"] = criterionSetter("gini")
	return setters
}

func randomForestSetters(rf *RandomForest) map[string]paramSetter {
	setters := treeSetters(&rf.Params, &rf.RandomState)
	setters["criterion"] = criterionSetter("gini")
	setters["n_estimators"] = func(v interface{}) error {
		n, err := positiveInt(v)
		rf.NEstimators = n
		return err
	}
	setters["bootstrap"] = func(v interface{}) error {
		b, ok := v.(bool)
		if !ok {
			return fmt.Errorf("must be a boolean")
		}
		rf.Bootstrap = b
		return nil
	}
	return setters
}

func gradientBoostingSetters(gb *GradientBoosting) map[string]paramSetter {
	setters := treeSetters(&gb.Params, &gb.RandomState)
	delete(setters, "max_features")
	setters["criterion"] = criterionSetter("friedman_mse", "squared_error")
	setters["n_estimators"] = func(v interface{}) error {
		n, err := positiveInt(v)
		gb.NEstimators = n
		return err
	}
	setters["learning_rate"] = func(v interface{}) error {
		f, err := toFloat(v)
		if err == nil && f <= 0 {
			err = fmt.Errorf("must be positive")
		}
		gb.LearningRate = f
		return err
	}
	setters["subsample"] = func(v interface{}) error {
		f, err := toFloat(v)
		if err == nil && (f <= 0 || f > 1) {
			err = fmt.Errorf("must be in (0, 1]")
		}
		gb.Subsample = f
		return err
	}
	return setters
}

func toInt(v interface{}) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case uint64:
		return int(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("must be an integer")
		}
		return int(n), nil
	}
	return 0, fmt.Errorf("must be an integer")
}

func positiveInt(v interface{}) (int, error) {
	n, err := toInt(v)
	if err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, fmt.Errorf("must be positive")
	}
	return n, nil
}

func toFloat(v interface{}) (float64, error) {
	switch n := v.(type) {
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case float64:
		return n, nil
	}
	return 0, fmt.Errorf("must be a number")
}

func toMaxFeatures(v interface{}) (MaxFeatures, error) {
	switch x := v.(type) {
	case nil:
		return MaxFeatures{}, nil
	case string:
		if x == "sqrt" || x == "log2" {
			return MaxFeatures{Mode: x}, nil
		}
		return MaxFeatures{}, fmt.Errorf(`must be "sqrt", "log2", an integer or a fraction`)
	case int, int64:
		n, _ := toInt(x)
		if n < 1 {
			return MaxFeatures{}, fmt.Errorf("must be positive")
		}
		return MaxFeatures{Count: n}, nil
	case float64:
		if x <= 0 || x > 1 {
			return MaxFeatures{}, fmt.Errorf("fraction must be in (0, 1]")
		}
		return MaxFeatures{Fraction: x}, nil
	}
	return MaxFeatures{}, fmt.Errorf(`must be "sqrt", "log2", an integer or a fraction`)
}
