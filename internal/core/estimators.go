package core

import (
	"cosmic-classifier/internal/core/types"
	"errors"
	"fmt"
	"math"
)

// estimator produces a class distribution for a single input row.
type estimator interface {
	predictProba(x []float64) types.Distribution
}

type estimatorJSON struct {
	Name string `json:"name"`
	Type string `json:"type"`

	Coef      [][]float64 `json:"coef"`
	Intercept []float64   `json:"intercept"`

	Tree  *treeJSON  `json:"tree"`
	Trees []treeJSON `json:"trees"`
}

const (
	logisticRegression = "logistic_regression"
	decisionTree       = "decision_tree"
	randomForest       = "random_forest"
)

func buildEstimator(raw estimatorJSON, nInputs int) (estimator, error) {
	switch raw.Type {
	case logisticRegression:
		return newLogisticRegression(raw.Coef, raw.Intercept, nInputs)
	case decisionTree:
		if raw.Tree == nil {
			return nil, errors.New("decision tree is missing 'tree'")
		}
		return newDecisionTree(*raw.Tree, nInputs)
	case randomForest:
		if len(raw.Trees) == 0 {
			return nil, errors.New("random forest has no trees")
		}
		forest := &randomForestEstimator{}
		for i, t := range raw.Trees {
			tree, err := newDecisionTree(t, nInputs)
			if err != nil {
				return nil, fmt.Errorf("tree %d: %w", i, err)
			}
			forest.trees = append(forest.trees, tree)
		}
		return forest, nil
	default:
		return nil, fmt.Errorf("unsupported estimator type '%s'", raw.Type)
	}
}

// logisticRegressionEstimator is a multinomial logistic regression: softmax(coef.x + intercept).
type logisticRegressionEstimator struct {
	coef      [types.NumClasses][]float64
	intercept [types.NumClasses]float64
}

func newLogisticRegression(coef [][]float64, intercept []float64, nInputs int) (*logisticRegressionEstimator, error) {
	if len(coef) != types.NumClasses || len(intercept) != types.NumClasses {
		return nil, fmt.Errorf("logistic regression expects %d classes, got coef=%d intercept=%d", types.NumClasses, len(coef), len(intercept))
	}
	lr := &logisticRegressionEstimator{}
	for c := 0; c < types.NumClasses; c++ {
		if len(coef[c]) != nInputs {
			return nil, fmt.Errorf("logistic regression class %d expects %d coefficients, got %d", c, nInputs, len(coef[c]))
		}
		lr.coef[c] = coef[c]
		lr.intercept[c] = intercept[c]
	}
	return lr, nil
}

func (lr *logisticRegressionEstimator) predictProba(x []float64) types.Distribution {
	var scores [types.NumClasses]float64
	for c := 0; c < types.NumClasses; c++ {
		z := lr.intercept[c]
		for i, w := range lr.coef[c] {
			z += w * x[i]
		}
		scores[c] = z
	}
	return softmax(scores)
}

func softmax(scores [types.NumClasses]float64) types.Distribution {
	maxScore := scores[0]
	for _, s := range scores[1:] {
		maxScore = math.Max(maxScore, s)
	}
	var out types.Distribution
	total := 0.0
	for c, s := range scores {
		out[c] = math.Exp(s - maxScore)
		total += out[c]
	}
	for c := range out {
		out[c] /= total
	}
	return out
}

// treeJSON mirrors the flat node arrays of a fitted tree. Leaves have children_left == -1.
type treeJSON struct {
	ChildrenLeft  []int       `json:"children_left"`
	ChildrenRight []int       `json:"children_right"`
	Feature       []int       `json:"feature"`
	Threshold     []float64   `json:"threshold"`
	Value         [][]float64 `json:"value"`
}

type decisionTreeEstimator struct {
	left      []int
	right     []int
	feature   []int
	threshold []float64
	leafProba []types.Distribution
}

func newDecisionTree(raw treeJSON, nInputs int) (*decisionTreeEstimator, error) {
	n := len(raw.ChildrenLeft)
	if n == 0 {
		return nil, errors.New("tree has no nodes")
	}
	if len(raw.ChildrenRight) != n || len(raw.Feature) != n || len(raw.Threshold) != n || len(raw.Value) != n {
		return nil, errors.New("tree node arrays have inconsistent lengths")
	}

	tree := &decisionTreeEstimator{
		left:      raw.ChildrenLeft,
		right:     raw.ChildrenRight,
		feature:   raw.Feature,
		threshold: raw.Threshold,
		leafProba: make([]types.Distribution, n),
	}

	for node := 0; node < n; node++ {
		if tree.left[node] == -1 {
			if len(raw.Value[node]) != types.NumClasses {
				return nil, fmt.Errorf("leaf %d has %d class values, expected %d", node, len(raw.Value[node]), types.NumClasses)
			}
			total := 0.0
			for _, v := range raw.Value[node] {
				total += v
			}
			if total <= 0 {
				return nil, fmt.Errorf("leaf %d has no class mass", node)
			}
			for c, v := range raw.Value[node] {
				tree.leafProba[node][c] = v / total
			}
			continue
		}

		// children are always stored after their parent, which also rules out cycles
		if tree.left[node] <= node || tree.left[node] >= n || tree.right[node] <= node || tree.right[node] >= n {
			return nil, fmt.Errorf("node %d has invalid children", node)
		}
		if tree.feature[node] < 0 || tree.feature[node] >= nInputs {
			return nil, fmt.Errorf("node %d splits on feature %d, out of range", node, tree.feature[node])
		}
	}

	return tree, nil
}

func (t *decisionTreeEstimator) predictProba(x []float64) types.Distribution {
	node := 0
	for t.left[node] != -1 {
		if x[t.feature[node]] <= t.threshold[node] {
			node = t.left[node]
		} else {
			node = t.right[node]
		}
	}
	return t.leafProba[node]
}

type randomForestEstimator struct {
	trees []*decisionTreeEstimator
}

func (f *randomForestEstimator) predictProba(x []float64) types.Distribution {
	var out types.Distribution
	for _, tree := range f.trees {
		p := tree.predictProba(x)
		for c := range out {
			out[c] += p[c]
		}
	}
	for c := range out {
		out[c] /= float64(len(f.trees))
	}
	return out
}
