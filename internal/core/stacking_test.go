package core

import (
	"context"
	"cosmic-classifier/internal/core/types"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadTestStacking(t *testing.T) *StackingClassifier {
	data, err := os.ReadFile("testdata/stacking_model.json")
	require.NoError(t, err)
	model, err := LoadStackingClassifier(data)
	require.NoError(t, err)
	return model
}

func TestStackingClassifierPredict(t *testing.T) {
	scaler := loadTestScaler(t)
	model := loadTestStacking(t)

	assert.Equal(t, []string{"lr", "dt", "rf"}, model.EstimatorNames())

	scaled, err := scaler.Transform(context.Background(), scenarioA)
	require.NoError(t, err)

	label, proba, err := model.Predict(context.Background(), scaled)
	require.NoError(t, err)
	assert.Equal(t, types.Confirmed, label)
	assert.InDelta(t, 0.018037025585473765, proba[0], 1e-9)
	assert.InDelta(t, 0.02852186988248353, proba[1], 1e-9)
	assert.InDelta(t, 0.9534411045320427, proba[2], 1e-9)
}

func TestEstimators(t *testing.T) {
	tree, err := newDecisionTree(treeJSON{
		ChildrenLeft:  []int{1, -1, -1},
		ChildrenRight: []int{2, -1, -1},
		Feature:       []int{0, -2, -2},
		Threshold:     []float64{0.5, -2, -2},
		Value:         [][]float64{{0, 0, 0}, {1, 1, 2}, {0, 3, 1}},
	}, 1)
	require.NoError(t, err)

	assert.Equal(t, types.Distribution{0.25, 0.25, 0.5}, tree.predictProba([]float64{0.5}))
	assert.Equal(t, types.Distribution{0, 0.75, 0.25}, tree.predictProba([]float64{0.6}))

	forest := &randomForestEstimator{trees: []*decisionTreeEstimator{tree, tree}}
	assert.Equal(t, types.Distribution{0.25, 0.25, 0.5}, forest.predictProba([]float64{0}))

	lr, err := newLogisticRegression([][]float64{{0}, {0}, {0}}, []float64{0, 0, 0}, 1)
	require.NoError(t, err)
	proba := lr.predictProba([]float64{42})
	for _, p := range proba {
		assert.InDelta(t, 1.0/3, p, 1e-12)
	}
}

func TestSoftmaxLargeScores(t *testing.T) {
	proba := softmax([types.NumClasses]float64{1000, 1000, -1000})
	assert.InDelta(t, 0.5, proba[0], 1e-12)
	assert.InDelta(t, 0.5, proba[1], 1e-12)
	assert.InDelta(t, 0, proba[2], 1e-12)
}

func TestLoadStackingClassifierErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		err  string
	}{
		{
			name: "class order",
			data: `{"classes": [2, 1, 0], "estimators": []}`,
			err:  "class names do not match",
		},
		{
			name: "no estimators",
			data: `{"estimators": []}`,
			err:  "no base estimators",
		},
		{
			name: "unknown estimator",
			data: `{"estimators": [{"name": "svc", "type": "svm"}]}`,
			err:  "unsupported estimator type 'svm'",
		},
		{
			name: "tree cycle",
			data: `{"estimators": [{"name": "dt", "type": "decision_tree", "tree": {
				"children_left": [0], "children_right": [0], "feature": [0], "threshold": [0], "value": [[1,1,1]]}}]}`,
			err: "node 0 has invalid children",
		},
		{
			name: "final width",
			data: `{"estimators": [{"name": "lr", "type": "logistic_regression",
				"coef": [[0,0,0,0,0,0,0,0,0,0],[0,0,0,0,0,0,0,0,0,0],[0,0,0,0,0,0,0,0,0,0]], "intercept": [0,0,0]}],
				"final_estimator": {"type": "logistic_regression", "coef": [[0],[0],[0]], "intercept": [0,0,0]}}`,
			err: "final estimator",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := LoadStackingClassifier([]byte(test.data))
			assert.ErrorContains(t, err, test.err)
		})
	}
}
