package ml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func separableData() ([][]float64, []int) {
	samples := [][]float64{
		{0.0, 0.1},
		{0.1, 0.0},
		{0.2, 0.1},
		{0.9, 1.0},
		{1.0, 0.9},
		{0.8, 1.0},
	}
	labels := []int{0, 0, 0, 1, 1, 1}
	return samples, labels
}

func TestTrainForestValidation(t *testing.T) {
	tests := []struct {
		name    string
		samples [][]float64
		labels  []int
	}{
		{"no samples", nil, nil},
		{"label count mismatch", [][]float64{{1, 2}}, []int{0, 1}},
		{"ragged samples", [][]float64{{1, 2}, {3}}, []int{0, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := TrainForest(tt.samples, tt.labels, DefaultForestConfig())
			assert.Error(t, err)
		})
	}
}

func TestForestSeparatesClasses(t *testing.T) {
	samples, labels := separableData()
	forest, err := TrainForest(samples, labels, DefaultForestConfig())
	require.NoError(t, err)

	assert.Equal(t, 2, forest.NumFeatures)
	assert.Len(t, forest.Trees, DefaultForestConfig().NumTrees)

	pred, err := forest.Predict([]float64{0.05, 0.05})
	require.NoError(t, err)
	assert.Equal(t, 0, pred)

	pred, err = forest.Predict([]float64{0.95, 0.95})
	require.NoError(t, err)
	assert.Equal(t, 1, pred)

	assert.Equal(t, 1.0, forest.Accuracy(samples, labels))
}

func TestForestPredictProbaBounds(t *testing.T) {
	samples, labels := separableData()
	forest, err := TrainForest(samples, labels, DefaultForestConfig())
	require.NoError(t, err)

	for _, x := range [][]float64{{0, 0}, {0.5, 0.5}, {1, 1}, {-3, 7}} {
		p, err := forest.PredictProba(x)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, p, 0.0)
		assert.LessOrEqual(t, p, 1.0)
	}
}

func TestForestDeterministicWithFixedSeed(t *testing.T) {
	samples, labels := separableData()

	first, err := TrainForest(samples, labels, DefaultForestConfig())
	require.NoError(t, err)
	second, err := TrainForest(samples, labels, DefaultForestConfig())
	require.NoError(t, err)

	for _, x := range [][]float64{{0.1, 0.2}, {0.5, 0.4}, {0.9, 0.8}} {
		p1, err := first.PredictProba(x)
		require.NoError(t, err)
		p2, err := second.PredictProba(x)
		require.NoError(t, err)
		assert.Equal(t, p1, p2)
	}
}

func TestForestFeatureCountMismatch(t *testing.T) {
	samples, labels := separableData()
	forest, err := TrainForest(samples, labels, DefaultForestConfig())
	require.NoError(t, err)

	_, err = forest.PredictProba([]float64{0.5})
	assert.Error(t, err)

	_, err = forest.Predict([]float64{0.5, 0.5, 0.5})
	assert.Error(t, err)
}
