package ml

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
)

// ErrNoTrainingData is returned when TrainForest receives no samples.
var ErrNoTrainingData = errors.New("no training data")

// ForestConfig holds the ensemble training parameters.
type ForestConfig struct {
	NumTrees        int
	MaxDepth        int
	MinSamplesSplit int
	Seed            int64
}

// DefaultForestConfig mirrors the parameters the production model was tuned
// with: 50 trees of depth 10, fixed seed for reproducible training runs.
func DefaultForestConfig() ForestConfig {
	return ForestConfig{
		NumTrees:        50,
		MaxDepth:        10,
		MinSamplesSplit: 2,
		Seed:            42,
	}
}

// Forest is a trained random-forest classifier. Immutable after training and
// safe for concurrent prediction.
type Forest struct {
	Trees       []*Node
	NumFeatures int
}

// TrainForest fits a random forest on the given sample matrix and binary
// labels (1 = phishing). Each tree trains on a bootstrap sample with a
// sqrt-sized random feature subset per node.
func TrainForest(samples [][]float64, labels []int, cfg ForestConfig) (*Forest, error) {
	if len(samples) == 0 {
		return nil, ErrNoTrainingData
	}
	if len(samples) != len(labels) {
		return nil, fmt.Errorf("sample count %d does not match label count %d", len(samples), len(labels))
	}

	numFeatures := len(samples[0])
	for i, s := range samples {
		if len(s) != numFeatures {
			return nil, fmt.Errorf("sample %d has %d features, want %d", i, len(s), numFeatures)
		}
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	params := treeParams{
		maxDepth:        cfg.MaxDepth,
		minSamplesSplit: cfg.MinSamplesSplit,
		featuresPerNode: int(math.Ceil(math.Sqrt(float64(numFeatures)))),
	}

	trees := make([]*Node, cfg.NumTrees)
	for t := range trees {
		boot := make([]int, len(samples))
		for i := range boot {
			boot[i] = rng.Intn(len(samples))
		}
		trees[t] = buildTree(samples, labels, boot, 0, params, rng)
	}

	return &Forest{Trees: trees, NumFeatures: numFeatures}, nil
}

// PredictProba returns the phishing-class probability for x, averaged over
// all trees. A feature-count mismatch is an error, never a silent misread.
func (f *Forest) PredictProba(x []float64) (float64, error) {
	if len(x) != f.NumFeatures {
		return 0, fmt.Errorf("input has %d features, model expects %d", len(x), f.NumFeatures)
	}
	var sum float64
	for _, tree := range f.Trees {
		sum += tree.predict(x)
	}
	return sum / float64(len(f.Trees)), nil
}

// Predict returns the predicted label for x (1 = phishing).
func (f *Forest) Predict(x []float64) (int, error) {
	p, err := f.PredictProba(x)
	if err != nil {
		return 0, err
	}
	if p >= 0.5 {
		return 1, nil
	}
	return 0, nil
}

// Accuracy computes the fraction of samples the forest labels correctly.
func (f *Forest) Accuracy(samples [][]float64, labels []int) float64 {
	if len(samples) == 0 {
		return 0
	}
	correct := 0
	for i, s := range samples {
		if pred, err := f.Predict(s); err == nil && pred == labels[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(samples))
}
