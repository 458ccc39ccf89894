// Package ml implements the trained classifier: an ensemble of CART decision
// trees plus the persisted model artifact that bundles classifier state,
// vocabulary state and feature schema.
package ml

import (
	"math"
	"math/rand"
	"sort"
)

// Node is one decision-tree node. Fields are exported so trained trees
// serialize inside a model artifact. A node with nil Left is a leaf.
type Node struct {
	Feature   int
	Threshold float64
	Left      *Node
	Right     *Node
	Prob      float64 // phishing-class probability at a leaf
}

// predict walks the tree and returns the leaf probability for x.
func (n *Node) predict(x []float64) float64 {
	for n.Left != nil {
		if x[n.Feature] <= n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	return n.Prob
}

type treeParams struct {
	maxDepth        int
	minSamplesSplit int
	featuresPerNode int
}

// buildTree grows a CART tree on the rows indexed by idx, choosing splits by
// Gini impurity over a random feature subset per node.
func buildTree(samples [][]float64, labels []int, idx []int, depth int, p treeParams, rng *rand.Rand) *Node {
	positives := 0
	for _, i := range idx {
		positives += labels[i]
	}
	prob := float64(positives) / float64(len(idx))

	if depth >= p.maxDepth || len(idx) < p.minSamplesSplit || positives == 0 || positives == len(idx) {
		return &Node{Prob: prob}
	}

	feature, threshold, ok := bestSplit(samples, labels, idx, p.featuresPerNode, rng)
	if !ok {
		return &Node{Prob: prob}
	}

	var left, right []int
	for _, i := range idx {
		if samples[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return &Node{Prob: prob}
	}

	return &Node{
		Feature:   feature,
		Threshold: threshold,
		Prob:      prob,
		Left:      buildTree(samples, labels, left, depth+1, p, rng),
		Right:     buildTree(samples, labels, right, depth+1, p, rng),
	}
}

// bestSplit searches a random subset of features for the split with the
// lowest weighted Gini impurity.
func bestSplit(samples [][]float64, labels []int, idx []int, featuresPerNode int, rng *rand.Rand) (int, float64, bool) {
	numFeatures := len(samples[0])
	candidates := rng.Perm(numFeatures)
	if featuresPerNode < len(candidates) {
		candidates = candidates[:featuresPerNode]
	}

	bestGini := math.Inf(1)
	bestFeature, bestThreshold := -1, 0.0

	values := make([]float64, 0, len(idx))
	for _, feature := range candidates {
		values = values[:0]
		for _, i := range idx {
			values = append(values, samples[i][feature])
		}
		sort.Float64s(values)

		for v := 1; v < len(values); v++ {
			if values[v] == values[v-1] {
				continue
			}
			threshold := (values[v] + values[v-1]) / 2

			var leftN, leftPos, rightN, rightPos int
			for _, i := range idx {
				if samples[i][feature] <= threshold {
					leftN++
					leftPos += labels[i]
				} else {
					rightN++
					rightPos += labels[i]
				}
			}
			if leftN == 0 || rightN == 0 {
				continue
			}

			gini := weightedGini(leftN, leftPos, rightN, rightPos)
			if gini < bestGini {
				bestGini = gini
				bestFeature = feature
				bestThreshold = threshold
			}
		}
	}

	return bestFeature, bestThreshold, bestFeature >= 0
}

func weightedGini(leftN, leftPos, rightN, rightPos int) float64 {
	total := float64(leftN + rightN)
	return float64(leftN)/total*gini(leftN, leftPos) + float64(rightN)/total*gini(rightN, rightPos)
}

func gini(n, positives int) float64 {
	p := float64(positives) / float64(n)
	return 1 - p*p - (1-p)*(1-p)
}
