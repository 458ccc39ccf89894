// Package features converts structured emails into fixed-schema numeric
// feature vectors for training and inference.
package features

import (
	"errors"
	"math"
	"sort"
	"strings"
	"unicode"
)

// DefaultMaxFeatures is the vocabulary size used when training.
const DefaultMaxFeatures = 100

// ErrAlreadyFitted is returned when Fit is called on a fitted vocabulary.
// A vocabulary is fit exactly once, at training time, and frozen thereafter.
var ErrAlreadyFitted = errors.New("vocabulary already fitted")

// ErrEmptyCorpus is returned when Fit is called with no usable terms.
var ErrEmptyCorpus = errors.New("empty training corpus")

// englishStopWords are excluded from the vocabulary.
var englishStopWords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`a about above after again against all am an and any are as at be because
		been before being below between both but by can did do does doing down during each few for from further
		had has have having he her here hers herself him himself his how i if in into is it its itself just me
		more most my myself no nor not now of off on once only or other our ours ourselves out over own same she
		should so some such than that the their theirs them themselves then there these they this those through
		to too under until up very was we were what when where which while who whom why will with you your yours
		yourself yourselves`) {
		englishStopWords[w] = struct{}{}
	}
}

// Vocabulary is a frozen text-frequency vocabulary. Fields are exported so
// the fitted state serializes inside a model artifact.
type Vocabulary struct {
	Terms       []string       // selected terms, sorted lexicographically
	Index       map[string]int // term -> position in Terms
	IDF         []float64      // inverse document frequency per term
	MaxFeatures int
	Fitted      bool
}

// NewVocabulary creates an unfitted vocabulary limited to maxFeatures terms.
func NewVocabulary(maxFeatures int) *Vocabulary {
	if maxFeatures <= 0 {
		maxFeatures = DefaultMaxFeatures
	}
	return &Vocabulary{MaxFeatures: maxFeatures}
}

// Fit builds the vocabulary from a training corpus: the top MaxFeatures terms
// by corpus frequency, stop-words excluded, with smoothed IDF weights.
// Fitting twice is an error; the vocabulary is frozen after the first call.
func (v *Vocabulary) Fit(corpus []string) error {
	if v.Fitted {
		return ErrAlreadyFitted
	}

	termCounts := make(map[string]int)
	docCounts := make(map[string]int)
	for _, doc := range corpus {
		seen := make(map[string]struct{})
		for _, term := range Tokenize(doc) {
			termCounts[term]++
			if _, ok := seen[term]; !ok {
				seen[term] = struct{}{}
				docCounts[term]++
			}
		}
	}
	if len(termCounts) == 0 {
		return ErrEmptyCorpus
	}

	// Rank by corpus frequency, ties broken alphabetically, then keep the
	// selected terms in lexicographic order.
	candidates := make([]string, 0, len(termCounts))
	for term := range termCounts {
		candidates = append(candidates, term)
	}
	sort.Slice(candidates, func(i, j int) bool {
		if termCounts[candidates[i]] != termCounts[candidates[j]] {
			return termCounts[candidates[i]] > termCounts[candidates[j]]
		}
		return candidates[i] < candidates[j]
	})
	if len(candidates) > v.MaxFeatures {
		candidates = candidates[:v.MaxFeatures]
	}
	sort.Strings(candidates)

	nDocs := float64(len(corpus))
	v.Terms = candidates
	v.Index = make(map[string]int, len(candidates))
	v.IDF = make([]float64, len(candidates))
	for i, term := range candidates {
		v.Index[term] = i
		v.IDF[i] = math.Log((1+nDocs)/(1+float64(docCounts[term]))) + 1
	}
	v.Fitted = true
	return nil
}

// Transform computes the L2-normalized TF-IDF weights of text against the
// frozen vocabulary. The result always has len(Terms) entries; an unfitted
// vocabulary yields an empty slice.
func (v *Vocabulary) Transform(text string) []float64 {
	weights := make([]float64, len(v.Terms))
	if !v.Fitted {
		return weights
	}

	for _, term := range Tokenize(text) {
		if i, ok := v.Index[term]; ok {
			weights[i]++
		}
	}

	var norm float64
	for i := range weights {
		weights[i] *= v.IDF[i]
		norm += weights[i] * weights[i]
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range weights {
			weights[i] /= norm
		}
	}
	return weights
}

// FeatureNames returns the feature name of each vocabulary slot, in Terms
// order. The tfidf_ prefix keeps text features disjoint from structural ones.
func (v *Vocabulary) FeatureNames() []string {
	names := make([]string, len(v.Terms))
	for i, term := range v.Terms {
		names[i] = "tfidf_" + term
	}
	return names
}

// Tokenize lowercases text and splits it into alphanumeric terms of two or
// more characters, excluding English stop-words.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) < 2 {
			continue
		}
		if _, stop := englishStopWords[f]; stop {
			continue
		}
		terms = append(terms, f)
	}
	return terms
}
