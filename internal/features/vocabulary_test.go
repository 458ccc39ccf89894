package features

import (
	"math"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVocabularyFitOnce(t *testing.T) {
	vocab := NewVocabulary(10)
	corpus := []string{"verify your password now", "lottery winner claim prize"}

	require.NoError(t, vocab.Fit(corpus))
	assert.True(t, vocab.Fitted)

	err := vocab.Fit(corpus)
	assert.ErrorIs(t, err, ErrAlreadyFitted)
}

func TestVocabularyFitEmptyCorpus(t *testing.T) {
	tests := []struct {
		name   string
		corpus []string
	}{
		{"no documents", nil},
		{"only stop words", []string{"the a an and or"}},
		{"only short tokens", []string{"a b c d e"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vocab := NewVocabulary(10)
			err := vocab.Fit(tt.corpus)
			assert.ErrorIs(t, err, ErrEmptyCorpus)
		})
	}
}

func TestVocabularySelectsTopTermsLexicographically(t *testing.T) {
	vocab := NewVocabulary(2)
	corpus := []string{
		"password password password verify verify winner",
	}

	require.NoError(t, vocab.Fit(corpus))

	// password (3) and verify (2) beat winner (1); kept terms come back sorted.
	assert.Equal(t, []string{"password", "verify"}, vocab.Terms)
	assert.True(t, sort.StringsAreSorted(vocab.Terms))
}

func TestVocabularyTransform(t *testing.T) {
	vocab := NewVocabulary(10)
	require.NoError(t, vocab.Fit([]string{
		"verify password account",
		"meeting schedule notes",
	}))

	weights := vocab.Transform("verify password verify")
	require.Len(t, weights, len(vocab.Terms))

	var norm float64
	for _, w := range weights {
		assert.GreaterOrEqual(t, w, 0.0)
		norm += w * w
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-9)

	// Terms outside the frozen vocabulary contribute nothing.
	unknown := vocab.Transform("completely unrelated terms")
	for _, w := range unknown {
		assert.Zero(t, w)
	}
}

func TestVocabularyTransformUnfitted(t *testing.T) {
	vocab := NewVocabulary(10)
	assert.Empty(t, vocab.Transform("anything at all"))
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected []string
	}{
		{
			name:     "lowercases and strips punctuation",
			text:     "Verify YOUR Account!",
			expected: []string{"verify", "account"},
		},
		{
			name:     "drops single characters and stop words",
			text:     "a i to the password",
			expected: []string{"password"},
		},
		{
			name:     "keeps digits",
			text:     "claim 1000 dollars",
			expected: []string{"claim", "1000", "dollars"},
		},
		{
			name:     "empty",
			text:     "",
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Tokenize(tt.text))
		})
	}
}
