package ml

import (
	"errors"
	"fmt"
	"time"

	"github.com/phishguard/phishing-filter/internal/features"
)

// ErrSchemaMismatch is returned when an artifact's persisted feature schema
// does not match the schema the current encoder produces. Such an artifact
// must never serve predictions: misaligned vectors would fail silently.
var ErrSchemaMismatch = errors.New("model feature schema mismatch")

// Artifact is the persisted, versioned bundle of trained classifier state and
// frozen vocabulary state. Artifacts are immutable: a training run always
// produces a new one.
type Artifact struct {
	Version      string
	TrainedAt    time.Time
	FeatureNames []string // ordered schema the forest was trained against
	Forest       *Forest
	Vocabulary   *features.Vocabulary
}

// Validate checks the artifact's internal consistency: the persisted schema
// must equal the schema an encoder with this artifact's vocabulary produces,
// and the forest must expect exactly that many features.
func (a *Artifact) Validate() error {
	if a.Forest == nil || a.Vocabulary == nil {
		return fmt.Errorf("%w: artifact is missing classifier or vocabulary state", ErrSchemaMismatch)
	}

	expected := features.NewEncoder(a.Vocabulary).FeatureNames()
	if len(expected) != len(a.FeatureNames) {
		return fmt.Errorf("%w: artifact has %d features, encoder produces %d",
			ErrSchemaMismatch, len(a.FeatureNames), len(expected))
	}
	for i, name := range expected {
		if a.FeatureNames[i] != name {
			return fmt.Errorf("%w: feature %d is %q, encoder produces %q",
				ErrSchemaMismatch, i, a.FeatureNames[i], name)
		}
	}
	if a.Forest.NumFeatures != len(a.FeatureNames) {
		return fmt.Errorf("%w: forest expects %d features, schema has %d",
			ErrSchemaMismatch, a.Forest.NumFeatures, len(a.FeatureNames))
	}
	return nil
}
