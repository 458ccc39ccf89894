package detector

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/phishguard/phishing-filter/internal/core"
	"github.com/phishguard/phishing-filter/internal/features"
	"github.com/phishguard/phishing-filter/internal/ml"
)

// ruleOnlyVersion is reported when no model contributed to a verdict.
const ruleOnlyVersion = "rule-based"

// ArtifactLoader loads a model artifact from a path. Implemented by the
// model store adapter.
type ArtifactLoader interface {
	Load(path string) (*ml.Artifact, error)
}

// Engine classifies emails. It owns an optional model artifact, replaced
// only through Install or Reload; classification never mutates engine state,
// so concurrent Classify calls are safe while a retrain runs.
type Engine struct {
	mu       sync.RWMutex
	artifact *ml.Artifact
	encoder  *features.Encoder

	logger *zap.Logger
}

// NewEngine creates an engine. artifact may be nil, in which case the engine
// serves rule-based verdicts until a model is installed.
func NewEngine(artifact *ml.Artifact, logger *zap.Logger) (*Engine, error) {
	e := &Engine{logger: logger}
	if artifact != nil {
		if err := e.Install(artifact); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Install validates an artifact and swaps it in as the serving model.
// In-flight Classify calls keep the snapshot they already took.
func (e *Engine) Install(artifact *ml.Artifact) error {
	if err := artifact.Validate(); err != nil {
		return fmt.Errorf("refusing to install model %q: %w", artifact.Version, err)
	}

	e.mu.Lock()
	e.artifact = artifact
	e.encoder = features.NewEncoder(artifact.Vocabulary)
	e.mu.Unlock()

	e.logger.Info("Model installed",
		zap.String("version", artifact.Version),
		zap.Time("trained_at", artifact.TrainedAt),
		zap.Int("features", len(artifact.FeatureNames)))
	return nil
}

// Reload loads the artifact at path and installs it. This is the explicit
// reload point: a freshly retrained model is picked up here, never mid-request.
func (e *Engine) Reload(loader ArtifactLoader, path string) error {
	artifact, err := loader.Load(path)
	if err != nil {
		return fmt.Errorf("failed to reload model: %w", err)
	}
	return e.Install(artifact)
}

// HasModel reports whether a model artifact is currently loaded.
func (e *Engine) HasModel() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.artifact != nil
}

// ModelVersion returns the loaded artifact version, or the rule-only marker.
func (e *Engine) ModelVersion() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.artifact == nil {
		return ruleOnlyVersion
	}
	return e.artifact.Version
}

// Classify produces a verdict for an email and its extracted indicators.
// The rule score and confidence are always computed; when a model is loaded
// its prediction becomes the primary verdict and the rule result stays as a
// diagnostic. Any model-path failure falls back to the rule result: this
// method never fails.
func (e *Engine) Classify(email *core.EmailRecord, indicators []core.Indicator) *core.ClassificationResult {
	ruleScore := RuleScore(email, indicators)
	ruleVerdict := RuleVerdict(ruleScore)

	result := &core.ClassificationResult{
		ProcessingID: uuid.New().String(),
		IsPhishing:   ruleVerdict,
		Confidence:   ConfidenceScore(email, indicators),
		Strategy:     core.StrategyRuleFallback,
		ModelVersion: ruleOnlyVersion,
		RuleScore:    ruleScore,
		RuleVerdict:  ruleVerdict,
		AnalyzedAt:   time.Now(),
	}

	e.mu.RLock()
	artifact, encoder := e.artifact, e.encoder
	e.mu.RUnlock()

	if artifact != nil {
		if proba, err := predict(artifact, encoder, email, indicators); err != nil {
			e.logger.Warn("Model inference failed, serving rule-based verdict",
				zap.Error(err),
				zap.String("model_version", artifact.Version))
		} else {
			result.IsPhishing = proba >= 0.5
			result.Confidence = proba * 100
			result.Strategy = core.StrategyModel
			result.ModelVersion = artifact.Version
		}
	}

	result.RiskLevel = RiskFor(result.IsPhishing, result.Confidence)
	return result
}

// predict encodes the email against the artifact's frozen vocabulary and
// schema and runs the classifier.
func predict(artifact *ml.Artifact, encoder *features.Encoder, email *core.EmailRecord, indicators []core.Indicator) (float64, error) {
	vec := encoder.Encode(email, core.SummarizeIndicators(indicators))
	values, err := vec.Values(artifact.FeatureNames)
	if err != nil {
		return 0, err
	}
	return artifact.Forest.PredictProba(values)
}
