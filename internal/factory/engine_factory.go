package factory

import (
	"errors"

	"go.uber.org/zap"

	"github.com/phishguard/phishing-filter/internal/adapters/modelstore"
	"github.com/phishguard/phishing-filter/internal/config"
	"github.com/phishguard/phishing-filter/internal/detector"
	"github.com/phishguard/phishing-filter/internal/ml"
)

// EngineFactory creates the detection engine with whatever model artifact is
// currently on disk.
type EngineFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewEngineFactory creates a new engine factory
func NewEngineFactory(cfg *config.Config, logger *zap.Logger) *EngineFactory {
	return &EngineFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateEngine builds the model store and the detection engine. A missing or
// unusable artifact is not fatal: the serving path is fail-open and starts in
// rule-based mode, while the problem is logged for the operator.
func (f *EngineFactory) CreateEngine() (*detector.Engine, *modelstore.Store, error) {
	store := modelstore.New(f.logger)
	modelPath := f.cfg.GetString("model.path")

	var artifact *ml.Artifact
	loaded, err := store.Load(modelPath)
	switch {
	case err == nil:
		artifact = loaded
	case errors.Is(err, modelstore.ErrArtifactNotFound):
		f.logger.Warn("No model artifact found, running in rule-based mode",
			zap.String("path", modelPath))
	default:
		// Includes schema mismatches: loud in the log, rule-based in serving.
		f.logger.Error("Failed to load model artifact, running in rule-based mode",
			zap.Error(err),
			zap.String("path", modelPath))
	}

	engine, err := detector.NewEngine(artifact, f.logger)
	if err != nil {
		return nil, nil, err
	}
	return engine, store, nil
}
