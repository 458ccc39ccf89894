// Package retrain decides when enough new labeled data exists, trains a
// replacement model, and swaps the live artifact atomically on success only.
package retrain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/phishguard/phishing-filter/internal/adapters/modelstore"
	"github.com/phishguard/phishing-filter/internal/core"
	"github.com/phishguard/phishing-filter/internal/features"
	"github.com/phishguard/phishing-filter/internal/ml"
)

var (
	// ErrInsufficientData is returned when fewer than MinSamples historical
	// records exist.
	ErrInsufficientData = errors.New("insufficient training data")
	// ErrUnbalancedDataset is returned when either label class has fewer
	// than MinPerClass records.
	ErrUnbalancedDataset = errors.New("unbalanced training dataset")
)

const (
	// MinSamples is the smallest usable training set.
	MinSamples = 4
	// MinPerClass is the minimum number of records per label class.
	MinPerClass = 2
)

// ArtifactStore is the slice of the model store the orchestrator needs.
type ArtifactStore interface {
	Load(path string) (*ml.Artifact, error)
	Save(artifact *ml.Artifact, path string) error
	Backup(path, backupDir string) (string, error)
}

// Config holds the orchestrator settings.
type Config struct {
	ModelPath    string
	BackupDir    string
	MinNewEmails int
}

// Report summarizes a completed training run.
type Report struct {
	Version    string
	Samples    int
	Phishing   int
	Legitimate int
	Accuracy   float64
	Duration   time.Duration
}

// Orchestrator runs the retrain lifecycle: check, prepare, backup, train,
// save. The serving path is never touched on failure; the previous artifact
// on disk stays authoritative until a run fully succeeds.
type Orchestrator struct {
	history core.HistoryStore
	store   ArtifactStore
	cfg     Config
	logger  *zap.Logger
}

// New creates an orchestrator.
func New(history core.HistoryStore, store ArtifactStore, cfg Config, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		history: history,
		store:   store,
		cfg:     cfg,
		logger:  logger,
	}
}

// CheckRetrainNeeded decides whether a retrain is warranted: always when no
// artifact exists yet, otherwise when enough records arrived since the
// artifact was trained, or when total history alone reaches the minimum.
func (o *Orchestrator) CheckRetrainNeeded(ctx context.Context) (core.RetrainDecision, error) {
	artifact, err := o.store.Load(o.cfg.ModelPath)
	if err != nil {
		if errors.Is(err, modelstore.ErrArtifactNotFound) {
			return core.RetrainDecision{ShouldRetrain: true, Reason: "no existing model"}, nil
		}
		return core.RetrainDecision{}, fmt.Errorf("failed to inspect current model: %w", err)
	}

	newCount, err := o.history.CountSince(ctx, artifact.TrainedAt)
	if err != nil {
		return core.RetrainDecision{}, fmt.Errorf("failed to count new records: %w", err)
	}
	if newCount >= o.cfg.MinNewEmails {
		return core.RetrainDecision{
			ShouldRetrain: true,
			Reason:        fmt.Sprintf("%d new emails since last training", newCount),
		}, nil
	}

	total, err := o.history.Count(ctx)
	if err != nil {
		return core.RetrainDecision{}, fmt.Errorf("failed to count records: %w", err)
	}
	if total >= o.cfg.MinNewEmails {
		return core.RetrainDecision{
			ShouldRetrain: true,
			Reason:        fmt.Sprintf("sufficient data: %d emails", total),
		}, nil
	}

	return core.RetrainDecision{
		ShouldRetrain: false,
		Reason:        fmt.Sprintf("not enough new data (%d new, %d needed)", newCount, o.cfg.MinNewEmails),
	}, nil
}

// Run executes one retrain cycle. With force set the gate check is skipped.
// A nil report with nil error means the run was skipped by the gate.
//
// The backup completes before training begins, so every attempt that reaches
// training has a rollback target. Save happens only after training succeeds.
func (o *Orchestrator) Run(ctx context.Context, force bool) (*Report, error) {
	if !force {
		decision, err := o.CheckRetrainNeeded(ctx)
		if err != nil {
			return nil, err
		}
		if !decision.ShouldRetrain {
			o.logger.Info("Retrain skipped", zap.String("reason", decision.Reason))
			return nil, nil
		}
		o.logger.Info("Retrain warranted", zap.String("reason", decision.Reason))
	} else {
		o.logger.Info("Retrain forced")
	}

	examples, err := o.prepareTrainingData(ctx)
	if err != nil {
		o.logger.Warn("Training aborted", zap.Error(err))
		return nil, err
	}

	backupPath, err := o.store.Backup(o.cfg.ModelPath, o.cfg.BackupDir)
	if err != nil {
		o.logger.Warn("Training aborted", zap.Error(err))
		return nil, fmt.Errorf("failed to back up current model: %w", err)
	}
	if backupPath != "" {
		o.logger.Info("Backup created", zap.String("backup_path", backupPath))
	}

	artifact, report, err := o.train(examples)
	if err != nil {
		// The live artifact is untouched; the engine keeps serving it.
		o.logger.Error("Training aborted", zap.Error(err))
		return nil, fmt.Errorf("training failed: %w", err)
	}

	if err := o.store.Save(artifact, o.cfg.ModelPath); err != nil {
		o.logger.Error("Training aborted", zap.Error(err))
		return nil, fmt.Errorf("failed to save new model: %w", err)
	}

	o.logger.Info("Training completed",
		zap.String("version", report.Version),
		zap.Float64("accuracy", report.Accuracy),
		zap.Int("samples", report.Samples),
		zap.Int("phishing", report.Phishing),
		zap.Int("legitimate", report.Legitimate),
		zap.Duration("duration", report.Duration))
	return report, nil
}

// prepareTrainingData assembles and validates the training set.
func (o *Orchestrator) prepareTrainingData(ctx context.Context) ([]core.TrainingExample, error) {
	examples, err := o.history.ListExamples(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	if len(examples) < MinSamples {
		return nil, fmt.Errorf("%w: %d records, need at least %d", ErrInsufficientData, len(examples), MinSamples)
	}

	phishing := 0
	for _, ex := range examples {
		if ex.IsPhishing {
			phishing++
		}
	}
	legitimate := len(examples) - phishing
	if phishing < MinPerClass || legitimate < MinPerClass {
		return nil, fmt.Errorf("%w: %d phishing, %d legitimate, need at least %d of each",
			ErrUnbalancedDataset, phishing, legitimate, MinPerClass)
	}

	return examples, nil
}

// train fits a fresh vocabulary and classifier on the examples and returns a
// new, independent artifact. The currently loaded artifact is never mutated.
func (o *Orchestrator) train(examples []core.TrainingExample) (*ml.Artifact, *Report, error) {
	start := time.Now()

	corpus := make([]string, len(examples))
	for i := range examples {
		corpus[i] = examples[i].Email.Text()
	}

	vocab := features.NewVocabulary(features.DefaultMaxFeatures)
	if err := vocab.Fit(corpus); err != nil {
		return nil, nil, fmt.Errorf("failed to fit vocabulary: %w", err)
	}

	encoder := features.NewEncoder(vocab)
	names := encoder.FeatureNames()

	samples := make([][]float64, len(examples))
	labels := make([]int, len(examples))
	phishing := 0
	for i, ex := range examples {
		vec := encoder.Encode(&ex.Email, core.SummarizeIndicators(ex.Indicators))
		values, err := vec.Values(names)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to encode training sample %d: %w", i, err)
		}
		samples[i] = values
		if ex.IsPhishing {
			labels[i] = 1
			phishing++
		}
	}

	forest, err := ml.TrainForest(samples, labels, ml.DefaultForestConfig())
	if err != nil {
		return nil, nil, err
	}

	trainedAt := time.Now()
	artifact := &ml.Artifact{
		Version:      fmt.Sprintf("rf-%s", trainedAt.UTC().Format("20060102T150405Z")),
		TrainedAt:    trainedAt,
		FeatureNames: names,
		Forest:       forest,
		Vocabulary:   vocab,
	}
	if err := artifact.Validate(); err != nil {
		return nil, nil, err
	}

	report := &Report{
		Version:    artifact.Version,
		Samples:    len(examples),
		Phishing:   phishing,
		Legitimate: len(examples) - phishing,
		Accuracy:   forest.Accuracy(samples, labels),
		Duration:   time.Since(start),
	}
	return artifact, report, nil
}
