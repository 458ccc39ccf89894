package di

import (
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/phishguard/phishing-filter/internal/adapters/modelstore"
	"github.com/phishguard/phishing-filter/internal/config"
	"github.com/phishguard/phishing-filter/internal/core"
	"github.com/phishguard/phishing-filter/internal/detector"
	"github.com/phishguard/phishing-filter/internal/factory"
	"github.com/phishguard/phishing-filter/internal/ioc"
	"github.com/phishguard/phishing-filter/internal/logging"
	"github.com/phishguard/phishing-filter/internal/retrain"
	"github.com/phishguard/phishing-filter/internal/utils"
	"github.com/phishguard/phishing-filter/internal/whitelist"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewHistoryFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewEngineFactory); err != nil {
		return nil, err
	}

	// Register history store
	if err := container.Provide(func(f *factory.HistoryFactory) (core.HistoryStore, error) {
		return f.CreateHistoryStore()
	}); err != nil {
		return nil, err
	}

	// Register detection engine and model store
	if err := container.Provide(func(f *factory.EngineFactory) (*detector.Engine, *modelstore.Store, error) {
		return f.CreateEngine()
	}); err != nil {
		return nil, err
	}

	// Register indicator extractor
	if err := container.Provide(ioc.NewExtractor); err != nil {
		return nil, err
	}

	// Register trusted-domain checker
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) *whitelist.Checker {
		return whitelist.NewChecker(cfg.GetStringSlice("detection.trusted_domains"), logger)
	}); err != nil {
		return nil, err
	}

	// Register analysis service
	if err := container.Provide(detector.NewAnalysisService); err != nil {
		return nil, err
	}

	// Register text processor
	if err := container.Provide(utils.NewTextProcessor); err != nil {
		return nil, err
	}

	// Register retrain orchestrator
	if err := container.Provide(func(history core.HistoryStore, store *modelstore.Store, cfg *config.Config, logger *zap.Logger) *retrain.Orchestrator {
		return retrain.New(history, store, retrain.Config{
			ModelPath:    cfg.GetString("model.path"),
			BackupDir:    cfg.GetString("model.backup_dir"),
			MinNewEmails: cfg.GetInt("retrain.min_new_emails"),
		}, logger)
	}); err != nil {
		return nil, err
	}

	// Register retrain scheduler
	if err := container.Provide(func(
		orchestrator *retrain.Orchestrator,
		engine *detector.Engine,
		store *modelstore.Store,
		cfg *config.Config,
		logger *zap.Logger,
	) (*retrain.Scheduler, error) {
		schedule, err := retrain.ParseSchedule(cfg.GetString("retrain.interval"), cfg.GetString("retrain.at"))
		if err != nil {
			return nil, err
		}
		poll, err := cfg.GetDuration("retrain.poll_interval")
		if err != nil {
			return nil, err
		}
		return retrain.NewScheduler(orchestrator, engine, store, schedule, poll, cfg.GetString("model.path"), logger), nil
	}); err != nil {
		return nil, err
	}

	return container, nil
}
