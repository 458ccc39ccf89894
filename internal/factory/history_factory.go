package factory

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/phishguard/phishing-filter/internal/adapters/history"
	"github.com/phishguard/phishing-filter/internal/config"
	"github.com/phishguard/phishing-filter/internal/core"
)

// HistoryFactory creates history stores based on configuration
type HistoryFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewHistoryFactory creates a new history factory
func NewHistoryFactory(cfg *config.Config, logger *zap.Logger) *HistoryFactory {
	return &HistoryFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateHistoryStore creates a history store based on the configuration
func (f *HistoryFactory) CreateHistoryStore() (core.HistoryStore, error) {
	storeType := f.cfg.GetString("history.type")

	switch storeType {
	case "memory":
		return history.NewMemoryHistory(f.logger), nil
	case "sqlite":
		sqlitePath := f.cfg.GetString("history.sqlite_path")
		if err := os.MkdirAll(filepath.Dir(sqlitePath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create SQLite directory: %w", err)
		}
		return history.NewSQLiteHistory(sqlitePath, f.logger)
	case "mysql":
		return history.NewMySQLHistory(f.cfg.GetString("history.mysql_dsn"), f.logger)
	case "postgres":
		return history.NewPostgresHistory(f.cfg.GetString("history.postgres_dsn"), f.logger)
	default:
		return nil, fmt.Errorf("unsupported history store type: %s", storeType)
	}
}
