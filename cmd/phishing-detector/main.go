package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/phishguard/phishing-filter/internal/adapters/filter"
	"github.com/phishguard/phishing-filter/internal/config"
	"github.com/phishguard/phishing-filter/internal/core"
	"github.com/phishguard/phishing-filter/internal/detector"
	"github.com/phishguard/phishing-filter/internal/factory"
	"github.com/phishguard/phishing-filter/internal/ioc"
	"github.com/phishguard/phishing-filter/internal/logging"
	"github.com/phishguard/phishing-filter/internal/ports"
	"github.com/phishguard/phishing-filter/internal/retrain"
	"github.com/phishguard/phishing-filter/internal/utils"
	"github.com/phishguard/phishing-filter/internal/whitelist"
)

var (
	// Model flags
	modelPath = flag.String("model", "/data/models/phishing_model.gob", "Path to the model artifact")
	backupDir = flag.String("backup-dir", "/data/models/backups", "Directory for model backups")

	// Detection flags
	trustedDomains = flag.String("trusted", "", "Comma-separated list of trusted sender domains")

	// History store flags
	historyType = flag.String("history", "sqlite", "History store type (memory, sqlite, mysql, postgres)")
	sqlitePath  = flag.String("sqlite-path", "/data/email_history.db", "Path to the SQLite history database")

	// Retrain flags
	runRetrain   = flag.Bool("retrain", false, "Run a retrain cycle instead of analyzing an email")
	forceRetrain = flag.Bool("force", false, "Skip the retrain gate check (requires -retrain)")
	minNewEmails = flag.Int("min-new-emails", 10, "New emails required before a retrain is warranted")

	// Input flags
	inputFile  = flag.String("file", "", "Input email JSON file (use stdin if not specified)")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	jsonLog    = flag.Bool("json-log", false, "Output logs in JSON format")
	configFile = flag.String("config", "", "Path to config file (overrides command line flags)")
)

func main() {
	flag.Parse()

	var cfg *config.Config
	var err error

	// Initialize logger
	logger, err := logging.InitConsoleLogger(*verbose, *jsonLog)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Load configuration from file if specified
	if *configFile != "" {
		cfg, err = config.New()
		if err != nil {
			logger.Fatal("Failed to load configuration", zap.Error(err))
		}
		logger.Info("Loaded configuration from file", zap.String("file", cfg.GetViper().ConfigFileUsed()))
	} else {
		// Create config from command line flags
		cfg = createConfigFromFlags()
	}

	if *runRetrain {
		retrainOnce(cfg, logger)
		return
	}

	analyzeOnce(cfg, logger)
}

// analyzeOnce reads a single email and prints the classification verdict.
func analyzeOnce(cfg *config.Config, logger *zap.Logger) {
	// Initialize the detection engine
	engineFactory := factory.NewEngineFactory(cfg, logger)
	engine, _, err := engineFactory.CreateEngine()
	if err != nil {
		logger.Fatal("Failed to create detection engine", zap.Error(err))
	}

	trusted := cfg.GetStringSlice("detection.trusted_domains")
	if len(trusted) > 0 {
		logger.Info("Using trusted domains", zap.Strings("domains", trusted))
	}

	service := detector.NewAnalysisService(
		engine,
		ioc.NewExtractor(),
		whitelist.NewChecker(trusted, logger),
		logger,
	)

	var emailFilter ports.EmailFilter
	emailFilter, err = filter.NewCliFilter(service, utils.NewTextProcessor(logger), logger, *verbose)
	if err != nil {
		logger.Fatal("Failed to create CLI filter", zap.Error(err))
	}

	email, err := readEmail(logger)
	if err != nil {
		logger.Fatal("Failed to read email", zap.Error(err))
	}

	if _, err := emailFilter.ProcessEmail(context.Background(), email); err != nil {
		logger.Fatal("Failed to analyze email", zap.Error(err))
	}
}

// retrainOnce runs a single retrain cycle against the configured history
// store and prints the training report.
func retrainOnce(cfg *config.Config, logger *zap.Logger) {
	historyFactory := factory.NewHistoryFactory(cfg, logger)
	history, err := historyFactory.CreateHistoryStore()
	if err != nil {
		logger.Fatal("Failed to create history store", zap.Error(err))
	}
	defer history.Close()

	engineFactory := factory.NewEngineFactory(cfg, logger)
	_, store, err := engineFactory.CreateEngine()
	if err != nil {
		logger.Fatal("Failed to create model store", zap.Error(err))
	}

	orchestrator := retrain.New(history, store, retrain.Config{
		ModelPath:    cfg.GetString("model.path"),
		BackupDir:    cfg.GetString("model.backup_dir"),
		MinNewEmails: cfg.GetInt("retrain.min_new_emails"),
	}, logger)

	report, err := orchestrator.Run(context.Background(), *forceRetrain)
	if err != nil {
		logger.Fatal("Retrain failed", zap.Error(err))
	}
	if report == nil {
		fmt.Printf("Retrain skipped: not enough new data\n")
		return
	}

	fmt.Printf("\n=== Training Report ===\n")
	fmt.Printf("Version: %s\n", report.Version)
	fmt.Printf("Samples: %d (%d phishing, %d legitimate)\n", report.Samples, report.Phishing, report.Legitimate)
	fmt.Printf("Training accuracy: %.4f\n", report.Accuracy)
	fmt.Printf("Duration: %v\n", report.Duration)
}

// readEmail decodes an EmailRecord from the input file or stdin.
func readEmail(logger *zap.Logger) (*core.EmailRecord, error) {
	var reader io.Reader
	if *inputFile != "" {
		file, err := os.Open(*inputFile)
		if err != nil {
			return nil, fmt.Errorf("failed to open input file %s: %w", *inputFile, err)
		}
		defer file.Close()
		reader = file
		logger.Info("Reading email from file", zap.String("file", *inputFile))
	} else {
		reader = os.Stdin
		logger.Info("Reading email from stdin")
	}

	var email core.EmailRecord
	if err := json.NewDecoder(reader).Decode(&email); err != nil {
		return nil, fmt.Errorf("failed to decode email JSON: %w", err)
	}
	return &email, nil
}

// createConfigFromFlags creates a configuration from command line flags
func createConfigFromFlags() *config.Config {
	v := config.NewEmptyViper()

	// Set model artifact locations
	v.Set("model.path", *modelPath)
	v.Set("model.backup_dir", *backupDir)

	// Set history store configuration
	v.Set("history.type", *historyType)
	v.Set("history.sqlite_path", *sqlitePath)

	// Set retrain configuration
	v.Set("retrain.min_new_emails", *minNewEmails)

	// Set trusted domains
	if *trustedDomains != "" {
		domains := strings.Split(*trustedDomains, ",")
		for i, domain := range domains {
			domains[i] = strings.TrimSpace(domain)
		}
		v.Set("detection.trusted_domains", domains)
	} else {
		v.Set("detection.trusted_domains", []string{})
	}

	return config.NewFromViper(v)
}
