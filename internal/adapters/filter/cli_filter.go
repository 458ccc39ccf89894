package filter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/phishguard/phishing-filter/internal/core"
	"github.com/phishguard/phishing-filter/internal/detector"
	"github.com/phishguard/phishing-filter/internal/ioc"
	"github.com/phishguard/phishing-filter/internal/utils"
)

// CliFilter implements a command-line front-end for phishing detection
type CliFilter struct {
	service *detector.AnalysisService
	text    *utils.TextProcessor
	logger  *zap.Logger
	verbose bool
}

// NewCliFilter creates a new CLI filter
func NewCliFilter(service *detector.AnalysisService, text *utils.TextProcessor, logger *zap.Logger, verbose bool) (*CliFilter, error) {
	return &CliFilter{
		service: service,
		text:    text,
		logger:  logger,
		verbose: verbose,
	}, nil
}

// ProcessEmail analyzes an email and displays the results
func (f *CliFilter) ProcessEmail(ctx context.Context, email *core.EmailRecord) (*core.ClassificationResult, error) {
	f.logger.Debug("Processing email", zap.String("sender", email.Sender))

	fmt.Printf("\n=== Email Summary ===\n")
	fmt.Printf("From: %s\n", email.Sender)
	fmt.Printf("To: %s\n", strings.Join(email.Recipients, ", "))
	fmt.Printf("Subject: %s\n", email.Subject)
	fmt.Printf("Body length: %d bytes\n", len(email.Body))

	if f.verbose {
		preview := f.text.TruncateText(f.text.SanitizeUTF8(email.Body), 500)
		fmt.Printf("\nBody preview:\n%s\n", preview)
	}

	fmt.Printf("\n=== Analysis ===\n")
	startTime := time.Now()
	result, indicators := f.service.Analyze(ctx, email)
	duration := time.Since(startTime)

	fmt.Printf("\n=== Results ===\n")
	fmt.Printf("Is phishing: %t\n", result.IsPhishing)
	fmt.Printf("Confidence: %.1f\n", result.Confidence)
	fmt.Printf("Risk level: %s\n", result.RiskLevel)
	fmt.Printf("Strategy: %s\n", result.Strategy)
	fmt.Printf("Model version: %s\n", result.ModelVersion)
	fmt.Printf("Rule score: %d\n", result.RuleScore)
	fmt.Printf("Processing time: %v\n", duration)

	if len(indicators) > 0 {
		fmt.Printf("\n=== Indicators ===\n")
		for _, ind := range indicators {
			fmt.Printf("%-8s %-6s %s\n", ind.Type, ind.Severity, ioc.Defang(ind.Value))
		}
	}

	return result, nil
}

// Start is a no-op for the CLI filter
func (f *CliFilter) Start() error {
	return nil
}

// Stop is a no-op for the CLI filter
func (f *CliFilter) Stop() error {
	return nil
}
