package ports

import (
	"context"

	"github.com/phishguard/phishing-filter/internal/core"
)

// EmailFilter defines the interface for a front-end that feeds emails into
// the analysis service.
type EmailFilter interface {
	// ProcessEmail analyzes an email and returns the classification result
	ProcessEmail(ctx context.Context, email *core.EmailRecord) (*core.ClassificationResult, error)

	// Start starts the filter front-end
	Start() error

	// Stop stops the filter front-end
	Stop() error
}
