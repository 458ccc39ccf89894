// Package whitelist bypasses analysis for trusted sender domains.
package whitelist

import (
	"strings"

	"go.uber.org/zap"
)

// Checker answers whether a sender address belongs to a trusted domain.
type Checker struct {
	domains []string
	logger  *zap.Logger
}

// NewChecker creates a checker over the configured trusted domains.
func NewChecker(domains []string, logger *zap.Logger) *Checker {
	normalized := make([]string, 0, len(domains))
	for _, domain := range domains {
		if d := strings.ToLower(strings.TrimSpace(domain)); d != "" {
			normalized = append(normalized, d)
		}
	}

	if len(normalized) > 0 && logger != nil {
		logger.Info("Initialized trusted-domain checker", zap.Strings("domains", normalized))
	}

	return &Checker{domains: normalized, logger: logger}
}

// IsTrusted reports whether the sender's domain is in the trusted list.
func (c *Checker) IsTrusted(sender string) bool {
	if len(c.domains) == 0 {
		return false
	}

	parts := strings.Split(sender, "@")
	if len(parts) != 2 {
		return false
	}
	domain := strings.ToLower(parts[1])

	for _, trusted := range c.domains {
		if trusted == domain {
			if c.logger != nil {
				c.logger.Debug("Sender domain is trusted",
					zap.String("domain", domain),
					zap.String("sender", sender))
			}
			return true
		}
	}
	return false
}
