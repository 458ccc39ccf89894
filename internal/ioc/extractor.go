// Package ioc extracts typed indicators of compromise from email content.
package ioc

import (
	"regexp"
	"strings"

	"github.com/phishguard/phishing-filter/internal/core"
)

// TLDs that are disproportionately registered for phishing campaigns. A match
// inside a URL or domain value upgrades the indicator to high severity.
var suspiciousTLDs = []string{".tk", ".ml", ".ga", ".cf", ".gq", ".xyz", ".top"}

type matcher struct {
	typ core.IndicatorType
	re  *regexp.Regexp
}

// Extractor pattern-matches raw text into typed indicators. It is stateless
// and safe for concurrent use.
type Extractor struct {
	matchers []matcher
}

// NewExtractor creates an extractor with the standard pattern set.
func NewExtractor() *Extractor {
	return &Extractor{
		// Slice, not map: indicator types always appear in this order.
		matchers: []matcher{
			{core.IndicatorIPv4, regexp.MustCompile(`\b(?:(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\.){3}(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\b`)},
			{core.IndicatorURL, regexp.MustCompile(`(?i)https?://(?:[a-zA-Z0-9$-_@.&+!*(),]|(?:%[0-9a-fA-F]{2}))+`)},
			{core.IndicatorEmail, regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)},
			{core.IndicatorDomain, regexp.MustCompile(`\b(?:[a-zA-Z0-9](?:[a-zA-Z0-9\-]{0,61}[a-zA-Z0-9])?\.)+[a-zA-Z]{2,}\b`)},
			{core.IndicatorMD5, regexp.MustCompile(`\b[a-fA-F0-9]{32}\b`)},
			{core.IndicatorSHA1, regexp.MustCompile(`\b[a-fA-F0-9]{40}\b`)},
			{core.IndicatorSHA256, regexp.MustCompile(`\b[a-fA-F0-9]{64}\b`)},
		},
	}
}

// Extract returns all indicators found in text. Matches are deduplicated per
// type while preserving first-occurrence order. Malformed input yields no
// matches, never an error.
func (x *Extractor) Extract(text string) []core.Indicator {
	var indicators []core.Indicator
	for _, m := range x.matchers {
		matches := m.re.FindAllString(text, -1)
		if len(matches) == 0 {
			continue
		}
		seen := make(map[string]struct{}, len(matches))
		for _, value := range matches {
			if _, dup := seen[value]; dup {
				continue
			}
			seen[value] = struct{}{}
			indicators = append(indicators, core.Indicator{
				Type:     m.typ,
				Value:    value,
				Severity: Severity(m.typ, value),
			})
		}
	}
	return indicators
}

// ExtractFromEmail extracts indicators from the combined sender, subject,
// body and header content of an email.
func (x *Extractor) ExtractFromEmail(email *core.EmailRecord) []core.Indicator {
	return x.Extract(email.RawContent())
}

// Severity assigns a severity to an indicator. It is a pure function of the
// type and value.
func Severity(typ core.IndicatorType, value string) core.Severity {
	switch typ {
	case core.IndicatorMD5, core.IndicatorSHA1, core.IndicatorSHA256:
		return core.SeverityHigh
	case core.IndicatorIPv4:
		return core.SeverityMedium
	case core.IndicatorURL:
		if hasSuspiciousTLD(value) {
			return core.SeverityHigh
		}
		return core.SeverityMedium
	case core.IndicatorDomain:
		if hasSuspiciousTLD(value) {
			return core.SeverityHigh
		}
		return core.SeverityLow
	default:
		return core.SeverityLow
	}
}

func hasSuspiciousTLD(value string) bool {
	lower := strings.ToLower(value)
	for _, tld := range suspiciousTLDs {
		if strings.Contains(lower, tld) {
			return true
		}
	}
	return false
}

// Defang rewrites an indicator value so it is safe to display or share:
// http:// becomes hxxp:// and dots are bracketed. Display transform only,
// never part of detection.
func Defang(value string) string {
	defanged := strings.ReplaceAll(value, "https://", "hxxps://")
	defanged = strings.ReplaceAll(defanged, "http://", "hxxp://")
	return strings.ReplaceAll(defanged, ".", "[.]")
}
