// Package detector produces classification verdicts for emails. It blends a
// deterministic rule engine with an optionally loaded trained model and
// always returns a verdict.
package detector

import (
	"strings"

	"github.com/phishguard/phishing-filter/internal/core"
)

// phishingThreshold is the rule score at which an email is flagged.
const phishingThreshold = 50

// Keyword lists used by the rule engine. Hits count distinct terms present,
// not occurrences. The confidence score uses a narrower suspicious list than
// the verdict score.
var (
	ruleUrgencyWords = []string{
		"urgent", "immediately", "action required", "verify", "suspend",
		"limited time", "act now", "expires", "warning",
	}

	ruleSuspiciousKeywords = []string{
		"password", "credit card", "social security", "bank account",
		"verify account", "click here", "winner", "prize", "lottery",
		"inheritance", "suspended", "confirm",
	}

	confidenceSuspiciousKeywords = []string{
		"password", "credit card", "social security", "bank account",
		"verify account", "click here", "winner", "prize", "lottery",
	}

	senderTLDs = []string{".tk", ".ml", ".ga", ".cf", ".gq", ".xyz", ".top", ".click"}
)

// RuleScore computes the deterministic weighted heuristic score for an email
// and its extracted indicators.
func RuleScore(email *core.EmailRecord, indicators []core.Indicator) int {
	text := strings.ToLower(email.Text())
	score := 0

	switch urgency := countPresent(text, ruleUrgencyWords); {
	case urgency >= 3:
		score += 30
	case urgency >= 1:
		score += 15
	}

	switch suspicious := countPresent(text, ruleSuspiciousKeywords); {
	case suspicious >= 3:
		score += 25
	case suspicious >= 1:
		score += 10
	}

	if senderHasSuspiciousTLD(email.Sender) {
		score += 35
	}

	iocScore := 0
	for _, ind := range indicators {
		if ind.Type.IsHash() {
			iocScore += 10
		}
		switch ind.Severity {
		case core.SeverityHigh:
			iocScore += 15
		case core.SeverityMedium:
			iocScore += 8
		}
	}
	if iocScore > 40 {
		iocScore = 40
	}
	score += iocScore

	body := strings.ToLower(email.Body)
	switch links := strings.Count(body, "http://") + strings.Count(body, "https://"); {
	case links > 5:
		score += 15
	case links > 2:
		score += 5
	}

	// IP-literal indicator alongside URL content suggests a raw-IP link.
	if strings.Contains(text, "http") {
		for _, ind := range indicators {
			if ind.Type == core.IndicatorIPv4 {
				score += 20
				break
			}
		}
	}

	return score
}

// RuleVerdict converts a rule score into a phishing verdict.
func RuleVerdict(score int) bool {
	return score >= phishingThreshold
}

// ConfidenceScore computes the independent 0-100 confidence weighting for an
// email and its indicators.
func ConfidenceScore(email *core.EmailRecord, indicators []core.Indicator) float64 {
	text := strings.ToLower(email.Text())
	score := 0

	score += capped(countPresent(text, ruleUrgencyWords)*8, 25)
	score += capped(countPresent(text, confidenceSuspiciousKeywords)*7, 20)

	if senderHasSuspiciousTLD(email.Sender) {
		score += 20
	}

	var high, medium int
	for _, ind := range indicators {
		switch ind.Severity {
		case core.SeverityHigh:
			high++
		case core.SeverityMedium:
			medium++
		}
	}
	score += capped(high*10, 20)
	score += capped(medium*5, 15)

	return float64(capped(score, 100))
}

// RiskFor maps a verdict and confidence to the five-tier risk label.
func RiskFor(isPhishing bool, confidence float64) core.RiskLevel {
	if isPhishing {
		switch {
		case confidence >= 80:
			return core.RiskCritical
		case confidence >= 60:
			return core.RiskHigh
		default:
			return core.RiskMedium
		}
	}
	if confidence >= 40 {
		return core.RiskLow
	}
	return core.RiskSafe
}

func countPresent(text string, keywords []string) int {
	count := 0
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			count++
		}
	}
	return count
}

func senderHasSuspiciousTLD(sender string) bool {
	lower := strings.ToLower(sender)
	for _, tld := range senderTLDs {
		if strings.Contains(lower, tld) {
			return true
		}
	}
	return false
}

func capped(v, limit int) int {
	if v > limit {
		return limit
	}
	return v
}
