package core

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// EmailRecord is a structured email as produced by the parsing collaborator.
// All fields are optional; missing values stay at their zero value.
type EmailRecord struct {
	Sender      string            `json:"sender"`
	Recipients  []string          `json:"recipients"`
	Subject     string            `json:"subject"`
	Body        string            `json:"body"`
	Headers     map[string]string `json:"headers"`
	Attachments []Attachment      `json:"attachments"`
}

// Attachment describes a single email attachment.
type Attachment struct {
	Filename    string `json:"filename"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
	Hash        string `json:"hash"`
}

// Text returns the subject and body joined, the text used for feature
// extraction and keyword scoring.
func (e *EmailRecord) Text() string {
	return e.Subject + " " + e.Body
}

// RawContent returns all textual content of the email, including sender and
// headers, used for indicator extraction.
func (e *EmailRecord) RawContent() string {
	var b strings.Builder
	b.WriteString(e.Sender)
	b.WriteString("\n")
	b.WriteString(e.Subject)
	b.WriteString("\n")
	b.WriteString(e.Body)
	b.WriteString("\n")

	// Headers in a stable order so extraction output is deterministic.
	keys := make([]string, 0, len(e.Headers))
	for k := range e.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %s\n", k, e.Headers[k])
	}
	return b.String()
}

// IndicatorType identifies the kind of an extracted indicator.
type IndicatorType string

const (
	IndicatorIPv4   IndicatorType = "ipv4"
	IndicatorURL    IndicatorType = "url"
	IndicatorEmail  IndicatorType = "email"
	IndicatorDomain IndicatorType = "domain"
	IndicatorMD5    IndicatorType = "md5"
	IndicatorSHA1   IndicatorType = "sha1"
	IndicatorSHA256 IndicatorType = "sha256"
)

// IsHash reports whether the indicator type is a file hash digest.
func (t IndicatorType) IsHash() bool {
	return t == IndicatorMD5 || t == IndicatorSHA1 || t == IndicatorSHA256
}

// Severity classifies how dangerous an indicator is.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Indicator is a typed indicator of compromise extracted from email content.
type Indicator struct {
	Type     IndicatorType `json:"type"`
	Value    string        `json:"value"`
	Severity Severity      `json:"severity"`
}

// IndicatorSummary aggregates an indicator list into the counts consumed by
// the feature encoder and the scoring rules.
type IndicatorSummary struct {
	Total          int
	Counts         map[IndicatorType]int
	HighSeverity   int
	MediumSeverity int
}

// SummarizeIndicators builds an IndicatorSummary from a list of indicators.
func SummarizeIndicators(indicators []Indicator) IndicatorSummary {
	summary := IndicatorSummary{
		Total:  len(indicators),
		Counts: make(map[IndicatorType]int),
	}
	for _, ind := range indicators {
		summary.Counts[ind.Type]++
		switch ind.Severity {
		case SeverityHigh:
			summary.HighSeverity++
		case SeverityMedium:
			summary.MediumSeverity++
		}
	}
	return summary
}

// HasHash reports whether any hash-type indicator was seen.
func (s IndicatorSummary) HasHash() bool {
	return s.Counts[IndicatorMD5]+s.Counts[IndicatorSHA1]+s.Counts[IndicatorSHA256] > 0
}

// RiskLevel is the five-tier label derived from a verdict and its confidence.
type RiskLevel string

const (
	RiskSafe     RiskLevel = "Safe"
	RiskLow      RiskLevel = "Low"
	RiskMedium   RiskLevel = "Medium"
	RiskHigh     RiskLevel = "High"
	RiskCritical RiskLevel = "Critical"
)

// Strategy records which path produced a classification verdict.
type Strategy string

const (
	// StrategyModel means the trained model produced the verdict.
	StrategyModel Strategy = "model"
	// StrategyRuleFallback means the deterministic rule engine produced the
	// verdict, either because no model was loaded or model inference failed.
	StrategyRuleFallback Strategy = "rule-fallback"
	// StrategyAllowlist means analysis was bypassed for a trusted sender domain.
	StrategyAllowlist Strategy = "allowlist"
)

// ClassificationResult is the verdict returned for a single email.
type ClassificationResult struct {
	ProcessingID string    `json:"processing_id"`
	IsPhishing   bool      `json:"is_phishing"`
	Confidence   float64   `json:"confidence"`
	RiskLevel    RiskLevel `json:"risk_level"`
	Strategy     Strategy  `json:"strategy"`
	ModelVersion string    `json:"model_version"`

	// Rule-engine diagnostics, populated on every request regardless of the
	// strategy that won.
	RuleScore   int  `json:"rule_score"`
	RuleVerdict bool `json:"rule_verdict"`

	AnalyzedAt time.Time `json:"analyzed_at"`
}

// TrainingExample is one historical labeled email with its extracted
// indicators, as served by a HistoryStore.
type TrainingExample struct {
	Email      EmailRecord
	Indicators []Indicator
	IsPhishing bool
	UploadedAt time.Time
}

// RetrainDecision is the outcome of the retrain gate check.
type RetrainDecision struct {
	ShouldRetrain bool
	Reason        string
}
