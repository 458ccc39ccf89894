package detector

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/phishguard/phishing-filter/internal/core"
)

func TestRuleScoreDeterministic(t *testing.T) {
	email := &core.EmailRecord{
		Sender:  "alerts@secure-bank.tk",
		Subject: "URGENT: verify your account",
		Body:    "click here http://secure-bank.tk/login",
	}
	indicators := []core.Indicator{
		{Type: core.IndicatorURL, Value: "http://secure-bank.tk/login", Severity: core.SeverityHigh},
	}

	first := RuleScore(email, indicators)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, RuleScore(email, indicators))
	}
}

func TestRuleScoreComponents(t *testing.T) {
	tests := []struct {
		name       string
		email      *core.EmailRecord
		indicators []core.Indicator
		expected   int
	}{
		{
			name:     "benign email scores zero",
			email:    &core.EmailRecord{Sender: "alice@example.com", Subject: "lunch", Body: "see you at noon"},
			expected: 0,
		},
		{
			name:     "single urgency word",
			email:    &core.EmailRecord{Sender: "a@example.com", Body: "this is urgent"},
			expected: 15,
		},
		{
			name:     "three urgency words",
			email:    &core.EmailRecord{Sender: "a@example.com", Body: "urgent, verify immediately"},
			expected: 30,
		},
		{
			name:     "single suspicious keyword",
			email:    &core.EmailRecord{Sender: "a@example.com", Body: "reset your password"},
			expected: 10,
		},
		{
			name:     "three suspicious keywords",
			email:    &core.EmailRecord{Sender: "a@example.com", Body: "password for your bank account, click here"},
			expected: 25,
		},
		{
			name:     "suspicious sender tld",
			email:    &core.EmailRecord{Sender: "win@lottery-alerts.xyz", Body: "hello"},
			expected: 35,
		},
		{
			name:  "ioc contribution capped at 40",
			email: &core.EmailRecord{Sender: "a@example.com", Body: "see attachments"},
			indicators: []core.Indicator{
				{Type: core.IndicatorMD5, Value: "d41d8cd98f00b204e9800998ecf8427e", Severity: core.SeverityHigh},
				{Type: core.IndicatorSHA1, Value: "da39a3ee5e6b4b0d3255bfef95601890afd80709", Severity: core.SeverityHigh},
				{Type: core.IndicatorURL, Value: "http://evil.tk/x", Severity: core.SeverityHigh},
				{Type: core.IndicatorIPv4, Value: "203.0.113.7", Severity: core.SeverityMedium},
			},
			expected: 40,
		},
		{
			name: "many links in body",
			email: &core.EmailRecord{
				Sender: "a@example.com",
				Body: "http://a.example/1 http://a.example/2 http://a.example/3 " +
					"http://a.example/4 http://a.example/5 http://a.example/6",
			},
			expected: 15,
		},
		{
			name:  "ip indicator with link content",
			email: &core.EmailRecord{Sender: "a@example.com", Body: "download from http://203.0.113.7/payload"},
			indicators: []core.Indicator{
				{Type: core.IndicatorIPv4, Value: "203.0.113.7", Severity: core.SeverityMedium},
			},
			expected: 8 + 20,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, RuleScore(tt.email, tt.indicators))
		})
	}
}

func TestRuleVerdictThreshold(t *testing.T) {
	assert.False(t, RuleVerdict(49))
	assert.True(t, RuleVerdict(50))
	assert.True(t, RuleVerdict(120))
}

func TestConfidenceScoreCappedAt100(t *testing.T) {
	email := &core.EmailRecord{
		Sender:  "win@claim-now.tk",
		Subject: "urgent warning: verify immediately, act now, expires soon",
		Body:    "password winner prize lottery click here credit card bank account social security",
	}
	indicators := []core.Indicator{
		{Type: core.IndicatorURL, Value: "http://a.tk/1", Severity: core.SeverityHigh},
		{Type: core.IndicatorURL, Value: "http://b.tk/2", Severity: core.SeverityHigh},
		{Type: core.IndicatorDomain, Value: "c.tk", Severity: core.SeverityHigh},
		{Type: core.IndicatorIPv4, Value: "203.0.113.7", Severity: core.SeverityMedium},
		{Type: core.IndicatorIPv4, Value: "203.0.113.8", Severity: core.SeverityMedium},
		{Type: core.IndicatorIPv4, Value: "203.0.113.9", Severity: core.SeverityMedium},
		{Type: core.IndicatorIPv4, Value: "203.0.113.10", Severity: core.SeverityMedium},
	}

	confidence := ConfidenceScore(email, indicators)
	assert.Equal(t, 100.0, confidence)
}

func TestRiskFor(t *testing.T) {
	tests := []struct {
		isPhishing bool
		confidence float64
		expected   core.RiskLevel
	}{
		{true, 85, core.RiskCritical},
		{true, 80, core.RiskCritical},
		{true, 65, core.RiskHigh},
		{true, 60, core.RiskHigh},
		{true, 50, core.RiskMedium},
		{true, 0, core.RiskMedium},
		{false, 45, core.RiskLow},
		{false, 40, core.RiskLow},
		{false, 10, core.RiskSafe},
		{false, 0, core.RiskSafe},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, RiskFor(tt.isPhishing, tt.confidence),
			"isPhishing=%t confidence=%v", tt.isPhishing, tt.confidence)
	}
}
