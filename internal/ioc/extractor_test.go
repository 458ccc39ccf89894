package ioc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phishguard/phishing-filter/internal/core"
)

func byType(indicators []core.Indicator, typ core.IndicatorType) []core.Indicator {
	var out []core.Indicator
	for _, ind := range indicators {
		if ind.Type == typ {
			out = append(out, ind)
		}
	}
	return out
}

func TestExtractIPv4(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected []string
	}{
		{
			name:     "distinct addresses in first-seen order",
			text:     "Connect to 203.0.113.7 then 198.51.100.23 and back to 203.0.113.7",
			expected: []string{"203.0.113.7", "198.51.100.23"},
		},
		{
			name:     "single address",
			text:     "server at 10.0.0.1",
			expected: []string{"10.0.0.1"},
		},
		{
			name:     "octet out of range",
			text:     "not an address: 999.999.999.999",
			expected: nil,
		},
		{
			name:     "empty input",
			text:     "",
			expected: nil,
		},
	}

	extractor := NewExtractor()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			indicators := byType(extractor.Extract(tt.text), core.IndicatorIPv4)
			require.Len(t, indicators, len(tt.expected))
			for i, ind := range indicators {
				assert.Equal(t, tt.expected[i], ind.Value)
				assert.Equal(t, core.SeverityMedium, ind.Severity)
			}
		})
	}
}

func TestExtractDeduplicatesPerType(t *testing.T) {
	extractor := NewExtractor()

	text := "http://phish.example.com/a http://phish.example.com/a http://other.example.com/b"
	urls := byType(extractor.Extract(text), core.IndicatorURL)

	require.Len(t, urls, 2)
	assert.Equal(t, "http://phish.example.com/a", urls[0].Value)
	assert.Equal(t, "http://other.example.com/b", urls[1].Value)
}

func TestExtractHashes(t *testing.T) {
	extractor := NewExtractor()

	text := "attachment digest d41d8cd98f00b204e9800998ecf8427e reported"
	hashes := byType(extractor.Extract(text), core.IndicatorMD5)

	require.Len(t, hashes, 1)
	assert.Equal(t, core.SeverityHigh, hashes[0].Severity)
}

func TestExtractFromEmailIncludesSenderAndHeaders(t *testing.T) {
	extractor := NewExtractor()

	email := &core.EmailRecord{
		Sender:  "alerts@secure-bank.tk",
		Subject: "notice",
		Body:    "plain text body",
		Headers: map[string]string{"Received": "from 192.0.2.44"},
	}

	indicators := extractor.ExtractFromEmail(email)
	assert.NotEmpty(t, byType(indicators, core.IndicatorEmail))
	assert.NotEmpty(t, byType(indicators, core.IndicatorIPv4))
}

func TestSeverityIsPure(t *testing.T) {
	tests := []struct {
		name     string
		typ      core.IndicatorType
		value    string
		expected core.Severity
	}{
		{"md5 hash", core.IndicatorMD5, "d41d8cd98f00b204e9800998ecf8427e", core.SeverityHigh},
		{"sha256 hash", core.IndicatorSHA256, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", core.SeverityHigh},
		{"ipv4", core.IndicatorIPv4, "203.0.113.7", core.SeverityMedium},
		{"url with suspicious tld", core.IndicatorURL, "http://login.verify.tk/session", core.SeverityHigh},
		{"ordinary url", core.IndicatorURL, "http://example.com/page", core.SeverityMedium},
		{"domain with suspicious tld", core.IndicatorDomain, "free-prizes.xyz", core.SeverityHigh},
		{"ordinary domain", core.IndicatorDomain, "example.org", core.SeverityLow},
		{"email address", core.IndicatorEmail, "user@example.com", core.SeverityLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first := Severity(tt.typ, tt.value)
			second := Severity(tt.typ, tt.value)
			assert.Equal(t, tt.expected, first)
			assert.Equal(t, first, second)
		})
	}
}

func TestDefang(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		expected string
	}{
		{"https url", "https://evil.xyz/login", "hxxps://evil[.]xyz/login"},
		{"http url", "http://phish.tk", "hxxp://phish[.]tk"},
		{"bare domain", "evil.example.com", "evil[.]example[.]com"},
		{"ipv4", "203.0.113.7", "203[.]0[.]113[.]7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Defang(tt.value))
		})
	}
}
