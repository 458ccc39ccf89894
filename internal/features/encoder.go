package features

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/phishguard/phishing-filter/internal/core"
)

// Vector is an ordered mapping from feature name to value. The canonical
// order is lexicographic by name.
type Vector map[string]float64

// Names returns the feature names in canonical order.
func (v Vector) Names() []string {
	names := make([]string, 0, len(v))
	for name := range v {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Values returns the vector's values in the order given by names. A name the
// vector does not carry is a schema mismatch and fails.
func (v Vector) Values(names []string) ([]float64, error) {
	values := make([]float64, len(names))
	for i, name := range names {
		value, ok := v[name]
		if !ok {
			return nil, fmt.Errorf("feature %q missing from encoded vector", name)
		}
		values[i] = value
	}
	return values, nil
}

// Keyword lists scanned by the encoder. Counts are occurrence counts over the
// combined subject and body.
var (
	urgencyWords = []string{
		"urgent", "immediately", "action required", "verify", "suspend",
		"limited time", "act now", "confirm", "expires", "update", "warning",
	}

	suspiciousKeywords = []string{
		"password", "credit card", "social security", "bank account",
		"verify account", "click here", "winner", "prize", "lottery",
		"inheritance", "transfer", "refund", "tax", "suspended",
	}

	featureTLDs = []string{
		".tk", ".ml", ".ga", ".cf", ".gq", ".xyz", ".top", ".work",
		".click", ".link", ".download", ".stream",
	}

	shortenerDomains = []string{"bit.ly", "tinyurl", "goo.gl", "t.co", "ow.ly"}

	urlPattern      = regexp.MustCompile(`(?i)https?://(?:[a-zA-Z0-9$-_@.&+!*(),]|(?:%[0-9a-fA-F]{2}))+`)
	ipInURLPattern  = regexp.MustCompile(`\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}`)
	digitPattern    = regexp.MustCompile(`\d`)
	sentenceEnders  = []string{".", "!", "?"}
)

// Encoder turns an email plus an indicator summary into a feature vector.
// An encoder may carry a frozen vocabulary; encoders used for inference must
// carry the vocabulary of the artifact they serve.
type Encoder struct {
	vocab *Vocabulary
}

// NewEncoder creates an encoder. vocab may be nil, in which case only
// structural features are produced.
func NewEncoder(vocab *Vocabulary) *Encoder {
	return &Encoder{vocab: vocab}
}

// Encode computes the feature vector for an email. It is pure and total:
// absent fields contribute their zero value, and two calls with the same
// inputs yield the same vector with the same key set.
func (e *Encoder) Encode(email *core.EmailRecord, summary core.IndicatorSummary) Vector {
	text := email.Text()
	vec := Vector{}

	e.textFeatures(vec, text)
	e.urlFeatures(vec, text)
	e.metadataFeatures(vec, email)
	e.keywordFeatures(vec, text)
	e.indicatorFeatures(vec, summary)

	if e.vocab != nil {
		weights := e.vocab.Transform(text)
		for i, name := range e.vocab.FeatureNames() {
			vec[name] = weights[i]
		}
	}
	return vec
}

// FeatureNames returns the full ordered schema this encoder produces. This
// is the schema persisted inside a model artifact.
func (e *Encoder) FeatureNames() []string {
	return e.Encode(&core.EmailRecord{}, core.SummarizeIndicators(nil)).Names()
}

func (e *Encoder) textFeatures(vec Vector, text string) {
	words := strings.Fields(text)
	var wordLen int
	for _, w := range words {
		wordLen += len(w)
	}
	avgWordLen := 0.0
	if len(words) > 0 {
		avgWordLen = float64(wordLen) / float64(len(words))
	}

	var upper int
	for _, r := range text {
		if r >= 'A' && r <= 'Z' {
			upper++
		}
	}
	upperRatio := 0.0
	if len(text) > 0 {
		upperRatio = float64(upper) / float64(len(text))
	}

	var sentences int
	for _, end := range sentenceEnders {
		sentences += strings.Count(text, end)
	}

	vec["length"] = float64(len(text))
	vec["num_words"] = float64(len(words))
	vec["num_sentences"] = float64(sentences)
	vec["avg_word_length"] = avgWordLen
	vec["num_exclamation"] = float64(strings.Count(text, "!"))
	vec["num_question"] = float64(strings.Count(text, "?"))
	vec["num_uppercase"] = float64(upper)
	vec["uppercase_ratio"] = upperRatio
}

func (e *Encoder) urlFeatures(vec Vector, text string) {
	urls := urlPattern.FindAllString(text, -1)

	var shortened, suspiciousTLD, ipLiteral bool
	var atSymbols, totalLen, maxLen int
	for _, url := range urls {
		lower := strings.ToLower(url)
		for _, d := range shortenerDomains {
			if strings.Contains(lower, d) {
				shortened = true
			}
		}
		for _, tld := range featureTLDs {
			if strings.Contains(lower, tld) {
				suspiciousTLD = true
			}
		}
		if ipInURLPattern.MatchString(url) {
			ipLiteral = true
		}
		atSymbols += strings.Count(url, "@")
		totalLen += len(url)
		if len(url) > maxLen {
			maxLen = len(url)
		}
	}
	avgLen := 0.0
	if len(urls) > 0 {
		avgLen = float64(totalLen) / float64(len(urls))
	}

	vec["num_links"] = float64(len(urls))
	vec["has_shortened_url"] = boolFeature(shortened)
	vec["has_suspicious_tld"] = boolFeature(suspiciousTLD)
	vec["has_ip_address"] = boolFeature(ipLiteral)
	vec["num_at_symbols"] = float64(atSymbols)
	vec["avg_url_length"] = avgLen
	vec["max_url_length"] = float64(maxLen)
}

func (e *Encoder) metadataFeatures(vec Vector, email *core.EmailRecord) {
	vec["subject_length"] = float64(len(email.Subject))
	vec["body_length"] = float64(len(email.Body))
	vec["sender_has_numbers"] = boolFeature(digitPattern.MatchString(email.Sender))
	vec["num_recipients"] = float64(len(email.Recipients))
	vec["has_attachments"] = boolFeature(len(email.Attachments) > 0)
	vec["num_attachments"] = float64(len(email.Attachments))
}

func (e *Encoder) keywordFeatures(vec Vector, text string) {
	lower := strings.ToLower(text)

	var urgency int
	for _, w := range urgencyWords {
		urgency += strings.Count(lower, w)
	}
	var suspicious int
	for _, kw := range suspiciousKeywords {
		suspicious += strings.Count(lower, kw)
	}

	vec["num_urgency_words"] = float64(urgency)
	vec["has_urgency_words"] = boolFeature(urgency > 0)
	vec["num_suspicious_keywords"] = float64(suspicious)
	vec["has_suspicious_keywords"] = boolFeature(suspicious > 0)
}

func (e *Encoder) indicatorFeatures(vec Vector, summary core.IndicatorSummary) {
	vec["ioc_total_count"] = float64(summary.Total)
	vec["has_ipv4_ioc"] = boolFeature(summary.Counts[core.IndicatorIPv4] > 0)
	vec["has_url_ioc"] = boolFeature(summary.Counts[core.IndicatorURL] > 0)
	vec["has_email_ioc"] = boolFeature(summary.Counts[core.IndicatorEmail] > 0)
	vec["has_hash_ioc"] = boolFeature(summary.HasHash())
	vec["ipv4_ioc_count"] = float64(summary.Counts[core.IndicatorIPv4])
	vec["url_ioc_count"] = float64(summary.Counts[core.IndicatorURL])
	vec["email_ioc_count"] = float64(summary.Counts[core.IndicatorEmail])
	vec["domain_ioc_count"] = float64(summary.Counts[core.IndicatorDomain])
}

func boolFeature(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
