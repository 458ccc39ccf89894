// Package history provides labeled-email history stores backing the retrain
// orchestrator. Backends share one row shape: email fields as columns,
// recipients/headers/attachments/indicators as JSON documents.
package history

import (
	"encoding/json"
	"fmt"

	"github.com/phishguard/phishing-filter/internal/core"
)

// row is the flattened persisted form of a TrainingExample.
type row struct {
	sender      string
	subject     string
	body        string
	recipients  string
	headers     string
	attachments string
	indicators  string
}

func encodeExample(example core.TrainingExample) (row, error) {
	recipients, err := json.Marshal(example.Email.Recipients)
	if err != nil {
		return row{}, fmt.Errorf("failed to encode recipients: %w", err)
	}
	headers, err := json.Marshal(example.Email.Headers)
	if err != nil {
		return row{}, fmt.Errorf("failed to encode headers: %w", err)
	}
	attachments, err := json.Marshal(example.Email.Attachments)
	if err != nil {
		return row{}, fmt.Errorf("failed to encode attachments: %w", err)
	}
	indicators, err := json.Marshal(example.Indicators)
	if err != nil {
		return row{}, fmt.Errorf("failed to encode indicators: %w", err)
	}
	return row{
		sender:      example.Email.Sender,
		subject:     example.Email.Subject,
		body:        example.Email.Body,
		recipients:  string(recipients),
		headers:     string(headers),
		attachments: string(attachments),
		indicators:  string(indicators),
	}, nil
}

func decodeExample(r row, isPhishing bool) (core.TrainingExample, error) {
	example := core.TrainingExample{
		Email: core.EmailRecord{
			Sender:  r.sender,
			Subject: r.subject,
			Body:    r.body,
		},
		IsPhishing: isPhishing,
	}
	if r.recipients != "" {
		if err := json.Unmarshal([]byte(r.recipients), &example.Email.Recipients); err != nil {
			return example, fmt.Errorf("failed to decode recipients: %w", err)
		}
	}
	if r.headers != "" {
		if err := json.Unmarshal([]byte(r.headers), &example.Email.Headers); err != nil {
			return example, fmt.Errorf("failed to decode headers: %w", err)
		}
	}
	if r.attachments != "" {
		if err := json.Unmarshal([]byte(r.attachments), &example.Email.Attachments); err != nil {
			return example, fmt.Errorf("failed to decode attachments: %w", err)
		}
	}
	if r.indicators != "" {
		if err := json.Unmarshal([]byte(r.indicators), &example.Indicators); err != nil {
			return example, fmt.Errorf("failed to decode indicators: %w", err)
		}
	}
	return example, nil
}
