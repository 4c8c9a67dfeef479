// Package ai defines the classification oracle boundary. The engine treats
// the oracle as opaque: it returns a decision or fails, and intake degrades
// on failure instead of blocking the citizen.
package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"civicfix/models"
)

// Decision is the oracle's classification of a submitted grievance
type Decision struct {
	Category      models.Category `json:"category"`
	Priority      models.Priority `json:"priority"`
	SLADays       int             `json:"sla_days"`
	Reasoning     string          `json:"reasoning"`
	Confidence    float64         `json:"confidence"`
	ImageFindings string          `json:"image_findings,omitempty"`
}

// Oracle analyzes complaint text (and optionally image bytes) and returns a
// classification decision.
type Oracle interface {
	Analyze(ctx context.Context, text string, imageBytes []byte) (Decision, error)
}

// FallbackDecision is used when the oracle is unavailable: the complaint is
// still created, parked in FILED for manual routing.
func FallbackDecision() Decision {
	return Decision{
		Category:   models.CategoryOther,
		Priority:   models.PriorityLow,
		SLADays:    models.DefaultSLADays[models.CategoryOther],
		Reasoning:  "classifier unavailable; awaiting manual routing",
		Confidence: 0,
	}
}

// HTTPOracle calls an external classifier endpoint with a JSON payload.
type HTTPOracle struct {
	endpoint string
	client   *http.Client
}

// NewHTTPOracle creates an oracle client. The timeout bounds every call.
func NewHTTPOracle(endpoint string, timeout time.Duration) *HTTPOracle {
	return &HTTPOracle{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

type analyzeRequest struct {
	Text        string `json:"text"`
	ImageBase64 string `json:"image_base64,omitempty"`
}

// Analyze posts the complaint text and optional image to the classifier.
// Any transport or decode failure surfaces as ExternalUnavailable.
func (o *HTTPOracle) Analyze(ctx context.Context, text string, imageBytes []byte) (Decision, error) {
	if o.endpoint == "" {
		return Decision{}, models.NewDomainError(models.ErrExternalUnavailable,
			"AI oracle endpoint not configured")
	}

	payload := analyzeRequest{Text: text}
	if len(imageBytes) > 0 {
		payload.ImageBase64 = base64.StdEncoding.EncodeToString(imageBytes)
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return Decision{}, fmt.Errorf("failed to encode analyze request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpoint, bytes.NewReader(body))
	if err != nil {
		return Decision{}, fmt.Errorf("failed to build analyze request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return Decision{}, models.NewDomainError(models.ErrExternalUnavailable,
			"AI oracle call failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return Decision{}, models.NewDomainError(models.ErrExternalUnavailable,
			"AI oracle returned %d: %s", resp.StatusCode, snippet)
	}

	var decision Decision
	if err := json.NewDecoder(resp.Body).Decode(&decision); err != nil {
		return Decision{}, models.NewDomainError(models.ErrExternalUnavailable,
			"AI oracle response not decodable: %v", err)
	}

	// The oracle is untrusted input: clamp anything out of range.
	if !models.ValidCategory(decision.Category) {
		decision.Category = models.CategoryOther
	}
	if !models.ValidPriority(decision.Priority) {
		decision.Priority = models.PriorityLow
	}
	if decision.Confidence < 0 {
		decision.Confidence = 0
	}
	if decision.Confidence > 1 {
		decision.Confidence = 1
	}
	if decision.SLADays <= 0 {
		decision.SLADays = models.DefaultSLADays[decision.Category]
	}
	return decision, nil
}
