// Package webhook delivers accepted booking records to an externally
// configured endpoint. One bounded POST per submission, no retries: the caller
// presents the outcome and the user decides whether to resubmit.
//
// The package does no logging; callers decide how to report each outcome.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"
)

// Status classifies the result of a submission attempt.
type Status string

const (
	// StatusSuccess: the endpoint acknowledged the record (any status < 400).
	StatusSuccess Status = "success"
	// StatusClientRejected: the endpoint answered with status >= 400.
	StatusClientRejected Status = "client_rejected"
	// StatusTransportError: the request never completed (DNS, refused, timeout).
	StatusTransportError Status = "transport_error"
	// StatusNotConfigured: no endpoint is configured; nothing was attempted.
	StatusNotConfigured Status = "not_configured"
)

// Outcome describes one submission attempt.
type Outcome struct {
	Status Status `json:"status"`
	// Code is the HTTP status of the response when one was received
	// (successes and rejections alike), zero when no response arrived.
	Code int `json:"code,omitempty"`
	// Detail carries the response body (rejections) or the transport error text.
	Detail string `json:"detail,omitempty"`
}

// Delivered reports whether the record reached the endpoint successfully.
func (o Outcome) Delivered() bool { return o.Status == StatusSuccess }

// maxDetailBytes caps how much of a rejection body is carried back to the
// user; webhook providers occasionally return whole HTML error pages.
const maxDetailBytes = 2048

// Submitter posts booking records to a single endpoint.
type Submitter struct {
	// URL is the webhook endpoint. Empty means not configured.
	URL string
	// Client is the HTTP client used for delivery. Its timeout bounds the
	// whole attempt. Required (use New for sane defaults).
	Client *http.Client
}

// New constructs a Submitter with the given endpoint and timeout.
func New(url string, timeout time.Duration) *Submitter {
	return &Submitter{
		URL:    url,
		Client: &http.Client{Timeout: timeout},
	}
}

// Submit serializes record as JSON and performs a single POST.
//
// With no endpoint configured it returns StatusNotConfigured without any
// network activity; the caller treats that as "saved locally only". A response
// status >= 400 yields StatusClientRejected with the status code and body
// text; a failed request yields StatusTransportError with the error text;
// anything else is StatusSuccess.
func (s *Submitter) Submit(ctx context.Context, record any) Outcome {
	if s.URL == "" {
		return Outcome{Status: StatusNotConfigured}
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return Outcome{Status: StatusTransportError, Detail: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(payload))
	if err != nil {
		return Outcome{Status: StatusTransportError, Detail: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return Outcome{Status: StatusTransportError, Detail: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxDetailBytes))
		return Outcome{
			Status: StatusClientRejected,
			Code:   resp.StatusCode,
			Detail: string(body),
		}
	}
	return Outcome{Status: StatusSuccess, Code: resp.StatusCode}
}
