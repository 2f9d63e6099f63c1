package forms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"destinpq/internal/domain"
	"destinpq/internal/metrics"
)

// CallDismissAfter is how long the call modal shows its success state.
const CallDismissAfter = 3 * time.Second

// Result is a successful submission.
type Result struct {
	MessageID string
	// DismissAfter is how long the success indicator stays; zero means until
	// the visitor dismisses it.
	DismissAfter time.Duration
}

// SubmitError is a failed submission. Message is what the visitor sees: the
// endpoint's reported error or the form's generic fallback.
type SubmitError struct {
	Message    string
	StatusCode int
	Err        error
}

func (e *SubmitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *SubmitError) Unwrap() error { return e.Err }

// sendEmailResponse covers both the success and the error body.
type sendEmailResponse struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId"`
	Error     string `json:"error"`
}

// Client submits forms to a site's /api/send-email endpoint.
type Client struct {
	endpoint string
	http     *http.Client
	logger   *zap.Logger
}

// NewClient creates a client for the site at baseURL.
func NewClient(baseURL string, httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		endpoint: strings.TrimRight(baseURL, "/") + "/api/send-email",
		http:     httpClient,
		logger:   logger.Named("contact"),
	}
}

// SubmitContact validates and sends the contact form. Invalid input is
// rejected before any request is made.
func (c *Client) SubmitContact(ctx context.Context, s domain.ContactSubmission, surface Surface) (*Result, error) {
	if err := ValidateContact(s); err != nil {
		return nil, err
	}
	metrics.RecordContactSubmission("contact")
	return c.send(ctx, ContactRequest(s, surface), contactFallbackError, 0)
}

// ScheduleCall validates and sends the call-scheduling form.
func (c *Client) ScheduleCall(ctx context.Context, r domain.CallSchedulingRequest) (*Result, error) {
	if err := ValidateCall(r); err != nil {
		return nil, err
	}
	metrics.RecordContactSubmission("call")
	return c.send(ctx, CallRequest(r), callFallbackError, CallDismissAfter)
}

// send makes exactly one POST; there is no retry.
func (c *Client) send(ctx context.Context, req domain.EmailRequest, fallback string, dismiss time.Duration) (*Result, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, &SubmitError{Message: fallback, Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &SubmitError{Message: fallback, Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.logger.Warn("form submission failed", zap.String("subject", req.Subject), zap.Error(err))
		return nil, &SubmitError{Message: fallback, Err: err}
	}
	defer resp.Body.Close()

	var out sendEmailResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return nil, &SubmitError{Message: fallback, StatusCode: resp.StatusCode, Err: err}
	}

	if !out.Success {
		msg := out.Error
		if msg == "" {
			msg = fallback
		}
		c.logger.Warn("form submission rejected",
			zap.String("subject", req.Subject),
			zap.Int("status", resp.StatusCode),
			zap.String("error", out.Error),
		)
		return nil, &SubmitError{Message: msg, StatusCode: resp.StatusCode}
	}

	c.logger.Info("form submitted", zap.String("subject", req.Subject), zap.String("message_id", out.MessageID))
	return &Result{MessageID: out.MessageID, DismissAfter: dismiss}, nil
}
