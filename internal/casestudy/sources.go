package casestudy

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"destinpq/internal/config"
	"destinpq/internal/domain"
	apperrors "destinpq/pkg/errors"
)

const (
	docsBaseURL   = "https://docs.google.com"
	valuesBaseURL = "https://sheets.googleapis.com"

	maxBodyBytes = 8 << 20
)

// HTTPStatusError reports a non-2xx upstream response.
type HTTPStatusError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("GET %s: failed with status: %d", e.URL, e.StatusCode)
}

// StatusText returns the reason phrase of the upstream status line.
func (e *HTTPStatusError) StatusText() string {
	return strings.TrimSpace(strings.TrimPrefix(e.Status, fmt.Sprint(e.StatusCode)))
}

// SheetSource reads the published spreadsheet straight from Google.
type SheetSource struct {
	spreadsheetID string
	sheetRange    string
	apiKey        string
	docsBase      string
	valuesBase    string
	client        *http.Client
}

// SheetOption customises a SheetSource
type SheetOption func(*SheetSource)

// WithDocsBaseURL points export and gviz requests at another host.
func WithDocsBaseURL(base string) SheetOption {
	return func(s *SheetSource) { s.docsBase = strings.TrimRight(base, "/") }
}

// WithValuesBaseURL points values API requests at another host.
func WithValuesBaseURL(base string) SheetOption {
	return func(s *SheetSource) { s.valuesBase = strings.TrimRight(base, "/") }
}

// NewSheetSource creates a SheetSource. A nil client gets one whose timeout
// is cfg.HTTPTimeout (zero: none).
func NewSheetSource(cfg config.SheetsConfig, client *http.Client, opts ...SheetOption) *SheetSource {
	if client == nil {
		client = &http.Client{Timeout: cfg.HTTPTimeout}
	}
	s := &SheetSource{
		spreadsheetID: cfg.SpreadsheetID,
		sheetRange:    cfg.Range,
		apiKey:        cfg.APIKey,
		docsBase:      docsBaseURL,
		valuesBase:    valuesBaseURL,
		client:        client,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ExportCSVURLs lists the CSV export endpoints in the order they are tried.
func (s *SheetSource) ExportCSVURLs() []string {
	base := fmt.Sprintf("%s/spreadsheets/d/%s", s.docsBase, s.spreadsheetID)
	return []string{
		base + "/export?format=csv",
		base + "/gviz/tq?tqx=out:csv&sheet=" + url.QueryEscape(s.sheetRange),
		base + "/pub?output=csv",
	}
}

// GvizJSONURL is the visualization query endpoint returning wrapped JSON.
func (s *SheetSource) GvizJSONURL() string {
	return fmt.Sprintf("%s/spreadsheets/d/%s/gviz/tq?tqx=out:json", s.docsBase, s.spreadsheetID)
}

// ValuesURL is the Sheets API v4 values endpoint for the configured range.
func (s *SheetSource) ValuesURL() string {
	return fmt.Sprintf("%s/v4/spreadsheets/%s/values/%s?key=%s",
		s.valuesBase, s.spreadsheetID, url.PathEscape(s.sheetRange), url.QueryEscape(s.apiKey))
}

// HasAPIKey reports whether the values API can be used.
func (s *SheetSource) HasAPIKey() bool {
	return s.apiKey != ""
}

// FetchCSV downloads one CSV export URL.
func (s *SheetSource) FetchCSV(ctx context.Context, u string) (string, error) {
	return fetchText(ctx, s.client, u, "text/csv")
}

// FetchAnyCSV tries every export URL in order and returns the first
// non-empty body, or the per-URL errors when none worked.
func (s *SheetSource) FetchAnyCSV(ctx context.Context) (string, []string) {
	var failures []string
	for _, u := range s.ExportCSVURLs() {
		text, err := s.FetchCSV(ctx, u)
		if err == nil {
			return text, failures
		}
		failures = append(failures, fmt.Sprintf("%s: %v", u, err))
		if ctx.Err() != nil {
			break
		}
	}
	return "", failures
}

// FetchGviz downloads the raw, still wrapped, gviz JSON response.
func (s *SheetSource) FetchGviz(ctx context.Context) (string, error) {
	return fetchText(ctx, s.client, s.GvizJSONURL(), "application/json")
}

// FetchValues reads the configured range through the values API.
func (s *SheetSource) FetchValues(ctx context.Context) ([]domain.CaseStudy, error) {
	if !s.HasAPIKey() {
		return nil, apperrors.New(apperrors.ErrCodeValidation, "no Google API key configured")
	}
	body, err := fetchText(ctx, s.client, s.ValuesURL(), "application/json")
	if err != nil {
		return nil, err
	}
	return ParseValues([]byte(body))
}

// SiteClient calls the site's own case-study endpoints.
type SiteClient struct {
	baseURL string
	client  *http.Client
}

// NewSiteClient creates a client for the site rooted at baseURL.
func NewSiteClient(baseURL string, client *http.Client) *SiteClient {
	if client == nil {
		client = &http.Client{}
	}
	return &SiteClient{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

// GoogleSheetsAlt reads GET /api/google-sheets-alt.
func (c *SiteClient) GoogleSheetsAlt(ctx context.Context) ([]domain.CaseStudy, error) {
	var resp SheetsAltResponse
	if err := c.getJSON(ctx, "/api/google-sheets-alt", &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, apperrors.Newf(apperrors.ErrCodeUpstream, "google-sheets-alt: %s", resp.Error)
	}
	return resp.Data, nil
}

// DirectCSV reads GET /api/case-studies/direct and parses the CSV locally.
func (c *SiteClient) DirectCSV(ctx context.Context) ([]domain.CaseStudy, error) {
	var resp DirectResponse
	if err := c.getJSON(ctx, "/api/case-studies/direct", &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, apperrors.Newf(apperrors.ErrCodeUpstream, "case-studies/direct: %s", resp.Message)
	}
	if strings.TrimSpace(resp.CSVData) == "" {
		return nil, apperrors.New(apperrors.ErrCodeEmpty, "case-studies/direct returned no CSV")
	}
	return ParseCSVToCaseStudies(resp.CSVData), nil
}

// Debug reads GET /api/case-studies/debug.
func (c *SiteClient) Debug(ctx context.Context) ([]domain.CaseStudy, error) {
	var resp DebugResponse
	if err := c.getJSON(ctx, "/api/case-studies/debug", &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, apperrors.Newf(apperrors.ErrCodeUpstream, "case-studies/debug: %s", resp.Message)
	}
	return resp.Data, nil
}

// Bundled reads GET /api/case-studies.
func (c *SiteClient) Bundled(ctx context.Context) ([]domain.CaseStudy, error) {
	var studies []domain.CaseStudy
	if err := c.getJSON(ctx, "/api/case-studies", &studies); err != nil {
		return nil, err
	}
	return studies, nil
}

func (c *SiteClient) getJSON(ctx context.Context, path string, v any) error {
	body, err := fetchText(ctx, c.client, c.baseURL+path, "application/json")
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(body), v); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeParse, "invalid JSON from "+path, err)
	}
	return nil
}

// fetchText performs an uncached GET and returns the body. Non-2xx responses
// and blank bodies are errors.
func fetchText(ctx context.Context, client *http.Client, u, accept string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrCodeInternalError, "build request", err)
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("Cache-Control", "no-store")

	resp, err := client.Do(req)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrCodeUpstream, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return "", apperrors.Wrap(apperrors.ErrCodeUpstream, "unexpected status",
			&HTTPStatusError{URL: u, StatusCode: resp.StatusCode, Status: resp.Status})
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrCodeUpstream, "read body", err)
	}
	if strings.TrimSpace(string(body)) == "" {
		return "", apperrors.New(apperrors.ErrCodeEmpty, "empty response body from "+u)
	}
	return string(body), nil
}
