package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"destinpq/internal/casestudy"
	"destinpq/internal/domain"
	"destinpq/internal/metrics"
	apperrors "destinpq/pkg/errors"
)

const (
	directPreviewLen   = 200
	debugPreviewLen    = 500
	rawSampleLen       = 500
	responseTextLength = 1000
)

// SyncResult is the body of POST /api/case-studies/sync
type SyncResult struct {
	Success bool   `json:"success"`
	Count   int    `json:"count"`
	Source  string `json:"source"`
}

// CaseStudyService backs the case-study endpoints
type CaseStudyService struct {
	catalog  *CatalogService
	sheet    *casestudy.SheetSource
	pipeline *casestudy.Pipeline
	logger   *zap.Logger
}

// NewCaseStudyService creates a new case study service. The pipeline used
// for debug and sync runs the server-side strategies against sheet.
func NewCaseStudyService(catalog *CatalogService, sheet *casestudy.SheetSource, logger *zap.Logger) *CaseStudyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CaseStudyService{
		catalog:  catalog,
		sheet:    sheet,
		pipeline: casestudy.NewPipeline(logger, casestudy.ServerStrategies(sheet)...),
		logger:   logger.Named("casestudy"),
	}
}

// List returns the stored catalog, or the embedded list when the catalog
// has not been seeded
func (s *CaseStudyService) List(ctx context.Context) ([]domain.CaseStudy, error) {
	studies, err := s.catalog.List(ctx)
	if err != nil {
		s.logger.Error("failed to load case studies", zap.Error(err))
		return nil, Internal("Failed to load case studies", err)
	}
	if len(studies) > 0 {
		return studies, nil
	}
	bundled, err := casestudy.Bundled()
	if err != nil {
		return nil, Internal("Failed to load case studies", err)
	}
	return bundled, nil
}

// Direct fetches the raw CSV, trying every export URL in order
func (s *CaseStudyService) Direct(ctx context.Context) *casestudy.DirectResponse {
	text, failures := s.sheet.FetchAnyCSV(ctx)
	if text == "" {
		s.logger.Warn("no CSV export URL answered", zap.Strings("errors", failures))
		return &casestudy.DirectResponse{
			Success: false,
			Errors:  failures,
			Message: "Failed to fetch CSV from any URL",
		}
	}
	return &casestudy.DirectResponse{
		Success:    true,
		CSVData:    text,
		DataLength: len(text),
		Preview:    casestudy.Truncate(text, directPreviewLen) + "...",
		Message:    "Successfully fetched CSV data",
	}
}

// Debug reports what the pipeline resolves together with a direct attempt
// at the primary CSV export
func (s *CaseStudyService) Debug(ctx context.Context) *casestudy.DebugResponse {
	studies := s.pipeline.FetchCaseStudies(ctx)

	attempt := casestudy.CSVAttempt{}
	text, err := s.sheet.FetchCSV(ctx, s.sheet.ExportCSVURLs()[0])
	switch {
	case apperrors.IsEmpty(err):
		// An empty export is unsuccessful but not an error.
	case err != nil:
		msg := err.Error()
		var statusErr *casestudy.HTTPStatusError
		if errors.As(err, &statusErr) {
			msg = fmt.Sprintf("Failed with status: %d", statusErr.StatusCode)
		}
		attempt.Error = &msg
	default:
		preview := casestudy.Truncate(text, debugPreviewLen)
		attempt.Success = true
		attempt.DataPreview = &preview
		attempt.DataLength = len(text)
	}

	return &casestudy.DebugResponse{
		Success:    true,
		Count:      len(studies),
		Data:       studies,
		CSVAttempt: attempt,
		Message:    "Debug information for case studies",
	}
}

// SheetsAlt fetches and transforms the gviz JSON response
func (s *CaseStudyService) SheetsAlt(ctx context.Context) *casestudy.SheetsAltResponse {
	raw, err := s.sheet.FetchGviz(ctx)
	if err != nil {
		var statusErr *casestudy.HTTPStatusError
		if errors.As(err, &statusErr) {
			return &casestudy.SheetsAltResponse{
				Success:    false,
				Status:     statusErr.StatusCode,
				StatusText: statusErr.StatusText(),
				Error:      "Failed to fetch Google Sheets data",
			}
		}
		s.logger.Warn("gviz request failed", zap.Error(err))
		return &casestudy.SheetsAltResponse{
			Success: false,
			Error:   err.Error(),
			Message: "Failed to fetch or process Google Sheets data",
		}
	}

	studies, err := casestudy.ParseGviz(raw)
	if err != nil {
		return &casestudy.SheetsAltResponse{
			Success:      false,
			ResponseText: casestudy.Truncate(raw, responseTextLength),
			Error:        err.Error(),
			Message:      "Failed to parse Google Sheets JSON response",
		}
	}

	return &casestudy.SheetsAltResponse{
		Success:       true,
		Method:        "json",
		Data:          studies,
		RawDataSample: casestudy.Truncate(casestudy.StripGvizWrapper(raw), rawSampleLen) + "...",
		Message:       "Successfully fetched Google Sheets data",
	}
}

// Sync re-reads the spreadsheet and replaces the catalog. The hardcoded
// fallback is never written.
func (s *CaseStudyService) Sync(ctx context.Context) (*SyncResult, error) {
	res, err := s.pipeline.Resolve(ctx)
	if err != nil {
		metrics.RecordCatalogSync(false)
		s.logger.Warn("catalog sync found no data", zap.Int("failed_strategies", len(res.Failures)), zap.Error(err))
		return nil, Unavailable("No case study source produced data", err)
	}

	if err := s.catalog.Replace(ctx, res.Studies, res.Source); err != nil {
		metrics.RecordCatalogSync(false)
		return nil, Internal("Failed to store case studies", err)
	}

	metrics.RecordCatalogSync(true)
	return &SyncResult{Success: true, Count: len(res.Studies), Source: res.Source}, nil
}
