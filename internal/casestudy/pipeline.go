package casestudy

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"destinpq/internal/domain"
	"destinpq/internal/metrics"
	apperrors "destinpq/pkg/errors"
)

// Strategy names, also used as the "source" reported to callers and as the
// strategy label on metrics.
const (
	StrategyValuesAPI = "sheets-values-api"
	StrategyCSVExport = "csv-export"
	StrategySheetsAlt = "google-sheets-alt"
	StrategyCSVProxy  = "csv-proxy"
	StrategyDebug     = "debug"
	StrategyBundled   = "bundled"
	StrategyGvizJSON  = "gviz-json"
	SourceFallback    = "fallback"
)

// ErrExhausted is returned by Resolve when no strategy produced a record.
var ErrExhausted = errors.New("no case study strategy produced data")

// Strategy is one way of obtaining case studies.
type Strategy struct {
	Name  string
	Fetch func(ctx context.Context) ([]domain.CaseStudy, error)
}

// Failure records why a strategy was skipped.
type Failure struct {
	Strategy string
	Err      error
}

// Resolution is the outcome of running the strategies.
type Resolution struct {
	Studies  []domain.CaseStudy
	Source   string
	Failures []Failure
}

// Pipeline runs strategies in order; the first that yields at least one
// record wins and later strategies are never invoked.
type Pipeline struct {
	strategies []Strategy
	logger     *zap.Logger
}

// NewPipeline creates a pipeline over strategies. A nil logger is replaced
// with a no-op logger.
func NewPipeline(logger *zap.Logger, strategies ...Strategy) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{strategies: strategies, logger: logger.Named("casestudy")}
}

// Resolve runs the strategies and reports which one succeeded. It returns an
// error wrapping ErrExhausted when none did, and never substitutes the
// hardcoded list.
func (p *Pipeline) Resolve(ctx context.Context) (*Resolution, error) {
	res := &Resolution{}
	for _, s := range p.strategies {
		if err := ctx.Err(); err != nil {
			return res, fmt.Errorf("%w: %w", ErrExhausted, err)
		}

		studies, err := p.run(ctx, s)
		if err != nil {
			outcome := outcomeOf(err)
			metrics.RecordStrategyAttempt(s.Name, outcome)
			p.logger.Warn("case study strategy failed",
				zap.String("strategy", s.Name),
				zap.String("outcome", outcome),
				zap.Error(err),
			)
			res.Failures = append(res.Failures, Failure{Strategy: s.Name, Err: err})
			continue
		}

		metrics.RecordStrategyAttempt(s.Name, "success")
		p.logger.Debug("case study strategy succeeded",
			zap.String("strategy", s.Name),
			zap.Int("count", len(studies)),
		)
		res.Studies = studies
		res.Source = s.Name
		return res, nil
	}
	return res, ErrExhausted
}

// FetchCaseStudies always returns a non-empty list: the first successful
// strategy's records, or the hardcoded fallback.
func (p *Pipeline) FetchCaseStudies(ctx context.Context) []domain.CaseStudy {
	res, err := p.Resolve(ctx)
	if err != nil {
		metrics.RecordCaseStudyFallback()
		p.logger.Info("serving hardcoded case studies",
			zap.Int("failed_strategies", len(res.Failures)),
			zap.Error(err),
		)
		return Fallback()
	}
	return res.Studies
}

// run invokes one strategy and turns panics and empty results into errors.
func (p *Pipeline) run(ctx context.Context, s Strategy) (studies []domain.CaseStudy, err error) {
	defer func() {
		if r := recover(); r != nil {
			studies, err = nil, apperrors.Newf(apperrors.ErrCodeParse, "strategy %s panicked: %v", s.Name, r)
		}
	}()

	studies, err = s.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	if len(studies) == 0 {
		return nil, apperrors.New(apperrors.ErrCodeEmpty, "no case studies parsed")
	}
	return studies, nil
}

func outcomeOf(err error) string {
	switch apperrors.CodeOf(err) {
	case apperrors.ErrCodeEmpty:
		return "empty"
	case apperrors.ErrCodeUpstream:
		return "upstream"
	case apperrors.ErrCodeParse:
		return "parse"
	default:
		return "error"
	}
}

// ClientStrategies is the browser-side order: the published CSV export,
// then the site's gviz, direct CSV, debug and bundled endpoints. When the
// sheet has an API key the values API is tried first.
func ClientStrategies(sheet *SheetSource, site *SiteClient) []Strategy {
	var strategies []Strategy
	if sheet.HasAPIKey() {
		strategies = append(strategies, valuesStrategy(sheet))
	}
	return append(strategies,
		Strategy{Name: StrategyCSVExport, Fetch: func(ctx context.Context) ([]domain.CaseStudy, error) {
			text, err := sheet.FetchCSV(ctx, sheet.ExportCSVURLs()[0])
			if err != nil {
				return nil, err
			}
			return ParseCSVToCaseStudies(text), nil
		}},
		Strategy{Name: StrategySheetsAlt, Fetch: site.GoogleSheetsAlt},
		Strategy{Name: StrategyCSVProxy, Fetch: site.DirectCSV},
		Strategy{Name: StrategyDebug, Fetch: site.Debug},
		Strategy{Name: StrategyBundled, Fetch: site.Bundled},
	)
}

// ServerStrategies reads the sheet without going through the site: the
// values API when keyed, every CSV export URL, then gviz JSON.
func ServerStrategies(sheet *SheetSource) []Strategy {
	var strategies []Strategy
	if sheet.HasAPIKey() {
		strategies = append(strategies, valuesStrategy(sheet))
	}
	return append(strategies,
		Strategy{Name: StrategyCSVExport, Fetch: func(ctx context.Context) ([]domain.CaseStudy, error) {
			text, failures := sheet.FetchAnyCSV(ctx)
			if text == "" {
				return nil, apperrors.Newf(apperrors.ErrCodeUpstream, "failed to fetch CSV from any URL: %v", failures)
			}
			return ParseCSVToCaseStudies(text), nil
		}},
		Strategy{Name: StrategyGvizJSON, Fetch: func(ctx context.Context) ([]domain.CaseStudy, error) {
			text, err := sheet.FetchGviz(ctx)
			if err != nil {
				return nil, err
			}
			return ParseGviz(text)
		}},
	)
}

func valuesStrategy(sheet *SheetSource) Strategy {
	return Strategy{Name: StrategyValuesAPI, Fetch: sheet.FetchValues}
}
