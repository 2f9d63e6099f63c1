// Package web serves the site's embedded placeholder pages.
package web

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"go.uber.org/zap"

	"destinpq/internal/casestudy"
	"destinpq/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

// CaseStudyLister supplies the case studies shown on the landing pages.
type CaseStudyLister interface {
	List(ctx context.Context) ([]domain.CaseStudy, error)
}

// Page is one routable page.
type Page struct {
	Path        string
	Title       string
	Description string
	file        string
	home        string
	caseStudies bool
}

// Pages lists every page the site serves.
var Pages = []Page{
	{
		Path:        "/",
		Title:       "DestinPQ - Designing Tomorrow's Intelligence",
		Description: "Pioneering the future of AI and machine learning solutions that transform industries and redefine possibilities.",
		file:        "home.html",
		home:        "/",
		caseStudies: true,
	},
	{
		Path:        "/mobile",
		Title:       "DestinPQ - Designing Tomorrow's Intelligence",
		Description: "Pioneering the future of AI and machine learning solutions that transform industries and redefine possibilities.",
		file:        "mobile.html",
		home:        "/mobile",
		caseStudies: true,
	},
	{
		Path:        "/mobile-app",
		Title:       "DestinPQ Mobile App",
		Description: "DestinPQ AI solutions on mobile.",
		file:        "mobile_app.html",
		home:        "/mobile",
	},
	{
		Path:        "/refund-cancellation-policy",
		Title:       "Refund & Cancellation Policy | DestinPQ",
		Description: "Refund and cancellation policy for DestinPQ consultation services",
		file:        "refund_policy.html",
		home:        "/",
	},
}

type pageData struct {
	Title       string
	Description string
	Home        string
	Support     string
	Year        int
	CaseStudies []domain.CaseStudy
}

// Renderer renders Pages.
type Renderer struct {
	templates map[string]*template.Template
	lister    CaseStudyLister
	support   string
	logger    *zap.Logger
	now       func() time.Time
}

// NewRenderer parses the embedded templates. A nil lister shows the
// hardcoded list.
func NewRenderer(lister CaseStudyLister, supportAddress string, logger *zap.Logger) (*Renderer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Renderer{
		templates: make(map[string]*template.Template, len(Pages)),
		lister:    lister,
		support:   supportAddress,
		logger:    logger.Named("web"),
		now:       time.Now,
	}
	for _, p := range Pages {
		t, err := template.ParseFS(templateFS, "templates/layout.html", "templates/case_studies.html", "templates/"+p.file)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", p.file, err)
		}
		r.templates[p.Path] = t
	}
	return r, nil
}

// Handler serves p.
func (r *Renderer) Handler(p Page) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		data := pageData{
			Title:       p.Title,
			Description: p.Description,
			Home:        p.home,
			Support:     r.support,
			Year:        r.now().Year(),
		}
		if p.caseStudies {
			data.CaseStudies = r.caseStudies(req.Context())
		}

		var buf bytes.Buffer
		if err := r.templates[p.Path].ExecuteTemplate(&buf, "layout", data); err != nil {
			r.logger.Error("failed to render page", zap.String("path", p.Path), zap.Error(err))
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(buf.Bytes())
	}
}

func (r *Renderer) caseStudies(ctx context.Context) []domain.CaseStudy {
	if r.lister == nil {
		return casestudy.Fallback()
	}
	studies, err := r.lister.List(ctx)
	if err != nil {
		r.logger.Warn("falling back to bundled case studies", zap.Error(err))
		return casestudy.Fallback()
	}
	return studies
}
