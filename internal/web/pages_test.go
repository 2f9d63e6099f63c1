package web

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"destinpq/internal/domain"
)

type listerFunc func(ctx context.Context) ([]domain.CaseStudy, error)

func (f listerFunc) List(ctx context.Context) ([]domain.CaseStudy, error) { return f(ctx) }

func page(t *testing.T, path string) Page {
	t.Helper()
	for _, p := range Pages {
		if p.Path == path {
			return p
		}
	}
	t.Fatalf("no page %s", path)
	return Page{}
}

func render(t *testing.T, r *Renderer, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	r.Handler(page(t, path)).ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestPagesListCaseStudies(t *testing.T) {
	lister := listerFunc(func(context.Context) ([]domain.CaseStudy, error) {
		return []domain.CaseStudy{{
			Title:   "Forecasting <Engine>",
			Client:  "Acme",
			Image:   domain.PlaceholderImage,
			Results: []string{"40% fewer stockouts"},
		}}, nil
	})
	r, err := NewRenderer(lister, "support@destinpq.com", zaptest.NewLogger(t))
	require.NoError(t, err)

	for _, path := range []string{"/", "/mobile"} {
		w := render(t, r, path)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
		body := w.Body.String()
		assert.Contains(t, body, "Forecasting &lt;Engine&gt;")
		assert.Contains(t, body, "<li>40% fewer stockouts</li>")
		assert.Contains(t, body, "viewport-width=")
	}
}

func TestPagesFallBackWhenListingFails(t *testing.T) {
	lister := listerFunc(func(context.Context) ([]domain.CaseStudy, error) {
		return nil, errors.New("database is locked")
	})
	r, err := NewRenderer(lister, "support@destinpq.com", zaptest.NewLogger(t))
	require.NoError(t, err)

	w := render(t, r, "/")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<article>")
}

func TestStaticPages(t *testing.T) {
	r, err := NewRenderer(nil, "support@destinpq.com", zaptest.NewLogger(t))
	require.NoError(t, err)

	w := render(t, r, "/refund-cancellation-policy")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<title>Refund &amp; Cancellation Policy | DestinPQ</title>")
	assert.NotContains(t, w.Body.String(), "case-studies")

	w = render(t, r, "/mobile-app")
	assert.Contains(t, w.Body.String(), `<a href="/mobile">DestinPQ</a>`)
}
