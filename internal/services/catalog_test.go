package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"

	"destinpq/internal/casestudy"
	"destinpq/internal/config"
	"destinpq/internal/database"
	"destinpq/internal/domain"
	apperrors "destinpq/pkg/errors"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := database.Open(config.DatabaseConfig{
		URL: "sqlite:///" + filepath.Join(t.TempDir(), "catalog.db"),
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(conn) })
	return conn
}

func TestCatalogSeedAndList(t *testing.T) {
	ctx := context.Background()
	catalog := NewCatalogService(openTestDB(t), zaptest.NewLogger(t))

	seeded, err := catalog.SeedIfEmpty(ctx, casestudy.Fallback())
	require.NoError(t, err)
	assert.True(t, seeded)

	seeded, err = catalog.SeedIfEmpty(ctx, casestudy.Fallback())
	require.NoError(t, err)
	assert.False(t, seeded, "a populated catalog is left alone")

	got, err := catalog.List(ctx)
	require.NoError(t, err)
	if diff := cmp.Diff(casestudy.Fallback(), got); diff != "" {
		t.Errorf("List() mismatch (-want +got):\n%s", diff)
	}
}

func TestCatalogReplace(t *testing.T) {
	ctx := context.Background()
	catalog := NewCatalogService(openTestDB(t), zaptest.NewLogger(t))
	_, err := catalog.SeedIfEmpty(ctx, casestudy.Fallback())
	require.NoError(t, err)

	fresh := []domain.CaseStudy{
		{Title: "Zeta", Client: "Z", Image: domain.PlaceholderImage, Results: []string{"R"}},
		{Title: "Alpha", Client: "A", Image: "/a.png", Results: []string{}},
	}
	require.NoError(t, catalog.Replace(ctx, fresh, casestudy.StrategyCSVExport))

	got, err := catalog.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, fresh, got, "replaced catalog keeps sheet order")

	err = catalog.Replace(ctx, nil, "x")
	assert.True(t, apperrors.IsValidation(err))
	n, err := catalog.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func newSheetServer(t *testing.T, csv string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/export") && csv != "" {
			_, _ = w.Write([]byte(csv))
			return
		}
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestCaseStudyService(t *testing.T, srv *httptest.Server) (*CaseStudyService, *CatalogService) {
	catalog := NewCatalogService(openTestDB(t), zaptest.NewLogger(t))
	sheet := casestudy.NewSheetSource(
		config.SheetsConfig{SpreadsheetID: "sheet-id", Range: "Sheet1"},
		srv.Client(),
		casestudy.WithDocsBaseURL(srv.URL),
	)
	return NewCaseStudyService(catalog, sheet, zaptest.NewLogger(t)), catalog
}

func TestCaseStudyServiceSync(t *testing.T) {
	ctx := context.Background()
	srv := newSheetServer(t, "Title,Client,Description,Results\nAlpha,Acme,Desc,R1\n,,,R2\n")
	svc, catalog := newTestCaseStudyService(t, srv)

	res, err := svc.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, &SyncResult{Success: true, Count: 1, Source: casestudy.StrategyCSVExport}, res)

	got, err := catalog.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, []string{"R1", "R2"}, got[0].Results)
}

func TestCaseStudyServiceSyncNeverStoresFallback(t *testing.T) {
	ctx := context.Background()
	svc, catalog := newTestCaseStudyService(t, newSheetServer(t, ""))

	_, err := svc.Sync(ctx)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadGateway, StatusOf(err))

	n, err := catalog.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 3, "unseeded catalog serves the embedded list")
}

func TestCaseStudyServiceDirectAndDebug(t *testing.T) {
	ctx := context.Background()
	csv := "Title,Client,Description\nAlpha,Acme,Desc\n"
	svc, _ := newTestCaseStudyService(t, newSheetServer(t, csv))

	direct := svc.Direct(ctx)
	assert.True(t, direct.Success)
	assert.Equal(t, csv, direct.CSVData)
	assert.Equal(t, len(csv), direct.DataLength)
	assert.Equal(t, csv+"...", direct.Preview)
	assert.Equal(t, "Successfully fetched CSV data", direct.Message)

	debug := svc.Debug(ctx)
	assert.True(t, debug.Success)
	assert.Equal(t, 1, debug.Count)
	assert.True(t, debug.CSVAttempt.Success)
	assert.Nil(t, debug.CSVAttempt.Error)
	require.NotNil(t, debug.CSVAttempt.DataPreview)
	assert.Equal(t, csv, *debug.CSVAttempt.DataPreview)
}

func TestCaseStudyServiceDirectFailure(t *testing.T) {
	svc, _ := newTestCaseStudyService(t, newSheetServer(t, ""))

	direct := svc.Direct(context.Background())
	assert.False(t, direct.Success)
	assert.Len(t, direct.Errors, 3)
	assert.Equal(t, "Failed to fetch CSV from any URL", direct.Message)

	debug := svc.Debug(context.Background())
	assert.Equal(t, casestudy.Fallback(), debug.Data)
	require.NotNil(t, debug.CSVAttempt.Error)
	assert.Equal(t, "Failed with status: 503", *debug.CSVAttempt.Error)
}

func TestCaseStudyServiceDebugEmptyExport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	svc, _ := newTestCaseStudyService(t, srv)

	debug := svc.Debug(context.Background())
	assert.False(t, debug.CSVAttempt.Success)
	assert.Nil(t, debug.CSVAttempt.Error)
	assert.Nil(t, debug.CSVAttempt.DataPreview)
	assert.Zero(t, debug.CSVAttempt.DataLength)
	assert.Equal(t, casestudy.Fallback(), debug.Data)
}

func TestCaseStudyServiceSheetsAltStatusFailure(t *testing.T) {
	svc, _ := newTestCaseStudyService(t, newSheetServer(t, ""))

	res := svc.SheetsAlt(context.Background())
	assert.False(t, res.Success)
	assert.Equal(t, http.StatusServiceUnavailable, res.Status)
	assert.Equal(t, "Service Unavailable", res.StatusText)
	assert.Equal(t, "Failed to fetch Google Sheets data", res.Error)
}
