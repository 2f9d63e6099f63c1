package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"destinpq/internal/casestudy"
	"destinpq/internal/domain"
	"destinpq/internal/forms"
	"destinpq/internal/util"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("SECRET_KEY", testSecret)
	t.Setenv("NEXT_PUBLIC_GOOGLE_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

func TestTokenCommand(t *testing.T) {
	out, err := execute(t, "token", "--operator", "ops", "--ttl", "5m")
	require.NoError(t, err)

	claims, err := util.ValidateToken(testSecret, strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "ops", claims.Operator)
	assert.Equal(t, util.OperatorScope, claims.Scope)
}

func newRelay(t *testing.T, body string) (*httptest.Server, *atomic.Int32, *domain.EmailRequest) {
	t.Helper()
	var calls atomic.Int32
	var last domain.EmailRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_ = json.NewDecoder(r.Body).Decode(&last)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls, &last
}

func TestContactCommand(t *testing.T) {
	srv, calls, last := newRelay(t, `{"success":true,"messageId":"<m1@destinpq.com>"}`)

	out, err := execute(t, "contact", "--site", srv.URL, "--mobile",
		"--name", "Ada", "--email", "ada@example.com", "--message", "Hello")
	require.NoError(t, err)
	assert.Contains(t, out, `"messageId": "<m1@destinpq.com>"`)
	assert.EqualValues(t, 1, calls.Load())
	assert.Equal(t, forms.MobileContactSubject, last.Subject)
	assert.Equal(t, domain.ScheduleImmediately, last.Schedule)
}

func TestCallCommandReportsEndpointError(t *testing.T) {
	srv, calls, last := newRelay(t, `{"success":false,"error":"Failed to send email"}`)

	_, err := execute(t, "call", "--site", srv.URL,
		"--name", "Ada", "--phone", "+1 555 0100", "--email", "ada@example.com",
		"--date", "2026-11-02", "--time", "10:00")
	require.EqualError(t, err, "Failed to send email")
	assert.EqualValues(t, 1, calls.Load())
	assert.Equal(t, domain.ScheduleCallScheduling, last.Schedule)
}

func TestFetchCommand(t *testing.T) {
	csv := "Title,Client,Description,Results\nAlpha,Acme,D,R1\n"
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/export") {
			_, _ = w.Write([]byte(csv))
			return
		}
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	t.Cleanup(up.Close)
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	t.Cleanup(down.Close)

	t.Run("server strategies", func(t *testing.T) {
		out, err := execute(t, "fetch", "--server", "--docs-base-url", up.URL)
		require.NoError(t, err)

		var got fetchOutput
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		assert.Equal(t, casestudy.StrategyCSVExport, got.Source)
		assert.Equal(t, 1, got.Count)
		assert.Equal(t, []string{"R1"}, got.CaseStudies[0].Results)
	})

	t.Run("everything down", func(t *testing.T) {
		out, err := execute(t, "fetch", "--site", down.URL, "--docs-base-url", down.URL)
		require.NoError(t, err)

		var got fetchOutput
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		assert.Equal(t, casestudy.SourceFallback, got.Source)
		assert.Equal(t, casestudy.Fallback(), got.CaseStudies)
		assert.Len(t, got.Failures, 5)
	})
}
