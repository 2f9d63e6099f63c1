package device

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

const (
	iPhoneUA  = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15"
	desktopUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 Chrome/120.0 Safari/537.36"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		ua     string
		cookie string
		want   Class
	}{
		{"iphone", iPhoneUA, "", Mobile},
		{"case insensitive", "some ANDROID browser", "", Mobile},
		{"opera mini", "Opera Mini/8.0", "", Mobile},
		{"desktop", desktopUA, "", Desktop},
		{"narrow viewport", desktopUA, "375", Mobile},
		{"viewport with unit", desktopUA, "500px", Mobile},
		{"breakpoint is desktop", desktopUA, "768", Desktop},
		{"wide viewport", desktopUA, "1440", Desktop},
		{"garbage cookie", desktopUA, "wide", Desktop},
		{"empty cookie", desktopUA, " ", Desktop},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.Header.Set("User-Agent", tt.ua)
			if tt.cookie != "" {
				r.AddCookie(&http.Cookie{Name: ViewportCookie, Value: tt.cookie})
			}
			assert.Equal(t, tt.want, Classify(r))
		})
	}
}

func TestMiddlewareRedirects(t *testing.T) {
	tests := []struct {
		name     string
		ua       string
		target   string
		status   int
		location string
	}{
		{"mobile to mobile tree", iPhoneUA, "/?utm=x", http.StatusTemporaryRedirect, "/mobile?utm=x"},
		{"mobile policy page", iPhoneUA, "/privacy-policy", http.StatusTemporaryRedirect, "/mobile"},
		{"mobile stays", iPhoneUA, "/mobile-app", http.StatusOK, ""},
		{"desktop leaves mobile tree", desktopUA, "/mobile?a=1&b=2", http.StatusTemporaryRedirect, "/?a=1&b=2"},
		{"desktop stays", desktopUA, "/terms-and-conditions", http.StatusOK, ""},
		{"api excluded", iPhoneUA, "/api/case-studies", http.StatusOK, ""},
		{"image excluded", iPhoneUA, "/images/logo.png", http.StatusOK, ""},
		{"next static excluded", iPhoneUA, "/_next/static/chunks/app.js", http.StatusOK, ""},
		{"health excluded", iPhoneUA, "/health", http.StatusOK, ""},
		{"favicon excluded", iPhoneUA, "/favicon.ico", http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen Class = -1
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = FromContext(r.Context())
			})
			h := Middleware(zaptest.NewLogger(t))(next)

			r := httptest.NewRequest(http.MethodGet, tt.target, nil)
			r.Header.Set("User-Agent", tt.ua)
			w := httptest.NewRecorder()
			h.ServeHTTP(w, r)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.location, w.Header().Get("Location"))
			if tt.status == http.StatusOK {
				assert.Equal(t, Classify(r), seen, "class is stored in the request context")
			}
		})
	}
}

func TestFromContextDefaultsToDesktop(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, Desktop, FromContext(r.Context()))
	assert.Equal(t, Mobile, FromContext(WithClass(r.Context(), Mobile)))
}
