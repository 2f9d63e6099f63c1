// Package device classifies requests as mobile or desktop and keeps each
// class on its own page tree.
package device

import (
	"context"
	"net/http"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"destinpq/internal/metrics"
)

const (
	// ViewportCookie carries the client-reported viewport width in pixels.
	ViewportCookie = "viewport-width"
	// MobileBreakpoint is the widest viewport treated as mobile, exclusive.
	MobileBreakpoint = 768

	MobileRoot  = "/mobile"
	DesktopRoot = "/"
)

var mobileUA = regexp.MustCompile(`(?i)Android|webOS|iPhone|iPad|iPod|BlackBerry|IEMobile|Opera Mini`)

// Class is the device class of a request.
type Class int

const (
	Desktop Class = iota
	Mobile
)

func (c Class) String() string {
	if c == Mobile {
		return "mobile"
	}
	return "desktop"
}

type contextKey struct{}

// WithClass stores c in ctx.
func WithClass(ctx context.Context, c Class) context.Context {
	return context.WithValue(ctx, contextKey{}, c)
}

// FromContext returns the class stored by Middleware, or Desktop.
func FromContext(ctx context.Context) Class {
	c, _ := ctx.Value(contextKey{}).(Class)
	return c
}

// Classify decides the device class from the user agent and the viewport
// cookie.
func Classify(r *http.Request) Class {
	if mobileUA.MatchString(r.UserAgent()) {
		return Mobile
	}
	if cookie, err := r.Cookie(ViewportCookie); err == nil {
		if width, ok := leadingInt(cookie.Value); ok && width < MobileBreakpoint {
			return Mobile
		}
	}
	return Desktop
}

// leadingInt reads an optionally signed decimal prefix, ignoring leading
// whitespace and any trailing text ("375px" is 375).
func leadingInt(s string) (int, bool) {
	s = strings.TrimLeft(s, " \t\n\r")
	neg := false
	if s != "" && (s[0] == '-' || s[0] == '+') {
		neg = s[0] == '-'
		s = s[1:]
	}
	n, digits := 0, 0
	for _, ch := range s {
		if ch < '0' || ch > '9' {
			break
		}
		if n < 1<<30 {
			n = n*10 + int(ch-'0')
		}
		digits++
	}
	if digits == 0 {
		return 0, false
	}
	if neg {
		n = -n
	}
	return n, true
}

var (
	excludedPrefixes = []string{"/api", "/_next/static", "/_next/image", "/static", "/favicon.ico", "/metrics", "/health"}
	excludedSuffixes = []string{".png", ".svg", ".jpg", ".jpeg", ".gif"}
)

// Excluded reports whether path bypasses device routing.
func Excluded(path string) bool {
	for _, p := range excludedPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	for _, s := range excludedSuffixes {
		if strings.HasSuffix(path, s) {
			return true
		}
	}
	return false
}

// Target returns where a request of class c for path belongs, or "" when it
// is already on the right tree.
func Target(c Class, path string) string {
	onMobile := strings.HasPrefix(path, MobileRoot)
	switch {
	case c == Mobile && !onMobile:
		return MobileRoot
	case c == Desktop && onMobile:
		return DesktopRoot
	}
	return ""
}

// Middleware classifies every request once, stores the class in the request
// context and redirects page requests that are on the wrong tree with a 307.
// The query string survives the redirect.
func Middleware(logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("device")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			class := Classify(r)
			r = r.WithContext(WithClass(r.Context(), class))

			if Excluded(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			target := Target(class, r.URL.Path)
			if target == "" {
				next.ServeHTTP(w, r)
				return
			}

			u := *r.URL
			u.Path = target
			u.RawPath = ""
			metrics.RecordDeviceRedirect(class.String())
			logger.Debug("redirecting to device tree",
				zap.String("from", r.URL.Path),
				zap.String("to", target),
				zap.Stringer("class", class),
			)
			http.Redirect(w, r, u.RequestURI(), http.StatusTemporaryRedirect)
		})
	}
}
