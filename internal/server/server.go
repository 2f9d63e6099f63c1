// Package server exposes the site's HTTP surface: the case-study and email
// APIs, the chat websocket, the pages, health and metrics.
package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	goahttp "goa.design/goa/v3/http"
	"goa.design/goa/v3/http/middleware"

	"destinpq/internal/chatbot"
	"destinpq/internal/config"
	"destinpq/internal/device"
	"destinpq/internal/metrics"
	"destinpq/internal/services"
	"destinpq/internal/web"
)

// Options holds the server's dependencies.
type Options struct {
	Config      *config.Config
	CaseStudies *services.CaseStudyService
	Support     *services.SupportService
	Health      *services.HealthService
	Pages       *web.Renderer
	Logger      *zap.Logger
}

// Server routes requests to the services.
type Server struct {
	cfg         *config.Config
	caseStudies *services.CaseStudyService
	support     *services.SupportService
	health      *services.HealthService
	pages       *web.Renderer
	logger      *zap.Logger
	chat        *chatHub
}

// New creates a server.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		cfg:         opts.Config,
		caseStudies: opts.CaseStudies,
		support:     opts.Support,
		health:      opts.Health,
		pages:       opts.Pages,
		logger:      logger,
	}
	s.chat = newChatHub(func() *chatbot.Bot {
		var notifier chatbot.Notifier
		if s.support != nil {
			notifier = s.support
		}
		return chatbot.New(chatbot.Options{
			TypingDelay: s.cfg.Chat.TypingDelay,
			Notifier:    notifier,
			Logger:      logger,
		})
	}, logger)
	return s
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := goahttp.NewMuxer()
	s.mount(mux)

	metricsHandler := promhttp.Handler()
	var root http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			metricsHandler.ServeHTTP(w, r)
			return
		}
		mux.ServeHTTP(w, r)
	})

	// Device -> Prometheus -> Logging -> Request context -> CORS -> Security
	root = device.Middleware(s.logger)(root)
	root = metrics.PrometheusMiddleware(root)
	root = requestLogging(root, s.logger)
	root = middleware.PopulateRequestContext()(root)
	root = middleware.RequestID()(root)
	return securityHeaders(cors(root, s.cfg), s.cfg)
}

func (s *Server) mount(mux goahttp.Muxer) {
	mux.Handle(http.MethodGet, "/health", s.handleHealth)

	mux.Handle(http.MethodGet, "/api/case-studies", s.handleListCaseStudies)
	mux.Handle(http.MethodGet, "/api/case-studies/direct", s.handleDirect)
	mux.Handle(http.MethodGet, "/api/case-studies/debug", s.handleDebug)
	mux.Handle(http.MethodPost, "/api/case-studies/sync", s.operatorAuth(s.handleSync))
	mux.Handle(http.MethodGet, "/api/google-sheets-alt", s.handleSheetsAlt)
	mux.Handle(http.MethodPost, "/api/send-email", s.handleSendEmail)
	mux.Handle(http.MethodGet, "/api/chat", s.chat.serve)

	if s.pages != nil {
		for _, p := range web.Pages {
			mux.Handle(http.MethodGet, p.Path, s.pages.Handler(p))
		}
	}
}

// Close waits for open chat sessions to finish.
func (s *Server) Close() {
	s.chat.close()
}
