package server

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"destinpq/internal/domain"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, s.health.Check(r.Context()))
}

func (s *Server) handleListCaseStudies(w http.ResponseWriter, r *http.Request) {
	studies, err := s.caseStudies.List(r.Context())
	if err != nil {
		s.writeError(w, r, err, "Failed to load case studies")
		return
	}
	s.writeJSON(w, r, http.StatusOK, studies)
}

func (s *Server) handleDirect(w http.ResponseWriter, r *http.Request) {
	res := s.caseStudies.Direct(r.Context())
	s.writeJSON(w, r, statusFor(res.Success), res)
}

func (s *Server) handleDebug(w http.ResponseWriter, r *http.Request) {
	res := s.caseStudies.Debug(r.Context())
	s.writeJSON(w, r, statusFor(res.Success), res)
}

func (s *Server) handleSheetsAlt(w http.ResponseWriter, r *http.Request) {
	res := s.caseStudies.SheetsAlt(r.Context())
	s.writeJSON(w, r, statusFor(res.Success), res)
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	if claims, ok := OperatorFromContext(r.Context()); ok {
		s.logger.Info("catalog sync requested", zap.String("operator", claims.Operator))
	}
	res, err := s.caseStudies.Sync(r.Context())
	if err != nil {
		s.writeError(w, r, err, "Failed to sync case studies")
		return
	}
	s.writeJSON(w, r, http.StatusOK, res)
}

func (s *Server) handleSendEmail(w http.ResponseWriter, r *http.Request) {
	// The body is JSON whatever Content-Type says.
	var req domain.EmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.logger.Warn("malformed send-email body", zap.Error(err))
		s.writeJSON(w, r, http.StatusInternalServerError, errorResponse{Error: "Internal server error"})
		return
	}

	res, err := s.support.SendSupportEmail(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err, "Internal server error")
		return
	}
	s.writeJSON(w, r, http.StatusOK, res)
}

func statusFor(success bool) int {
	if success {
		return http.StatusOK
	}
	return http.StatusInternalServerError
}
