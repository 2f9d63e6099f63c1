package server

import (
	"context"
	"net/http"

	"go.uber.org/zap"
	goahttp "goa.design/goa/v3/http"

	"destinpq/internal/services"
)

// errorResponse is the body of every failed API call.
type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// writeJSON always answers JSON whatever the Accept header asks for.
func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	ctx := context.WithValue(r.Context(), goahttp.ContentTypeKey, "application/json")
	enc := goahttp.ResponseEncoder(ctx, w)
	w.WriteHeader(status)
	if err := enc.Encode(v); err != nil {
		s.logger.Warn("failed to encode response", zap.String("path", r.URL.Path), zap.Error(err))
	}
}

// writeError maps a service error to its status and public message.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status := services.StatusOf(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	}
	s.writeJSON(w, r, status, errorResponse{Error: services.PublicMessage(err, fallback)})
}
