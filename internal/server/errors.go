package server

import (
	"encoding/json"
	"net/http"

	"github.com/matzehuels/scadkit/pkg/errors"
)

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error     errorDetail `json:"error"`
	RequestID string      `json:"request_id,omitempty"`
}

// StatusCode maps an error code to an HTTP status.
func StatusCode(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidOutline, errors.ErrCodeInvalidShape,
		errors.ErrCodeInvalidTransform, errors.ErrCodeInvalidFormat, errors.ErrCodeInvalidScene:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case errors.ErrCodeEngineUnavailable:
		return http.StatusServiceUnavailable
	case errors.ErrCodeEngineFailed:
		return http.StatusBadGateway
	case errors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

// writeError answers with the coded JSON error body. Uncoded errors are
// reported as INTERNAL_ERROR without leaking their text.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := errors.GetCode(err)
	msg := errors.UserMessage(err)
	if code == "" {
		code = errors.ErrCodeInternal
		msg = "internal error"
	}
	status := StatusCode(code)
	if status >= 500 {
		s.logger.Error("request failed", "code", code, "error", err, "request_id", RequestIDFromContext(r.Context()))
	} else {
		s.logger.Debug("request rejected", "code", code, "error", err)
	}
	writeJSON(w, r, status, errorBody(r, string(code), msg))
}

func errorBody(r *http.Request, code, msg string) errorResponse {
	return errorResponse{
		Error:     errorDetail{Code: code, Message: msg},
		RequestID: RequestIDFromContext(r.Context()),
	}
}

func writeJSON(w http.ResponseWriter, _ *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
