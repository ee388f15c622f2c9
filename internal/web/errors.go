package web

// errors.go provides unified error response handling for the API.
//
// Handlers call respondError with whatever the service returned; the error is
// logged with full detail and the request ID, then mapped to a status code
// and a client-safe JSON body.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dlacroix/wmslite/internal/ingest"
	"github.com/dlacroix/wmslite/internal/service"
	"github.com/go-chi/chi/v5/middleware"
)

// ErrorResponse is the JSON structure for API error responses.
type ErrorResponse struct {
	Error   string   `json:"error"`
	Code    string   `json:"code"`
	Missing []string `json:"missing,omitempty"`
}

// respondError logs err with request context and writes the mapped JSON
// error response.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := mapError(err)

	slog.Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", resp.Code,
		"request_id", middleware.GetReqID(r.Context()),
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

// mapError translates service and engine errors into a status code and a
// client-safe response body.
func mapError(err error) (int, ErrorResponse) {
	var mapErr *ingest.MappingIncompleteError
	switch {
	case errors.As(err, &mapErr):
		missing := make([]string, len(mapErr.Missing))
		for i, f := range mapErr.Missing {
			missing[i] = string(f)
		}
		return http.StatusUnprocessableEntity, ErrorResponse{
			Error:   mapErr.Error(),
			Code:    "mapping_incomplete",
			Missing: missing,
		}
	case errors.Is(err, ingest.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType, ErrorResponse{
			Error: "unsupported file format: use .csv, .xlsx or .xls",
			Code:  "unsupported_format",
		}
	case errors.Is(err, ingest.ErrSpreadsheetCodec):
		return http.StatusNotImplemented, ErrorResponse{
			Error: "spreadsheet decoding is unavailable, upload CSV instead",
			Code:  "spreadsheet_codec_unavailable",
		}
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, ErrorResponse{
			Error: "not found",
			Code:  "not_found",
		}
	}
	return http.StatusInternalServerError, ErrorResponse{
		Error: "internal error",
		Code:  "internal",
	}
}

// writeError writes a bare JSON error response for failures that carry no
// service error, like malformed input.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message, Code: "bad_request"})
}

// writeJSON encodes v as JSON and writes it to w.
// Logs encoding errors since headers are already sent.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
