package shared

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/chengzhnag/taskboard/internal/redact"
)

// SuccessResponse is the envelope used by the task and mail endpoints:
// {"success": true, "message": ..., "result": ...}.
type SuccessResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Result  interface{} `json:"result,omitempty"`
}

// StatusResponse is the envelope used by the /api content endpoints:
// {"status": "ok", "data": ...}.
type StatusResponse struct {
	Status string      `json:"status"`
	Data   interface{} `json:"data,omitempty"`
}

// ErrorResponse defines the standard error envelope:
// {"status": "error", "message": ...}.
type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Code    int    `json:"-"` // Not serialized, used for logging
	TraceID string `json:"trace_id,omitempty"`
	Detail  any    `json:"detail,omitempty"`
}

// RespondWithJSON writes a JSON response with the given status code and data.
func RespondWithJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// RespondWithSuccess writes the {"success":true,...} envelope with 200 OK.
func RespondWithSuccess(w http.ResponseWriter, r *http.Request, message string, result interface{}) {
	RespondWithJSON(w, r, http.StatusOK, SuccessResponse{
		Success: true,
		Message: message,
		Result:  result,
	})
}

// RespondWithData writes the {"status":"ok","data":...} envelope.
func RespondWithData(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	RespondWithJSON(w, r, status, StatusResponse{
		Status: "ok",
		Data:   data,
	})
}

// RespondWithError writes a JSON error response with the given status code
// and message. It also sets the TraceID from the request context if available.
func RespondWithError(w http.ResponseWriter, r *http.Request, status int, message string) {
	RespondWithErrorDetail(w, r, status, message, nil)
}

// RespondWithErrorDetail writes a JSON error response carrying additional
// structured detail, such as the per-item breakdown of a batch failure.
func RespondWithErrorDetail(
	w http.ResponseWriter,
	r *http.Request,
	status int,
	message string,
	detail any,
) {
	traceID := GetTraceID(r.Context())

	slog.Debug("sending error response",
		"status_code", status,
		"message", message,
		"trace_id", traceID,
		"path", r.URL.Path,
		"method", r.Method)

	RespondWithJSON(w, r, status, ErrorResponse{
		Status:  "error",
		Message: message,
		Code:    status,
		TraceID: traceID,
		Detail:  detail,
	})
}

// RespondWithErrorAndLog writes a JSON error response and also logs the
// detailed error. The full error is logged (redacted); only the sanitized
// message reaches the client. 5xx errors log at ERROR level, 4xx at DEBUG.
func RespondWithErrorAndLog(
	w http.ResponseWriter,
	r *http.Request,
	status int,
	userMessage string,
	err error,
) {
	traceID := GetTraceID(r.Context())

	logAttrs := []slog.Attr{
		slog.String("trace_id", traceID),
		slog.String("path", r.URL.Path),
		slog.String("method", r.Method),
		slog.Int("status_code", status),
		slog.String("user_message", userMessage),
	}

	if err != nil {
		logAttrs = append(logAttrs,
			slog.String("error", redact.Error(err)),
			slog.String("error_type", fmt.Sprintf("%T", err)))
	}

	logLevel := slog.LevelDebug
	if status >= http.StatusInternalServerError {
		logLevel = slog.LevelError
	}

	slog.LogAttrs(r.Context(), logLevel, "API error response", logAttrs...)

	RespondWithJSON(w, r, status, ErrorResponse{
		Status:  "error",
		Message: userMessage,
		Code:    status,
		TraceID: traceID,
	})
}
