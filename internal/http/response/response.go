// Package response writes the JSON error envelope for failures raised
// outside typed handlers, such as authentication and rate limiting
// middleware.
package response

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	domainerrors "github.com/readtrackapp/readtrack-server/internal/errors"
)

// ErrorBody is the envelope every API error is rendered as.
type ErrorBody struct {
	Status  int    `json:"status" doc:"HTTP status code"`
	Code    string `json:"code" doc:"Machine-readable error code"`
	Message string `json:"message" doc:"Human-readable error message"`
	Details any    `json:"details,omitempty" doc:"Additional error details"`
}

// Body builds the envelope for err. Errors without a domain code render as
// an opaque internal error.
func Body(err error) ErrorBody {
	var domainErr *domainerrors.Error
	if domainerrors.As(err, &domainErr) {
		return ErrorBody{
			Status:  domainErr.HTTPStatus(),
			Code:    string(domainErr.Code),
			Message: domainErr.Message,
			Details: domainErr.Details,
		}
	}
	return ErrorBody{
		Status:  http.StatusInternalServerError,
		Code:    string(domainerrors.CodeInternal),
		Message: "internal server error",
	}
}

// JSON writes data with the given status code.
func JSON(w http.ResponseWriter, status int, data any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil && logger != nil {
		logger.Error("Failed to encode JSON response", "error", err)
	}
}

// Error writes the envelope for err. Internal failures are logged with
// their cause, which never reaches the client.
func Error(w http.ResponseWriter, err error, logger *slog.Logger) {
	body := Body(err)
	if body.Status >= http.StatusInternalServerError && logger != nil {
		logger.Error("Unhandled error", "error", err)
	}
	JSON(w, body.Status, body, logger)
}

// Unauthorized writes a 401 envelope.
func Unauthorized(w http.ResponseWriter, message string, logger *slog.Logger) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="readtrack"`)
	Error(w, domainerrors.Unauthorizedf("%s", message), logger)
}

// TooManyRequests writes a 429 envelope with a Retry-After hint in whole
// seconds.
func TooManyRequests(w http.ResponseWriter, retryAfter time.Duration, logger *slog.Logger) {
	seconds := int((retryAfter + time.Second - 1) / time.Second)
	w.Header().Set("Retry-After", strconv.Itoa(max(seconds, 1)))
	Error(w, domainerrors.ErrRateLimited.WithDetails(map[string]int{"retry_after_seconds": max(seconds, 1)}), logger)
}
