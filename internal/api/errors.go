package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/readtrackapp/readtrack-server/internal/errors"
	"github.com/readtrackapp/readtrack-server/internal/http/response"
)

// APIError implements huma.StatusError and renders as the error envelope.
type APIError struct { //nolint:revive // API prefix is intentional for clarity
	response.ErrorBody
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// GetStatus implements huma.StatusError.
func (e *APIError) GetStatus() int {
	return e.Status
}

// ContentType returns the content type for the error response.
func (e *APIError) ContentType(_ string) string {
	return "application/json"
}

// RegisterErrorHandler makes errors raised by huma itself, such as request
// validation failures, use the same envelope as domain errors.
func RegisterErrorHandler() {
	huma.NewError = func(status int, message string, errs ...error) huma.StatusError {
		for _, err := range errs {
			var domainErr *domainerrors.Error
			if errors.As(err, &domainErr) {
				return &APIError{response.Body(domainErr)}
			}
		}

		details := make(map[string]string)
		for _, err := range errs {
			var detail *huma.ErrorDetail
			if errors.As(err, &detail) {
				details[strings.TrimPrefix(detail.Location, "body.")] = detail.Message
			} else if err != nil {
				details[""] = err.Error()
			}
		}

		// Schema violations are the client's fault, same as InvalidInput.
		if status == http.StatusUnprocessableEntity {
			status = http.StatusBadRequest
		}

		body := response.ErrorBody{
			Status:  status,
			Code:    string(statusToCode(status)),
			Message: message,
		}
		if len(details) > 0 {
			body.Details = details
		}
		return &APIError{body}
	}
}

// statusToCode maps HTTP status codes to domain error codes.
func statusToCode(status int) domainerrors.Code {
	switch status {
	case http.StatusBadRequest:
		return domainerrors.CodeInvalidInput
	case http.StatusUnauthorized:
		return domainerrors.CodeUnauthorized
	case http.StatusForbidden:
		return domainerrors.CodeForbidden
	case http.StatusNotFound:
		return domainerrors.CodeNotFound
	case http.StatusConflict:
		return domainerrors.CodeConflict
	case http.StatusTooManyRequests:
		return domainerrors.CodeRateLimited
	default:
		return domainerrors.CodeInternal
	}
}

// register adds an operation whose handler errors are converted to
// envelopes with their domain status.
func register[I, O any](s *Server, op huma.Operation, handler func(context.Context, *I) (*O, error)) {
	huma.Register(s.api, op, func(ctx context.Context, input *I) (*O, error) {
		out, err := handler(ctx, input)
		if err != nil {
			return nil, s.toStatusError(ctx, op.OperationID, err)
		}
		return out, nil
	})
}

func (s *Server) toStatusError(ctx context.Context, operationID string, err error) huma.StatusError {
	var se huma.StatusError
	if errors.As(err, &se) {
		return se
	}

	body := response.Body(err)
	if body.Status >= http.StatusInternalServerError {
		s.logger.ErrorContext(ctx, "Request failed",
			"operation", operationID,
			"user_id", userIDFrom(ctx),
			"error", err)
	}
	return &APIError{body}
}
