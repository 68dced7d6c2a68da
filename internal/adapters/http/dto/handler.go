package dto

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/taxonomy-service/internal/domain"
)

// TraceIDKey is the gin context key under which middleware stores the trace ID.
const TraceIDKey = "trace_id"

// GetTraceID extracts the trace ID from the gin context. It prefers the value
// set by middleware and falls back to the X-Request-ID header.
func GetTraceID(c *gin.Context) string {
	if value, exists := c.Get(TraceIDKey); exists {
		if traceID, ok := value.(string); ok {
			return traceID
		}

		return ""
	}

	return c.GetHeader("X-Request-ID")
}

// HandleError maps a domain error to an HTTP error response and writes it.
// Unknown errors become a 500 with a generic message so internals do not leak.
func HandleError(c *gin.Context, err error) {
	status, resp := errorResponseFor(err)
	c.JSON(status, resp.WithTraceID(GetTraceID(c)))
}

// errorResponseFor builds the status code and response body for a domain error.
func errorResponseFor(err error) (int, *ErrorResponse) {
	switch {
	case domain.IsNotFound(err):
		return http.StatusNotFound, NewErrorResponse(ErrorCodeNotFound, err.Error())

	case domain.IsConflict(err):
		return http.StatusConflict, NewErrorResponse(ErrorCodeConflict, err.Error())

	case domain.IsValidation(err):
		resp := NewErrorResponse(ErrorCodeValidation, err.Error())

		var validationErr *domain.ValidationError
		if errors.As(err, &validationErr) && validationErr.Field != "" {
			resp.Error.Details = map[string]string{
				validationErr.Field: validationErr.Message,
			}
		}

		return http.StatusBadRequest, resp

	case domain.IsCycle(err):
		return http.StatusUnprocessableEntity, NewErrorResponse(ErrorCodeCycle, err.Error())

	case domain.IsUnavailable(err):
		return http.StatusServiceUnavailable, NewErrorResponse(ErrorCodeUnavailable, err.Error())

	default:
		return http.StatusInternalServerError, NewErrorResponse(
			ErrorCodeInternal,
			"an internal error occurred",
		)
	}
}
