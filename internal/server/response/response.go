// Package response provides the envelope every servicemap API endpoint
// answers with: a data field on success and an error field on failure.
package response

import (
	"encoding/json"
	"net/http"

	"github.com/agentstation/servicemap/pkg/errors"
)

// Response is the API envelope.
type Response struct {
	Data  any    `json:"data"`
	Error *Error `json:"error"`
}

// Error is an API error with a stable code.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Success creates a successful response with data.
func Success(data any) Response {
	return Response{Data: data}
}

// Fail creates an error response.
func Fail(code, message, details string) Response {
	return Response{
		Error: &Error{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

// JSON writes resp with the given status code.
func JSON(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// Raw writes an already encoded data payload inside the envelope. It is used
// to serve cached search results without decoding them first.
func Raw(w http.ResponseWriter, status int, data json.RawMessage) {
	JSON(w, status, Success(data))
}

// OK writes a successful response with 200 status.
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, Success(data))
}

// BadRequest writes a 400 error response.
func BadRequest(w http.ResponseWriter, message, details string) {
	JSON(w, http.StatusBadRequest, Fail("BAD_REQUEST", message, details))
}

// NotFound writes a 404 error response.
func NotFound(w http.ResponseWriter, message, details string) {
	JSON(w, http.StatusNotFound, Fail("NOT_FOUND", message, details))
}

// MethodNotAllowed writes a 405 error response.
func MethodNotAllowed(w http.ResponseWriter, method string) {
	JSON(w, http.StatusMethodNotAllowed, Fail(
		"METHOD_NOT_ALLOWED",
		"Method not allowed",
		"Method "+method+" is not supported for this endpoint",
	))
}

// RateLimited writes a 429 error response.
func RateLimited(w http.ResponseWriter, message string) {
	JSON(w, http.StatusTooManyRequests, Fail("RATE_LIMITED", "Rate limit exceeded", message))
}

// InternalError writes a 500 error response. The error itself is not
// exposed to the client.
func InternalError(w http.ResponseWriter, _ error) {
	JSON(w, http.StatusInternalServerError, Fail(
		"INTERNAL_ERROR",
		"Internal server error",
		"An unexpected error occurred",
	))
}

// ServiceUnavailable writes a 503 error response.
func ServiceUnavailable(w http.ResponseWriter, message string) {
	JSON(w, http.StatusServiceUnavailable, Fail("SERVICE_UNAVAILABLE", "Service unavailable", message))
}

// GatewayTimeout writes a 504 error response.
func GatewayTimeout(w http.ResponseWriter, message string) {
	JSON(w, http.StatusGatewayTimeout, Fail("TIMEOUT", "Request timed out", message))
}

// ErrorFromType maps typed servicemap errors to HTTP responses.
func ErrorFromType(w http.ResponseWriter, err error) {
	var (
		validation *errors.ValidationError
		parse      *errors.ParseError
		notFound   *errors.NotFoundError
		invariant  *errors.InvariantError
		config     *errors.ConfigError
	)
	switch {
	case errors.As(err, &validation):
		BadRequest(w, validation.Error(), "")
	case errors.As(err, &parse):
		BadRequest(w, "Malformed request", parse.Error())
	case errors.As(err, &notFound):
		NotFound(w, notFound.Error(), "")
	case errors.As(err, &invariant):
		JSON(w, http.StatusInternalServerError, Fail("INVARIANT_VIOLATION", "Catalog returned an invalid record", invariant.Error()))
	case errors.As(err, &config):
		ServiceUnavailable(w, config.Error())
	case errors.IsRateLimited(err):
		RateLimited(w, err.Error())
	case errors.IsTimeout(err):
		GatewayTimeout(w, err.Error())
	case errors.IsSourceUnavailable(err):
		ServiceUnavailable(w, err.Error())
	default:
		InternalError(w, err)
	}
}
