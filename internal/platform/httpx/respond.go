// Package httpx provides JSON response utilities and the wire-level error
// vocabulary shared by every handler.
package httpx

import (
	"encoding/json"
	"net/http"
)

// Error codes exposed on the wire. The gate and the handlers reply with a
// structured body `{"error": <code>}` and nothing else.
const (
	CodeUnauthorized    = "unauthorized"
	CodeForbidden       = "forbidden"
	CodeNotFound        = "not_found"
	CodeTooManyRequests = "too_many_requests"
	CodeInternal        = "internal_error"
)

type errorBody struct {
	Error string `json:"error"`
}

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Error sends the structured error body for the given status and code.
func Error(w http.ResponseWriter, status int, code string) {
	JSON(w, status, errorBody{Error: code})
}

// DecodeJSON decodes JSON request body into the target struct.
func DecodeJSON(r *http.Request, target any) error {
	return json.NewDecoder(r.Body).Decode(target)
}
