package api

import (
	"encoding/json"
	"net/http"
)

// Client-facing messages shared by several handlers.
const (
	msgInternal     = "Internal server error"
	msgInvalidBody  = "Invalid request body"
	msgUnauthorized = "Unauthorized"
	msgNoToken      = "Unauthorized: No token provided"
	msgInvalidToken = "Invalid token"
	msgForbidden    = "Access denied. Insufficient permissions."
	msgEmailTaken   = "Email already registered"
	msgBadLogin     = "Invalid email or password"
)

// errorBody is the response shape for every non-validation failure.
type errorBody struct {
	Error string `json:"error"`
}

// FieldError describes one rejected request field.
type FieldError struct {
	Type     string `json:"type"`
	Value    any    `json:"value,omitempty"`
	Msg      string `json:"msg"`
	Path     string `json:"path"`
	Location string `json:"location"`
}

// validationBody is the response shape for per-field validation failures.
type validationBody struct {
	Errors []FieldError `json:"errors"`
}

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes {"error": message}.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorBody{Error: message})
}

// writeValidationErrors writes {"errors": [...]} with status 400.
func writeValidationErrors(w http.ResponseWriter, errs []FieldError) {
	writeJSON(w, http.StatusBadRequest, validationBody{Errors: errs})
}

// writeBadRequest writes a 400 error response.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, message)
}

// writeUnauthorized writes a 401 error response.
func writeUnauthorized(w http.ResponseWriter, message string) {
	writeError(w, http.StatusUnauthorized, message)
}

// writeForbidden writes a 403 error response.
func writeForbidden(w http.ResponseWriter, message string) {
	writeError(w, http.StatusForbidden, message)
}

// writeNotFound writes a 404 error response.
func writeNotFound(w http.ResponseWriter, message string) {
	writeError(w, http.StatusNotFound, message)
}

// writeInternalError writes a 500 error response. Details belong in the log.
func writeInternalError(w http.ResponseWriter) {
	writeError(w, http.StatusInternalServerError, msgInternal)
}
