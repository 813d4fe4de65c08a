// Package response writes JSON success and error bodies in the API's standard envelope.
package response

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/suanview/orchard/internal/domain"
	"github.com/suanview/orchard/internal/followup"
)

// encodeFailureJSON is returned when a response body cannot be marshaled.
const encodeFailureJSON = `{"error":{"code":"INTERNAL_ERROR","message":"failed to encode response","details":[]}}`

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Details []ErrorField `json:"details"` // Always an array, never null
}

// ErrorField describes a field-specific error.
type ErrorField struct {
	Field string `json:"field"`
	Issue string `json:"issue"`
}

// writeJSON marshals data before touching the response so a failure can still become a 500.
func writeJSON(w http.ResponseWriter, status int, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		slog.Error("Failed to encode response", "error", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(encodeFailureJSON))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// OK sends a 200 OK response with JSON data.
func OK(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, data)
}

// Created sends a 201 Created response with JSON data.
func Created(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusCreated, data)
}

// NoContent sends a 204 No Content response.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Error sends a generic error response.
func Error(w http.ResponseWriter, code, message string, statusCode int) {
	writeJSON(w, statusCode, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
			Details: []ErrorField{},
		},
	})
}

// BadRequest sends a 400 Bad Request error.
func BadRequest(w http.ResponseWriter, message string) {
	Error(w, "INVALID_REQUEST", message, http.StatusBadRequest)
}

// ValidationError sends a 400 validation error with a single field detail.
func ValidationError(w http.ResponseWriter, field, issue string) {
	ValidationErrors(w, []ErrorField{{Field: field, Issue: issue}})
}

// ValidationErrors sends a 400 validation error with field details.
func ValidationErrors(w http.ResponseWriter, details []ErrorField) {
	if details == nil {
		details = []ErrorField{}
	}
	writeJSON(w, http.StatusBadRequest, ErrorResponse{
		Error: ErrorDetail{
			Code:    "VALIDATION_ERROR",
			Message: "validation failed",
			Details: details,
		},
	})
}

// NotFound sends a 404 Not Found error.
func NotFound(w http.ResponseWriter, resource string) {
	Error(w, "NOT_FOUND", resource+" not found", http.StatusNotFound)
}

// Unauthorized sends a 401 Unauthorized error.
func Unauthorized(w http.ResponseWriter, message string) {
	Error(w, "UNAUTHORIZED", message, http.StatusUnauthorized)
}

// Conflict sends a 409 Conflict error.
func Conflict(w http.ResponseWriter, message string) {
	Error(w, "CONFLICT", message, http.StatusConflict)
}

// InternalError sends a 500 Internal Server Error.
// The error is logged server-side; the client only gets a generic message.
func InternalError(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil {
		slog.ErrorContext(r.Context(), "Internal server error", "error", err)
	}
	Error(w, "INTERNAL_ERROR", "an internal error occurred", http.StatusInternalServerError)
}

// fieldErrors maps single-field domain errors to their field and issue.
var fieldErrors = []struct {
	err   error
	field string
	issue string
}{
	{domain.ErrTreeCodeRequired, "code", "required field missing"},
	{domain.ErrTreeCodeInvalid, "code", "must be 1-32 characters of A-Z, 0-9 or '-'"},
	{domain.ErrZoneNameRequired, "name", "required field missing"},
	{domain.ErrZoneNameTooLong, "name", "must be 100 characters or less"},
	{domain.ErrStatusRequired, "status", "required field missing"},
	{domain.ErrInvalidTreeStatus, "status", "invalid tree status"},
	{domain.ErrInvalidActivityType, "type", "invalid activity type"},
	{domain.ErrUnknownFormulation, "formulation", "unknown formulation code"},
	{domain.ErrInvalidFollowUpDate, "follow_up_date", "invalid date"},
	{followup.ErrInvalidDate, "date", "invalid date"},
	{domain.ErrEmptyUpdateMask, "update_mask", "must not be empty"},
	{domain.ErrUnknownField, "update_mask", "unknown field"},
	{domain.ErrInvalidEtagFormat, "etag", "invalid etag format"},
	{domain.ErrInvalidID, "id", "invalid ID format"},
	{domain.ErrTooManyLabels, "tree_ids", "too many trees for one label sheet"},
}

// FromDomainError maps domain errors to HTTP responses.
func FromDomainError(w http.ResponseWriter, r *http.Request, err error) {
	// Field-level validation errors from service inputs (400)
	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		ValidationErrors(w, validationDetails(fieldErrs))
		return
	}

	for _, fe := range fieldErrors {
		if errors.Is(err, fe.err) {
			ValidationError(w, fe.field, fe.issue)
			return
		}
	}

	switch {
	case errors.Is(err, domain.ErrValidation):
		Error(w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)

	// Not found errors (404)
	case errors.Is(err, domain.ErrZoneNotFound):
		NotFound(w, "zone")
	case errors.Is(err, domain.ErrTreeNotFound):
		NotFound(w, "tree")
	case errors.Is(err, domain.ErrActivityNotFound):
		NotFound(w, "activity log")
	case errors.Is(err, domain.ErrNotFound):
		NotFound(w, "resource")

	// Auth errors (401)
	case errors.Is(err, domain.ErrUnauthorized):
		Unauthorized(w, "invalid or missing API key")

	// Conflicts (409)
	case errors.Is(err, domain.ErrVersionConflict):
		Conflict(w, err.Error())
	case errors.Is(err, domain.ErrTreeCodeTaken),
		errors.Is(err, domain.ErrZoneNameTaken),
		errors.Is(err, domain.ErrZoneNotEmpty),
		errors.Is(err, domain.ErrFollowUpCompleted),
		errors.Is(err, domain.ErrNoFollowUp):
		Conflict(w, err.Error())

	// Unknown errors (500)
	default:
		InternalError(w, r, err)
	}
}

// validationDetails flattens ozzo field errors into sorted details.
func validationDetails(errs validation.Errors) []ErrorField {
	details := make([]ErrorField, 0, len(errs))
	for field, err := range errs {
		details = append(details, ErrorField{Field: jsonField(field), Issue: err.Error()})
	}
	sort.Slice(details, func(i, j int) bool { return details[i].Field < details[j].Field })
	return details
}

// jsonFieldNames maps the Go field names ozzo reports to their JSON names.
var jsonFieldNames = map[string]string{
	"Name":         "name",
	"Description":  "description",
	"Code":         "code",
	"ZoneID":       "zone_id",
	"Variety":      "variety",
	"Status":       "status",
	"PlantedAt":    "planted_at",
	"Notes":        "notes",
	"TreeID":       "tree_id",
	"Type":         "type",
	"PerformedAt":  "performed_at",
	"Product":      "product",
	"Formulation":  "formulation",
	"Dosage":       "dosage",
	"Note":         "note",
	"FollowUpDate": "follow_up_date",
}

func jsonField(name string) string {
	if n, ok := jsonFieldNames[name]; ok {
		return n
	}
	return name
}
