package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	nethttpmiddleware "github.com/oapi-codegen/nethttp-middleware"

	"github.com/suanview/orchard/internal/infrastructure/http/response"
)

// ValidationConfig holds configuration for the OpenAPI validation middleware.
type ValidationConfig struct {
	// MultiError when true collects all validation errors instead of stopping at first.
	MultiError bool
}

// NewValidator creates OpenAPI request validation middleware.
// The middleware validates incoming requests against the OpenAPI spec,
// returning 400 Bad Request for invalid requests.
//
// Note: Authentication is handled separately by Auth middleware,
// so we skip OpenAPI security validation here.
func NewValidator(spec *openapi3.T, config ValidationConfig) func(http.Handler) http.Handler {
	// Set base path to /api without host validation
	// This matches our router mounting at /api
	spec.Servers = openapi3.Servers{
		{URL: "/api"},
	}

	opts := &nethttpmiddleware.Options{
		Options: openapi3filter.Options{
			MultiError: config.MultiError,
			// Skip authentication validation - handled by Auth middleware
			AuthenticationFunc: func(_ context.Context, _ *openapi3filter.AuthenticationInput) error {
				return nil
			},
		},
		ErrorHandlerWithOpts:  validationErrorHandler,
		SilenceServersWarning: true, // We use relative path /api, not full host
	}

	return nethttpmiddleware.OapiRequestValidatorWithOptions(spec, opts)
}

// validationErrorHandler formats validation errors as JSON responses using the standard ErrorResponse format.
// Parses OpenAPI validation errors to extract field-specific details.
func validationErrorHandler(ctx context.Context, err error, w http.ResponseWriter, r *http.Request, opts nethttpmiddleware.ErrorHandlerOpts) {
	// Parse validation error to extract field details
	details := parseValidationError(err)

	// Log validation failure with field details
	slog.WarnContext(ctx, "request validation failed",
		"path", r.URL.Path,
		"method", r.Method,
		"invalid_field_count", len(details),
		"error", err.Error())

	switch opts.StatusCode {
	case http.StatusNotFound:
		response.NotFound(w, "route")
	case http.StatusMethodNotAllowed:
		response.Error(w, "METHOD_NOT_ALLOWED", "method not allowed", http.StatusMethodNotAllowed)
	default:
		response.ValidationErrors(w, details)
	}
}

// parseValidationError extracts field-specific details from OpenAPI validation errors.
// Returns an empty array if no specific fields can be extracted.
func parseValidationError(err error) []response.ErrorField {
	details := []response.ErrorField{}
	if err != nil {
		collectDetails(err, &details)
	}
	return details
}

func collectDetails(err error, out *[]response.ErrorField) {
	switch e := err.(type) {
	case openapi3.MultiError:
		for _, inner := range e {
			collectDetails(inner, out)
		}
	case *openapi3filter.RequestError:
		if e.Parameter != nil {
			*out = append(*out, response.ErrorField{Field: e.Parameter.Name, Issue: requestIssue(e)})
			return
		}
		if e.Err == nil {
			*out = append(*out, response.ErrorField{Field: "body", Issue: requestIssue(e)})
			return
		}
		collectSchemaDetails(e.Err, out)
	case *openapi3.SchemaError:
		collectSchemaDetails(e, out)
	default:
		// Errors flattened to strings by the middleware keep only their first line.
		issue, _, _ := strings.Cut(err.Error(), "\n")
		*out = append(*out, response.ErrorField{Field: "request", Issue: issue})
	}
}

// collectSchemaDetails reports body schema errors under their JSON path, e.g. "update_mask.0".
func collectSchemaDetails(err error, out *[]response.ErrorField) {
	switch e := err.(type) {
	case openapi3.MultiError:
		for _, inner := range e {
			collectSchemaDetails(inner, out)
		}
	case *openapi3.SchemaError:
		field := "body"
		if path := e.JSONPointer(); len(path) > 0 {
			field = strings.Join(path, ".")
		}
		*out = append(*out, response.ErrorField{Field: field, Issue: e.Reason})
	default:
		*out = append(*out, response.ErrorField{Field: "body", Issue: err.Error()})
	}
}

func requestIssue(e *openapi3filter.RequestError) string {
	if schemaErr, ok := e.Err.(*openapi3.SchemaError); ok {
		return schemaErr.Reason
	}
	if e.Reason != "" {
		return e.Reason
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "invalid request"
}
