package domain

import "errors"

// Domain errors returned by services and repository implementations.

var (
	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrTreeNotFound indicates the specified tree does not exist.
	ErrTreeNotFound = errors.New("tree not found")

	// ErrZoneNotFound indicates the specified zone does not exist.
	ErrZoneNotFound = errors.New("zone not found")

	// ErrActivityNotFound indicates the specified activity log does not exist.
	ErrActivityNotFound = errors.New("activity log not found")

	// ErrInvalidID indicates the provided ID format is invalid.
	ErrInvalidID = errors.New("invalid ID format")

	// ErrUnauthorized indicates a missing, invalid or expired API key.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidAPIKeyFormat indicates a key that does not follow the
	// {type}-{service}-{version}-{short}-{secret} layout.
	ErrInvalidAPIKeyFormat = errors.New("invalid API key format")

	// ErrAPIKeyNotFound indicates no API key matches the short token.
	ErrAPIKeyNotFound = errors.New("API key not found")

	// ErrVersionConflict indicates the etag did not match the stored version.
	ErrVersionConflict = errors.New("version conflict")

	// ErrInvalidEtagFormat indicates an etag that is not a positive version number.
	ErrInvalidEtagFormat = errors.New("invalid etag format")
)

// Status and date errors.
var (
	// ErrInvalidTreeStatus indicates a status outside the expected closed set.
	ErrInvalidTreeStatus = errors.New("invalid tree status")

	// ErrInvalidActivityType indicates an activity type outside the known set.
	ErrInvalidActivityType = errors.New("invalid activity type")

	// ErrUnknownFormulation indicates a formulation code with no current equivalent.
	ErrUnknownFormulation = errors.New("unknown formulation code")

	// ErrInvalidFollowUpDate indicates a follow-up date that is not a calendar date.
	ErrInvalidFollowUpDate = errors.New("invalid follow-up date")
)

// Validation errors.
var (
	ErrValidation        = errors.New("validation failed")
	ErrTreeCodeRequired  = errors.New("tree code is required")
	ErrTreeCodeInvalid   = errors.New("tree code must be 1-32 characters of A-Z, 0-9 or '-'")
	ErrTreeCodeTaken     = errors.New("tree code already in use")
	ErrZoneNameRequired  = errors.New("zone name is required")
	ErrZoneNameTooLong   = errors.New("zone name must be 100 characters or less")
	ErrZoneNameTaken     = errors.New("zone name already in use")
	ErrZoneNotEmpty      = errors.New("zone still has trees assigned")
	ErrStatusRequired    = errors.New("status is required")
	ErrEmptyUpdateMask   = errors.New("update mask is empty")
	ErrUnknownField      = errors.New("unknown field in update mask")
	ErrFollowUpCompleted = errors.New("follow-up already completed")
	ErrNoFollowUp        = errors.New("activity has no follow-up date")
	ErrTooManyLabels     = errors.New("too many trees requested for one label sheet")
)
