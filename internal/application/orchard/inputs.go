package orchard

import (
	"errors"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/suanview/orchard/internal/domain"
)

// CreateZoneInput is the input for creating a zone.
type CreateZoneInput struct {
	Name        string
	Description string
}

// Validate checks field lengths. Name rules live in domain.NewZoneName.
func (in CreateZoneInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Description, validation.RuneLength(0, 500)),
	)
}

// CreateTreeInput is the input for registering a tree.
// Status is in the persisted vocabulary; an empty status defaults to HEALTHY.
type CreateTreeInput struct {
	Code      string
	ZoneID    *string
	Variety   string
	Status    domain.TreeStatus
	PlantedAt *time.Time
	Notes     string
}

// Validate checks the free-text fields and the status.
// Code rules live in domain.NewTreeCode.
func (in CreateTreeInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Variety, validation.RuneLength(0, 100)),
		validation.Field(&in.Notes, validation.RuneLength(0, 2000)),
		validation.Field(&in.Status, validation.By(func(value any) error {
			s, _ := value.(domain.TreeStatus)
			if s != "" && !domain.IsValidTreeStatus(string(s)) {
				return validation.NewError("orchard.tree.status_invalid", "must be a stored tree status")
			}
			return nil
		})),
	)
}

// RecordActivityInput is the input for recording work done on a tree.
// FollowUpDate accepts any parseable date and is stored as YYYY-MM-DD.
type RecordActivityInput struct {
	TreeID       string
	Type         string
	PerformedAt  *time.Time
	Product      string
	Formulation  string
	Dosage       string
	Note         string
	FollowUpDate string
}

// Validate checks required fields and lengths.
// Spraying and fertilizing must name the product that was applied.
func (in RecordActivityInput) Validate() error {
	activityType, typeErr := domain.NewActivityType(in.Type)

	return validation.ValidateStruct(&in,
		validation.Field(&in.TreeID, validation.Required),
		validation.Field(&in.Type, validation.Required, validation.By(func(any) error {
			if typeErr != nil {
				return validation.NewError("orchard.activity.type_invalid", "must be a known activity type")
			}
			return nil
		})),
		validation.Field(&in.Product,
			validation.When(typeErr == nil && activityType.UsesChemicals(), validation.Required),
			validation.RuneLength(0, 200),
		),
		validation.Field(&in.Dosage, validation.RuneLength(0, 100)),
		validation.Field(&in.Note, validation.RuneLength(0, 2000)),
	)
}

// wrapValidation turns ozzo validation errors into domain.ErrValidation
// while keeping the field errors reachable through errors.As.
func wrapValidation(err error) error {
	if err == nil {
		return nil
	}
	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %w", domain.ErrValidation, fieldErrs)
	}
	return err
}
