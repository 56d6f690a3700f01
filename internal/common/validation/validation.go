// Package validation holds the ozzo-validation rules for incoming payloads.
package validation

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"accounts-backend/internal/features/user/models"
)

// ValidateCreateUser checks the registration payload. first_name,
// last_name, and email are required; email must be well-formed.
// Returns a validation.Errors map keyed by field name.
func ValidateCreateUser(req *models.CreateUserRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.FirstName,
			validation.Required.Error("first_name_required"),
			validation.Length(1, 64).Error("first_name_too_long"),
		),
		validation.Field(&req.LastName,
			validation.Required.Error("last_name_required"),
			validation.Length(1, 64).Error("last_name_too_long"),
		),
		validation.Field(&req.Email,
			validation.Required.Error("email_required"),
			is.Email.Error("invalid_email_format"),
		),
		validation.Field(&req.Age,
			validation.Min(0).Error("age_negative"),
		),
		validation.Field(&req.Password,
			validation.Required.Error("password_required"),
		),
	)
}

// Details converts a validation error into the AppError details map.
func Details(err error) map[string]interface{} {
	details := make(map[string]interface{})
	if errs, ok := err.(validation.Errors); ok {
		for field, fieldErr := range errs {
			details[field] = fieldErr.Error()
		}
		return details
	}
	details["error"] = err.Error()
	return details
}
