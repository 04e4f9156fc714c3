package util

import (
	"net/http"

	openapierrors "github.com/go-openapi/errors"
	"github.com/go-openapi/strfmt"
	"github.com/go-openapi/swag"
	"github.com/labstack/echo/v4"
	"github/chapool/gas-relay/internal/api/httperrors"
	"github/chapool/gas-relay/internal/types"
)

// Validatable is implemented by all payload and response types.
type Validatable interface {
	Validate(formats strfmt.Registry) error
}

// BindAndValidateBody binds the request body to v and runs its validation,
// returning a public validation error on failure.
func BindAndValidateBody(c echo.Context, v Validatable) error {
	binder := new(echo.DefaultBinder)
	if err := binder.BindBody(c, v); err != nil {
		return err
	}

	return validatePayload(c, v)
}

// ValidateAndReturn validates the response payload and writes it as JSON.
// An invalid response payload is a server-side bug, not a client error.
func ValidateAndReturn(c echo.Context, code int, v Validatable) error {
	if err := v.Validate(strfmt.Default); err != nil {
		return err
	}

	return c.JSON(code, v)
}

func validatePayload(c echo.Context, v Validatable) error {
	err := v.Validate(strfmt.Default)
	if err == nil {
		return nil
	}

	var details []*types.HTTPValidationErrorDetail

	switch e := err.(type) {
	case *openapierrors.CompositeError:
		LogFromEchoContext(c).Debug().Errs("validation_errors", e.Errors).Msg("Payload did match fields, extracting details")
		for _, inner := range e.Errors {
			if validationErr, ok := inner.(*openapierrors.Validation); ok {
				details = append(details, &types.HTTPValidationErrorDetail{
					Key:   swag.String(validationErr.Name),
					In:    swag.String(validationErr.In),
					Error: swag.String(validationErr.Error()),
				})
			}
		}
	case *openapierrors.Validation:
		details = append(details, &types.HTTPValidationErrorDetail{
			Key:   swag.String(e.Name),
			In:    swag.String(e.In),
			Error: swag.String(e.Error()),
		})
	default:
		LogFromEchoContext(c).Error().Err(err).Msg("Failed to validate payload, unknown error type")
		return err
	}

	return httperrors.NewHTTPValidationError(
		http.StatusBadRequest,
		types.PublicHTTPErrorTypeGeneric,
		http.StatusText(http.StatusBadRequest),
		details,
	)
}
