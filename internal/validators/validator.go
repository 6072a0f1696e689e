package validators

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// CustomValidator plugs go-playground/validator into Echo
type CustomValidator struct {
	validator *validator.Validate
}

// New returns a validator configured for the event payloads
func New() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

// NewValidator returns an echo.Validator backed by New
func NewValidator() *CustomValidator {
	return &CustomValidator{validator: New()}
}

func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validator.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}
