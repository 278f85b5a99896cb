package validators

import (
	"net/http"

	"github.com/anonto42/prehome/backend/pkg/places"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// CustomValidator adapts go-playground/validator to echo.Validator
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates the validator with the application's custom tags registered
func NewValidator() *CustomValidator {
	v := validator.New()
	// Registration only fails for empty tags or nil funcs.
	_ = v.RegisterValidation("placecategory", func(fl validator.FieldLevel) bool {
		return places.IsValidCategory(fl.Field().String())
	})
	_ = v.RegisterValidation("propertycategory", func(fl validator.FieldLevel) bool {
		return places.IsPropertyCategory(fl.Field().String())
	})
	return &CustomValidator{validator: v}
}

// Validate implements echo.Validator
func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validator.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}
