package model

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validator exposes the shared validator so other packages reuse its cache.
func Validator() *validator.Validate {
	return validate
}
