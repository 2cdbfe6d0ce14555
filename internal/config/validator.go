package config

import (
	"github.com/go-playground/validator/v10"
)

// Validator validates configuration values.
type Validator interface {
	Validate(cfg *Config) error
}

// validatorImpl implements Validator using go-playground/validator.
type validatorImpl struct {
	validate *validator.Validate
}

// NewValidator creates a new configuration validator.
func NewValidator() Validator {
	return &validatorImpl{validate: validator.New()}
}

// Validate checks the configuration against its struct tags.
func (v *validatorImpl) Validate(cfg *Config) error {
	return v.validate.Struct(cfg)
}
