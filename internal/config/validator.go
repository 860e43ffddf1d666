package config

import (
	"errors"

	"github.com/hyp3rd/ewrap/pkg/ewrap"
)

type validatable interface {
	Validate(eg *ewrap.ErrorGroup)
}

// Validator collects the errors reported by each configuration section.
type Validator struct {
	Errors *ewrap.ErrorGroup
}

// NewValidator creates a new Validator instance with an empty ErrorGroup.
func NewValidator() *Validator {
	return &Validator{
		Errors: ewrap.NewErrorGroup(),
	}
}

// Validate runs every section and joins whatever they reported. The collected
// errors stay available in v.Errors afterwards.
func (v *Validator) Validate(configs ...validatable) error {
	for _, c := range configs {
		if c != nil {
			c.Validate(v.Errors)
		}
	}

	if v.Errors.HasErrors() {
		return errors.Join(v.Errors.Errors()...)
	}

	return nil
}
