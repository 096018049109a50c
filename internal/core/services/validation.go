package services

import (
	"errors"

	"school-equiplend/internal/core/domain"
	"school-equiplend/internal/pkg/validation"
)

// validateInput checks v against its validate tags, reporting the first
// failing field as invalid input.
func validateInput(v interface{}) error {
	err := validation.Struct(v)
	if err == nil {
		return nil
	}

	var fe *validation.FieldError
	if errors.As(err, &fe) {
		return domain.NewInvalidInput(fe.Error())
	}
	return err
}
