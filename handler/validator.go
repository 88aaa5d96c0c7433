package handler

import (
	"errors"

	"github.com/google/uuid"

	"github.com/sugils/Email-tracker-BE/pkg/validator"
)

func UUIDValidator(optional bool) validator.Validator {
	return &validator.String{
		Optional: optional,
		Validators: []validator.StringFunc{
			func(s string) error {
				if _, err := uuid.Parse(s); err != nil {
					return errors.New("invalid uuid")
				}
				return nil
			},
		},
	}
}
