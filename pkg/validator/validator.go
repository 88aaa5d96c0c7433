package validator

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
)

type Validator interface {
	Validate(value interface{}) error
}

type Form struct {
	validators map[string]Validator
}

// MustForm builds a struct validator keyed by json tag.
func MustForm(validators map[string]Validator) *Form {
	return &Form{validators: validators}
}

func (f *Form) Validate(value interface{}) error {
	v := reflect.ValueOf(value)
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return errors.New("expect non-nil struct")
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return errors.New("expect struct")
	}

	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		tag := strings.Split(field.Tag.Get("json"), ",")[0]
		if tag == "" || tag == "-" {
			tag = strings.ToLower(field.Name)
		}

		fieldValidator, ok := f.validators[tag]
		if !ok {
			continue
		}

		if err := fieldValidator.Validate(v.Field(i).Interface()); err != nil {
			return fmt.Errorf("%s: %v", tag, err)
		}
	}

	return nil
}

type StringFunc func(string) error

type String struct {
	Optional   bool
	MinLen     int
	MaxLen     int
	Regex      *regexp.Regexp
	Validators []StringFunc
}

func (v *String) Validate(value interface{}) error {
	s, ok := value.(*string)
	if !ok {
		return errors.New("expect *string")
	}

	if s == nil {
		if v.Optional {
			return nil
		}
		return errors.New("is required")
	}

	if v.MinLen > 0 && len(*s) < v.MinLen {
		return fmt.Errorf("min length is %d", v.MinLen)
	}

	if v.MaxLen > 0 && len(*s) > v.MaxLen {
		return fmt.Errorf("max length is %d", v.MaxLen)
	}

	if v.Regex != nil && !v.Regex.MatchString(*s) {
		return errors.New("invalid format")
	}

	for _, fn := range v.Validators {
		if err := fn(*s); err != nil {
			return err
		}
	}

	return nil
}

type Bool struct {
	Optional bool
}

func (v *Bool) Validate(value interface{}) error {
	b, ok := value.(*bool)
	if !ok {
		return errors.New("expect *bool")
	}

	if b == nil && !v.Optional {
		return errors.New("is required")
	}

	return nil
}

type UInt32Func func(uint32) error

type UInt32 struct {
	Optional   bool
	Min        *uint32
	Max        *uint32
	Validators []UInt32Func
}

func (v *UInt32) Validate(value interface{}) error {
	i, ok := value.(*uint32)
	if !ok {
		return errors.New("expect *uint32")
	}

	if i == nil {
		if v.Optional {
			return nil
		}
		return errors.New("is required")
	}

	if v.Min != nil && *i < *v.Min {
		return fmt.Errorf("min value is %d", *v.Min)
	}

	if v.Max != nil && *i > *v.Max {
		return fmt.Errorf("max value is %d", *v.Max)
	}

	for _, fn := range v.Validators {
		if err := fn(*i); err != nil {
			return err
		}
	}

	return nil
}
