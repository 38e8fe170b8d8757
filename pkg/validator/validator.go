package validator

import (
	"fmt"
	"reflect"
	"strings"

	playground "github.com/go-playground/validator/v10"

	"github.com/jwalitptl/clinic-api/pkg/egn"
)

// Validator provides validation functionality
type Validator interface {
	Validate(interface{}) error
	ValidateField(field string, value interface{}, rules ...string) error
}

type validator struct {
	v *playground.Validate
}

// FieldError describes a single failed rule using the field's json name.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// Errors is returned by Validate when one or more rules fail.
type Errors []FieldError

func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		parts = append(parts, fmt.Sprintf("%s failed %q", fe.Field, fe.Rule))
	}
	return strings.Join(parts, "; ")
}

func New() Validator {
	v := playground.New(playground.WithRequiredStructEnabled())
	Register(v)
	return &validator{v: v}
}

// Register installs the clinic specific rules and json field naming on v.
func Register(v *playground.Validate) {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	// Registration only fails for an empty tag.
	_ = v.RegisterValidation("egn", func(fl playground.FieldLevel) bool {
		return egn.IsValid(fl.Field().String())
	})
	_ = v.RegisterValidation("notblank", func(fl playground.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
}

func (v *validator) Validate(obj interface{}) error {
	return convert(v.v.Struct(obj))
}

func (v *validator) ValidateField(field string, value interface{}, rules ...string) error {
	if err := v.v.Var(value, strings.Join(rules, ",")); err != nil {
		if errs, ok := err.(playground.ValidationErrors); ok {
			out := make(Errors, 0, len(errs))
			for _, fe := range errs {
				out = append(out, FieldError{Field: field, Rule: fe.Tag()})
			}
			return out
		}
		return err
	}
	return nil
}

func convert(err error) error {
	if err == nil {
		return nil
	}
	errs, ok := err.(playground.ValidationErrors)
	if !ok {
		return err
	}
	out := make(Errors, 0, len(errs))
	for _, fe := range errs {
		out = append(out, FieldError{Field: fe.Field(), Rule: fe.Tag()})
	}
	return out
}
