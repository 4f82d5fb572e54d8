// Package validate checks form structs against their `validate` tags and
// reports the first violated constraint as a user-facing message.
//
// Messages come from the field's `msg` tag, a list of tag:message pairs
// separated by "|", e.g. `msg:"required:Email is required|email:Invalid email address"`.
// Tags without a message fall back to a generic sentence built from `label`.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New(validator.WithRequiredStructEnabled())
	// maxbytes bounds the UTF-8 length; max counts runes.
	if err := val.RegisterValidation("maxbytes", maxBytes); err != nil {
		panic(err)
	}
	return val
}

func maxBytes(fl validator.FieldLevel) bool {
	n, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	return len(fl.Field().String()) <= n
}

// Error is a local validation failure. It never reaches the network.
type Error struct {
	Field   string
	Tag     string
	Message string
}

func (e *Error) Error() string { return e.Message }

// First validates s and returns the first violated constraint, or nil.
func First(s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	return &Error{
		Field:   jsonName(s, fe.StructField()),
		Tag:     fe.Tag(),
		Message: message(s, fe),
	}
}

// IsValidation reports whether err is a local validation failure.
func IsValidation(err error) bool {
	var ve *Error
	return errors.As(err, &ve)
}

func structType(s any) reflect.Type {
	t := reflect.TypeOf(s)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

func message(s any, fe validator.FieldError) string {
	f, ok := structType(s).FieldByName(fe.StructField())
	if ok {
		for _, pair := range strings.Split(f.Tag.Get("msg"), "|") {
			tag, msg, found := strings.Cut(pair, ":")
			if found && strings.TrimSpace(tag) == fe.Tag() {
				return strings.TrimSpace(msg)
			}
		}
	}
	label := fe.Field()
	if ok && f.Tag.Get("label") != "" {
		label = f.Tag.Get("label")
	}
	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "email":
		return "Invalid email address"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", label, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", label, fe.Param())
	case "maxbytes":
		return label + " is too long"
	case "len":
		return fmt.Sprintf("%s must be exactly %s characters", label, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", label, fe.Param())
	default:
		return label + " is invalid"
	}
}

func jsonName(s any, field string) string {
	f, ok := structType(s).FieldByName(field)
	if !ok {
		return field
	}
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return field
	}
	return name
}
