package utils

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var phonePattern = regexp.MustCompile(`^\+92\d{10}$`)

// ValidEmail reports whether email is an address under the institutional suffix.
func ValidEmail(email, suffix string) bool {
	at := strings.LastIndex(email, "@")
	if at <= 0 || strings.ContainsAny(email, " \t\r\n") || strings.Count(email, "@") != 1 {
		return false
	}
	domain := strings.ToLower(email[at+1:])
	suffix = strings.ToLower(suffix)
	return strings.HasSuffix(domain, suffix) && len(domain) > len(suffix)
}

func ValidPhone(phone string) bool {
	return phonePattern.MatchString(phone)
}

// StrongPassword requires at least 8 characters with upper, lower and digit.
func StrongPassword(password string) bool {
	if len(password) < 8 {
		return false
	}
	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return upper && lower && digit
}

// RegisterValidators installs the custom binding tags on v.
func RegisterValidators(v *validator.Validate, emailSuffix string) error {
	rules := map[string]validator.Func{
		"edu_email": func(fl validator.FieldLevel) bool {
			return ValidEmail(fl.Field().String(), emailSuffix)
		},
		"pk_phone": func(fl validator.FieldLevel) bool {
			return ValidPhone(fl.Field().String())
		},
		"strong_password": func(fl validator.FieldLevel) bool {
			return StrongPassword(fl.Field().String())
		},
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("register %s: %w", tag, err)
		}
	}
	v.RegisterTagNameFunc(jsonFieldName)
	return nil
}

// NewValidator returns a validator reading the same `binding` tags gin does.
func NewValidator(emailSuffix string) *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	if err := RegisterValidators(v, emailSuffix); err != nil {
		panic(err)
	}
	return v
}

func jsonFieldName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return f.Name
	}
	return name
}

// ValidationMessage flattens validator errors into one readable sentence.
func ValidationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return strings.Join(msgs, ", ")
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required", "required_if":
		return field + " is required"
	case "email":
		return "Please provide a valid email"
	case "len":
		return fmt.Sprintf("%s must be %s characters", field, fe.Param())
	case "numeric":
		return field + " must contain only digits"
	case "edu_email":
		return "Must be a valid institutional email"
	case "pk_phone":
		return "Must be a valid Pakistani phone number (+92...)"
	case "strong_password":
		return "Password must be at least 8 characters with upper case, lower case and a digit"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max", "lte":
		return fmt.Sprintf("%s cannot exceed %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid (%s)", field, fe.Tag())
	}
}
