package validator

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"anoa.com/tutorhub/pkg/apperror"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const MinPasswordLength = 10

var nameRegex = regexp.MustCompile(`^[A-Za-z][A-Za-z\s\-']{1,48}$`)

var std = newValidate()

func newValidate() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	if err := registerCustom(v); err != nil {
		panic(err)
	}
	return v
}

// Register adds the custom tags to gin's validator engine.
func Register() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("unexpected gin validator engine")
	}
	return registerCustom(v)
}

func registerCustom(v *validator.Validate) error {
	if err := v.RegisterValidation("strongpassword", func(fl validator.FieldLevel) bool {
		return CheckPassword(fl.Field().String()) == nil
	}); err != nil {
		return err
	}
	if err := v.RegisterValidation("personname", func(fl validator.FieldLevel) bool {
		return ValidName(fl.Field().String())
	}); err != nil {
		return err
	}
	return v.RegisterValidation("yeargroup", func(fl validator.FieldLevel) bool {
		n := fl.Field().Int()
		return n >= 1 && n <= 13
	})
}

// Struct validates s against its binding tags outside of a gin request.
func Struct(s interface{}) error {
	if err := std.Struct(s); err != nil {
		return FromBinding(err)
	}
	return nil
}

// CheckPassword enforces the composite password policy and names the first
// rule that fails.
func CheckPassword(pw string) error {
	if len([]rune(pw)) < MinPasswordLength {
		return fmt.Errorf("%w: must be at least %d characters long", apperror.ErrWeakPassword, MinPasswordLength)
	}

	var hasDigit, hasSymbol, hasUpper bool
	for _, r := range pw {
		switch {
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsUpper(r):
			hasUpper = true
		case !unicode.IsLetter(r) && !unicode.IsNumber(r):
			hasSymbol = true
		}
	}

	if !hasDigit {
		return fmt.Errorf("%w: must include at least one number", apperror.ErrWeakPassword)
	}
	if !hasSymbol {
		return fmt.Errorf("%w: must include at least one symbol", apperror.ErrWeakPassword)
	}
	if !hasUpper {
		return fmt.Errorf("%w: must include at least one uppercase letter", apperror.ErrWeakPassword)
	}
	return nil
}

func ValidName(name string) bool {
	return nameRegex.MatchString(strings.TrimSpace(name))
}

// NormalizeName collapses whitespace and capitalizes each word.
func NormalizeName(name string) string {
	parts := strings.Fields(name)
	for i, p := range parts {
		runes := []rune(strings.ToLower(p))
		runes[0] = unicode.ToUpper(runes[0])
		parts[i] = string(runes)
	}
	return strings.Join(parts, " ")
}

// NormalizeEmail is the canonical form used for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// FromBinding converts a gin binding error into a field-level validation error.
func FromBinding(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return &apperror.ValidationError{
			Fields: map[string]string{"body": "malformed request"},
			Err:    apperror.ErrBadRequest,
		}
	}

	vErr := &apperror.ValidationError{Fields: make(map[string]string, len(validationErrors))}
	for _, fieldError := range validationErrors {
		vErr.Fields[jsonName(fieldError.Field())] = getFieldErrorMessage(fieldError)
		if fieldError.Tag() == "strongpassword" {
			vErr.Err = apperror.ErrWeakPassword
		}
	}
	return vErr
}

func getFieldErrorMessage(fe validator.FieldError) string {
	field := getFieldName(fe.Field())

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "url", "http_url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "eqfield":
		return fmt.Sprintf("%s must match %s", field, getFieldName(fe.Param()))
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "strongpassword":
		if err := CheckPassword(fe.Value().(string)); err != nil {
			return fmt.Sprintf("%s %s", field, strings.TrimPrefix(err.Error(), apperror.ErrWeakPassword.Error()+": "))
		}
		return fmt.Sprintf("%s is too weak", field)
	case "personname":
		return fmt.Sprintf("%s may only use letters, spaces, hyphens or apostrophes", field)
	case "yeargroup":
		return fmt.Sprintf("%s must be between 1 and 13", field)
	case "datetime":
		return fmt.Sprintf("%s must be a date in the form %s", field, fe.Param())
	case "min":
		if fe.Type().String() == "string" {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Type().String() == "string" {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

func getFieldName(field string) string {
	fieldNames := map[string]string{
		"Email":           "Email",
		"Password":        "Password",
		"Confirm":         "Password confirmation",
		"OldPassword":     "Current password",
		"NewPassword":     "New password",
		"Role":            "Role",
		"FullName":        "Full name",
		"DateOfBirth":     "Date of birth",
		"YearGroup":       "Year group",
		"ClassID":         "Class",
		"ResourceID":      "Resource",
		"Score":           "Score",
		"Criteria":        "Criteria",
		"ConfirmDeletion": "Deletion confirmation",
	}

	if name, ok := fieldNames[field]; ok {
		return name
	}
	return field
}

func jsonName(field string) string {
	var b strings.Builder
	prevLower := false
	for _, r := range field {
		if unicode.IsUpper(r) {
			if prevLower {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			prevLower = false
			continue
		}
		b.WriteRune(r)
		prevLower = true
	}
	return b.String()
}
