package models

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"sync"
	"unicode/utf16"

	"github.com/desertthunder/flickx/internal/shared"
	"github.com/go-playground/validator/v10"
)

const (
	MsgFieldsRequired  = "All fields are required"
	MsgInvalidEmail    = "Invalid email format"
	MsgMessageTooShort = "Message must be at least 10 characters"
	MsgMovieIDRequired = "Movie ID is required"
)

// emailPattern is the deliberately loose local@domain.tld check used by the contact form. Whitespace covers the
// vertical tab, every Unicode space separator and the byte order mark, not only ASCII \s.
var emailPattern = regexp.MustCompile(`^[^\s\v\p{Z}\x{FEFF}@]+@[^\s\v\p{Z}\x{FEFF}@]+\.[^\s\v\p{Z}\x{FEFF}@]+$`)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func instance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("simpleemail", func(fl validator.FieldLevel) bool {
			return emailPattern.MatchString(fl.Field().String())
		})
		_ = validate.RegisterValidation("utf16min", func(fl validator.FieldLevel) bool {
			n, err := strconv.Atoi(fl.Param())
			if err != nil {
				return false
			}
			return utf16Len(fl.Field().String()) >= n
		})
	})
	return validate
}

// InputError is a client input error carrying the message shown to the caller.
type InputError struct {
	Field   string
	Message string
}

func (e *InputError) Error() string { return e.Message }

func (e *InputError) Unwrap() error { return shared.ErrInvalidInput }

// utf16Len counts s in UTF-16 code units, so a character outside the Basic Multilingual Plane counts twice.
func utf16Len(s string) int {
	return len(utf16.Encode([]rune(s)))
}

// ValidEmail reports whether s passes the contact form's email check.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// validateStruct runs the tag rules on v and converts the first failure to an [InputError].
func validateStruct(v any) error {
	err := instance().Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	fe := verrs[0]
	switch fe.Field() {
	case "MovieID":
		return &InputError{Field: fe.Field(), Message: MsgMovieIDRequired}
	default:
		return &InputError{Field: fe.Field(), Message: fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())}
	}
}

// ContactMessage is the contact form body.
type ContactMessage struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,simpleemail"`
	Message string `json:"message" validate:"required,utf16min=10"`
}

// Validate applies the contact rules in priority order: every field present, then a plausible email, then a
// message of at least ten UTF-16 code units.
func (c ContactMessage) Validate() error {
	err := instance().Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	var emailErr, lengthErr *InputError
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			return &InputError{Field: fe.Field(), Message: MsgFieldsRequired}
		case "simpleemail":
			emailErr = &InputError{Field: fe.Field(), Message: MsgInvalidEmail}
		case "utf16min":
			lengthErr = &InputError{Field: fe.Field(), Message: MsgMessageTooShort}
		}
	}

	if emailErr != nil {
		return emailErr
	}
	if lengthErr != nil {
		return lengthErr
	}
	return &InputError{Field: verrs[0].Field(), Message: MsgFieldsRequired}
}
