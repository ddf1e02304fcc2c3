package validation

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"

	"github.com/DebarghaSamanta/THE-AI-MAVERICKS/internal/entity"
)

const (
	MinPasswordLength = 8
	MaxDocumentSize   = 5 * 1024 * 1024
	nationalIDLength  = 12
)

var AllowedDocumentTypes = []string{"application/pdf", "image/jpeg", "image/png", "image/jpg"}

// Error is a user-correctable input problem. Field names the offending form input.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(field, message string) *Error {
	return &Error{Field: field, Message: message}
}

// IsValidationError reports whether err carries a validation.Error.
func IsValidationError(err error) bool {
	var vErr *Error
	return errors.As(err, &vErr)
}

var (
	formValidator = newFormValidator()
	namePolicy    = bluemonday.StrictPolicy()
)

func newFormValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("national_id", func(fl validator.FieldLevel) bool {
		return ValidNationalID(fl.Field().String())
	})
	_ = v.RegisterValidation("gender", func(fl validator.FieldLevel) bool {
		for _, g := range entity.Genders {
			if g == fl.Field().String() {
				return true
			}
		}
		return false
	})
	_ = v.RegisterValidation("birthday", func(fl validator.FieldLevel) bool {
		return validBirthday(fl.Field().String(), time.Now())
	})
	return v
}

// ValidNationalID reports whether id is exactly 12 decimal digits.
func ValidNationalID(id string) bool {
	if len(id) != nationalIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < '0' || id[i] > '9' {
			return false
		}
	}
	return true
}

func validBirthday(value string, now time.Time) bool {
	day, err := time.Parse("2006-01-02", value)
	if err != nil {
		return false
	}
	earliest := time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)
	return !day.Before(earliest) && !day.After(now)
}

// SanitizeName strips markup from a user supplied display name.
func SanitizeName(name string) string {
	return strings.TrimSpace(namePolicy.Sanitize(name))
}

type SignupForm struct {
	Name            string `validate:"required"`
	Email           string `validate:"required,email"`
	NationalID      string `validate:"required,national_id"`
	Birthday        string `validate:"required,birthday"`
	Gender          string `validate:"required,gender"`
	Password        string `validate:"required,min=8"`
	ConfirmPassword string `validate:"required,eqfield=Password"`
}

type LoginForm struct {
	Identifier string `validate:"required"`
	Password   string `validate:"required"`
	ByEmail    bool
}

type ForgotPasswordForm struct {
	Identifier string `validate:"required"`
	ByEmail    bool
}

type ResetPasswordForm struct {
	Token           string `validate:"required"`
	Password        string `validate:"required,min=8"`
	ConfirmPassword string `validate:"required,eqfield=Password"`
}

type DocumentUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Content     []byte
}

// Check order matters: the first failing rule in this list is the one reported.
var tagOrder = []string{"required", "eqfield", "min", "national_id", "email", "birthday", "gender"}

var tagMessages = map[string]string{
	"eqfield":     "Passwords do not match",
	"min":         fmt.Sprintf("Password must be at least %d characters long", MinPasswordLength),
	"national_id": "Invalid national ID number format. Should be 12 digits.",
	"email":       "Invalid email format",
	"birthday":    "Birthday must be a date between 1900-01-01 and today",
	"gender":      "Please select a valid gender",
}

func validateStruct(form any, requiredMessage string) error {
	err := formValidator.Struct(form)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return newError("", "Invalid form submission")
	}
	for _, tag := range tagOrder {
		for _, fe := range fieldErrs {
			if fe.Tag() != tag {
				continue
			}
			if tag == "required" {
				return newError(fe.Field(), requiredMessage)
			}
			return newError(fe.Field(), tagMessages[tag])
		}
	}
	first := fieldErrs[0]
	return newError(first.Field(), fmt.Sprintf("Invalid %s", strings.ToLower(first.Field())))
}

// ValidateSignup checks the signup form and its document upload. The document is
// checked only after every text field passes.
func ValidateSignup(form SignupForm, doc *DocumentUpload) error {
	if err := validateStruct(form, "Please fill in all required fields"); err != nil {
		return err
	}
	if doc == nil {
		return newError("Document", "Please upload a government ID document")
	}
	return ValidateDocument(*doc)
}

func ValidateLogin(form LoginForm) error {
	if err := validateStruct(form, "Please fill in all fields"); err != nil {
		return err
	}
	if !form.ByEmail && !ValidNationalID(form.Identifier) {
		return newError("Identifier", tagMessages["national_id"])
	}
	return nil
}

func ValidateForgotPassword(form ForgotPasswordForm) error {
	if err := validateStruct(form, identifierPrompt(form.ByEmail)); err != nil {
		return err
	}
	if !form.ByEmail && !ValidNationalID(form.Identifier) {
		return newError("Identifier", tagMessages["national_id"])
	}
	return nil
}

func ValidateResetPassword(form ResetPasswordForm) error {
	return validateStruct(form, "Please fill in all fields")
}

// ValidateDocument enforces the 5MB limit and the PDF/JPEG/PNG type list.
func ValidateDocument(doc DocumentUpload) error {
	if doc.Size <= 0 || len(doc.Content) == 0 {
		return newError("Document", "Please upload a government ID document")
	}
	if doc.Size > MaxDocumentSize {
		sizeMB := float64(doc.Size) / (1024 * 1024)
		return newError("Document", fmt.Sprintf("File size too large: %.2fMB. Maximum allowed: 5MB", sizeMB))
	}
	for _, allowed := range AllowedDocumentTypes {
		if doc.ContentType == allowed {
			return nil
		}
	}
	return newError("Document", fmt.Sprintf("File type %s not allowed. Allowed types: PDF, JPEG, PNG", doc.ContentType))
}

func identifierPrompt(byEmail bool) string {
	if byEmail {
		return "Please enter your email"
	}
	return "Please enter your national ID number"
}
