package user

import (
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	domain "user-management-api/internal/domain/user"
	apperrors "user-management-api/pkg/errors"
)

// Validation messages returned to clients in fieldErrors.
const (
	MsgNameBlank    = "Name is required and cannot be blank"
	MsgNameTooLong  = "Name must not exceed 255 characters"
	MsgEmailBlank   = "Email is required and cannot be blank"
	MsgEmailInvalid = "Email must be a valid email address"
	MsgAgeRequired  = "Age is required"
	MsgAgeTooLow    = "Age must be at least 18"
	MsgAgeTooHigh   = "Age must not exceed 100"
)

// rule is one check of the validation table. A rule only runs when every
// earlier rule for the same field passed, so each field reports at most once.
type rule struct {
	field   string
	failed  func(in UserInput) bool
	message string
}

// Validator checks a UserInput against the field rules.
type Validator struct {
	rules []rule
}

// NewValidator builds the rule table. validate supplies the email grammar.
func NewValidator(validate *validator.Validate) *Validator {
	blank := func(s string) bool { return strings.TrimSpace(s) == "" }

	return &Validator{rules: []rule{
		{"name", func(in UserInput) bool { return blank(in.Name) }, MsgNameBlank},
		{"name", func(in UserInput) bool {
			return utf8.RuneCountInString(strings.TrimSpace(in.Name)) > domain.MaxNameLength
		}, MsgNameTooLong},
		{"email", func(in UserInput) bool { return blank(in.Email) }, MsgEmailBlank},
		{"email", func(in UserInput) bool { return validate.Var(in.Email, "email") != nil }, MsgEmailInvalid},
		{"age", func(in UserInput) bool { return in.Age == nil }, MsgAgeRequired},
		{"age", func(in UserInput) bool { return *in.Age < domain.MinAge }, MsgAgeTooLow},
		{"age", func(in UserInput) bool { return *in.Age > domain.MaxAge }, MsgAgeTooHigh},
	}}
}

// Validate evaluates every field and returns the violations in rule order.
func (v *Validator) Validate(in UserInput) []apperrors.FieldViolation {
	var violations []apperrors.FieldViolation
	failedFields := make(map[string]bool, 3)

	for _, r := range v.rules {
		if failedFields[r.field] {
			continue
		}
		if r.failed(in) {
			failedFields[r.field] = true
			violations = append(violations, apperrors.FieldViolation{Field: r.field, Message: r.message})
		}
	}
	return violations
}

// Check returns a *errors.ValidationError when in breaks any rule.
func (v *Validator) Check(in UserInput) error {
	if violations := v.Validate(in); len(violations) > 0 {
		return apperrors.NewValidationError(violations...)
	}
	return nil
}
