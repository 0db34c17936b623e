package users

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// DefaultDisposableDomains are rejected unless the configuration supplies
// its own list.
var DefaultDisposableDomains = []string{
	"tempmail.com",
	"throwawaymail.com",
	"mailinator.com",
	"guerrillamail.com",
	"10minutemail.com",
	"yopmail.com",
	"temp-mail.org",
	"sharklasers.com",
	"spamgourmet.com",
	"trashmail.com",
}

var emailShape = regexp.MustCompile(`^[^@\s]+@[^@\s]+$`)

const (
	MsgBlank      = "can't be blank"
	MsgEmailShape = "must be a valid email address"
	MsgDisposable = "cannot be from a disposable email service"
)

// ValidationError maps a field name to the problems found with it.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		for _, msg := range e.Fields[name] {
			parts = append(parts, name+" "+msg)
		}
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// Has reports whether field failed with msg.
func (e *ValidationError) Has(field, msg string) bool {
	for _, m := range e.Fields[field] {
		if m == msg {
			return true
		}
	}
	return false
}

func (e *ValidationError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

type credentials struct {
	Email    string `validate:"required,emailshape,notdisposable"`
	Password string `validate:"required"`
}

// Validator checks user attributes before they are persisted.
type Validator struct {
	validate   *validator.Validate
	disposable map[string]struct{}
}

// NewValidator builds a Validator rejecting the given disposable domains.
// A nil list falls back to DefaultDisposableDomains.
func NewValidator(disposableDomains []string) *Validator {
	if disposableDomains == nil {
		disposableDomains = DefaultDisposableDomains
	}

	v := &Validator{
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		disposable: make(map[string]struct{}, len(disposableDomains)),
	}
	for _, d := range disposableDomains {
		v.disposable[strings.ToLower(strings.TrimSpace(d))] = struct{}{}
	}

	v.validate.RegisterValidation("emailshape", func(fl validator.FieldLevel) bool {
		return emailShape.MatchString(fl.Field().String())
	})
	v.validate.RegisterValidation("notdisposable", func(fl validator.FieldLevel) bool {
		return !v.IsDisposable(fl.Field().String())
	})
	return v
}

// IsDisposable reports whether the email's domain is on the deny-list.
func (v *Validator) IsDisposable(email string) bool {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return false
	}
	_, ok := v.disposable[strings.ToLower(email[at+1:])]
	return ok
}

// Validate returns a *ValidationError describing every invalid field, or nil.
func (v *Validator) Validate(email, password string) error {
	err := v.validate.Struct(credentials{Email: email, Password: password})
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate user: %w", err)
	}

	verr := &ValidationError{}
	for _, fe := range fieldErrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			verr.add(field, MsgBlank)
		case "emailshape":
			verr.add(field, MsgEmailShape)
		case "notdisposable":
			verr.add(field, MsgDisposable)
		default:
			verr.add(field, "is invalid")
		}
	}
	return verr
}
