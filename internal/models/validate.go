package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidationError reports malformed user input caught before any store call.
type ValidationError struct {
	Fields []string
	Msg    string
}

func (e *ValidationError) Error() string {
	return "invalid input: " + e.Msg
}

// Validate checks struct tags on v and returns a *ValidationError describing every failing field.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate: %w", err)
	}
	ve := &ValidationError{}
	var msgs []string
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		ve.Fields = append(ve.Fields, field)
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", field, fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s", field, fe.Tag()))
		}
	}
	ve.Msg = strings.Join(msgs, ", ")
	return ve
}

// ValidateComment checks required fields and enum values on a new or edited comment.
// The anchor is checked against the host media separately, since that needs the media record.
func ValidateComment(c *Comment) error {
	if strings.TrimSpace(c.Content) == "" {
		return &ValidationError{Fields: []string{"content"}, Msg: "content is required"}
	}
	if err := Validate(c); err != nil {
		return err
	}
	if c.Author.ID == "" || c.Author.Name == "" {
		return &ValidationError{Fields: []string{"author"}, Msg: "author id and name are required"}
	}
	if !c.Status.Valid() {
		return &ValidationError{Fields: []string{"status"}, Msg: fmt.Sprintf("unknown status %q", c.Status)}
	}
	if !c.Priority.Valid() {
		return &ValidationError{Fields: []string{"priority"}, Msg: fmt.Sprintf("unknown priority %q", c.Priority)}
	}
	if !c.Type.Valid() {
		return &ValidationError{Fields: []string{"type"}, Msg: fmt.Sprintf("unknown type %q", c.Type)}
	}
	return nil
}

// ValidEmail reports whether s is a single email address with no line breaks.
func ValidEmail(s string) bool {
	if strings.ContainsAny(s, "\r\n") {
		return false
	}
	return validate.Var(s, "required,email") == nil
}
