// Package notice turns the outcome of a user-triggered operation into a
// message naming the operation and the entity it touched.
package notice

import (
	"errors"
	"fmt"

	"github.com/joescharf/pinpoint/internal/models"
	"github.com/joescharf/pinpoint/internal/store"
)

// Level is the severity of a notice.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Category classifies a failure.
type Category string

const (
	CategoryStore      Category = "store"
	CategoryExport     Category = "export"
	CategoryValidation Category = "validation"
	CategoryRemote     Category = "remote"
	CategoryNotFound   Category = "not_found"
)

// Categorized is implemented by errors that know their own category.
type Categorized interface {
	Category() Category
}

// Notice is what the user sees after an action: a confirmation or an error.
type Notice struct {
	Level     Level    `json:"level"`
	Operation string   `json:"operation"`
	Entity    string   `json:"entity,omitempty"`
	Category  Category `json:"category,omitempty"`
	Message   string   `json:"message"`
}

func (n Notice) String() string {
	return n.Message
}

// OK reports whether the notice is a success.
func (n Notice) OK() bool {
	return n.Level == LevelSuccess
}

// Success builds a confirmation for op on entity.
func Success(op, entity string) Notice {
	msg := op
	if entity != "" {
		msg = fmt.Sprintf("%s: %s", op, entity)
	}
	return Notice{Level: LevelSuccess, Operation: op, Entity: entity, Message: msg}
}

// Failure builds an error notice for op on entity. A nil err yields Success.
func Failure(op, entity string, err error) Notice {
	if err == nil {
		return Success(op, entity)
	}
	msg := fmt.Sprintf("%s failed", op)
	if entity != "" {
		msg = fmt.Sprintf("%s failed for %s", op, entity)
	}
	return Notice{
		Level:     LevelError,
		Operation: op,
		Entity:    entity,
		Category:  Classify(err),
		Message:   msg + ": " + err.Error(),
	}
}

// Classify returns the category of err. Unrecognized errors are store failures.
func Classify(err error) Category {
	var ve *models.ValidationError
	if errors.As(err, &ve) {
		return CategoryValidation
	}
	if errors.Is(err, store.ErrNotFound) {
		return CategoryNotFound
	}
	var c Categorized
	if errors.As(err, &c) {
		return c.Category()
	}
	return CategoryStore
}
