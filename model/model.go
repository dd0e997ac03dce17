// Package model holds the poetry network's entities, their list filters and
// the create/update inputs the services accept.
package model

import (
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

// Entity is implemented by every stored row. SortTime is the column lists are
// ordered by, newest first, with the id as tie-break.
type Entity interface {
	GetID() uuid.UUID
	SortTime() time.Time
}

// notBlank rejects empty and whitespace-only strings. Nil pointers pass, so the
// rule also serves optional update fields.
var notBlank = validation.By(func(value any) error {
	v, isNil := validation.Indirect(value)
	if isNil {
		return nil
	}
	s, ok := v.(string)
	if !ok {
		return nil
	}
	if strings.TrimSpace(s) == "" {
		return validation.NewError("validation_not_blank", "cannot be blank")
	}
	return nil
})

// requiredID rejects the nil uuid. A nil *uuid.UUID passes. The value is
// matched before any indirection since uuid.UUID is a driver.Valuer and
// validation.Indirect would turn it into a string.
var requiredID = validation.By(func(value any) error {
	var id uuid.UUID
	switch v := value.(type) {
	case uuid.UUID:
		id = v
	case *uuid.UUID:
		if v == nil {
			return nil
		}
		id = *v
	default:
		return nil
	}
	if id == uuid.Nil {
		return validation.NewError("validation_required", "cannot be blank")
	}
	return nil
})

// distinctFrom rejects an id equal to other.
func distinctFrom(other uuid.UUID, message string) validation.Rule {
	return validation.By(func(value any) error {
		id, ok := value.(uuid.UUID)
		if ok && id != uuid.Nil && id == other {
			return validation.NewError("validation_distinct", message)
		}
		return nil
	})
}

func ptr[T any](v T) *T {
	return &v
}
