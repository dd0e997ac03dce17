package model

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type SavedPoem struct {
	bun.BaseModel `bun:"table:saved_poems,alias:sp" json:"-" msgpack:"-"`

	ID        uuid.UUID `bun:"id,pk,type:uuid" json:"id" msgpack:"id"`
	AuthorID  uuid.UUID `bun:"author_id,notnull,type:uuid" json:"authorId" msgpack:"authorId"`
	PoemID    uuid.UUID `bun:"poem_id,notnull,type:uuid" json:"poemId" msgpack:"poemId"`
	DateSaved time.Time `bun:"date_saved,notnull" json:"dateSaved" msgpack:"dateSaved"`
}

func (s SavedPoem) GetID() uuid.UUID    { return s.ID }
func (s SavedPoem) SortTime() time.Time { return s.DateSaved }

type SavedPoemFilter struct {
	AuthorID *uuid.UUID
	PoemID   *uuid.UUID
}

type CreateSavedPoemInput struct {
	AuthorID uuid.UUID
	PoemID   uuid.UUID
}

func (in CreateSavedPoemInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.AuthorID, requiredID),
		validation.Field(&in.PoemID, requiredID),
	)
}
