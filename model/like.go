package model

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Like is unique per (author, poem).
type Like struct {
	bun.BaseModel `bun:"table:likes,alias:l" json:"-" msgpack:"-"`

	ID            uuid.UUID `bun:"id,pk,type:uuid" json:"id" msgpack:"id"`
	AuthorID      uuid.UUID `bun:"author_id,notnull,type:uuid" json:"authorId" msgpack:"authorId"`
	PoemID        uuid.UUID `bun:"poem_id,notnull,type:uuid" json:"poemId" msgpack:"poemId"`
	DatePublished time.Time `bun:"date_published,notnull" json:"datePublished" msgpack:"datePublished"`
}

func (l Like) GetID() uuid.UUID    { return l.ID }
func (l Like) SortTime() time.Time { return l.DatePublished }

type LikeFilter struct {
	AuthorID *uuid.UUID
	PoemID   *uuid.UUID
}

type CreateLikeInput struct {
	AuthorID uuid.UUID
	PoemID   uuid.UUID
}

func (in CreateLikeInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.AuthorID, requiredID),
		validation.Field(&in.PoemID, requiredID),
	)
}
