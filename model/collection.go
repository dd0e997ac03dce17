package model

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Collection struct {
	bun.BaseModel `bun:"table:collections,alias:co" json:"-" msgpack:"-"`

	ID          uuid.UUID `bun:"id,pk,type:uuid" json:"id" msgpack:"id"`
	Title       string    `bun:"title,notnull" json:"title" msgpack:"title"`
	AuthorID    uuid.UUID `bun:"author_id,notnull,type:uuid" json:"authorId" msgpack:"authorId"`
	DateCreated time.Time `bun:"date_created,notnull" json:"dateCreated" msgpack:"dateCreated"`
}

func (c Collection) GetID() uuid.UUID    { return c.ID }
func (c Collection) SortTime() time.Time { return c.DateCreated }

// CollectionFilter matches when every set criterion holds. The Contains fields
// are case-insensitive substrings.
type CollectionFilter struct {
	AuthorID               *uuid.UUID
	TitleContains          string
	AuthorUsernameContains string
}

type CreateCollectionInput struct {
	Title    string
	AuthorID uuid.UUID
}

func (in CreateCollectionInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Title, notBlank),
		validation.Field(&in.AuthorID, requiredID),
	)
}

type UpdateCollectionInput struct {
	ID    uuid.UUID
	Title *string
}

func (in UpdateCollectionInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.ID, requiredID),
		validation.Field(&in.Title, notBlank),
	)
}

func (in UpdateCollectionInput) Apply(c Collection) Collection {
	if in.Title != nil {
		c.Title = *in.Title
	}
	return c
}
