package model

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Comment struct {
	bun.BaseModel `bun:"table:comments,alias:c" json:"-" msgpack:"-"`

	ID            uuid.UUID `bun:"id,pk,type:uuid" json:"id" msgpack:"id"`
	Text          string    `bun:"text,notnull" json:"text" msgpack:"text"`
	AuthorID      uuid.UUID `bun:"author_id,notnull,type:uuid" json:"authorId" msgpack:"authorId"`
	PoemID        uuid.UUID `bun:"poem_id,notnull,type:uuid" json:"poemId" msgpack:"poemId"`
	DatePublished time.Time `bun:"date_published,notnull" json:"datePublished" msgpack:"datePublished"`
}

func (c Comment) GetID() uuid.UUID    { return c.ID }
func (c Comment) SortTime() time.Time { return c.DatePublished }

// CommentFilter matches when every set criterion holds.
type CommentFilter struct {
	AuthorID *uuid.UUID
	PoemID   *uuid.UUID
}

type CreateCommentInput struct {
	Text     string
	AuthorID uuid.UUID
	PoemID   uuid.UUID
}

func (in CreateCommentInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Text, notBlank),
		validation.Field(&in.AuthorID, requiredID),
		validation.Field(&in.PoemID, requiredID),
	)
}

type UpdateCommentInput struct {
	ID   uuid.UUID
	Text *string
}

func (in UpdateCommentInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.ID, requiredID),
		validation.Field(&in.Text, notBlank),
	)
}

func (in UpdateCommentInput) Apply(c Comment) Comment {
	if in.Text != nil {
		c.Text = *in.Text
	}
	return c
}
