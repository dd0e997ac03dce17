package model

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Poem belongs to an author and optionally to one of the author's collections.
type Poem struct {
	bun.BaseModel `bun:"table:poems,alias:p" json:"-" msgpack:"-"`

	ID            uuid.UUID  `bun:"id,pk,type:uuid" json:"id" msgpack:"id"`
	Title         string     `bun:"title,notnull" json:"title" msgpack:"title"`
	Text          string     `bun:"text,notnull" json:"text" msgpack:"text"`
	AuthorID      uuid.UUID  `bun:"author_id,notnull,type:uuid" json:"authorId" msgpack:"authorId"`
	CollectionID  *uuid.UUID `bun:"collection_id,type:uuid,nullzero" json:"collectionId,omitempty" msgpack:"collectionId,omitempty"`
	DatePublished time.Time  `bun:"date_published,notnull" json:"datePublished" msgpack:"datePublished"`
	Views         int        `bun:"views,notnull,default:0" json:"views" msgpack:"views"`
}

func (p Poem) GetID() uuid.UUID    { return p.ID }
func (p Poem) SortTime() time.Time { return p.DatePublished }

// PoemFilter matches a poem when ANY of the set criteria holds. Search is a
// case-insensitive substring of the title, the text or the author's username.
// A zero filter matches everything.
type PoemFilter struct {
	AuthorID     *uuid.UUID
	CollectionID *uuid.UUID
	Search       string
}

// IsZero reports whether no criterion is set.
func (f PoemFilter) IsZero() bool {
	return f.AuthorID == nil && f.CollectionID == nil && f.Search == ""
}

type CreatePoemInput struct {
	Title        string
	Text         string
	AuthorID     uuid.UUID
	CollectionID *uuid.UUID
}

func (in CreatePoemInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Title, notBlank),
		validation.Field(&in.Text, notBlank),
		validation.Field(&in.AuthorID, requiredID),
		validation.Field(&in.CollectionID, requiredID),
	)
}

// UpdatePoemInput changes the supplied fields only. ClearCollection detaches
// the poem from its collection and wins over CollectionID.
type UpdatePoemInput struct {
	ID              uuid.UUID
	Title           *string
	Text            *string
	CollectionID    *uuid.UUID
	ClearCollection bool
}

func (in UpdatePoemInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.ID, requiredID),
		validation.Field(&in.Title, notBlank),
		validation.Field(&in.Text, notBlank),
		validation.Field(&in.CollectionID, requiredID),
	)
}

// Apply returns p with the input's changes.
func (in UpdatePoemInput) Apply(p Poem) Poem {
	if in.Title != nil {
		p.Title = *in.Title
	}
	if in.Text != nil {
		p.Text = *in.Text
	}
	if in.CollectionID != nil {
		p.CollectionID = ptr(*in.CollectionID)
	}
	if in.ClearCollection {
		p.CollectionID = nil
	}
	return p
}
