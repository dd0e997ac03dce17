package model

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Author is a registered user. Password holds a bcrypt hash and AuthVersion the
// current token epoch; both are blanked unless a caller asks for them.
type Author struct {
	bun.BaseModel `bun:"table:authors,alias:au" json:"-" msgpack:"-"`

	ID          uuid.UUID `bun:"id,pk,type:uuid" json:"id" msgpack:"id"`
	Username    string    `bun:"username,notnull,unique" json:"username" msgpack:"username"`
	Email       string    `bun:"email,notnull,unique" json:"email" msgpack:"email"`
	Password    string    `bun:"password,notnull" json:"password,omitempty" msgpack:"password,omitempty"`
	AuthVersion string    `bun:"auth_version,notnull" json:"authVersion,omitempty" msgpack:"authVersion,omitempty"`
	DateJoined  time.Time `bun:"date_joined,notnull" json:"dateJoined" msgpack:"dateJoined"`
}

func (a Author) GetID() uuid.UUID    { return a.ID }
func (a Author) SortTime() time.Time { return a.DateJoined }

// Redact blanks the credential fields selected by the flags.
func (a Author) Redact(omitPassword, omitAuthVersion bool) Author {
	if omitPassword {
		a.Password = ""
	}
	if omitAuthVersion {
		a.AuthVersion = ""
	}
	return a
}

// AuthorFilter narrows author lists. Username matches case-insensitively by substring.
type AuthorFilter struct {
	Username string
}

// CreateAuthorInput registers an author. Password is the plain text secret.
type CreateAuthorInput struct {
	Username string
	Email    string
	Password string
}

func (in CreateAuthorInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Username, notBlank),
		validation.Field(&in.Email, notBlank, is.EmailFormat),
		validation.Field(&in.Password, notBlank),
	)
}

// UpdateAuthorInput changes the supplied fields only.
type UpdateAuthorInput struct {
	ID       uuid.UUID
	Username *string
	Email    *string
	Password *string
}

func (in UpdateAuthorInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.ID, requiredID),
		validation.Field(&in.Username, notBlank),
		validation.Field(&in.Email, notBlank, is.EmailFormat),
		validation.Field(&in.Password, notBlank),
	)
}

// ChangesCredentials reports whether applying the input must rotate AuthVersion.
func (in UpdateAuthorInput) ChangesCredentials() bool {
	return in.Username != nil || in.Email != nil || in.Password != nil
}
