package model

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// FollowedAuthor is a directed follow edge from FollowerID to FollowingID.
type FollowedAuthor struct {
	bun.BaseModel `bun:"table:followed_authors,alias:fa" json:"-" msgpack:"-"`

	ID           uuid.UUID `bun:"id,pk,type:uuid" json:"id" msgpack:"id"`
	FollowerID   uuid.UUID `bun:"follower_id,notnull,type:uuid" json:"followerId" msgpack:"followerId"`
	FollowingID  uuid.UUID `bun:"following_id,notnull,type:uuid" json:"followingId" msgpack:"followingId"`
	DateFollowed time.Time `bun:"date_followed,notnull" json:"dateFollowed" msgpack:"dateFollowed"`
}

func (f FollowedAuthor) GetID() uuid.UUID    { return f.ID }
func (f FollowedAuthor) SortTime() time.Time { return f.DateFollowed }

type FollowedAuthorFilter struct {
	FollowerID  *uuid.UUID
	FollowingID *uuid.UUID
}

type CreateFollowedAuthorInput struct {
	FollowerID  uuid.UUID
	FollowingID uuid.UUID
}

// Validate rejects self-follows along with missing ids.
func (in CreateFollowedAuthorInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.FollowerID, requiredID),
		validation.Field(&in.FollowingID, requiredID,
			distinctFrom(in.FollowerID, "an author cannot follow themselves"),
		),
	)
}
