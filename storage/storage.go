// Package storage is the narrow contract the services consume from a relational
// engine. Engines own foreign keys, unique constraints and cascades, and report
// violations as apperrors types.
package storage

import (
	"context"

	"github.com/google/uuid"

	"github.com/goliatone/go-poetry-cache/model"
)

// Direction of a FindMany walk.
type Direction int

const (
	// Descending is the forward list order: sort column DESC, id DESC.
	Descending Direction = iota
	// Ascending reverses both columns. Pagination uses it to probe for a previous page.
	Ascending
)

func (d Direction) String() string {
	if d == Ascending {
		return "asc"
	}
	return "desc"
}

// FindManyQuery describes one ordered, filtered list read.
type FindManyQuery[F any] struct {
	Filter F
	// After starts the walk strictly after this row, in Direction order. An id that
	// no longer exists yields an empty result.
	After *uuid.UUID
	// Take limits the result. Zero means no limit.
	Take      int
	Direction Direction
}

// Repository is the per-table contract.
type Repository[T model.Entity, F any] interface {
	// FindUnique returns *apperrors.NotFoundError when no row has id.
	FindUnique(ctx context.Context, id uuid.UUID) (T, error)
	FindMany(ctx context.Context, q FindManyQuery[F]) ([]T, error)
	// Create stores rec; a nil id is replaced by a generated one.
	Create(ctx context.Context, rec T) (T, error)
	// Update and Delete return *apperrors.ConstraintViolationError when the row is missing.
	Update(ctx context.Context, rec T) (T, error)
	Delete(ctx context.Context, id uuid.UUID) (T, error)
	Count(ctx context.Context, filter F) (int, error)
}

// AuthorRepository adds the unique username lookup.
type AuthorRepository interface {
	Repository[model.Author, model.AuthorFilter]
	// FindByUsername returns *apperrors.NotFoundError when no author has username.
	FindByUsername(ctx context.Context, username string) (model.Author, error)
}

// Engine bundles the seven tables.
type Engine interface {
	Authors() AuthorRepository
	Poems() Repository[model.Poem, model.PoemFilter]
	Comments() Repository[model.Comment, model.CommentFilter]
	Likes() Repository[model.Like, model.LikeFilter]
	SavedPoems() Repository[model.SavedPoem, model.SavedPoemFilter]
	Collections() Repository[model.Collection, model.CollectionFilter]
	FollowedAuthors() Repository[model.FollowedAuthor, model.FollowedAuthorFilter]
	Close() error
}
