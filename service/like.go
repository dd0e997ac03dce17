package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/goliatone/go-poetry-cache/model"
	"github.com/goliatone/go-poetry-cache/repositorycache"
)

// LikeService manages likes. A like is an immutable edge: it is created or
// removed, never updated.
type LikeService struct {
	base
}

func (s *LikeService) GetLike(ctx context.Context, id uuid.UUID) (model.Like, error) {
	l, err := s.likes.Get(ctx, id)
	return l, s.fail("getLike", err)
}

func (s *LikeService) GetLikes(ctx context.Context, filter model.LikeFilter, args repositorycache.PageArgs) ([]model.Like, error) {
	rows, err := list(ctx, s.likes, filter, args)
	return rows, s.fail("getLikes", err)
}

func (s *LikeService) GetLikesConnection(ctx context.Context, filter model.LikeFilter, args repositorycache.PageArgs) (repositorycache.Connection[model.Like], error) {
	conn, err := s.likes.Connection(ctx, filter, args)
	return conn, s.fail("getLikesConnection", err)
}

func (s *LikeService) GetLikesCount(ctx context.Context, filter model.LikeFilter) (int, error) {
	ctx = withTags(ctx, NamespacePoems, filter.PoemID)
	ctx = withTags(ctx, NamespaceAuthors, filter.AuthorID)
	n, err := s.likes.Count(ctx, filter)
	return n, s.fail("getLikesCount", err)
}

// CreateLike records that an author likes a poem. A second like of the same
// poem by the same author is a constraint violation.
func (s *LikeService) CreateLike(ctx context.Context, in model.CreateLikeInput) (model.Like, error) {
	if err := validate(in); err != nil {
		return model.Like{}, err
	}

	created, err := s.likes.Create(ctx, model.Like{
		AuthorID:      in.AuthorID,
		PoemID:        in.PoemID,
		DatePublished: s.now(),
	})
	return created, s.fail("createLike", err)
}

func (s *LikeService) RemoveLike(ctx context.Context, id uuid.UUID) (model.Like, error) {
	if _, err := s.likes.Repository().FindUnique(ctx, id); err != nil {
		return model.Like{}, s.fail("removeLike", err)
	}

	deleted, err := s.likes.Remove(ctx, id)
	return deleted, s.fail("removeLike", err)
}
