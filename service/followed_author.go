package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/goliatone/go-poetry-cache/model"
	"github.com/goliatone/go-poetry-cache/repositorycache"
)

// FollowedAuthorService manages directed follow edges between authors.
type FollowedAuthorService struct {
	base
}

func (s *FollowedAuthorService) GetFollowedAuthor(ctx context.Context, id uuid.UUID) (model.FollowedAuthor, error) {
	f, err := s.followedAuthors.Get(ctx, id)
	return f, s.fail("getFollowedAuthor", err)
}

func (s *FollowedAuthorService) GetFollowedAuthors(ctx context.Context, filter model.FollowedAuthorFilter, args repositorycache.PageArgs) ([]model.FollowedAuthor, error) {
	rows, err := list(ctx, s.followedAuthors, filter, args)
	return rows, s.fail("getFollowedAuthors", err)
}

func (s *FollowedAuthorService) GetFollowedAuthorsConnection(ctx context.Context, filter model.FollowedAuthorFilter, args repositorycache.PageArgs) (repositorycache.Connection[model.FollowedAuthor], error) {
	conn, err := s.followedAuthors.Connection(ctx, filter, args)
	return conn, s.fail("getFollowedAuthorsConnection", err)
}

// GetFollowedAuthorsCount counts follow edges. With FollowerID set it is the
// number of authors followed, with FollowingID set the number of followers.
func (s *FollowedAuthorService) GetFollowedAuthorsCount(ctx context.Context, filter model.FollowedAuthorFilter) (int, error) {
	ctx = withTags(ctx, NamespaceAuthors, filter.FollowerID, filter.FollowingID)
	n, err := s.followedAuthors.Count(ctx, filter)
	return n, s.fail("getFollowedAuthorsCount", err)
}

// CreateFollowedAuthor makes FollowerID follow FollowingID. Following oneself
// is a ValidationError.
func (s *FollowedAuthorService) CreateFollowedAuthor(ctx context.Context, in model.CreateFollowedAuthorInput) (model.FollowedAuthor, error) {
	if err := validate(in); err != nil {
		return model.FollowedAuthor{}, err
	}

	created, err := s.followedAuthors.Create(ctx, model.FollowedAuthor{
		FollowerID:   in.FollowerID,
		FollowingID:  in.FollowingID,
		DateFollowed: s.now(),
	})
	return created, s.fail("createFollowedAuthor", err)
}

func (s *FollowedAuthorService) RemoveFollowedAuthor(ctx context.Context, id uuid.UUID) (model.FollowedAuthor, error) {
	if _, err := s.followedAuthors.Repository().FindUnique(ctx, id); err != nil {
		return model.FollowedAuthor{}, s.fail("removeFollowedAuthor", err)
	}

	deleted, err := s.followedAuthors.Remove(ctx, id)
	return deleted, s.fail("removeFollowedAuthor", err)
}
