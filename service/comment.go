package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/goliatone/go-poetry-cache/model"
	"github.com/goliatone/go-poetry-cache/repositorycache"
)

type CommentService struct {
	base
}

func (s *CommentService) GetComment(ctx context.Context, id uuid.UUID) (model.Comment, error) {
	c, err := s.comments.Get(ctx, id)
	return c, s.fail("getComment", err)
}

func (s *CommentService) GetComments(ctx context.Context, filter model.CommentFilter, args repositorycache.PageArgs) ([]model.Comment, error) {
	rows, err := list(ctx, s.comments, filter, args)
	return rows, s.fail("getComments", err)
}

func (s *CommentService) GetCommentsConnection(ctx context.Context, filter model.CommentFilter, args repositorycache.PageArgs) (repositorycache.Connection[model.Comment], error) {
	conn, err := s.comments.Connection(ctx, filter, args)
	return conn, s.fail("getCommentsConnection", err)
}

// GetCommentsCount counts comments, registered against the poem and author the
// filter names.
func (s *CommentService) GetCommentsCount(ctx context.Context, filter model.CommentFilter) (int, error) {
	ctx = withTags(ctx, NamespacePoems, filter.PoemID)
	ctx = withTags(ctx, NamespaceAuthors, filter.AuthorID)
	n, err := s.comments.Count(ctx, filter)
	return n, s.fail("getCommentsCount", err)
}

func (s *CommentService) CreateComment(ctx context.Context, in model.CreateCommentInput) (model.Comment, error) {
	if err := validate(in); err != nil {
		return model.Comment{}, err
	}

	created, err := s.comments.Create(ctx, model.Comment{
		Text:          in.Text,
		AuthorID:      in.AuthorID,
		PoemID:        in.PoemID,
		DatePublished: s.now(),
	})
	return created, s.fail("createComment", err)
}

func (s *CommentService) UpdateComment(ctx context.Context, in model.UpdateCommentInput) (model.Comment, error) {
	if err := validate(in); err != nil {
		return model.Comment{}, err
	}

	previous, err := s.comments.Repository().FindUnique(ctx, in.ID)
	if err != nil {
		return model.Comment{}, s.fail("updateComment", err)
	}

	updated, err := s.comments.Update(ctx, previous, in.Apply(previous))
	return updated, s.fail("updateComment", err)
}

func (s *CommentService) RemoveComment(ctx context.Context, id uuid.UUID) (model.Comment, error) {
	if _, err := s.comments.Repository().FindUnique(ctx, id); err != nil {
		return model.Comment{}, s.fail("removeComment", err)
	}

	deleted, err := s.comments.Remove(ctx, id)
	return deleted, s.fail("removeComment", err)
}
