package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/goliatone/go-poetry-cache/model"
	"github.com/goliatone/go-poetry-cache/repositorycache"
)

type PoemService struct {
	base
}

func (s *PoemService) GetPoem(ctx context.Context, id uuid.UUID) (model.Poem, error) {
	p, err := s.poems.Get(ctx, id)
	return p, s.fail("getPoem", err)
}

// GetPoems lists poems matching any criterion of filter, newest first.
func (s *PoemService) GetPoems(ctx context.Context, filter model.PoemFilter, args repositorycache.PageArgs) ([]model.Poem, error) {
	rows, err := list(ctx, s.poems, filter, args)
	return rows, s.fail("getPoems", err)
}

func (s *PoemService) GetPoemsConnection(ctx context.Context, filter model.PoemFilter, args repositorycache.PageArgs) (repositorycache.Connection[model.Poem], error) {
	conn, err := s.poems.Connection(ctx, filter, args)
	return conn, s.fail("getPoemsConnection", err)
}

// CreatePoem publishes a poem. The author's and the collection's cached reads
// are dropped along with every poem list.
func (s *PoemService) CreatePoem(ctx context.Context, in model.CreatePoemInput) (model.Poem, error) {
	if err := validate(in); err != nil {
		return model.Poem{}, err
	}

	created, err := s.poems.Create(ctx, model.Poem{
		Title:         in.Title,
		Text:          in.Text,
		AuthorID:      in.AuthorID,
		CollectionID:  in.CollectionID,
		DatePublished: s.now(),
	})
	return created, s.fail("createPoem", err)
}

// UpdatePoem applies the supplied fields. Moving a poem between collections
// invalidates both.
func (s *PoemService) UpdatePoem(ctx context.Context, in model.UpdatePoemInput) (model.Poem, error) {
	if err := validate(in); err != nil {
		return model.Poem{}, err
	}

	previous, err := s.poems.Repository().FindUnique(ctx, in.ID)
	if err != nil {
		return model.Poem{}, s.fail("updatePoem", err)
	}

	updated, err := s.poems.Update(ctx, previous, in.Apply(previous))
	return updated, s.fail("updatePoem", err)
}

// AddView increments the poem's view counter.
func (s *PoemService) AddView(ctx context.Context, id uuid.UUID) (model.Poem, error) {
	previous, err := s.poems.Repository().FindUnique(ctx, id)
	if err != nil {
		return model.Poem{}, s.fail("addView", err)
	}

	next := previous
	next.Views++
	updated, err := s.poems.Update(ctx, previous, next)
	return updated, s.fail("addView", err)
}

// RemovePoem deletes a poem together with its comments, likes and saves.
func (s *PoemService) RemovePoem(ctx context.Context, id uuid.UUID) (model.Poem, error) {
	if _, err := s.poems.Repository().FindUnique(ctx, id); err != nil {
		return model.Poem{}, s.fail("removePoem", err)
	}

	d := &dependents{}
	if err := s.poemChildren(ctx, d, id); err != nil {
		return model.Poem{}, s.fail("removePoem", err)
	}

	deleted, err := s.poems.Remove(ctx, id, d.rels...)
	if err != nil {
		return model.Poem{}, s.fail("removePoem", err)
	}
	s.comments.InvalidateQueries(ctx)
	s.likes.InvalidateQueries(ctx)
	s.savedPoems.InvalidateQueries(ctx)

	return deleted, nil
}
