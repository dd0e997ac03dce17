package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/goliatone/go-poetry-cache/model"
	"github.com/goliatone/go-poetry-cache/repositorycache"
)

// SavedPoemService manages an author's saved poems. Saves are immutable edges.
type SavedPoemService struct {
	base
}

func (s *SavedPoemService) GetSavedPoem(ctx context.Context, id uuid.UUID) (model.SavedPoem, error) {
	sp, err := s.savedPoems.Get(ctx, id)
	return sp, s.fail("getSavedPoem", err)
}

func (s *SavedPoemService) GetSavedPoems(ctx context.Context, filter model.SavedPoemFilter, args repositorycache.PageArgs) ([]model.SavedPoem, error) {
	rows, err := list(ctx, s.savedPoems, filter, args)
	return rows, s.fail("getSavedPoems", err)
}

func (s *SavedPoemService) GetSavedPoemsConnection(ctx context.Context, filter model.SavedPoemFilter, args repositorycache.PageArgs) (repositorycache.Connection[model.SavedPoem], error) {
	conn, err := s.savedPoems.Connection(ctx, filter, args)
	return conn, s.fail("getSavedPoemsConnection", err)
}

func (s *SavedPoemService) GetSavedPoemsCount(ctx context.Context, filter model.SavedPoemFilter) (int, error) {
	ctx = withTags(ctx, NamespacePoems, filter.PoemID)
	ctx = withTags(ctx, NamespaceAuthors, filter.AuthorID)
	n, err := s.savedPoems.Count(ctx, filter)
	return n, s.fail("getSavedPoemsCount", err)
}

func (s *SavedPoemService) CreateSavedPoem(ctx context.Context, in model.CreateSavedPoemInput) (model.SavedPoem, error) {
	if err := validate(in); err != nil {
		return model.SavedPoem{}, err
	}

	created, err := s.savedPoems.Create(ctx, model.SavedPoem{
		AuthorID:  in.AuthorID,
		PoemID:    in.PoemID,
		DateSaved: s.now(),
	})
	return created, s.fail("createSavedPoem", err)
}

func (s *SavedPoemService) RemoveSavedPoem(ctx context.Context, id uuid.UUID) (model.SavedPoem, error) {
	if _, err := s.savedPoems.Repository().FindUnique(ctx, id); err != nil {
		return model.SavedPoem{}, s.fail("removeSavedPoem", err)
	}

	deleted, err := s.savedPoems.Remove(ctx, id)
	return deleted, s.fail("removeSavedPoem", err)
}
