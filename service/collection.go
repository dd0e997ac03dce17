package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/goliatone/go-poetry-cache/model"
	"github.com/goliatone/go-poetry-cache/repositorycache"
)

type CollectionService struct {
	base
}

func (s *CollectionService) GetCollection(ctx context.Context, id uuid.UUID) (model.Collection, error) {
	c, err := s.collections.Get(ctx, id)
	return c, s.fail("getCollection", err)
}

// GetCollections lists collections matching every criterion of filter.
func (s *CollectionService) GetCollections(ctx context.Context, filter model.CollectionFilter, args repositorycache.PageArgs) ([]model.Collection, error) {
	rows, err := list(ctx, s.collections, filter, args)
	return rows, s.fail("getCollections", err)
}

func (s *CollectionService) GetCollectionsConnection(ctx context.Context, filter model.CollectionFilter, args repositorycache.PageArgs) (repositorycache.Connection[model.Collection], error) {
	conn, err := s.collections.Connection(ctx, filter, args)
	return conn, s.fail("getCollectionsConnection", err)
}

func (s *CollectionService) CreateCollection(ctx context.Context, in model.CreateCollectionInput) (model.Collection, error) {
	if err := validate(in); err != nil {
		return model.Collection{}, err
	}

	created, err := s.collections.Create(ctx, model.Collection{
		Title:       in.Title,
		AuthorID:    in.AuthorID,
		DateCreated: s.now(),
	})
	return created, s.fail("createCollection", err)
}

func (s *CollectionService) UpdateCollection(ctx context.Context, in model.UpdateCollectionInput) (model.Collection, error) {
	if err := validate(in); err != nil {
		return model.Collection{}, err
	}

	previous, err := s.collections.Repository().FindUnique(ctx, in.ID)
	if err != nil {
		return model.Collection{}, s.fail("updateCollection", err)
	}

	updated, err := s.collections.Update(ctx, previous, in.Apply(previous))
	return updated, s.fail("updateCollection", err)
}

// RemoveCollection deletes a collection. Its poems survive with their
// collection cleared, so their cached reads are dropped as well.
func (s *CollectionService) RemoveCollection(ctx context.Context, id uuid.UUID) (model.Collection, error) {
	if _, err := s.collections.Repository().FindUnique(ctx, id); err != nil {
		return model.Collection{}, s.fail("removeCollection", err)
	}

	d := &dependents{}
	if err := s.collectionPoems(ctx, d, id); err != nil {
		return model.Collection{}, s.fail("removeCollection", err)
	}

	deleted, err := s.collections.Remove(ctx, id, d.rels...)
	if err != nil {
		return model.Collection{}, s.fail("removeCollection", err)
	}
	s.poems.InvalidateQueries(ctx)

	return deleted, nil
}
