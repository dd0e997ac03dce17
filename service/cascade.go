package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/goliatone/go-poetry-cache/model"
	"github.com/goliatone/go-poetry-cache/repositorycache"
	"github.com/goliatone/go-poetry-cache/storage"
)

// The storage engine cascades deletes on its own, but the relation index only
// learns about rows it is told about. These walks read the affected child ids
// straight from storage, bypassing the cache, before the parent changes.

type dependents struct {
	rels []repositorycache.Relation
}

func (d *dependents) add(name string, ids ...uuid.UUID) {
	for _, id := range ids {
		d.rels = append(d.rels, repositorycache.Relation{Name: name, ID: id})
	}
}

func findAll[T model.Entity, F any](ctx context.Context, ec *repositorycache.EntityCache[T, F], filter F) ([]uuid.UUID, error) {
	rows, err := ec.Repository().FindMany(ctx, storage.FindManyQuery[F]{Filter: filter})
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, len(rows))
	for i, row := range rows {
		ids[i] = row.GetID()
	}
	return ids, nil
}

// poemChildren collects the comments, likes and saved poems of a poem.
func (c *caches) poemChildren(ctx context.Context, d *dependents, poemID uuid.UUID) error {
	comments, err := findAll(ctx, c.comments, model.CommentFilter{PoemID: &poemID})
	if err != nil {
		return err
	}
	likes, err := findAll(ctx, c.likes, model.LikeFilter{PoemID: &poemID})
	if err != nil {
		return err
	}
	saved, err := findAll(ctx, c.savedPoems, model.SavedPoemFilter{PoemID: &poemID})
	if err != nil {
		return err
	}

	d.add(NamespaceComments, comments...)
	d.add(NamespaceLikes, likes...)
	d.add(NamespaceSavedPoems, saved...)
	return nil
}

// collectionPoems collects the poems filed in a collection.
func (c *caches) collectionPoems(ctx context.Context, d *dependents, collectionID uuid.UUID) error {
	poems, err := findAll(ctx, c.poems, model.PoemFilter{CollectionID: &collectionID})
	if err != nil {
		return err
	}
	d.add(NamespacePoems, poems...)
	return nil
}

// authorChildren collects everything that belongs to an author: poems,
// collections, comments, likes, saved poems and both sides of every follow
// edge. With deep set it descends into the poems and collections too, which a
// delete needs because their children disappear or change with them.
func (c *caches) authorChildren(ctx context.Context, authorID uuid.UUID, deep bool) ([]repositorycache.Relation, error) {
	d := &dependents{}

	poems, err := findAll(ctx, c.poems, model.PoemFilter{AuthorID: &authorID})
	if err != nil {
		return nil, err
	}
	collections, err := findAll(ctx, c.collections, model.CollectionFilter{AuthorID: &authorID})
	if err != nil {
		return nil, err
	}
	comments, err := findAll(ctx, c.comments, model.CommentFilter{AuthorID: &authorID})
	if err != nil {
		return nil, err
	}
	likes, err := findAll(ctx, c.likes, model.LikeFilter{AuthorID: &authorID})
	if err != nil {
		return nil, err
	}
	saved, err := findAll(ctx, c.savedPoems, model.SavedPoemFilter{AuthorID: &authorID})
	if err != nil {
		return nil, err
	}

	d.add(NamespacePoems, poems...)
	d.add(NamespaceCollections, collections...)
	d.add(NamespaceComments, comments...)
	d.add(NamespaceLikes, likes...)
	d.add(NamespaceSavedPoems, saved...)

	if err := c.followEdges(ctx, d, authorID); err != nil {
		return nil, err
	}

	if deep {
		for _, id := range poems {
			if err := c.poemChildren(ctx, d, id); err != nil {
				return nil, err
			}
		}
		for _, id := range collections {
			if err := c.collectionPoems(ctx, d, id); err != nil {
				return nil, err
			}
		}
	}

	return d.rels, nil
}

// followEdges collects the follow edges on both sides of an author and the
// authors at their other end.
func (c *caches) followEdges(ctx context.Context, d *dependents, authorID uuid.UUID) error {
	repo := c.followedAuthors.Repository()
	for _, filter := range []model.FollowedAuthorFilter{
		{FollowerID: &authorID},
		{FollowingID: &authorID},
	} {
		edges, err := repo.FindMany(ctx, storage.FindManyQuery[model.FollowedAuthorFilter]{Filter: filter})
		if err != nil {
			return err
		}
		for _, e := range edges {
			d.add(NamespaceFollowedAuthors, e.ID)
			other := e.FollowingID
			if other == authorID {
				other = e.FollowerID
			}
			d.add(NamespaceAuthors, other)
		}
	}
	return nil
}

// invalidateAllQueries drops the list and count results of every namespace.
func (c *caches) invalidateAllQueries(ctx context.Context) {
	c.authors.InvalidateQueries(ctx)
	c.poems.InvalidateQueries(ctx)
	c.comments.InvalidateQueries(ctx)
	c.likes.InvalidateQueries(ctx)
	c.savedPoems.InvalidateQueries(ctx)
	c.collections.InvalidateQueries(ctx)
	c.followedAuthors.InvalidateQueries(ctx)
}
