// Package service exposes the poetry network's entity services. Each service is
// a thin configuration of repositorycache.EntityCache plus the cascade walks and
// entity specific helpers the generic decorator cannot know about.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-poetry-cache/cache"
	"github.com/goliatone/go-poetry-cache/model"
	"github.com/goliatone/go-poetry-cache/pkg/apperrors"
	"github.com/goliatone/go-poetry-cache/repositorycache"
	"github.com/goliatone/go-poetry-cache/storage"
)

// Cache namespaces.
const (
	NamespaceAuthors         = "authors"
	NamespacePoems           = "poems"
	NamespaceComments        = "comments"
	NamespaceLikes           = "likes"
	NamespaceSavedPoems      = "saved_poems"
	NamespaceCollections     = "collections"
	NamespaceFollowedAuthors = "followed_authors"
)

// Services bundles the seven entity services over one storage engine and one cache.
type Services struct {
	Authors         *AuthorService
	Poems           *PoemService
	Comments        *CommentService
	Likes           *LikeService
	SavedPoems      *SavedPoemService
	Collections     *CollectionService
	FollowedAuthors *FollowedAuthorService

	cache *cache.Cache
}

// Option configures New.
type Option func(*settings)

type settings struct {
	logger zerolog.Logger
	now    func() time.Time
	hasher Hasher
	keys   cache.KeySerializer
}

// WithLogger sets the logger services report storage failures to.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

// WithClock replaces the timestamp source used for new rows.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		if now != nil {
			s.now = now
		}
	}
}

// WithHasher replaces the password hasher.
func WithHasher(h Hasher) Option {
	return func(s *settings) {
		if h != nil {
			s.hasher = h
		}
	}
}

// WithKeySerializer replaces the serializer used for list and count keys.
func WithKeySerializer(k cache.KeySerializer) Option {
	return func(s *settings) {
		s.keys = k
	}
}

// Now is the default clock. Timestamps are truncated to microseconds so they
// survive a round trip through PostgreSQL unchanged.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// New builds every service. The engine and cache are shared; the services hold
// no other state.
func New(engine storage.Engine, c *cache.Cache, opts ...Option) *Services {
	s := settings{
		logger: zerolog.Nop(),
		now:    Now,
		hasher: NewBcryptHasher(0),
	}
	for _, opt := range opts {
		opt(&s)
	}

	ec := newCaches(engine, c, s)

	svc := &Services{cache: c}
	svc.Authors = &AuthorService{base: newBase(ec, s, NamespaceAuthors), repo: engine.Authors(), hasher: s.hasher}
	svc.Poems = &PoemService{base: newBase(ec, s, NamespacePoems)}
	svc.Comments = &CommentService{base: newBase(ec, s, NamespaceComments)}
	svc.Likes = &LikeService{base: newBase(ec, s, NamespaceLikes)}
	svc.SavedPoems = &SavedPoemService{base: newBase(ec, s, NamespaceSavedPoems)}
	svc.Collections = &CollectionService{base: newBase(ec, s, NamespaceCollections)}
	svc.FollowedAuthors = &FollowedAuthorService{base: newBase(ec, s, NamespaceFollowedAuthors)}
	return svc
}

// Cache returns the shared cache.
func (s *Services) Cache() *cache.Cache { return s.cache }

// Flush drops every cache entry.
func (s *Services) Flush(ctx context.Context) {
	s.cache.Flush(ctx)
}

// caches holds one EntityCache per table. Services share it so cascades can
// reach other namespaces.
type caches struct {
	authors         *repositorycache.EntityCache[model.Author, model.AuthorFilter]
	poems           *repositorycache.EntityCache[model.Poem, model.PoemFilter]
	comments        *repositorycache.EntityCache[model.Comment, model.CommentFilter]
	likes           *repositorycache.EntityCache[model.Like, model.LikeFilter]
	savedPoems      *repositorycache.EntityCache[model.SavedPoem, model.SavedPoemFilter]
	collections     *repositorycache.EntityCache[model.Collection, model.CollectionFilter]
	followedAuthors *repositorycache.EntityCache[model.FollowedAuthor, model.FollowedAuthorFilter]
}

func newCaches(engine storage.Engine, c *cache.Cache, s settings) *caches {
	logger := s.logger.With().Str("component", "entity_cache").Logger()

	return &caches{
		authors: repositorycache.New(engine.Authors(), c, repositorycache.Options[model.Author]{
			Name:          NamespaceAuthors,
			Variant:       authorVariant(AuthorView{}),
			Variants:      authorVariants(),
			Shape:         AuthorView{}.shape,
			KeySerializer: s.keys,
			Logger:        &logger,
		}),
		poems: repositorycache.New(engine.Poems(), c, repositorycache.Options[model.Poem]{
			Name: NamespacePoems,
			Relations: func(p model.Poem) []repositorycache.Relation {
				rels := []repositorycache.Relation{{Name: NamespaceAuthors, ID: p.AuthorID}}
				if p.CollectionID != nil {
					rels = append(rels, repositorycache.Relation{Name: NamespaceCollections, ID: *p.CollectionID})
				}
				return rels
			},
			KeySerializer: s.keys,
			Logger:        &logger,
		}),
		comments: repositorycache.New(engine.Comments(), c, repositorycache.Options[model.Comment]{
			Name: NamespaceComments,
			Relations: func(cm model.Comment) []repositorycache.Relation {
				return authorAndPoem(cm.AuthorID, cm.PoemID)
			},
			KeySerializer: s.keys,
			Logger:        &logger,
		}),
		likes: repositorycache.New(engine.Likes(), c, repositorycache.Options[model.Like]{
			Name: NamespaceLikes,
			Relations: func(l model.Like) []repositorycache.Relation {
				return authorAndPoem(l.AuthorID, l.PoemID)
			},
			KeySerializer: s.keys,
			Logger:        &logger,
		}),
		savedPoems: repositorycache.New(engine.SavedPoems(), c, repositorycache.Options[model.SavedPoem]{
			Name: NamespaceSavedPoems,
			Relations: func(sp model.SavedPoem) []repositorycache.Relation {
				return authorAndPoem(sp.AuthorID, sp.PoemID)
			},
			KeySerializer: s.keys,
			Logger:        &logger,
		}),
		collections: repositorycache.New(engine.Collections(), c, repositorycache.Options[model.Collection]{
			Name: NamespaceCollections,
			Relations: func(co model.Collection) []repositorycache.Relation {
				return []repositorycache.Relation{{Name: NamespaceAuthors, ID: co.AuthorID}}
			},
			KeySerializer: s.keys,
			Logger:        &logger,
		}),
		followedAuthors: repositorycache.New(engine.FollowedAuthors(), c, repositorycache.Options[model.FollowedAuthor]{
			Name: NamespaceFollowedAuthors,
			Relations: func(f model.FollowedAuthor) []repositorycache.Relation {
				return []repositorycache.Relation{
					{Name: NamespaceAuthors, ID: f.FollowerID},
					{Name: NamespaceAuthors, ID: f.FollowingID},
				}
			},
			KeySerializer: s.keys,
			Logger:        &logger,
		}),
	}
}

func authorAndPoem(authorID, poemID uuid.UUID) []repositorycache.Relation {
	return []repositorycache.Relation{
		{Name: NamespaceAuthors, ID: authorID},
		{Name: NamespacePoems, ID: poemID},
	}
}

// base is embedded by every service.
type base struct {
	*caches
	logger zerolog.Logger
	now    func() time.Time
}

func newBase(ec *caches, s settings, name string) base {
	return base{
		caches: ec,
		logger: s.logger.With().Str("service", name).Logger(),
		now:    s.now,
	}
}

// fail logs storage failures under op and returns err unchanged. Lookups that
// find nothing and rejected input are the caller's business, not the log's.
func (b base) fail(op string, err error) error {
	if err == nil || apperrors.IsNotFound(err) || apperrors.IsValidation(err) {
		return err
	}
	b.logger.Error().Err(err).Str("op", op).Msg("storage operation failed")
	return err
}

// validate converts ozzo-validation output into the error taxonomy.
func validate(v interface{ Validate() error }) error {
	return apperrors.FromValidation(v.Validate())
}

// list runs a plain list read: First limits the result, After is the cursor.
func list[T model.Entity, F any](ctx context.Context, ec *repositorycache.EntityCache[T, F], filter F, args repositorycache.PageArgs) ([]T, error) {
	q := storage.FindManyQuery[F]{Filter: filter, After: args.After}
	if args.First != nil {
		if *args.First < 0 {
			return nil, apperrors.NewValidation("first", "must be non-negative")
		}
		if *args.First == 0 {
			return []T{}, nil
		}
		q.Take = *args.First
	}
	return ec.List(ctx, q)
}

// withTags registers count and list reads against the entities a filter names.
func withTags(ctx context.Context, name string, ids ...*uuid.UUID) context.Context {
	tags := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != nil && *id != uuid.Nil {
			tags = append(tags, repositorycache.Tag(name, *id))
		}
	}
	return repositorycache.WithCacheTags(ctx, tags...)
}
