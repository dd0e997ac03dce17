// Package bunstore implements storage.Engine on PostgreSQL through bun and
// go-repository-bun, with pgx as the driver.
package bunstore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"github.com/goliatone/go-poetry-cache/model"
	"github.com/goliatone/go-poetry-cache/storage"
)

// Config holds the pool settings.
type Config struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	ConnectTimeout  time.Duration
}

// DefaultConfig returns pool settings suitable for a single service instance.
func DefaultConfig(dsn string) Config {
	return Config{
		DSN:             dsn,
		MaxConns:        10,
		MinConns:        2,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: 30 * time.Minute,
		ConnectTimeout:  5 * time.Second,
	}
}

// Engine owns the pool and the per-table repositories.
type Engine struct {
	pool *pgxpool.Pool
	db   *bun.DB

	authors         *authorTable
	poems           *table[model.Poem, model.PoemFilter]
	comments        *table[model.Comment, model.CommentFilter]
	likes           *table[model.Like, model.LikeFilter]
	savedPoems      *table[model.SavedPoem, model.SavedPoemFilter]
	collections     *table[model.Collection, model.CollectionFilter]
	followedAuthors *table[model.FollowedAuthor, model.FollowedAuthorFilter]
}

var _ storage.Engine = (*Engine)(nil)

// Open connects and verifies the pool with a ping. It does not create the schema.
func Open(ctx context.Context, cfg Config) (*Engine, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	if cfg.ConnectTimeout > 0 {
		poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	db := bun.NewDB(stdlib.OpenDBFromPool(pool), pgdialect.New())
	return newEngine(pool, db), nil
}

func newEngine(pool *pgxpool.Pool, db *bun.DB) *Engine {
	return &Engine{
		pool: pool,
		db:   db,
		authors: &authorTable{table: newTable[model.Author, model.AuthorFilter](
			db, "authors", "Author", "date_joined",
			func(a *model.Author, id uuid.UUID) { a.ID = id },
			filterAuthors,
		)},
		poems: newTable[model.Poem, model.PoemFilter](
			db, "poems", "Poem", "date_published",
			func(p *model.Poem, id uuid.UUID) { p.ID = id },
			filterPoems,
		),
		comments: newTable[model.Comment, model.CommentFilter](
			db, "comments", "Comment", "date_published",
			func(c *model.Comment, id uuid.UUID) { c.ID = id },
			func(q *bun.SelectQuery, f model.CommentFilter) *bun.SelectQuery {
				return whereIDs(q, "author_id", f.AuthorID, "poem_id", f.PoemID)
			},
		),
		likes: newTable[model.Like, model.LikeFilter](
			db, "likes", "Like", "date_published",
			func(l *model.Like, id uuid.UUID) { l.ID = id },
			func(q *bun.SelectQuery, f model.LikeFilter) *bun.SelectQuery {
				return whereIDs(q, "author_id", f.AuthorID, "poem_id", f.PoemID)
			},
		),
		savedPoems: newTable[model.SavedPoem, model.SavedPoemFilter](
			db, "saved_poems", "SavedPoem", "date_saved",
			func(s *model.SavedPoem, id uuid.UUID) { s.ID = id },
			func(q *bun.SelectQuery, f model.SavedPoemFilter) *bun.SelectQuery {
				return whereIDs(q, "author_id", f.AuthorID, "poem_id", f.PoemID)
			},
		),
		collections: newTable[model.Collection, model.CollectionFilter](
			db, "collections", "Collection", "date_created",
			func(c *model.Collection, id uuid.UUID) { c.ID = id },
			filterCollections,
		),
		followedAuthors: newTable[model.FollowedAuthor, model.FollowedAuthorFilter](
			db, "followed_authors", "FollowedAuthor", "date_followed",
			func(f *model.FollowedAuthor, id uuid.UUID) { f.ID = id },
			func(q *bun.SelectQuery, f model.FollowedAuthorFilter) *bun.SelectQuery {
				return whereIDs(q, "follower_id", f.FollowerID, "following_id", f.FollowingID)
			},
		),
	}
}

// DB exposes the bun handle for schema management.
func (e *Engine) DB() *bun.DB { return e.db }

func (e *Engine) Authors() storage.AuthorRepository { return e.authors }

func (e *Engine) Poems() storage.Repository[model.Poem, model.PoemFilter] { return e.poems }

func (e *Engine) Comments() storage.Repository[model.Comment, model.CommentFilter] {
	return e.comments
}

func (e *Engine) Likes() storage.Repository[model.Like, model.LikeFilter] { return e.likes }

func (e *Engine) SavedPoems() storage.Repository[model.SavedPoem, model.SavedPoemFilter] {
	return e.savedPoems
}

func (e *Engine) Collections() storage.Repository[model.Collection, model.CollectionFilter] {
	return e.collections
}

func (e *Engine) FollowedAuthors() storage.Repository[model.FollowedAuthor, model.FollowedAuthorFilter] {
	return e.followedAuthors
}

// Close releases the bun handle and the pool.
func (e *Engine) Close() error {
	err := e.db.Close()
	e.pool.Close()
	return err
}
