// Package memory is an in-process relational engine implementing storage.Engine.
//
// It enforces the same foreign keys, unique constraints and cascades as the
// Postgres schema in storage/bunstore, and counts every call per table so tests
// can assert how often the services reached storage.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/goliatone/go-poetry-cache/model"
	"github.com/goliatone/go-poetry-cache/storage"
)

// Table names, shared with DB.Calls.
const (
	TableAuthors         = "authors"
	TablePoems           = "poems"
	TableComments        = "comments"
	TableLikes           = "likes"
	TableSavedPoems      = "saved_poems"
	TableCollections     = "collections"
	TableFollowedAuthors = "followed_authors"
)

// Operation names, shared with DB.Calls.
const (
	OpFindUnique     = "FindUnique"
	OpFindByUsername = "FindByUsername"
	OpFindMany       = "FindMany"
	OpCreate         = "Create"
	OpUpdate         = "Update"
	OpDelete         = "Delete"
	OpCount          = "Count"
)

var _ storage.Engine = (*DB)(nil)

// DB holds every table behind one lock, so constraint checks and cascades see a
// consistent snapshot.
type DB struct {
	mu              sync.RWMutex
	authors         map[uuid.UUID]model.Author
	poems           map[uuid.UUID]model.Poem
	comments        map[uuid.UUID]model.Comment
	likes           map[uuid.UUID]model.Like
	savedPoems      map[uuid.UUID]model.SavedPoem
	collections     map[uuid.UUID]model.Collection
	followedAuthors map[uuid.UUID]model.FollowedAuthor

	callsMu sync.Mutex
	calls   map[string]int

	authorRepo     *authorTable
	poemRepo       *table[model.Poem, model.PoemFilter]
	commentRepo    *table[model.Comment, model.CommentFilter]
	likeRepo       *table[model.Like, model.LikeFilter]
	savedPoemRepo  *table[model.SavedPoem, model.SavedPoemFilter]
	collectionRepo *table[model.Collection, model.CollectionFilter]
	followRepo     *table[model.FollowedAuthor, model.FollowedAuthorFilter]
}

// New returns an empty database.
func New() *DB {
	db := &DB{
		authors:         make(map[uuid.UUID]model.Author),
		poems:           make(map[uuid.UUID]model.Poem),
		comments:        make(map[uuid.UUID]model.Comment),
		likes:           make(map[uuid.UUID]model.Like),
		savedPoems:      make(map[uuid.UUID]model.SavedPoem),
		collections:     make(map[uuid.UUID]model.Collection),
		followedAuthors: make(map[uuid.UUID]model.FollowedAuthor),
		calls:           make(map[string]int),
	}

	db.authorRepo = &authorTable{table: &table[model.Author, model.AuthorFilter]{
		db:     db,
		name:   TableAuthors,
		entity: "Author",
		rows:   func(db *DB) map[uuid.UUID]model.Author { return db.authors },
		withID: func(a model.Author, id uuid.UUID) model.Author { a.ID = id; return a },
		match:  matchAuthor,
		check:  checkAuthor,
		cascade: func(db *DB, a model.Author) {
			db.deleteAuthorChildren(a.ID)
		},
	}}
	db.poemRepo = &table[model.Poem, model.PoemFilter]{
		db:     db,
		name:   TablePoems,
		entity: "Poem",
		rows:   func(db *DB) map[uuid.UUID]model.Poem { return db.poems },
		withID: func(p model.Poem, id uuid.UUID) model.Poem { p.ID = id; return p },
		match:  matchPoem,
		check:  checkPoem,
		cascade: func(db *DB, p model.Poem) {
			db.deletePoemChildren(p.ID)
		},
	}
	db.commentRepo = &table[model.Comment, model.CommentFilter]{
		db:     db,
		name:   TableComments,
		entity: "Comment",
		rows:   func(db *DB) map[uuid.UUID]model.Comment { return db.comments },
		withID: func(c model.Comment, id uuid.UUID) model.Comment { c.ID = id; return c },
		match: func(_ *DB, c model.Comment, f model.CommentFilter) bool {
			return idMatches(f.AuthorID, c.AuthorID) && idMatches(f.PoemID, c.PoemID)
		},
		check: func(db *DB, c model.Comment) error {
			return db.requireAuthorAndPoem(TableComments, c.AuthorID, c.PoemID)
		},
	}
	db.likeRepo = &table[model.Like, model.LikeFilter]{
		db:     db,
		name:   TableLikes,
		entity: "Like",
		rows:   func(db *DB) map[uuid.UUID]model.Like { return db.likes },
		withID: func(l model.Like, id uuid.UUID) model.Like { l.ID = id; return l },
		match: func(_ *DB, l model.Like, f model.LikeFilter) bool {
			return idMatches(f.AuthorID, l.AuthorID) && idMatches(f.PoemID, l.PoemID)
		},
		check: checkLike,
	}
	db.savedPoemRepo = &table[model.SavedPoem, model.SavedPoemFilter]{
		db:     db,
		name:   TableSavedPoems,
		entity: "SavedPoem",
		rows:   func(db *DB) map[uuid.UUID]model.SavedPoem { return db.savedPoems },
		withID: func(s model.SavedPoem, id uuid.UUID) model.SavedPoem { s.ID = id; return s },
		match: func(_ *DB, s model.SavedPoem, f model.SavedPoemFilter) bool {
			return idMatches(f.AuthorID, s.AuthorID) && idMatches(f.PoemID, s.PoemID)
		},
		check: func(db *DB, s model.SavedPoem) error {
			return db.requireAuthorAndPoem(TableSavedPoems, s.AuthorID, s.PoemID)
		},
	}
	db.collectionRepo = &table[model.Collection, model.CollectionFilter]{
		db:     db,
		name:   TableCollections,
		entity: "Collection",
		rows:   func(db *DB) map[uuid.UUID]model.Collection { return db.collections },
		withID: func(c model.Collection, id uuid.UUID) model.Collection { c.ID = id; return c },
		match:  matchCollection,
		check: func(db *DB, c model.Collection) error {
			if _, ok := db.authors[c.AuthorID]; !ok {
				return fkViolation(TableCollections, "author_id")
			}
			return nil
		},
		cascade: func(db *DB, c model.Collection) {
			db.detachPoems(c.ID)
		},
	}
	db.followRepo = &table[model.FollowedAuthor, model.FollowedAuthorFilter]{
		db:     db,
		name:   TableFollowedAuthors,
		entity: "FollowedAuthor",
		rows:   func(db *DB) map[uuid.UUID]model.FollowedAuthor { return db.followedAuthors },
		withID: func(f model.FollowedAuthor, id uuid.UUID) model.FollowedAuthor { f.ID = id; return f },
		match: func(_ *DB, fa model.FollowedAuthor, f model.FollowedAuthorFilter) bool {
			return idMatches(f.FollowerID, fa.FollowerID) && idMatches(f.FollowingID, fa.FollowingID)
		},
		check: checkFollow,
	}

	return db
}

func (db *DB) Authors() storage.AuthorRepository { return db.authorRepo }

func (db *DB) Poems() storage.Repository[model.Poem, model.PoemFilter] { return db.poemRepo }

func (db *DB) Comments() storage.Repository[model.Comment, model.CommentFilter] {
	return db.commentRepo
}

func (db *DB) Likes() storage.Repository[model.Like, model.LikeFilter] { return db.likeRepo }

func (db *DB) SavedPoems() storage.Repository[model.SavedPoem, model.SavedPoemFilter] {
	return db.savedPoemRepo
}

func (db *DB) Collections() storage.Repository[model.Collection, model.CollectionFilter] {
	return db.collectionRepo
}

func (db *DB) FollowedAuthors() storage.Repository[model.FollowedAuthor, model.FollowedAuthorFilter] {
	return db.followRepo
}

// Close is a no-op.
func (db *DB) Close() error { return nil }

// Calls reports how many times op ran against table since the last ResetCalls.
func (db *DB) Calls(table, op string) int {
	db.callsMu.Lock()
	defer db.callsMu.Unlock()
	return db.calls[table+"."+op]
}

// TotalCalls sums every recorded call.
func (db *DB) TotalCalls() int {
	db.callsMu.Lock()
	defer db.callsMu.Unlock()
	total := 0
	for _, n := range db.calls {
		total += n
	}
	return total
}

// ResetCalls zeroes the call counters.
func (db *DB) ResetCalls() {
	db.callsMu.Lock()
	defer db.callsMu.Unlock()
	db.calls = make(map[string]int)
}

func (db *DB) record(table, op string) {
	db.callsMu.Lock()
	db.calls[table+"."+op]++
	db.callsMu.Unlock()
}

// Truncate empties every table.
func (db *DB) Truncate(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	clear(db.authors)
	clear(db.poems)
	clear(db.comments)
	clear(db.likes)
	clear(db.savedPoems)
	clear(db.collections)
	clear(db.followedAuthors)
	return nil
}

func idMatches(want *uuid.UUID, got uuid.UUID) bool {
	return want == nil || *want == got
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func (db *DB) String() string {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return fmt.Sprintf("memory.DB{authors:%d poems:%d comments:%d likes:%d saved:%d collections:%d follows:%d}",
		len(db.authors), len(db.poems), len(db.comments), len(db.likes),
		len(db.savedPoems), len(db.collections), len(db.followedAuthors))
}
