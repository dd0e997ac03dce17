package memory

import (
	"bytes"
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/goliatone/go-poetry-cache/model"
	"github.com/goliatone/go-poetry-cache/pkg/apperrors"
	"github.com/goliatone/go-poetry-cache/storage"
)

// table implements storage.Repository over one of the DB maps. The hooks run
// while the DB lock is held.
type table[T model.Entity, F any] struct {
	db      *DB
	name    string
	entity  string
	rows    func(*DB) map[uuid.UUID]T
	withID  func(T, uuid.UUID) T
	match   func(*DB, T, F) bool
	check   func(*DB, T) error
	cascade func(*DB, T)
}

var _ storage.Repository[model.Poem, model.PoemFilter] = (*table[model.Poem, model.PoemFilter])(nil)

func (t *table[T, F]) FindUnique(ctx context.Context, id uuid.UUID) (T, error) {
	t.db.record(t.name, OpFindUnique)
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	t.db.mu.RLock()
	defer t.db.mu.RUnlock()

	row, ok := t.rows(t.db)[id]
	if !ok {
		return zero, apperrors.NewNotFound(t.entity, id.String())
	}
	return row, nil
}

func (t *table[T, F]) FindMany(ctx context.Context, q storage.FindManyQuery[F]) ([]T, error) {
	t.db.record(t.name, OpFindMany)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t.db.mu.RLock()
	defer t.db.mu.RUnlock()

	rows := t.rows(t.db)

	var cursor *T
	if q.After != nil {
		row, ok := rows[*q.After]
		if !ok {
			return []T{}, nil
		}
		cursor = &row
	}

	out := make([]T, 0)
	for _, row := range rows {
		if !t.match(t.db, row, q.Filter) {
			continue
		}
		if cursor != nil && !follows(row, *cursor, q.Direction) {
			continue
		}
		out = append(out, row)
	}

	sort.Slice(out, func(i, j int) bool {
		return follows(out[j], out[i], q.Direction)
	})

	if q.Take > 0 && len(out) > q.Take {
		out = out[:q.Take]
	}
	return out, nil
}

func (t *table[T, F]) Create(ctx context.Context, rec T) (T, error) {
	t.db.record(t.name, OpCreate)
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	if rec.GetID() == uuid.Nil {
		rec = t.withID(rec, uuid.New())
	}

	t.db.mu.Lock()
	defer t.db.mu.Unlock()

	rows := t.rows(t.db)
	if _, exists := rows[rec.GetID()]; exists {
		return zero, uniqueViolation(t.name, "pkey")
	}
	if t.check != nil {
		if err := t.check(t.db, rec); err != nil {
			return zero, err
		}
	}
	rows[rec.GetID()] = rec
	return rec, nil
}

func (t *table[T, F]) Update(ctx context.Context, rec T) (T, error) {
	t.db.record(t.name, OpUpdate)
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	t.db.mu.Lock()
	defer t.db.mu.Unlock()

	rows := t.rows(t.db)
	if _, exists := rows[rec.GetID()]; !exists {
		return zero, missingRow(t.name, rec.GetID())
	}
	if t.check != nil {
		if err := t.check(t.db, rec); err != nil {
			return zero, err
		}
	}
	rows[rec.GetID()] = rec
	return rec, nil
}

func (t *table[T, F]) Delete(ctx context.Context, id uuid.UUID) (T, error) {
	t.db.record(t.name, OpDelete)
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	t.db.mu.Lock()
	defer t.db.mu.Unlock()

	rows := t.rows(t.db)
	row, exists := rows[id]
	if !exists {
		return zero, missingRow(t.name, id)
	}
	delete(rows, id)
	if t.cascade != nil {
		t.cascade(t.db, row)
	}
	return row, nil
}

func (t *table[T, F]) Count(ctx context.Context, filter F) (int, error) {
	t.db.record(t.name, OpCount)
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	t.db.mu.RLock()
	defer t.db.mu.RUnlock()

	n := 0
	for _, row := range t.rows(t.db) {
		if t.match(t.db, row, filter) {
			n++
		}
	}
	return n, nil
}

// follows reports whether a comes strictly after b in the walk order.
// Descending orders by sort time DESC then id DESC; Ascending reverses both.
func follows(a, b model.Entity, dir storage.Direction) bool {
	at, bt := a.SortTime(), b.SortTime()
	var cmp int
	switch {
	case at.Before(bt):
		cmp = -1
	case at.After(bt):
		cmp = 1
	default:
		aid, bid := a.GetID(), b.GetID()
		cmp = bytes.Compare(aid[:], bid[:])
	}
	if dir == storage.Ascending {
		return cmp > 0
	}
	return cmp < 0
}

type authorTable struct {
	*table[model.Author, model.AuthorFilter]
}

var _ storage.AuthorRepository = (*authorTable)(nil)

func (t *authorTable) FindByUsername(ctx context.Context, username string) (model.Author, error) {
	t.db.record(t.name, OpFindByUsername)
	if err := ctx.Err(); err != nil {
		return model.Author{}, err
	}

	t.db.mu.RLock()
	defer t.db.mu.RUnlock()

	for _, a := range t.db.authors {
		if a.Username == username {
			return a, nil
		}
	}
	return model.Author{}, apperrors.NewNotFound("Author", username)
}
