package bunstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-poetry-cache/model"
	"github.com/goliatone/go-poetry-cache/pkg/apperrors"
	"github.com/goliatone/go-poetry-cache/storage"
)

// table implements storage.Repository for one model. Inserts, deletes and
// counts go through go-repository-bun; keyset reads and full-row updates are
// written against bun directly.
type table[T model.Entity, F any] struct {
	db         *bun.DB
	repo       repository.Repository[*T]
	name       string
	entity     string
	sortColumn string
	setID      func(*T, uuid.UUID)
	filter     func(*bun.SelectQuery, F) *bun.SelectQuery
}

func newTable[T model.Entity, F any](
	db *bun.DB,
	name, entity, sortColumn string,
	setID func(*T, uuid.UUID),
	filter func(*bun.SelectQuery, F) *bun.SelectQuery,
) *table[T, F] {
	handlers := repository.ModelHandlers[*T]{
		NewRecord: func() *T { return new(T) },
		GetID: func(rec *T) uuid.UUID {
			if rec == nil {
				return uuid.Nil
			}
			return (*rec).GetID()
		},
		SetID: setID,
		GetIdentifier: func() string {
			return "id"
		},
	}
	return &table[T, F]{
		db:         db,
		repo:       repository.NewRepository[*T](db, handlers),
		name:       name,
		entity:     entity,
		sortColumn: sortColumn,
		setID:      setID,
		filter:     filter,
	}
}

func (t *table[T, F]) FindUnique(ctx context.Context, id uuid.UUID) (T, error) {
	row := new(T)
	err := t.db.NewSelect().
		Model(row).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		var zero T
		return zero, apperrors.NewNotFound(t.entity, id.String())
	}
	if err != nil {
		var zero T
		return zero, translateError(err)
	}
	return *row, nil
}

func (t *table[T, F]) FindMany(ctx context.Context, q storage.FindManyQuery[F]) ([]T, error) {
	rows := make([]T, 0)
	query := t.db.NewSelect().Model(&rows)
	query = t.filter(query, q.Filter)

	op, dir := "<", "DESC"
	if q.Direction == storage.Ascending {
		op, dir = ">", "ASC"
	}

	if q.After != nil {
		var (
			sortValue time.Time
			cursorID  uuid.UUID
		)
		err := t.db.NewSelect().
			TableExpr("?", bun.Ident(t.name)).
			ColumnExpr("?", bun.Ident(t.sortColumn)).
			Column("id").
			Where("id = ?", *q.After).
			Limit(1).
			Scan(ctx, &sortValue, &cursorID)
		if errors.Is(err, sql.ErrNoRows) {
			return []T{}, nil
		}
		if err != nil {
			return nil, translateError(err)
		}
		query = query.Where(
			fmt.Sprintf("(?TableAlias.?, ?TableAlias.id) %s (?, ?)", op),
			bun.Ident(t.sortColumn), sortValue, cursorID,
		)
	}

	query = query.OrderExpr(
		fmt.Sprintf("?TableAlias.? %s, ?TableAlias.id %s", dir, dir),
		bun.Ident(t.sortColumn),
	)
	if q.Take > 0 {
		query = query.Limit(q.Take)
	}

	if err := query.Scan(ctx); err != nil {
		return nil, translateError(err)
	}
	return rows, nil
}

func (t *table[T, F]) Create(ctx context.Context, rec T) (T, error) {
	if rec.GetID() == uuid.Nil {
		t.setID(&rec, uuid.New())
	}
	created, err := t.repo.Create(ctx, &rec)
	if err != nil {
		var zero T
		return zero, translateError(err)
	}
	return *created, nil
}

func (t *table[T, F]) Update(ctx context.Context, rec T) (T, error) {
	res, err := t.db.NewUpdate().
		Model(&rec).
		WherePK().
		Exec(ctx)
	if err != nil {
		var zero T
		return zero, translateError(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		var zero T
		return zero, apperrors.NewConstraintViolation(t.name+"_pkey", sql.ErrNoRows)
	}
	return rec, nil
}

func (t *table[T, F]) Delete(ctx context.Context, id uuid.UUID) (T, error) {
	row, err := t.FindUnique(ctx, id)
	if apperrors.IsNotFound(err) {
		var zero T
		return zero, apperrors.NewConstraintViolation(t.name+"_pkey", err)
	}
	if err != nil {
		var zero T
		return zero, err
	}
	if err := t.repo.Delete(ctx, &row); err != nil {
		var zero T
		return zero, translateError(err)
	}
	return row, nil
}

func (t *table[T, F]) Count(ctx context.Context, filter F) (int, error) {
	n, err := t.repo.Count(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return t.filter(q, filter)
	})
	if err != nil {
		return 0, translateError(err)
	}
	return n, nil
}

type authorTable struct {
	*table[model.Author, model.AuthorFilter]
}

func (t *authorTable) FindByUsername(ctx context.Context, username string) (model.Author, error) {
	var row model.Author
	err := t.db.NewSelect().
		Model(&row).
		Where("?TableAlias.username = ?", username).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Author{}, apperrors.NewNotFound("Author", username)
	}
	if err != nil {
		return model.Author{}, translateError(err)
	}
	return row, nil
}

// likePattern escapes LIKE wildcards and wraps s for a substring match.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

func whereIDs(q *bun.SelectQuery, col1 string, id1 *uuid.UUID, col2 string, id2 *uuid.UUID) *bun.SelectQuery {
	if id1 != nil {
		q = q.Where("?TableAlias.? = ?", bun.Ident(col1), *id1)
	}
	if id2 != nil {
		q = q.Where("?TableAlias.? = ?", bun.Ident(col2), *id2)
	}
	return q
}

func filterAuthors(q *bun.SelectQuery, f model.AuthorFilter) *bun.SelectQuery {
	if f.Username != "" {
		q = q.Where("LOWER(?TableAlias.username) LIKE LOWER(?)", likePattern(f.Username))
	}
	return q
}

// filterPoems ORs the criteria that are set.
func filterPoems(q *bun.SelectQuery, f model.PoemFilter) *bun.SelectQuery {
	if f.IsZero() {
		return q
	}
	return q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
		if f.AuthorID != nil {
			q = q.WhereOr("?TableAlias.author_id = ?", *f.AuthorID)
		}
		if f.CollectionID != nil {
			q = q.WhereOr("?TableAlias.collection_id = ?", *f.CollectionID)
		}
		if f.Search != "" {
			pattern := likePattern(f.Search)
			q = q.WhereOr("LOWER(?TableAlias.title) LIKE LOWER(?)", pattern).
				WhereOr("LOWER(?TableAlias.text) LIKE LOWER(?)", pattern).
				WhereOr("?TableAlias.author_id IN (SELECT id FROM authors WHERE LOWER(username) LIKE LOWER(?))", pattern)
		}
		return q
	})
}

func filterCollections(q *bun.SelectQuery, f model.CollectionFilter) *bun.SelectQuery {
	if f.AuthorID != nil {
		q = q.Where("?TableAlias.author_id = ?", *f.AuthorID)
	}
	if f.TitleContains != "" {
		q = q.Where("LOWER(?TableAlias.title) LIKE LOWER(?)", likePattern(f.TitleContains))
	}
	if f.AuthorUsernameContains != "" {
		q = q.Where("?TableAlias.author_id IN (SELECT id FROM authors WHERE LOWER(username) LIKE LOWER(?))",
			likePattern(f.AuthorUsernameContains))
	}
	return q
}
