package repositorycache

import (
	"context"

	"github.com/google/uuid"

	"github.com/goliatone/go-poetry-cache/model"
	"github.com/goliatone/go-poetry-cache/pkg/apperrors"
)

// PageArgs are the relay forward-pagination arguments. A nil First returns
// every remaining row.
type PageArgs struct {
	First *int
	After *uuid.UUID
}

// Edge pairs a node with its cursor, which is always the node id.
type Edge[T any] struct {
	Node   T         `json:"node"`
	Cursor uuid.UUID `json:"cursor"`
}

type PageInfo struct {
	HasNextPage     bool       `json:"hasNextPage"`
	HasPreviousPage bool       `json:"hasPreviousPage"`
	StartCursor     *uuid.UUID `json:"startCursor"`
	EndCursor       *uuid.UUID `json:"endCursor"`
	PageSize        int        `json:"pageSize"`
}

// Connection is one page of a list in forward order.
type Connection[T any] struct {
	Edges    []Edge[T] `json:"edges"`
	PageInfo PageInfo  `json:"pageInfo"`
}

// Nodes returns the page's nodes in order.
func (c Connection[T]) Nodes() []T {
	out := make([]T, len(c.Edges))
	for i, e := range c.Edges {
		out[i] = e.Node
	}
	return out
}

// PageFetcher returns up to take rows (all when take is 0) strictly after the
// cursor, in forward order.
type PageFetcher[T any] func(ctx context.Context, after *uuid.UUID, take int) ([]T, error)

// PreviousProbe reports whether any row precedes id in forward order.
type PreviousProbe func(ctx context.Context, id uuid.UUID) (bool, error)

// Paginate builds one page. It fetches First+1 rows to learn hasNextPage and
// asks probe about the first edge to learn hasPreviousPage.
//
// First == 0 yields no edges and reports hasNextPage when any row remains.
// A negative First is a validation error.
func Paginate[T model.Entity](ctx context.Context, args PageArgs, fetch PageFetcher[T], probe PreviousProbe) (Connection[T], error) {
	take := 0
	if args.First != nil {
		if *args.First < 0 {
			return Connection[T]{}, apperrors.NewValidation("first", "must be non-negative")
		}
		take = *args.First + 1
	}

	rows, err := fetch(ctx, args.After, take)
	if err != nil {
		return Connection[T]{}, err
	}

	hasNext := false
	if args.First != nil && len(rows) > *args.First {
		hasNext = true
		rows = rows[:*args.First]
	}

	conn := Connection[T]{Edges: make([]Edge[T], len(rows))}
	for i, row := range rows {
		conn.Edges[i] = Edge[T]{Node: row, Cursor: row.GetID()}
	}

	conn.PageInfo = PageInfo{
		HasNextPage: hasNext,
		PageSize:    len(conn.Edges),
	}
	if len(conn.Edges) == 0 {
		return conn, nil
	}

	start := conn.Edges[0].Cursor
	end := conn.Edges[len(conn.Edges)-1].Cursor
	conn.PageInfo.StartCursor = &start
	conn.PageInfo.EndCursor = &end

	hasPrev, err := probe(ctx, start)
	if err != nil {
		return Connection[T]{}, err
	}
	conn.PageInfo.HasPreviousPage = hasPrev

	return conn, nil
}
