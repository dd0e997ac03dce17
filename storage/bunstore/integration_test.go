package bunstore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-poetry-cache/model"
	"github.com/goliatone/go-poetry-cache/pkg/apperrors"
	"github.com/goliatone/go-poetry-cache/storage"
)

// openTestEngine connects to POETRY_TEST_DATABASE_DSN and resets the schema.
func openTestEngine(t *testing.T) *Engine {
	t.Helper()
	dsn := os.Getenv("POETRY_TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("POETRY_TEST_DATABASE_DSN not set")
	}

	ctx := context.Background()
	engine, err := Open(ctx, DefaultConfig(dsn))
	require.NoError(t, err)
	t.Cleanup(func() { _ = engine.Close() })

	require.NoError(t, DropSchema(ctx, engine.DB()))
	require.NoError(t, CreateSchema(ctx, engine.DB()))
	// second run must be a no-op
	require.NoError(t, CreateSchema(ctx, engine.DB()))
	return engine
}

func ts(minutes int) time.Time {
	return time.Date(2024, 1, 1, 0, minutes, 0, 0, time.UTC)
}

func TestEngine_CRUD(t *testing.T) {
	engine := openTestEngine(t)
	ctx := context.Background()

	author, err := engine.Authors().Create(ctx, model.Author{
		Username: "keats", Email: "keats@example.com", Password: "hash", AuthVersion: uuid.NewString(), DateJoined: ts(0),
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, author.ID)

	got, err := engine.Authors().FindUnique(ctx, author.ID)
	require.NoError(t, err)
	assert.Equal(t, author.Username, got.Username)
	assert.True(t, author.DateJoined.Equal(got.DateJoined))

	byName, err := engine.Authors().FindByUsername(ctx, "keats")
	require.NoError(t, err)
	assert.Equal(t, author.ID, byName.ID)

	_, err = engine.Authors().Create(ctx, model.Author{Username: "keats", Email: "x@example.com", DateJoined: ts(1)})
	assert.True(t, apperrors.IsConstraintViolation(err))

	poem, err := engine.Poems().Create(ctx, model.Poem{Title: "Ode", Text: "x", AuthorID: author.ID, DatePublished: ts(2)})
	require.NoError(t, err)

	poem.Title = "Ode to a Nightingale"
	poem.Views = 3
	updated, err := engine.Poems().Update(ctx, poem)
	require.NoError(t, err)
	assert.Equal(t, "Ode to a Nightingale", updated.Title)

	_, err = engine.Poems().Update(ctx, model.Poem{ID: uuid.New(), AuthorID: author.ID, DatePublished: ts(3)})
	assert.True(t, apperrors.IsConstraintViolation(err))

	_, err = engine.Poems().Create(ctx, model.Poem{Title: "Orphan", Text: "x", AuthorID: uuid.New(), DatePublished: ts(3)})
	assert.True(t, apperrors.IsConstraintViolation(err))

	_, err = engine.FollowedAuthors().Create(ctx, model.FollowedAuthor{FollowerID: author.ID, FollowingID: author.ID, DateFollowed: ts(4)})
	assert.True(t, apperrors.IsConstraintViolation(err))

	_, err = engine.Poems().FindUnique(ctx, uuid.New())
	assert.True(t, apperrors.IsNotFound(err))

	_, err = engine.Authors().Delete(ctx, author.ID)
	require.NoError(t, err)
	_, err = engine.Poems().FindUnique(ctx, poem.ID)
	assert.True(t, apperrors.IsNotFound(err), "poems cascade with their author")

	_, err = engine.Authors().Delete(ctx, author.ID)
	assert.True(t, apperrors.IsConstraintViolation(err))
}

func TestEngine_KeysetPagination(t *testing.T) {
	engine := openTestEngine(t)
	ctx := context.Background()

	author, err := engine.Authors().Create(ctx, model.Author{Username: "shelley", Email: "s@example.com", DateJoined: ts(0)})
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		// two rows share each timestamp to exercise the id tie-break
		_, err := engine.Poems().Create(ctx, model.Poem{Title: "p", Text: "t", AuthorID: author.ID, DatePublished: ts(i / 2)})
		require.NoError(t, err)
	}

	all, err := engine.Poems().FindMany(ctx, storage.FindManyQuery[model.PoemFilter]{})
	require.NoError(t, err)
	require.Len(t, all, 5)

	var walked []uuid.UUID
	var after *uuid.UUID
	for {
		page, err := engine.Poems().FindMany(ctx, storage.FindManyQuery[model.PoemFilter]{After: after, Take: 2})
		require.NoError(t, err)
		if len(page) == 0 {
			break
		}
		for _, p := range page {
			walked = append(walked, p.ID)
		}
		last := page[len(page)-1].ID
		after = &last
	}

	expected := make([]uuid.UUID, len(all))
	for i, p := range all {
		expected[i] = p.ID
	}
	assert.Equal(t, expected, walked)

	before, err := engine.Poems().FindMany(ctx, storage.FindManyQuery[model.PoemFilter]{
		After: &all[1].ID, Take: 1, Direction: storage.Ascending,
	})
	require.NoError(t, err)
	require.Len(t, before, 1)
	assert.Equal(t, all[0].ID, before[0].ID)

	n, err := engine.Poems().Count(ctx, model.PoemFilter{Search: "SHEL"})
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}
