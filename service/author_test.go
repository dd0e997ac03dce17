package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-poetry-cache/model"
	"github.com/goliatone/go-poetry-cache/pkg/apperrors"
	"github.com/goliatone/go-poetry-cache/pkg/testsupport"
	"github.com/goliatone/go-poetry-cache/service"
	"github.com/goliatone/go-poetry-cache/storage/memory"
)

func TestAuthorVariantsArePartitioned(t *testing.T) {
	full := service.AuthorView{IncludePassword: true, IncludeAuthVersion: true}
	public := service.AuthorView{}

	orders := map[string][]service.AuthorView{
		"public first":      {public, full},
		"credentials first": {full, public},
	}

	for name, order := range orders {
		t.Run(name+" by id", func(t *testing.T) {
			ctx := context.Background()
			env, sc := seeded(t)
			id := sc.Authors[0].ID

			for _, view := range append(order, order...) {
				a, err := env.Services.Authors.GetAuthorByID(ctx, id, view)
				require.NoError(t, err)
				assert.Equal(t, view.IncludePassword, a.Password != "", "password presence for %+v", view)
				assert.Equal(t, view.IncludeAuthVersion, a.AuthVersion != "", "authVersion presence for %+v", view)
			}
			assert.Equal(t, 2, env.DB.Calls(memory.TableAuthors, memory.OpFindUnique), "one storage read per variant")
		})

		t.Run(name+" by username", func(t *testing.T) {
			ctx := context.Background()
			env, sc := seeded(t)
			username := sc.Authors[1].Username

			for _, view := range append(order, order...) {
				a, err := env.Services.Authors.GetAuthorByUsername(ctx, username, view)
				require.NoError(t, err)
				assert.Equal(t, view.IncludePassword, a.Password != "", "password presence for %+v", view)
			}
			assert.Equal(t, 2, env.DB.Calls(memory.TableAuthors, memory.OpFindByUsername))
		})
	}
}

func TestAuthorVariants_MixedFlags(t *testing.T) {
	ctx := context.Background()
	env, sc := seeded(t)
	id := sc.Authors[0].ID

	versionOnly, err := env.Services.Authors.GetAuthorByID(ctx, id, service.AuthorView{IncludeAuthVersion: true})
	require.NoError(t, err)
	assert.Empty(t, versionOnly.Password)
	assert.NotEmpty(t, versionOnly.AuthVersion)

	passwordOnly, err := env.Services.Authors.GetAuthorByID(ctx, id, service.AuthorView{IncludePassword: true})
	require.NoError(t, err)
	assert.NotEmpty(t, passwordOnly.Password)
	assert.Empty(t, passwordOnly.AuthVersion)
}

func TestAuthorLists_NeverCarryCredentials(t *testing.T) {
	ctx := context.Background()
	env, _ := seeded(t)

	authors, err := env.Services.Authors.GetAuthors(ctx, model.AuthorFilter{}, all())
	require.NoError(t, err)
	require.Len(t, authors, 4)
	for _, a := range authors {
		assert.Empty(t, a.Password)
		assert.Empty(t, a.AuthVersion)
	}

	conn, err := env.Services.Authors.GetAuthorsConnection(ctx, model.AuthorFilter{Username: "SHEL"}, all())
	require.NoError(t, err)
	require.Len(t, conn.Edges, 1)
	assert.Equal(t, "shelley", conn.Edges[0].Node.Username)
	assert.Empty(t, conn.Edges[0].Node.Password)
}

func TestUpdateAuthor(t *testing.T) {
	ctx := context.Background()
	env, sc := seeded(t)
	svc := env.Services.Authors
	author := sc.Authors[0]
	full := service.AuthorView{IncludePassword: true, IncludeAuthVersion: true}

	before, err := svc.GetAuthorByID(ctx, author.ID, full)
	require.NoError(t, err)
	_, err = svc.GetAuthorByUsername(ctx, author.Username, service.AuthorView{})
	require.NoError(t, err)

	t.Run("username change rotates the token epoch", func(t *testing.T) {
		name := "john.keats"
		updated, err := svc.UpdateAuthor(ctx, model.UpdateAuthorInput{ID: author.ID, Username: &name})
		require.NoError(t, err)
		assert.Equal(t, name, updated.Username)
		assert.Empty(t, updated.Password)

		after, err := svc.GetAuthorByID(ctx, author.ID, full)
		require.NoError(t, err)
		assert.Equal(t, name, after.Username)
		assert.NotEqual(t, before.AuthVersion, after.AuthVersion)
		assert.Equal(t, before.Password, after.Password)

		_, err = svc.GetAuthorByUsername(ctx, author.Username, service.AuthorView{})
		assert.True(t, apperrors.IsNotFound(err), "the old username is gone")

		byName, err := svc.GetAuthorByUsername(ctx, name, service.AuthorView{})
		require.NoError(t, err)
		assert.Equal(t, author.ID, byName.ID)
	})

	t.Run("password change rehashes", func(t *testing.T) {
		prev, err := svc.GetAuthorByID(ctx, author.ID, full)
		require.NoError(t, err)

		password := "ode on melancholy"
		_, err = svc.UpdateAuthor(ctx, model.UpdateAuthorInput{ID: author.ID, Password: &password})
		require.NoError(t, err)

		after, err := svc.GetAuthorByID(ctx, author.ID, full)
		require.NoError(t, err)
		assert.NotEqual(t, prev.Password, after.Password)
		assert.NotEqual(t, password, after.Password)
		assert.NotEqual(t, prev.AuthVersion, after.AuthVersion)
	})

	t.Run("author change drops cached poem search results", func(t *testing.T) {
		poems, err := env.Services.Poems.GetPoems(ctx, model.PoemFilter{Search: "percy"}, all())
		require.NoError(t, err)
		require.Empty(t, poems)

		name := "percy"
		_, err = svc.UpdateAuthor(ctx, model.UpdateAuthorInput{ID: sc.Authors[1].ID, Username: &name})
		require.NoError(t, err)

		poems, err = env.Services.Poems.GetPoems(ctx, model.PoemFilter{Search: "percy"}, all())
		require.NoError(t, err)
		assert.Len(t, poems, 2)
	})

	t.Run("duplicate username", func(t *testing.T) {
		taken := sc.Authors[2].Username
		_, err := svc.UpdateAuthor(ctx, model.UpdateAuthorInput{ID: author.ID, Username: &taken})
		assert.True(t, apperrors.IsConstraintViolation(err))
	})

	t.Run("invalid email", func(t *testing.T) {
		email := "nope"
		_, err := svc.UpdateAuthor(ctx, model.UpdateAuthorInput{ID: author.ID, Email: &email})
		assert.True(t, apperrors.IsValidation(err))
	})
}

func TestRevokeTokens(t *testing.T) {
	ctx := context.Background()
	env, sc := seeded(t)
	svc := env.Services.Authors
	author := sc.Authors[3]
	view := service.AuthorView{IncludeAuthVersion: true}

	before, err := svc.GetAuthorByID(ctx, author.ID, view)
	require.NoError(t, err)

	_, err = svc.RevokeTokens(ctx, author.ID)
	require.NoError(t, err)

	after, err := svc.GetAuthorByID(ctx, author.ID, view)
	require.NoError(t, err)
	assert.NotEmpty(t, after.AuthVersion)
	assert.NotEqual(t, before.AuthVersion, after.AuthVersion)
}

func TestVerifyPassword(t *testing.T) {
	ctx := context.Background()
	env, sc := seeded(t)
	svc := env.Services.Authors
	fx := testsupport.DefaultFixture()
	author := sc.Authors[0]

	a, err := svc.VerifyPassword(ctx, author.Username, fx.Password)
	require.NoError(t, err)
	assert.Equal(t, author.ID, a.ID)
	assert.Empty(t, a.Password)

	var verr *apperrors.ValidationError
	_, err = svc.VerifyPassword(ctx, author.Username, "wrong")
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "password", verr.Field)

	_, err = svc.VerifyPassword(ctx, "nobody", fx.Password)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "password", verr.Field)
}

func TestBcryptHasher(t *testing.T) {
	h := service.NewBcryptHasher(4)

	hash, err := h.Hash("tyger tyger")
	require.NoError(t, err)
	assert.NotEqual(t, "tyger tyger", hash)

	assert.NoError(t, h.Compare(hash, "tyger tyger"))
	assert.True(t, apperrors.IsValidation(h.Compare(hash, "burning bright")))

	long := make([]byte, 80)
	for i := range long {
		long[i] = 'a'
	}
	_, err = h.Hash(string(long))
	assert.True(t, apperrors.IsValidation(err))
}

func TestCreateAuthor(t *testing.T) {
	ctx := context.Background()
	env := testsupport.NewEnv(t)

	a, err := env.Services.Authors.CreateAuthor(ctx, model.CreateAuthorInput{
		Username: "blake",
		Email:    "blake@example.com",
		Password: "songs of innocence",
	})
	require.NoError(t, err)
	assert.Empty(t, a.Password)
	assert.Empty(t, a.AuthVersion)
	assert.False(t, a.DateJoined.IsZero())

	stored, err := env.DB.Authors().FindUnique(ctx, a.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "songs of innocence", stored.Password)
	assert.NotEmpty(t, stored.AuthVersion)

	_, err = env.Services.Authors.CreateAuthor(ctx, model.CreateAuthorInput{Username: "blake2", Email: "blake@example.com", Password: "x"})
	assert.True(t, apperrors.IsConstraintViolation(err), "email is unique")
}
