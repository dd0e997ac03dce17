package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/goliatone/go-poetry-cache/model"
	"github.com/goliatone/go-poetry-cache/pkg/apperrors"
	"github.com/goliatone/go-poetry-cache/repositorycache"
	"github.com/goliatone/go-poetry-cache/storage"
)

// AuthorView selects the credential columns a read returns. The zero value
// omits both, which is what public reads want. Every combination is cached
// under its own key, so a credential-bearing entry is never served to a read
// that asked for the public shape.
type AuthorView struct {
	IncludePassword    bool
	IncludeAuthVersion bool
}

func (v AuthorView) shape(a model.Author) model.Author {
	return a.Redact(!v.IncludePassword, !v.IncludeAuthVersion)
}

func authorVariant(v AuthorView) []string {
	return []string{
		fmt.Sprintf("password=%t", v.IncludePassword),
		fmt.Sprintf("authVersion=%t", v.IncludeAuthVersion),
	}
}

// authorVariants lists the key variant of every AuthorView.
func authorVariants() [][]string {
	var out [][]string
	for _, password := range []bool{false, true} {
		for _, authVersion := range []bool{false, true} {
			out = append(out, authorVariant(AuthorView{IncludePassword: password, IncludeAuthVersion: authVersion}))
		}
	}
	return out
}

// AuthorService manages authors, their credentials and token epochs.
type AuthorService struct {
	base
	repo   storage.AuthorRepository
	hasher Hasher
}

// GetAuthorByID reads an author in the requested view.
func (s *AuthorService) GetAuthorByID(ctx context.Context, id uuid.UUID, view AuthorView) (model.Author, error) {
	a, err := s.authors.GetVariant(ctx, id, view.shape, authorVariant(view)...)
	return a, s.fail("getAuthorById", err)
}

// GetAuthorByUsername reads an author by exact username in the requested view.
func (s *AuthorService) GetAuthorByUsername(ctx context.Context, username string, view AuthorView) (model.Author, error) {
	key := s.usernameKey(username, view)
	a, err := s.authors.Lookup(ctx, key, func(ctx context.Context) (model.Author, error) {
		row, err := s.repo.FindByUsername(ctx, username)
		if err != nil {
			return row, err
		}
		return view.shape(row), nil
	})
	return a, s.fail("getAuthorByUsername", err)
}

func (s *AuthorService) usernameKey(username string, view AuthorView) string {
	parts := append([]string{s.authors.Name(), "username", username}, authorVariant(view)...)
	return strings.Join(parts, ":")
}

// GetAuthors lists authors whose username contains filter.Username. Credentials
// are never included.
func (s *AuthorService) GetAuthors(ctx context.Context, filter model.AuthorFilter, args repositorycache.PageArgs) ([]model.Author, error) {
	rows, err := list(ctx, s.authors, filter, args)
	return rows, s.fail("getAuthors", err)
}

func (s *AuthorService) GetAuthorsConnection(ctx context.Context, filter model.AuthorFilter, args repositorycache.PageArgs) (repositorycache.Connection[model.Author], error) {
	conn, err := s.authors.Connection(ctx, filter, args)
	return conn, s.fail("getAuthorsConnection", err)
}

// CreateAuthor registers an author with a hashed password and a fresh token epoch.
func (s *AuthorService) CreateAuthor(ctx context.Context, in model.CreateAuthorInput) (model.Author, error) {
	if err := validate(in); err != nil {
		return model.Author{}, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return model.Author{}, s.fail("createAuthor", err)
	}

	created, err := s.authors.Create(ctx, model.Author{
		Username:    in.Username,
		Email:       in.Email,
		Password:    hash,
		AuthVersion: uuid.NewString(),
		DateJoined:  s.now(),
	})
	if err != nil {
		return model.Author{}, s.fail("createAuthor", err)
	}
	return AuthorView{}.shape(created), nil
}

// UpdateAuthor applies the supplied fields. A change to the username, email or
// password rotates the token epoch.
func (s *AuthorService) UpdateAuthor(ctx context.Context, in model.UpdateAuthorInput) (model.Author, error) {
	if err := validate(in); err != nil {
		return model.Author{}, err
	}

	previous, err := s.repo.FindUnique(ctx, in.ID)
	if err != nil {
		return model.Author{}, s.fail("updateAuthor", err)
	}

	next := previous
	if in.Username != nil {
		next.Username = *in.Username
	}
	if in.Email != nil {
		next.Email = *in.Email
	}
	if in.Password != nil {
		hash, err := s.hasher.Hash(*in.Password)
		if err != nil {
			return model.Author{}, s.fail("updateAuthor", err)
		}
		next.Password = hash
	}
	if in.ChangesCredentials() {
		next.AuthVersion = uuid.NewString()
	}

	return s.write(ctx, "updateAuthor", previous, next)
}

// RevokeTokens rotates the author's token epoch, invalidating every token
// issued against the old one.
func (s *AuthorService) RevokeTokens(ctx context.Context, id uuid.UUID) (model.Author, error) {
	previous, err := s.repo.FindUnique(ctx, id)
	if err != nil {
		return model.Author{}, s.fail("revokeTokens", err)
	}

	next := previous
	next.AuthVersion = uuid.NewString()
	return s.write(ctx, "revokeTokens", previous, next)
}

func (s *AuthorService) write(ctx context.Context, op string, previous, next model.Author) (model.Author, error) {
	rels, err := s.authorChildren(ctx, previous.ID, false)
	if err != nil {
		return model.Author{}, s.fail(op, err)
	}

	updated, err := s.authors.Update(ctx, previous, next, rels...)
	if err != nil {
		return model.Author{}, s.fail(op, err)
	}
	// poem search and collection filters match on the author's username
	s.poems.InvalidateQueries(ctx)
	s.collections.InvalidateQueries(ctx)

	return AuthorView{}.shape(updated), nil
}

// RemoveAuthor deletes an author. Storage cascades the delete to everything
// the author owns; the cache drops every entry depending on those rows.
func (s *AuthorService) RemoveAuthor(ctx context.Context, id uuid.UUID) (model.Author, error) {
	if _, err := s.repo.FindUnique(ctx, id); err != nil {
		return model.Author{}, s.fail("removeAuthor", err)
	}

	rels, err := s.authorChildren(ctx, id, true)
	if err != nil {
		return model.Author{}, s.fail("removeAuthor", err)
	}

	deleted, err := s.authors.Remove(ctx, id, rels...)
	if err != nil {
		return model.Author{}, s.fail("removeAuthor", err)
	}
	s.invalidateAllQueries(ctx)

	return AuthorView{}.shape(deleted), nil
}

// VerifyPassword checks password against the stored hash and returns the
// public view of the author on success. A wrong password or an unknown
// username is a ValidationError on "password", so callers cannot tell them apart.
func (s *AuthorService) VerifyPassword(ctx context.Context, username, password string) (model.Author, error) {
	a, err := s.GetAuthorByUsername(ctx, username, AuthorView{IncludePassword: true})
	if err != nil {
		if apperrors.IsNotFound(err) {
			return model.Author{}, apperrors.NewValidation("password", "is incorrect")
		}
		return model.Author{}, err
	}

	if err := s.hasher.Compare(a.Password, password); err != nil {
		return model.Author{}, err
	}
	return AuthorView{}.shape(a), nil
}
