package memory

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/goliatone/go-poetry-cache/model"
	"github.com/goliatone/go-poetry-cache/pkg/apperrors"
)

var (
	errUniqueViolation = errors.New("duplicate key value violates unique constraint")
	errFKViolation     = errors.New("insert or update violates foreign key constraint")
	errCheckViolation  = errors.New("new row violates check constraint")
	errMissingRow      = errors.New("record to update or delete does not exist")
)

func uniqueViolation(table, columns string) error {
	return apperrors.NewConstraintViolation(fmt.Sprintf("%s_%s_key", table, columns), errUniqueViolation)
}

func fkViolation(table, column string) error {
	return apperrors.NewConstraintViolation(fmt.Sprintf("%s_%s_fkey", table, column), errFKViolation)
}

func missingRow(table string, id uuid.UUID) error {
	return apperrors.NewConstraintViolation(table+"_pkey", fmt.Errorf("%w: %s", errMissingRow, id))
}

func checkAuthor(db *DB, a model.Author) error {
	for id, other := range db.authors {
		if id == a.ID {
			continue
		}
		if other.Username == a.Username {
			return uniqueViolation(TableAuthors, "username")
		}
		if other.Email == a.Email {
			return uniqueViolation(TableAuthors, "email")
		}
	}
	return nil
}

func checkPoem(db *DB, p model.Poem) error {
	if _, ok := db.authors[p.AuthorID]; !ok {
		return fkViolation(TablePoems, "author_id")
	}
	if p.CollectionID != nil {
		if _, ok := db.collections[*p.CollectionID]; !ok {
			return fkViolation(TablePoems, "collection_id")
		}
	}
	return nil
}

func (db *DB) requireAuthorAndPoem(table string, authorID, poemID uuid.UUID) error {
	if _, ok := db.authors[authorID]; !ok {
		return fkViolation(table, "author_id")
	}
	if _, ok := db.poems[poemID]; !ok {
		return fkViolation(table, "poem_id")
	}
	return nil
}

func checkLike(db *DB, l model.Like) error {
	if err := db.requireAuthorAndPoem(TableLikes, l.AuthorID, l.PoemID); err != nil {
		return err
	}
	for id, other := range db.likes {
		if id != l.ID && other.AuthorID == l.AuthorID && other.PoemID == l.PoemID {
			return uniqueViolation(TableLikes, "author_id_poem_id")
		}
	}
	return nil
}

func checkFollow(db *DB, f model.FollowedAuthor) error {
	if f.FollowerID == f.FollowingID {
		return apperrors.NewConstraintViolation("followed_authors_check", errCheckViolation)
	}
	if _, ok := db.authors[f.FollowerID]; !ok {
		return fkViolation(TableFollowedAuthors, "follower_id")
	}
	if _, ok := db.authors[f.FollowingID]; !ok {
		return fkViolation(TableFollowedAuthors, "following_id")
	}
	for id, other := range db.followedAuthors {
		if id != f.ID && other.FollowerID == f.FollowerID && other.FollowingID == f.FollowingID {
			return uniqueViolation(TableFollowedAuthors, "follower_id_following_id")
		}
	}
	return nil
}

// deletePoemChildren mirrors ON DELETE CASCADE on comments, likes and saved_poems.
func (db *DB) deletePoemChildren(poemID uuid.UUID) {
	for id, c := range db.comments {
		if c.PoemID == poemID {
			delete(db.comments, id)
		}
	}
	for id, l := range db.likes {
		if l.PoemID == poemID {
			delete(db.likes, id)
		}
	}
	for id, s := range db.savedPoems {
		if s.PoemID == poemID {
			delete(db.savedPoems, id)
		}
	}
}

// detachPoems mirrors ON DELETE SET NULL on poems.collection_id.
func (db *DB) detachPoems(collectionID uuid.UUID) {
	for id, p := range db.poems {
		if p.CollectionID != nil && *p.CollectionID == collectionID {
			p.CollectionID = nil
			db.poems[id] = p
		}
	}
}

func (db *DB) deleteAuthorChildren(authorID uuid.UUID) {
	for id, p := range db.poems {
		if p.AuthorID == authorID {
			delete(db.poems, id)
			db.deletePoemChildren(id)
		}
	}
	for id, c := range db.collections {
		if c.AuthorID == authorID {
			delete(db.collections, id)
			db.detachPoems(id)
		}
	}
	for id, c := range db.comments {
		if c.AuthorID == authorID {
			delete(db.comments, id)
		}
	}
	for id, l := range db.likes {
		if l.AuthorID == authorID {
			delete(db.likes, id)
		}
	}
	for id, s := range db.savedPoems {
		if s.AuthorID == authorID {
			delete(db.savedPoems, id)
		}
	}
	for id, f := range db.followedAuthors {
		if f.FollowerID == authorID || f.FollowingID == authorID {
			delete(db.followedAuthors, id)
		}
	}
}

func matchAuthor(_ *DB, a model.Author, f model.AuthorFilter) bool {
	return f.Username == "" || containsFold(a.Username, f.Username)
}

func matchPoem(db *DB, p model.Poem, f model.PoemFilter) bool {
	if f.IsZero() {
		return true
	}
	if f.AuthorID != nil && *f.AuthorID == p.AuthorID {
		return true
	}
	if f.CollectionID != nil && p.CollectionID != nil && *f.CollectionID == *p.CollectionID {
		return true
	}
	if f.Search != "" {
		if containsFold(p.Title, f.Search) || containsFold(p.Text, f.Search) {
			return true
		}
		if author, ok := db.authors[p.AuthorID]; ok && containsFold(author.Username, f.Search) {
			return true
		}
	}
	return false
}

func matchCollection(db *DB, c model.Collection, f model.CollectionFilter) bool {
	if !idMatches(f.AuthorID, c.AuthorID) {
		return false
	}
	if f.TitleContains != "" && !containsFold(c.Title, f.TitleContains) {
		return false
	}
	if f.AuthorUsernameContains != "" {
		author, ok := db.authors[c.AuthorID]
		if !ok || !containsFold(author.Username, f.AuthorUsernameContains) {
			return false
		}
	}
	return true
}
