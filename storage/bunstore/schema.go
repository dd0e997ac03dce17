package bunstore

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/goliatone/go-poetry-cache/model"
)

type tableSpec struct {
	model       any
	foreignKeys []string
}

// schema lists tables parents first.
var schema = []tableSpec{
	{model: (*model.Author)(nil)},
	{
		model: (*model.Collection)(nil),
		foreignKeys: []string{
			`("author_id") REFERENCES "authors" ("id") ON DELETE CASCADE`,
		},
	},
	{
		model: (*model.Poem)(nil),
		foreignKeys: []string{
			`("author_id") REFERENCES "authors" ("id") ON DELETE CASCADE`,
			`("collection_id") REFERENCES "collections" ("id") ON DELETE SET NULL`,
		},
	},
	{
		model: (*model.Comment)(nil),
		foreignKeys: []string{
			`("author_id") REFERENCES "authors" ("id") ON DELETE CASCADE`,
			`("poem_id") REFERENCES "poems" ("id") ON DELETE CASCADE`,
		},
	},
	{
		model: (*model.Like)(nil),
		foreignKeys: []string{
			`("author_id") REFERENCES "authors" ("id") ON DELETE CASCADE`,
			`("poem_id") REFERENCES "poems" ("id") ON DELETE CASCADE`,
		},
	},
	{
		model: (*model.SavedPoem)(nil),
		foreignKeys: []string{
			`("author_id") REFERENCES "authors" ("id") ON DELETE CASCADE`,
			`("poem_id") REFERENCES "poems" ("id") ON DELETE CASCADE`,
		},
	},
	{
		model: (*model.FollowedAuthor)(nil),
		foreignKeys: []string{
			`("follower_id") REFERENCES "authors" ("id") ON DELETE CASCADE`,
			`("following_id") REFERENCES "authors" ("id") ON DELETE CASCADE`,
		},
	},
}

type indexSpec struct {
	model   any
	name    string
	columns []string
	unique  bool
}

var indexes = []indexSpec{
	{model: (*model.Like)(nil), name: "likes_author_id_poem_id_key", columns: []string{"author_id", "poem_id"}, unique: true},
	{model: (*model.FollowedAuthor)(nil), name: "followed_authors_follower_id_following_id_key", columns: []string{"follower_id", "following_id"}, unique: true},
	{model: (*model.Poem)(nil), name: "poems_author_id_idx", columns: []string{"author_id"}},
	{model: (*model.Comment)(nil), name: "comments_poem_id_idx", columns: []string{"poem_id"}},
	{model: (*model.Collection)(nil), name: "collections_author_id_idx", columns: []string{"author_id"}},
}

// CreateSchema creates every table, index and check constraint if missing.
func CreateSchema(ctx context.Context, db *bun.DB) error {
	for _, spec := range schema {
		q := db.NewCreateTable().Model(spec.model).IfNotExists()
		for _, fk := range spec.foreignKeys {
			q = q.ForeignKey(fk)
		}
		if _, err := q.Exec(ctx); err != nil {
			return fmt.Errorf("create table %T: %w", spec.model, err)
		}
	}

	for _, idx := range indexes {
		q := db.NewCreateIndex().Model(idx.model).Index(idx.name).Column(idx.columns...).IfNotExists()
		if idx.unique {
			q = q.Unique()
		}
		if _, err := q.Exec(ctx); err != nil {
			return fmt.Errorf("create index %s: %w", idx.name, err)
		}
	}

	_, err := db.ExecContext(ctx,
		`ALTER TABLE "followed_authors" ADD CONSTRAINT "followed_authors_check" CHECK (follower_id <> following_id)`)
	if err != nil && !isDuplicateObject(err) {
		return fmt.Errorf("add self-follow check: %w", err)
	}
	return nil
}

// DropSchema removes every table, children first.
func DropSchema(ctx context.Context, db *bun.DB) error {
	for i := len(schema) - 1; i >= 0; i-- {
		if _, err := db.NewDropTable().Model(schema[i].model).IfExists().Cascade().Exec(ctx); err != nil {
			return fmt.Errorf("drop table %T: %w", schema[i].model, err)
		}
	}
	return nil
}

// Truncate empties every table.
func Truncate(ctx context.Context, db *bun.DB) error {
	_, err := db.ExecContext(ctx,
		`TRUNCATE "followed_authors", "saved_poems", "likes", "comments", "poems", "collections", "authors" CASCADE`)
	return err
}
