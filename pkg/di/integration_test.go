package di

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"

	"github.com/goliatone/go-poetry-cache/cache"
	"github.com/goliatone/go-poetry-cache/internal/config"
	"github.com/goliatone/go-poetry-cache/model"
	"github.com/goliatone/go-poetry-cache/pkg/testsupport"
	"github.com/goliatone/go-poetry-cache/repositorycache"
	"github.com/goliatone/go-poetry-cache/service"
	"github.com/goliatone/go-poetry-cache/storage/memory"
)

func redisConfig(addr string) func(*config.Config) {
	return func(c *config.Config) {
		c.Cache.Backend = cache.BackendRedis
		c.Cache.Redis.Addr = addr
	}
}

func seedContainer(t *testing.T, container *Container, db *memory.DB) *testsupport.Scenario {
	t.Helper()
	ctx := context.Background()

	sc, err := testsupport.Seed(ctx, container.Services(), testsupport.DefaultFixture())
	if err != nil {
		t.Fatalf("Seed() failed: %v", err)
	}
	container.Cache().Flush(ctx)
	db.ResetCalls()
	return sc
}

func TestIntegration_RedisReadThrough(t *testing.T) {
	ctx := context.Background()
	srv := miniredis.RunT(t)
	container, db := newTestContainer(t, redisConfig(srv.Addr()))
	sc := seedContainer(t, container, db)
	svc := container.Services()

	poem := sc.Poems[0]
	for i := 0; i < 3; i++ {
		got, err := svc.Poems.GetPoem(ctx, poem.ID)
		if err != nil {
			t.Fatalf("GetPoem() failed: %v", err)
		}
		if got.ID != poem.ID || got.Title != poem.Title {
			t.Errorf("unexpected poem %+v", got)
		}
	}
	if calls := db.Calls(memory.TablePoems, memory.OpFindUnique); calls != 1 {
		t.Errorf("expected 1 poem read from storage, got %d", calls)
	}

	key := cache.EntityKey("poems", poem.ID.String())
	if !srv.Exists(key) {
		t.Errorf("expected %s in redis", key)
	}
	if srv.TTL(key) != 0 {
		t.Errorf("expected %s to be stored without expiry", key)
	}
	members, err := srv.Members(cache.QuerySetKey("poems", poem.ID.String()))
	if err != nil {
		t.Fatalf("relation set missing: %v", err)
	}
	if len(members) == 0 {
		t.Error("expected the poem key to be registered in its relation set")
	}
}

func TestIntegration_RedisMutationInvalidates(t *testing.T) {
	ctx := context.Background()
	srv := miniredis.RunT(t)
	container, db := newTestContainer(t, redisConfig(srv.Addr()))
	sc := seedContainer(t, container, db)
	svc := container.Services()

	author := sc.Authors[0]
	filter := model.PoemFilter{AuthorID: &author.ID}

	before, err := svc.Poems.GetPoems(ctx, filter, repositorycache.PageArgs{})
	if err != nil {
		t.Fatalf("GetPoems() failed: %v", err)
	}

	created, err := svc.Poems.CreatePoem(ctx, model.CreatePoemInput{
		AuthorID: author.ID,
		Title:    "Bright Star",
		Text:     "Bright star, would I were stedfast as thou art",
	})
	if err != nil {
		t.Fatalf("CreatePoem() failed: %v", err)
	}

	after, err := svc.Poems.GetPoems(ctx, filter, repositorycache.PageArgs{})
	if err != nil {
		t.Fatalf("GetPoems() failed: %v", err)
	}
	if len(after) != len(before)+1 {
		t.Fatalf("expected %d poems after create, got %d", len(before)+1, len(after))
	}
	if after[0].ID != created.ID {
		t.Errorf("expected the new poem first, got %s", after[0].Title)
	}

	if _, err := svc.Poems.RemovePoem(ctx, created.ID); err != nil {
		t.Fatalf("RemovePoem() failed: %v", err)
	}
	if srv.Exists(cache.EntityKey("poems", created.ID.String())) {
		t.Error("expected the removed poem to be evicted from redis")
	}
	if _, err := svc.Poems.GetPoem(ctx, created.ID); err == nil {
		t.Error("expected the removed poem to be missing")
	}
}

func TestIntegration_SharedRedisAcrossContainers(t *testing.T) {
	ctx := context.Background()
	srv := miniredis.RunT(t)
	db := memory.New()

	first, _ := newTestContainer(t, redisConfig(srv.Addr()), WithEngine(db))
	sc := seedContainer(t, first, db)

	conn, err := first.Services().Comments.GetCommentsConnection(ctx, model.CommentFilter{}, repositorycache.PageArgs{First: intPtr(2)})
	if err != nil {
		t.Fatalf("GetCommentsConnection() failed: %v", err)
	}

	second, _ := newTestContainer(t, redisConfig(srv.Addr()), WithEngine(db))
	db.ResetCalls()

	again, err := second.Services().Comments.GetCommentsConnection(ctx, model.CommentFilter{}, repositorycache.PageArgs{First: intPtr(2)})
	if err != nil {
		t.Fatalf("GetCommentsConnection() failed: %v", err)
	}
	if calls := db.TotalCalls(); calls != 0 {
		t.Errorf("expected the second container to read from redis only, got %d storage calls", calls)
	}
	if len(again.Edges) != len(conn.Edges) || again.PageInfo.HasNextPage != conn.PageInfo.HasNextPage {
		t.Errorf("expected identical pages, got %+v and %+v", conn.PageInfo, again.PageInfo)
	}
	for i := range conn.Edges {
		if again.Edges[i].Cursor != conn.Edges[i].Cursor {
			t.Errorf("edge %d: expected cursor %s, got %s", i, conn.Edges[i].Cursor, again.Edges[i].Cursor)
		}
	}

	// a mutation through one container is visible to the other
	comment := sc.Comments[0]
	if _, err := first.Services().Comments.UpdateComment(ctx, model.UpdateCommentInput{
		ID:   comment.ID,
		Text: strPtr("edited"),
	}); err != nil {
		t.Fatalf("UpdateComment() failed: %v", err)
	}
	got, err := second.Services().Comments.GetComment(ctx, comment.ID)
	if err != nil {
		t.Fatalf("GetComment() failed: %v", err)
	}
	if got.Text != "edited" {
		t.Errorf("expected the edit to be visible, got %q", got.Text)
	}
}

func TestIntegration_RedisOutageFallsThrough(t *testing.T) {
	ctx := context.Background()
	srv := miniredis.RunT(t)
	container, db := newTestContainer(t, redisConfig(srv.Addr()))
	sc := seedContainer(t, container, db)
	svc := container.Services()

	srv.Close()

	author := sc.Authors[0]
	for i := 0; i < 2; i++ {
		got, err := svc.Authors.GetAuthorByID(ctx, author.ID, service.AuthorView{})
		if err != nil {
			t.Fatalf("GetAuthorByID() with redis down failed: %v", err)
		}
		if got.Username != author.Username {
			t.Errorf("expected %q, got %q", author.Username, got.Username)
		}
	}
	if calls := db.Calls(memory.TableAuthors, memory.OpFindUnique); calls != 2 {
		t.Errorf("expected every read to hit storage while redis is down, got %d", calls)
	}

	if _, err := svc.Collections.CreateCollection(ctx, model.CreateCollectionInput{
		Title:    "Odes",
		AuthorID: author.ID,
	}); err != nil {
		t.Errorf("expected writes to succeed while redis is down, got %v", err)
	}
}

func TestIntegration_UnknownIDs(t *testing.T) {
	ctx := context.Background()
	container, db := newTestContainer(t, nil)
	seedContainer(t, container, db)

	missing := uuid.New()
	if _, err := container.Services().Poems.GetPoem(ctx, missing); err == nil {
		t.Fatal("expected an error for a missing poem")
	}
	if _, err := container.Services().Poems.GetPoem(ctx, missing); err == nil {
		t.Fatal("expected the miss to be reported again")
	}
	if calls := db.Calls(memory.TablePoems, memory.OpFindUnique); calls != 2 {
		t.Errorf("expected missing rows not to be cached, got %d storage reads", calls)
	}
}

func intPtr(n int) *int { return &n }

func strPtr(s string) *string { return &s }
