package testsupport

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-poetry-cache/cache"
	"github.com/goliatone/go-poetry-cache/model"
	"github.com/goliatone/go-poetry-cache/service"
	"github.com/goliatone/go-poetry-cache/storage/memory"
)

// Scenario holds the rows Seed created, in creation order.
type Scenario struct {
	Authors     []model.Author
	Collections []model.Collection
	Poems       []model.Poem
	Comments    []model.Comment
	Likes       []model.Like
	SavedPoems  []model.SavedPoem
	Follows     []model.FollowedAuthor
}

// PoemsBy returns the seeded poems of author.
func (s *Scenario) PoemsBy(author uuid.UUID) []model.Poem {
	var out []model.Poem
	for _, p := range s.Poems {
		if p.AuthorID == author {
			out = append(out, p)
		}
	}
	return out
}

// Seed creates fx through the services, so the cache sees every write:
//   - every author with their collection and poems, the first poem filed in the collection
//   - comments on every poem by the next authors in line
//   - one like and one save per poem by the next author
//   - every author following every other author
func Seed(ctx context.Context, svc *service.Services, fx Fixture) (*Scenario, error) {
	sc := &Scenario{}

	for _, af := range fx.Authors {
		a, err := svc.Authors.CreateAuthor(ctx, model.CreateAuthorInput{
			Username: af.Username,
			Email:    af.Email,
			Password: fx.Password,
		})
		if err != nil {
			return nil, fmt.Errorf("seed author %s: %w", af.Username, err)
		}
		sc.Authors = append(sc.Authors, a)

		col, err := svc.Collections.CreateCollection(ctx, model.CreateCollectionInput{Title: af.Collection, AuthorID: a.ID})
		if err != nil {
			return nil, fmt.Errorf("seed collection %s: %w", af.Collection, err)
		}
		sc.Collections = append(sc.Collections, col)

		for i, pf := range af.Poems {
			in := model.CreatePoemInput{Title: pf.Title, Text: pf.Text, AuthorID: a.ID}
			if i == 0 {
				in.CollectionID = &col.ID
			}
			p, err := svc.Poems.CreatePoem(ctx, in)
			if err != nil {
				return nil, fmt.Errorf("seed poem %s: %w", pf.Title, err)
			}
			sc.Poems = append(sc.Poems, p)
		}
	}

	n := len(sc.Authors)
	for _, p := range sc.Poems {
		idx := indexOf(sc.Authors, p.AuthorID)

		for i, text := range fx.Comments {
			commenter := sc.Authors[(idx+1+i)%n]
			c, err := svc.Comments.CreateComment(ctx, model.CreateCommentInput{Text: text, AuthorID: commenter.ID, PoemID: p.ID})
			if err != nil {
				return nil, fmt.Errorf("seed comment: %w", err)
			}
			sc.Comments = append(sc.Comments, c)
		}

		reader := sc.Authors[(idx+1)%n]
		l, err := svc.Likes.CreateLike(ctx, model.CreateLikeInput{AuthorID: reader.ID, PoemID: p.ID})
		if err != nil {
			return nil, fmt.Errorf("seed like: %w", err)
		}
		sc.Likes = append(sc.Likes, l)

		sp, err := svc.SavedPoems.CreateSavedPoem(ctx, model.CreateSavedPoemInput{AuthorID: reader.ID, PoemID: p.ID})
		if err != nil {
			return nil, fmt.Errorf("seed saved poem: %w", err)
		}
		sc.SavedPoems = append(sc.SavedPoems, sp)
	}

	for _, follower := range sc.Authors {
		for _, following := range sc.Authors {
			if follower.ID == following.ID {
				continue
			}
			f, err := svc.FollowedAuthors.CreateFollowedAuthor(ctx, model.CreateFollowedAuthorInput{
				FollowerID:  follower.ID,
				FollowingID: following.ID,
			})
			if err != nil {
				return nil, fmt.Errorf("seed follow: %w", err)
			}
			sc.Follows = append(sc.Follows, f)
		}
	}

	return sc, nil
}

func indexOf(authors []model.Author, id uuid.UUID) int {
	for i, a := range authors {
		if a.ID == id {
			return i
		}
	}
	return -1
}

// StepClock returns a clock starting at start that advances by step on every
// call, so seeded rows get distinct, predictable timestamps.
func StepClock(start time.Time, step time.Duration) func() time.Time {
	var mu sync.Mutex
	next := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now := next
		next = next.Add(step)
		return now
	}
}

// Env is an in-process service stack over the memory engine and the
// in-memory cache store.
type Env struct {
	DB       *memory.DB
	Store    cache.Store
	Cache    *cache.Cache
	Services *service.Services
}

// NewEnv builds an Env with a fast password hasher and a step clock. opts are
// applied after the defaults.
func NewEnv(t testing.TB, opts ...service.Option) *Env {
	t.Helper()

	store, err := cache.NewStore(cache.DefaultConfig())
	if err != nil {
		t.Fatalf("failed to create cache store: %v", err)
	}
	return NewEnvWithStore(t, store, opts...)
}

// NewEnvWithStore is NewEnv over a caller supplied cache store.
func NewEnvWithStore(t testing.TB, store cache.Store, opts ...service.Option) *Env {
	t.Helper()

	c, err := cache.New(store)
	if err != nil {
		t.Fatalf("failed to create cache: %v", err)
	}

	db := memory.New()
	defaults := []service.Option{
		service.WithHasher(service.NewBcryptHasher(4)),
		service.WithClock(StepClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Second)),
	}

	return &Env{
		DB:       db,
		Store:    store,
		Cache:    c,
		Services: service.New(db, c, append(defaults, opts...)...),
	}
}

// Seed seeds the default fixture and resets the storage call counters.
func (e *Env) Seed(t testing.TB) *Scenario {
	t.Helper()

	sc, err := Seed(context.Background(), e.Services, DefaultFixture())
	if err != nil {
		t.Fatalf("failed to seed: %v", err)
	}
	e.DB.ResetCalls()
	return sc
}
