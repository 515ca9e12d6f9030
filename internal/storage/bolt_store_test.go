package storage

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/samvad-hq/news-ingestor/internal/domain"
)

// fakeClock hands out controllable timestamps.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

func openTestBolt(t *testing.T, clock *fakeClock) *boltStore {
	t.Helper()
	store, err := openBolt(filepath.Join(t.TempDir(), "news.db"), clock.Now)
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// exerciseStoreContract runs the behaviour every backend must share.
func exerciseStoreContract(t *testing.T, store Store, clock *fakeClock) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	clock.Set(base)
	first := &domain.Article{Title: "기사 A", Source: "한겨레", Summary: "s", PublishedAt: base}
	if err := store.Save(ctx, first); err != nil {
		t.Fatalf("Save first: %v", err)
	}
	if first.ID == 0 || !first.CreatedAt.Equal(base) {
		t.Fatalf("Save should assign id and createdAt, got id=%d createdAt=%v", first.ID, first.CreatedAt)
	}

	ok, err := store.Exists(ctx, "기사 A", "한겨레")
	if err != nil || !ok {
		t.Fatalf("Exists after save = %v err=%v", ok, err)
	}
	ok, err = store.Exists(ctx, "기사 A", "연합뉴스")
	if err != nil || ok {
		t.Fatalf("same title from another source must not exist, got %v err=%v", ok, err)
	}

	dup := &domain.Article{Title: "기사 A", Source: "한겨레"}
	if err := store.Save(ctx, dup); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	if dup.ID != 0 {
		t.Fatalf("duplicate must not be assigned an id")
	}

	clock.Set(base.Add(24 * time.Hour))
	second := &domain.Article{Title: "기사 B", Source: "연합뉴스"}
	if err := store.Save(ctx, second); err != nil {
		t.Fatalf("Save second: %v", err)
	}
	if second.ID == first.ID {
		t.Fatalf("ids must be unique")
	}

	total, err := store.CountSince(ctx, time.Time{})
	if err != nil || total != 2 {
		t.Fatalf("CountSince(zero) = %d err=%v", total, err)
	}
	today, err := store.CountSince(ctx, base.Add(24*time.Hour))
	if err != nil || today != 1 {
		t.Fatalf("CountSince(day2) = %d err=%v", today, err)
	}

	sources, err := store.DistinctSources(ctx)
	if err != nil {
		t.Fatalf("DistinctSources: %v", err)
	}
	if len(sources) != 2 || sources[0] > sources[1] {
		t.Fatalf("DistinctSources = %v want two sorted entries", sources)
	}

	// Cutoff equal to createdAt keeps the row.
	n, err := store.DeleteOlderThan(ctx, base)
	if err != nil || n != 0 {
		t.Fatalf("DeleteOlderThan(boundary) = %d err=%v", n, err)
	}
	n, err = store.DeleteOlderThan(ctx, base.Add(time.Second))
	if err != nil || n != 1 {
		t.Fatalf("DeleteOlderThan = %d err=%v", n, err)
	}
	ok, _ = store.Exists(ctx, "기사 A", "한겨레")
	if ok {
		t.Fatalf("deleted article still reported as existing")
	}
	if err := store.Save(ctx, &domain.Article{Title: "기사 A", Source: "한겨레"}); err != nil {
		t.Fatalf("key should be reusable after retention delete: %v", err)
	}
}

func TestBoltStoreContract(t *testing.T) {
	clock := &fakeClock{}
	exerciseStoreContract(t, openTestBolt(t, clock), clock)
}

func TestBoltStoreRejectsEmptyTitle(t *testing.T) {
	store := openTestBolt(t, &fakeClock{now: time.Now()})
	if err := store.Save(context.Background(), &domain.Article{Source: "x"}); err == nil {
		t.Fatalf("expected empty title error")
	}
	if err := store.Save(context.Background(), nil); err == nil {
		t.Fatalf("expected nil article error")
	}
}

func TestBoltStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "news.db")
	clock := &fakeClock{now: time.Now()}

	store, err := openBolt(path, clock.Now)
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	if err := store.Save(context.Background(), &domain.Article{Title: "t", Source: "s"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	store.Close()

	reopened, err := openBolt(path, clock.Now)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	ok, err := reopened.Exists(context.Background(), "t", "s")
	if err != nil || !ok {
		t.Fatalf("article lost across reopen: %v %v", ok, err)
	}
}

func TestBoltStoreHonoursCancelledContext(t *testing.T) {
	store := openTestBolt(t, &fakeClock{now: time.Now()})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := store.Save(ctx, &domain.Article{Title: "t", Source: "s"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestNewStoreValidatesOptions(t *testing.T) {
	if _, err := NewStore(Options{Type: "bbolt"}); err == nil {
		t.Fatalf("expected missing path error")
	}
	if _, err := NewStore(Options{Type: "postgres"}); err == nil {
		t.Fatalf("expected missing dsn error")
	}
	if _, err := NewStore(Options{Type: "mongo"}); err == nil {
		t.Fatalf("expected unsupported type error")
	}
	store, err := NewStore(Options{Type: "BBOLT", BBoltPath: filepath.Join(t.TempDir(), "x", "news.db")})
	if err != nil {
		t.Fatalf("NewStore bbolt: %v", err)
	}
	store.Close()
}
