package crawler

import (
	"context"
	"errors"
	"testing"

	"github.com/samvad-hq/news-ingestor/internal/domain"
	"github.com/samvad-hq/news-ingestor/pkg/publishers"
)

func TestFilterDropsStoredAndInBatchDuplicates(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()
	if err := store.Save(ctx, &domain.Article{Title: "기존", Source: "한겨레"}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	d := NewDeduplicator(store, nil, nil)
	out := d.Filter(ctx, []domain.Article{
		{Title: "기존", Source: "한겨레"},
		{Title: "새 기사", Source: "한겨레", Summary: "first"},
		{Title: "새 기사", Source: "한겨레", Summary: "second"},
		{Title: "새 기사", Source: "KBS 뉴스"},
	})
	if len(out) != 2 {
		t.Fatalf("expected 2 novel items, got %d: %+v", len(out), out)
	}
	if out[0].Summary != "first" {
		t.Fatalf("first occurrence should win, got %q", out[0].Summary)
	}
	if out[1].Source != "KBS 뉴스" {
		t.Fatalf("same title from another source is distinct, got %+v", out[1])
	}
}

func TestFilterKeepsItemWhenLookupFails(t *testing.T) {
	store := newMemStore()
	store.existsErr = errors.New("db down")

	d := NewDeduplicator(store, nil, nil)
	out := d.Filter(context.Background(), []domain.Article{{Title: "a", Source: "s"}})
	if len(out) != 1 {
		t.Fatalf("lookup failure should keep the item, got %d", len(out))
	}
}

func TestPersistCountsOutcomesAndPublishes(t *testing.T) {
	store := newMemStore()
	store.saveErr["broken"] = errors.New("disk full")
	ctx := context.Background()
	if err := store.Save(ctx, &domain.Article{Title: "dup", Source: "s"}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	pub := &recordingPublisher{err: errors.New("sink down")}

	d := NewDeduplicator(store, pub, nil)
	res := d.Persist(ctx, []domain.Article{
		{Title: "ok", Source: "s"},
		{Title: "dup", Source: "s"},
		{Title: "broken", Source: "s"},
		{Title: "ok2", Source: "s"},
	})
	if len(res.Saved) != 2 || res.Duplicates != 1 || res.Failed != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.Saved[0].ID == 0 {
		t.Fatalf("saved articles should carry their assigned id")
	}
	var perr *domain.PersistenceError
	if len(res.Errors) != 1 || !errors.As(res.Errors[0], &perr) || perr.Title != "broken" {
		t.Fatalf("expected PersistenceError for broken, got %v", res.Errors)
	}
	if len(pub.events) != 2 || pub.events[0].Type != publishers.EventArticleIngested {
		t.Fatalf("expected one event per saved article despite publish errors, got %+v", pub.events)
	}
}
