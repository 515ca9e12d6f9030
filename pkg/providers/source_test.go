package providers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/samvad-hq/news-ingestor/internal/domain"
)

func TestBoundSourceAppliesDeadlineCapAndDefaults(t *testing.T) {
	fetcher := &stubFetcher{id: "rss", items: []domain.RawItem{
		{Title: "a"}, {Title: "b", Source: "explicit"}, {Title: "c"},
	}}
	cfg := Provider{ID: "hani", Name: "한겨레", Category: "종합", MaxItems: 2, TimeoutSeconds: 5, Aliases: []string{"naver"}}
	src := Bind(cfg, fetcher)

	if src.Key() != "hani" || src.Name() != "한겨레" {
		t.Fatalf("key/name = %s/%s", src.Key(), src.Name())
	}

	items, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected cap 2, got %d", len(items))
	}
	if items[0].Source != "한겨레" || items[0].Category != "종합" {
		t.Fatalf("defaults not applied: %#v", items[0])
	}
	if items[1].Source != "explicit" {
		t.Fatalf("explicit source overwritten: %#v", items[1])
	}

	dl, ok := fetcher.ctx.Deadline()
	if !ok || time.Until(dl) > 5*time.Second {
		t.Fatalf("expected provider deadline on fetch context")
	}

	aliased, ok := src.(interface{ Aliases() []string })
	if !ok || len(aliased.Aliases()) != 1 {
		t.Fatalf("bound source should expose aliases")
	}
}

func TestBoundSourcePropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	src := Bind(Provider{ID: "p"}, &stubFetcher{err: boom})
	if _, err := src.Fetch(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if _, err := Bind(Provider{ID: "p"}, nil).Fetch(context.Background()); err == nil {
		t.Fatalf("expected error for missing fetcher")
	}
}

func TestBindAllKeepsOrder(t *testing.T) {
	reg := NewTypeFetcherRegistry(map[string]Fetcher{ProviderTypeRSS: &stubFetcher{id: "rss"}})
	sources, err := BindAll(reg, []Provider{{ID: "b", Type: "rss"}, {ID: "a", Type: "rss"}})
	if err != nil {
		t.Fatalf("BindAll: %v", err)
	}
	if sources[0].Key() != "b" || sources[1].Key() != "a" {
		t.Fatalf("order not preserved")
	}
	if _, err := BindAll(reg, []Provider{{ID: "c", Type: "atom"}}); err == nil {
		t.Fatalf("expected unresolved fetcher error")
	}
}
