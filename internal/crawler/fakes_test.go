package crawler

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/samvad-hq/news-ingestor/internal/domain"
	"github.com/samvad-hq/news-ingestor/internal/storage"
	"github.com/samvad-hq/news-ingestor/pkg/publishers"
)

// fakeSource serves canned raw items.
type fakeSource struct {
	key     string
	name    string
	aliases []string
	items   []domain.RawItem
	err     error
	panics  bool
	fetch   func(ctx context.Context) ([]domain.RawItem, error)
}

func (f *fakeSource) Key() string       { return f.key }
func (f *fakeSource) Name() string      { return f.name }
func (f *fakeSource) Aliases() []string { return f.aliases }

func (f *fakeSource) Fetch(ctx context.Context) ([]domain.RawItem, error) {
	if f.panics {
		panic("selector blew up")
	}
	if f.fetch != nil {
		return f.fetch(ctx)
	}
	if f.err != nil {
		return nil, f.err
	}
	out := make([]domain.RawItem, len(f.items))
	copy(out, f.items)
	return out, nil
}

func raw(source, title string) domain.RawItem {
	return domain.RawItem{
		Title:       title,
		Link:        "https://news.example.com/" + title,
		Description: "<p>" + title + " 요약</p>",
		Source:      source,
		Category:    "종합",
	}
}

// memStore is an in-memory storage.Store.
type memStore struct {
	mu        sync.Mutex
	rows      []domain.Article
	nextID    uint64
	existsErr error
	saveErr   map[string]error
	saves     int
}

var _ storage.Store = (*memStore)(nil)

func newMemStore() *memStore { return &memStore{saveErr: map[string]error{}} }

func (m *memStore) Exists(_ context.Context, title, source string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.existsErr != nil {
		return false, m.existsErr
	}
	for _, r := range m.rows {
		if r.Title == title && r.Source == source {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) Save(_ context.Context, a *domain.Article) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if err := m.saveErr[a.Title]; err != nil {
		return err
	}
	for _, r := range m.rows {
		if r.Title == a.Title && r.Source == a.Source {
			return storage.ErrDuplicate
		}
	}
	m.nextID++
	a.ID = m.nextID
	a.CreatedAt = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	m.rows = append(m.rows, *a)
	return nil
}

func (m *memStore) DeleteOlderThan(context.Context, time.Time) (int64, error) {
	return 0, errors.New("not used")
}

func (m *memStore) CountSince(context.Context, time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.rows)), nil
}

func (m *memStore) DistinctSources(context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	set := map[string]struct{}{}
	for _, r := range m.rows {
		set[r.Source] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out, nil
}

func (m *memStore) Close() error { return nil }

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []publishers.Event
	err    error
}

func (r *recordingPublisher) Publish(_ context.Context, evt publishers.Event) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
	if r.err != nil {
		return 0, r.err
	}
	return 1, nil
}

func fixedNow() time.Time { return time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC) }
