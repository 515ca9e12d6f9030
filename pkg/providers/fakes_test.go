package providers

import (
	"context"
	"errors"
	"sync"

	"github.com/samvad-hq/news-ingestor/internal/domain"
	"github.com/samvad-hq/news-ingestor/pkg/httpclient"
)

// fakeResponse lets us stub the httpclient.Client interface.
type fakeResponse struct {
	body       []byte
	statusCode int
}

func (f fakeResponse) Body() []byte    { return f.body }
func (f fakeResponse) StatusCode() int { return f.statusCode }

// fakeHTTPClient returns canned responses per URL to avoid network calls.
type fakeHTTPClient struct {
	mu        sync.Mutex
	responses map[string]fakeResponse
	calls     []string
}

func (f *fakeHTTPClient) Get(ctx context.Context, url string, _ map[string]string) (httpclient.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, url)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	resp, ok := f.responses[url]
	if !ok {
		return nil, errors.New("not found")
	}
	return resp, nil
}

func (f *fakeHTTPClient) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// stubFetcher returns preset items or an error.
type stubFetcher struct {
	id    string
	items []domain.RawItem
	err   error
	ctx   context.Context
}

func (s *stubFetcher) ID() string { return s.id }
func (s *stubFetcher) Fetch(ctx context.Context, _ Provider) ([]domain.RawItem, error) {
	s.ctx = ctx
	if s.err != nil {
		return nil, s.err
	}
	return s.items, nil
}
