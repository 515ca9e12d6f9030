package providers

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/samvad-hq/news-ingestor/pkg/httpclient"
)

// fetcherRegistry implements FetcherRegistry.
type fetcherRegistry struct {
	fetchersByID   map[string]Fetcher
	fetchersByType map[string]Fetcher
	mu             sync.RWMutex
}

// NewFetcherRegistry builds a registry for the provided fetcher implementations keyed by provider id.
func NewFetcherRegistry(fetchers ...Fetcher) FetcherRegistry {
	return NewTypeFetcherRegistry(nil, fetchers...)
}

// NewTypeFetcherRegistry builds a registry with optional type-based fetchers and provider-specific fetchers.
func NewTypeFetcherRegistry(typeFetchers map[string]Fetcher, fetchers ...Fetcher) FetcherRegistry {
	reg := &fetcherRegistry{
		fetchersByID:   make(map[string]Fetcher),
		fetchersByType: make(map[string]Fetcher),
	}

	for _, f := range fetchers {
		reg.registerIDFetcher(f)
	}
	for typ, f := range typeFetchers {
		reg.registerTypeFetcher(typ, f)
	}

	return reg
}

func (r *fetcherRegistry) registerIDFetcher(f Fetcher) {
	if f == nil {
		return
	}
	key := strings.ToLower(strings.TrimSpace(f.ID()))
	if key == "" {
		return
	}

	r.mu.Lock()
	r.fetchersByID[key] = f
	r.mu.Unlock()
}

func (r *fetcherRegistry) registerTypeFetcher(typ string, f Fetcher) {
	if f == nil {
		return
	}
	key := strings.ToLower(strings.TrimSpace(typ))
	if key == "" {
		return
	}

	r.mu.Lock()
	r.fetchersByType[key] = f
	r.mu.Unlock()
}

// FetcherFor selects the fetcher for the given provider based on its id or type.
func (r *fetcherRegistry) FetcherFor(cfg Provider) (Fetcher, error) {
	if r == nil {
		return nil, fmt.Errorf("fetcher registry is nil")
	}
	if strings.TrimSpace(cfg.ID) == "" {
		return nil, fmt.Errorf("provider id is empty")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	idKey := strings.ToLower(strings.TrimSpace(cfg.ID))
	if f, ok := r.fetchersByID[idKey]; ok {
		return f, nil
	}

	typeKey := strings.ToLower(strings.TrimSpace(cfg.Type))
	if typeKey != "" {
		if f, ok := r.fetchersByType[typeKey]; ok {
			return f, nil
		}
	}

	return nil, fmt.Errorf("no fetcher registered for provider %q (type %q)", cfg.ID, cfg.Type)
}

const (
	ProviderTypeRSS        = "rss"
	ProviderTypeHTMLList   = "html_list"
	ProviderTypeGoogleNews = "google_news_sitemap"
)

// A feed fetch is retried once on transport errors; HTTP error statuses are not retried.
const (
	fetchRetries   = 1
	fetchRetryWait = 500 * time.Millisecond
)

// Options tunes the default fetchers.
type Options struct {
	UserAgent           string
	FetchTimeout        time.Duration
	ArticleTimeout      time.Duration
	ImageLookupInterval time.Duration
	Logger              Logger
}

// DefaultHTTPClient returns a resty-backed client for provider fetchers.
func DefaultHTTPClient(opts Options) HTTPClient {
	timeout := opts.FetchTimeout
	if timeout <= 0 {
		timeout = defaultTimeoutSeconds * time.Second
	}
	return httpclient.NewRestyClient(timeout,
		httpclient.WithUserAgent(opts.UserAgent),
		httpclient.WithRetries(fetchRetries, fetchRetryWait),
	)
}

// DefaultFetcherRegistry wires up the known fetch strategies. Feed and
// sitemap strategies share client and the article image resolver.
func DefaultFetcherRegistry(client HTTPClient, opts Options) FetcherRegistry {
	if client == nil {
		client = DefaultHTTPClient(opts)
	}
	images := NewImageResolver(client, ImageResolverOptions{
		Timeout:  opts.ArticleTimeout,
		Interval: opts.ImageLookupInterval,
		Logger:   opts.Logger,
	})

	typeFetchers := map[string]Fetcher{
		ProviderTypeRSS:        NewRSSFetcher(client, images, opts.Logger),
		ProviderTypeHTMLList:   NewHTMLListFetcher(images, opts.Logger),
		ProviderTypeGoogleNews: NewGoogleNewsFetcher(client, images, opts.Logger),
	}

	return NewTypeFetcherRegistry(typeFetchers)
}
