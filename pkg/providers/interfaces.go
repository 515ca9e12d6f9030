package providers

import (
	"context"

	"github.com/samvad-hq/news-ingestor/internal/domain"
	"github.com/samvad-hq/news-ingestor/pkg/httpclient"
)

// Fetcher retrieves raw items for a provider. Implementations are strategy
// specific (rss.go, html_list.go, google_news.go) and shared across providers.
type Fetcher interface {
	ID() string
	Fetch(ctx context.Context, cfg Provider) ([]domain.RawItem, error)
}

// FetcherRegistry resolves the fetcher implementation for a given provider config.
type FetcherRegistry interface {
	FetcherFor(cfg Provider) (Fetcher, error)
}

// Source is a provider bound to its fetcher: one independent news source.
type Source interface {
	Key() string
	Name() string
	Fetch(ctx context.Context) ([]domain.RawItem, error)
}

// HTTPClient aliases the shared httpclient.Client interface for clarity within providers.
type HTTPClient = httpclient.Client

// Logger is the logging surface fetchers rely on.
type Logger interface {
	InfoObj(msg, key string, obj interface{})
	DebugObj(msg, key string, obj interface{})
	WarnObj(msg, key string, obj interface{})
	ErrorObj(msg, key string, obj interface{})
}

type noopLogger struct{}

func (noopLogger) InfoObj(string, string, interface{})  {}
func (noopLogger) DebugObj(string, string, interface{}) {}
func (noopLogger) WarnObj(string, string, interface{})  {}
func (noopLogger) ErrorObj(string, string, interface{}) {}

func ensureLogger(log Logger) Logger {
	if log == nil {
		return noopLogger{}
	}
	return log
}
