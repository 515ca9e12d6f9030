package crawler

import (
	"context"

	"github.com/samvad-hq/news-ingestor/pkg/publishers"
)

// EventPublisher publishes stored articles downstream. *publishers.Fanout satisfies it.
type EventPublisher interface {
	Publish(ctx context.Context, evt publishers.Event) (int, error)
}

// aliasedSource is implemented by sources that answer to extra names.
type aliasedSource interface {
	Aliases() []string
}
