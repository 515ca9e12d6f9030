package providers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/samvad-hq/news-ingestor/internal/domain"
)

// rssFetcher implements Fetcher for RSS/Atom feeds.
type rssFetcher struct {
	client HTTPClient
	images *ImageResolver
	log    Logger
}

// NewRSSFetcher builds the feed strategy. images may be nil, in which case
// only feed-native images and placeholders are used.
func NewRSSFetcher(client HTTPClient, images *ImageResolver, log Logger) Fetcher {
	if client == nil {
		client = DefaultHTTPClient(Options{})
	}
	return &rssFetcher{client: client, images: images, log: ensureLogger(log)}
}

func (f *rssFetcher) ID() string { return ProviderTypeRSS }

func (f *rssFetcher) Fetch(ctx context.Context, cfg Provider) ([]domain.RawItem, error) {
	if !strings.EqualFold(cfg.Type, ProviderTypeRSS) {
		return nil, fmt.Errorf("rss fetcher received incompatible provider type %q", cfg.Type)
	}
	if strings.TrimSpace(cfg.SourceURL) == "" {
		return nil, fmt.Errorf("provider %q source_url is empty", cfg.ID)
	}

	raw, err := fetchBody(ctx, f.client, cfg.SourceURL, cfg.ID, Headers(cfg))
	if err != nil {
		return nil, err
	}

	feed, err := gofeed.NewParser().Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode %s feed: %w", cfg.ID, err)
	}

	items := make([]domain.RawItem, 0, len(feed.Items))
	var rejected []error
	for _, it := range feed.Items {
		item, err := rawItemFromFeed(cfg, it)
		if err != nil {
			rejected = append(rejected, err)
			continue
		}
		items = append(items, item)
	}

	return finishItems(ctx, cfg, f.images, f.log, items, rejected), nil
}

func rawItemFromFeed(cfg Provider, it *gofeed.Item) (domain.RawItem, error) {
	if it == nil {
		return domain.RawItem{}, &domain.ItemParseError{Source: cfg.Name, Err: errors.New("nil feed item")}
	}
	title := strings.TrimSpace(it.Title)
	link := strings.TrimSpace(it.Link)
	if title == "" {
		return domain.RawItem{}, &domain.ItemParseError{Source: cfg.Name, Link: link, Err: errors.New("missing title")}
	}

	published := it.PublishedParsed
	if published == nil {
		published = it.UpdatedParsed
	}

	return domain.RawItem{
		Title:       title,
		Link:        link,
		Description: firstNonEmpty(it.Description, it.Content),
		ImageURL:    feedImage(it),
		Source:      cfg.Name,
		Category:    cfg.Category,
		PublishedAt: timeOrZero(published),
	}, nil
}
