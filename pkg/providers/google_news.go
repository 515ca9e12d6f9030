package providers

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/samvad-hq/news-ingestor/internal/domain"
)

// googleNewsFetcher implements Fetcher for Google News sitemap providers.
type googleNewsFetcher struct {
	client HTTPClient
	images *ImageResolver
	log    Logger
}

func NewGoogleNewsFetcher(client HTTPClient, images *ImageResolver, log Logger) Fetcher {
	if client == nil {
		client = DefaultHTTPClient(Options{})
	}
	return &googleNewsFetcher{client: client, images: images, log: ensureLogger(log)}
}

func (f *googleNewsFetcher) ID() string {
	return ProviderTypeGoogleNews
}

func (f *googleNewsFetcher) Fetch(ctx context.Context, cfg Provider) ([]domain.RawItem, error) {
	if !strings.EqualFold(cfg.Type, ProviderTypeGoogleNews) {
		return nil, fmt.Errorf("google news fetcher received incompatible provider type %q", cfg.Type)
	}
	if strings.TrimSpace(cfg.SourceURL) == "" {
		return nil, fmt.Errorf("provider %q source_url is empty", cfg.ID)
	}

	raw, err := fetchBody(ctx, f.client, cfg.SourceURL, cfg.ID, Headers(cfg))
	if err != nil {
		return nil, err
	}

	urls, err := parseGoogleNewsSitemap(raw)
	if err != nil {
		return nil, fmt.Errorf("decode google news sitemap: %w", err)
	}
	items, rejected := buildItemsFromSitemap(cfg, urls)
	if len(items) == 0 && len(rejected) == 0 {
		return nil, fmt.Errorf("%s sitemap returned no records", cfg.ID)
	}
	return finishItems(ctx, cfg, f.images, f.log, items, rejected), nil
}

type googleNewsSitemap struct {
	URLs []googleNewsURL `xml:"url"`
}

type googleNewsURL struct {
	Loc   string          `xml:"loc"`
	News  googleNewsEntry `xml:"news"`
	Image struct {
		Loc string `xml:"loc"`
	} `xml:"image"`
}

type googleNewsEntry struct {
	Title           string `xml:"title"`
	PublicationDate string `xml:"publication_date"`
}

func parseGoogleNewsSitemap(data []byte) ([]googleNewsURL, error) {
	var sitemap googleNewsSitemap
	if err := xml.Unmarshal(data, &sitemap); err != nil {
		return nil, err
	}
	return sitemap.URLs, nil
}

func buildItemsFromSitemap(cfg Provider, urls []googleNewsURL) ([]domain.RawItem, []error) {
	items := make([]domain.RawItem, 0, len(urls))
	var rejected []error
	for _, entry := range urls {
		loc := strings.TrimSpace(entry.Loc)
		if loc == "" {
			continue
		}
		title := strings.TrimSpace(entry.News.Title)
		if title == "" {
			rejected = append(rejected, &domain.ItemParseError{Source: cfg.Name, Link: loc, Err: errors.New("missing news:title")})
			continue
		}

		items = append(items, domain.RawItem{
			Title:       title,
			Link:        loc,
			ImageURL:    strings.TrimSpace(entry.Image.Loc),
			Source:      cfg.Name,
			Category:    cfg.Category,
			PublishedAt: parsePublicationDate(entry.News.PublicationDate),
		})
	}
	return items, rejected
}

var publicationLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04Z07:00",
	"2006-01-02",
}

func parsePublicationDate(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range publicationLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}
