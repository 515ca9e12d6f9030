package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/samvad-hq/news-ingestor/internal/crawler"
	"github.com/samvad-hq/news-ingestor/internal/domain"
	"github.com/samvad-hq/news-ingestor/internal/logger"
	"github.com/samvad-hq/news-ingestor/internal/storage"
)

// Stats summarizes what the store holds.
type Stats struct {
	Total   int64    `json:"total"`
	Today   int64    `json:"today"`
	Sources []string `json:"sources"`
}

// IngestorOptions tunes an Ingestor built from parts.
type IngestorOptions struct {
	CrawlingEnabled bool
	// Location decides where "today" starts; defaults to UTC.
	Location *time.Location
	Now      func() time.Time
	Logger   logger.Logger
	// Closers are released by Close after the store, e.g. publisher clients.
	Closers []io.Closer
}

// Ingestor is the caller-facing surface over the crawler and the store.
type Ingestor struct {
	crawl   *crawler.Service
	store   storage.Store
	enabled atomic.Bool
	loc     *time.Location
	now     func() time.Time
	log     logger.Logger
	closers []io.Closer
}

// NewIngestor assembles an Ingestor from an existing crawler and store.
func NewIngestor(svc *crawler.Service, store storage.Store, opts IngestorOptions) (*Ingestor, error) {
	if svc == nil {
		return nil, errors.New("crawler service must not be nil")
	}
	if store == nil {
		return nil, errors.New("store must not be nil")
	}
	in := &Ingestor{
		crawl:   svc,
		store:   store,
		loc:     opts.Location,
		now:     opts.Now,
		log:     logger.Ensure(opts.Logger),
		closers: opts.Closers,
	}
	if in.loc == nil {
		in.loc = time.UTC
	}
	if in.now == nil {
		in.now = time.Now
	}
	in.enabled.Store(opts.CrawlingEnabled)
	return in, nil
}

// SetCrawlingEnabled toggles crawling; Cleanup and Stats are unaffected.
func (i *Ingestor) SetCrawlingEnabled(on bool) {
	if prev := i.enabled.Swap(on); prev != on {
		i.log.InfoObj("crawling toggled", "crawling_enabled", on)
	}
}

// CrawlingEnabled reports the current toggle.
func (i *Ingestor) CrawlingEnabled() bool { return i.enabled.Load() }

// Crawl runs one pass over every source.
func (i *Ingestor) Crawl(ctx context.Context) (crawler.Report, error) {
	if !i.CrawlingEnabled() {
		return crawler.Report{}, &domain.ConfigurationError{Op: "crawl", Err: domain.ErrCrawlingDisabled}
	}
	return i.crawl.RunAll(ctx), nil
}

// CrawlSource crawls a single source by key, name or alias and returns what it stored.
func (i *Ingestor) CrawlSource(ctx context.Context, key string) ([]domain.Article, error) {
	if !i.CrawlingEnabled() {
		return nil, &domain.ConfigurationError{Op: "crawl source", Err: domain.ErrCrawlingDisabled}
	}
	return i.crawl.RunOne(ctx, key)
}

// Cleanup deletes articles created more than days ago.
func (i *Ingestor) Cleanup(ctx context.Context, days int) (int64, error) {
	if days <= 0 {
		return 0, &domain.ConfigurationError{
			Op:  "cleanup",
			Err: fmt.Errorf("%w: got %d", domain.ErrInvalidRetention, days),
		}
	}
	cutoff := i.now().Add(-time.Duration(days) * 24 * time.Hour)
	n, err := i.store.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete articles older than %s: %w", cutoff.Format(time.RFC3339), err)
	}
	i.log.InfoObj("old articles deleted", "cleanup_result", map[string]any{
		"deleted": n,
		"days":    days,
		"cutoff":  cutoff.UTC(),
	})
	return n, nil
}

// Counts returns the total number of stored articles and those stored today.
func (i *Ingestor) Counts(ctx context.Context) (total, today int64, err error) {
	total, err = i.store.CountSince(ctx, time.Time{})
	if err != nil {
		return 0, 0, fmt.Errorf("count articles: %w", err)
	}
	today, err = i.store.CountSince(ctx, startOfDay(i.now(), i.loc))
	if err != nil {
		return 0, 0, fmt.Errorf("count today's articles: %w", err)
	}
	return total, today, nil
}

// Stats reports counts plus the distinct sources stored.
func (i *Ingestor) Stats(ctx context.Context) (Stats, error) {
	total, today, err := i.Counts(ctx)
	if err != nil {
		return Stats{}, err
	}
	sources, err := i.store.DistinctSources(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("list sources: %w", err)
	}
	if sources == nil {
		sources = []string{}
	}
	return Stats{Total: total, Today: today, Sources: sources}, nil
}

// Close releases the store and any extra clients.
func (i *Ingestor) Close() error {
	errs := []error{i.store.Close()}
	for _, c := range i.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
