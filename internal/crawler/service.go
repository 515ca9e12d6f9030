package crawler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/samvad-hq/news-ingestor/internal/domain"
	"github.com/samvad-hq/news-ingestor/internal/logger"
	"github.com/samvad-hq/news-ingestor/internal/storage"
	"github.com/samvad-hq/news-ingestor/pkg/providers"
)

const (
	defaultConcurrency  = 5
	defaultStoreTimeout = time.Minute
)

// Options tunes a Service.
type Options struct {
	Concurrency      int
	StoreTimeout     time.Duration
	SummaryMaxLength int
	Publisher        EventPublisher
	Logger           logger.Logger
	Now              func() time.Time
}

// Report summarizes one crawl pass.
type Report struct {
	Saved      int
	Candidates int
	Duplicates int
	Failed     int
	Outcomes   []domain.FetchOutcome
	StartedAt  time.Time
	FinishedAt time.Time
}

// FailedSources lists the keys of sources whose fetch failed.
func (r Report) FailedSources() []string {
	var out []string
	for _, o := range r.Outcomes {
		if !o.OK() {
			out = append(out, o.Source)
		}
	}
	return out
}

// Service coordinates crawling across all configured sources.
type Service struct {
	sources      []providers.Source
	aliases      map[string]int
	dedup        *Deduplicator
	norm         normalizer
	concurrency  int
	storeTimeout time.Duration
	log          logger.Logger
	now          func() time.Time
}

// NewService wires a crawler over sources, in registration order.
func NewService(sources []providers.Source, store storage.Store, opts Options) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("crawler store is nil")
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("no sources configured for crawling")
	}

	log := logger.Ensure(opts.Logger)
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	conc := opts.Concurrency
	if conc <= 0 {
		conc = defaultConcurrency
	}
	storeTimeout := opts.StoreTimeout
	if storeTimeout <= 0 {
		storeTimeout = defaultStoreTimeout
	}

	return &Service{
		sources:      sources,
		aliases:      buildAliases(sources, log),
		dedup:        NewDeduplicator(store, opts.Publisher, log),
		norm:         normalizer{summaryMax: opts.SummaryMaxLength, now: now},
		concurrency:  conc,
		storeTimeout: storeTimeout,
		log:          log,
		now:          now,
	}, nil
}

// buildAliases indexes each source by key, name and configured aliases,
// case-insensitively. The first source registered under a name keeps it.
func buildAliases(sources []providers.Source, log logger.Logger) map[string]int {
	idx := make(map[string]int)
	add := func(name string, i int) {
		k := strings.ToLower(strings.TrimSpace(name))
		if k == "" {
			return
		}
		if prev, taken := idx[k]; taken && prev != i {
			log.DebugObj("source alias already taken", "source_alias", map[string]any{
				"alias": k,
				"owner": sources[prev].Key(),
				"other": sources[i].Key(),
			})
			return
		}
		idx[k] = i
	}

	// Keys first so an alias never shadows another source's key.
	for i, src := range sources {
		add(src.Key(), i)
	}
	for i, src := range sources {
		add(src.Name(), i)
		if a, ok := src.(aliasedSource); ok {
			for _, alias := range a.Aliases() {
				add(alias, i)
			}
		}
	}
	return idx
}

// Lookup resolves a source key, name or alias.
func (s *Service) Lookup(key string) (providers.Source, bool) {
	i, ok := s.aliases[strings.ToLower(strings.TrimSpace(key))]
	if !ok {
		return nil, false
	}
	return s.sources[i], true
}

// Sources returns the registered sources in order.
func (s *Service) Sources() []providers.Source {
	out := make([]providers.Source, len(s.sources))
	copy(out, s.sources)
	return out
}

// RunAll fetches every source concurrently, then dedups and persists the
// combined candidates sequentially. One source failing never affects another.
// When ctx ends before every fetch finishes, the unfinished sources are
// reported with a FetchError and whatever completed is still persisted.
func (s *Service) RunAll(ctx context.Context) Report {
	report := Report{StartedAt: s.now()}
	s.log.InfoObj("crawl started", "crawl_meta", map[string]any{
		"sources_count": len(s.sources),
		"concurrency":   s.concurrency,
	})

	report.Outcomes = s.fetchAll(ctx)

	var candidates []domain.Article
	for _, o := range report.Outcomes {
		if !o.OK() {
			s.log.ErrorObj("source crawl failed", "source_error", map[string]any{
				"source":     o.Source,
				"error":      o.Err.Error(),
				"elapsed_ms": o.Elapsed.Milliseconds(),
			})
			continue
		}
		candidates = append(candidates, o.Items...)
	}
	report.Candidates = len(candidates)

	res, novel := s.persist(ctx, candidates)
	report.Saved = len(res.Saved)
	report.Duplicates = report.Candidates - novel + res.Duplicates
	report.Failed = res.Failed
	report.FinishedAt = s.now()

	s.log.InfoObj("crawl completed", "crawl_result", map[string]any{
		"saved":          report.Saved,
		"candidates":     report.Candidates,
		"duplicates":     report.Duplicates,
		"failed":         report.Failed,
		"failed_sources": report.FailedSources(),
		"elapsed_ms":     report.FinishedAt.Sub(report.StartedAt).Milliseconds(),
	})
	return report
}

// RunOne crawls a single source addressed by key, name or alias and returns
// the articles it stored.
func (s *Service) RunOne(ctx context.Context, key string) ([]domain.Article, error) {
	src, ok := s.Lookup(key)
	if !ok {
		return nil, &domain.ConfigurationError{
			Op:  "crawl source",
			Err: fmt.Errorf("%w: %q", domain.ErrUnknownSource, key),
		}
	}

	outcome := s.fetchOne(ctx, src)
	if outcome.Err != nil {
		return nil, outcome.Err
	}

	res, _ := s.persist(ctx, outcome.Items)
	s.log.InfoObj("source crawl completed", "source_result", map[string]any{
		"source":     src.Key(),
		"fetched":    len(outcome.Items),
		"saved":      len(res.Saved),
		"duplicates": res.Duplicates,
		"failed":     res.Failed,
	})
	return res.Saved, nil
}

// persist runs dedup and writes on a context detached from the caller's
// cancellation; completed fetches are still stored after a shutdown signal.
func (s *Service) persist(ctx context.Context, candidates []domain.Article) (PersistResult, int) {
	if len(candidates) == 0 {
		return PersistResult{}, 0
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.storeTimeout)
	defer cancel()

	novel := s.dedup.Filter(pctx, candidates)
	return s.dedup.Persist(pctx, novel), len(novel)
}

type indexedOutcome struct {
	idx int
	out domain.FetchOutcome
}

// fetchAll runs the bounded fetch pool. Outcomes come back in completion
// order; sources abandoned on cancellation follow in registration order.
func (s *Service) fetchAll(ctx context.Context) []domain.FetchOutcome {
	results := make(chan indexedOutcome, len(s.sources))

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	go func() {
		for i, src := range s.sources {
			g.Go(func() error {
				if ctx.Err() != nil {
					return nil
				}
				results <- indexedOutcome{idx: i, out: s.fetchOne(ctx, src)}
				return nil
			})
		}
		_ = g.Wait()
		close(results)
	}()

	outcomes := make([]domain.FetchOutcome, 0, len(s.sources))
	finished := make([]bool, len(s.sources))
	collect := func(r indexedOutcome) {
		finished[r.idx] = true
		outcomes = append(outcomes, r.out)
	}

wait:
	for {
		select {
		case r, ok := <-results:
			if !ok {
				if ctx.Err() == nil {
					return outcomes
				}
				// Workers that saw the cancellation skipped their source.
				break wait
			}
			collect(r)
		case <-ctx.Done():
			break wait
		}
	}

	// Take what already landed, then give up on the rest.
drain:
	for {
		select {
		case r, ok := <-results:
			if !ok {
				break drain
			}
			collect(r)
		default:
			break drain
		}
	}
	for i, src := range s.sources {
		if !finished[i] {
			outcomes = append(outcomes, domain.FetchOutcome{
				Source: src.Key(),
				Err:    &domain.FetchError{Source: src.Key(), Err: ctx.Err()},
			})
		}
	}
	return outcomes
}

// fetchOne fetches and normalizes a single source. It never panics.
func (s *Service) fetchOne(ctx context.Context, src providers.Source) (out domain.FetchOutcome) {
	start := s.now()
	out.Source = src.Key()
	defer func() {
		if r := recover(); r != nil {
			out.Items = nil
			out.Err = &domain.FetchError{Source: src.Key(), Err: fmt.Errorf("panic: %v", r)}
		}
		out.Elapsed = s.now().Sub(start)
	}()

	raw, err := src.Fetch(ctx)
	if err != nil {
		var fe *domain.FetchError
		if !errors.As(err, &fe) {
			err = &domain.FetchError{Source: src.Key(), Err: err}
		}
		out.Err = err
		return out
	}

	items, rejected := s.norm.normalizeAll(raw)
	for _, rerr := range rejected {
		s.log.WarnObj("item skipped", "item_parse_error", map[string]any{
			"source": src.Key(),
			"error":  rerr.Error(),
		})
	}
	out.Items = items
	return out
}
