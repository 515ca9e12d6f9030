package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/samvad-hq/news-ingestor/internal/crawler"
	"github.com/samvad-hq/news-ingestor/internal/domain"
	"github.com/samvad-hq/news-ingestor/internal/logger"
)

const (
	defaultCrawlSpec     = "0 7 * * *"
	defaultCleanupSpec   = "0 2 * * *"
	defaultRetentionDays = 30
)

// Jobs is the work the scheduler triggers.
type Jobs interface {
	Crawl(ctx context.Context) (crawler.Report, error)
	Cleanup(ctx context.Context, days int) (int64, error)
	Counts(ctx context.Context) (total, today int64, err error)
}

// Driver fires registered funcs on cron specs. *cron.Cron satisfies it.
type Driver interface {
	AddFunc(spec string, cmd func()) (cron.EntryID, error)
	Start()
	Stop() context.Context
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Options configures the schedules. Empty specs fall back to the daily
// defaults; an empty HeartbeatSpec disables the heartbeat.
type Options struct {
	CrawlSpec     string
	CleanupSpec   string
	HeartbeatSpec string
	Location      *time.Location
	RetentionDays int
	Driver        Driver
	Clock         Clock
	Logger        logger.Logger
}

// Scheduler runs the daily crawl, the daily retention cleanup and a heartbeat.
type Scheduler struct {
	jobs      Jobs
	driver    Driver
	clock     Clock
	retention int
	log       logger.Logger

	mu  sync.RWMutex
	ctx context.Context
}

// New registers every schedule on the driver. Invalid specs fail here.
func New(jobs Jobs, opts Options) (*Scheduler, error) {
	if jobs == nil {
		return nil, errors.New("scheduler jobs are nil")
	}
	log := logger.Ensure(opts.Logger)
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	driver := opts.Driver
	if driver == nil {
		cl := cronLogger{log: log}
		driver = cron.New(
			cron.WithLocation(loc),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		)
	}
	clock := opts.Clock
	if clock == nil {
		clock = systemClock{}
	}
	retention := opts.RetentionDays
	if retention <= 0 {
		retention = defaultRetentionDays
	}

	s := &Scheduler{
		jobs:      jobs,
		driver:    driver,
		clock:     clock,
		retention: retention,
		log:       log,
		ctx:       context.Background(),
	}

	schedules := []struct {
		name string
		spec string
		fn   func(context.Context)
	}{
		{"crawl", firstNonEmpty(opts.CrawlSpec, defaultCrawlSpec), func(ctx context.Context) { s.TriggerCrawl(ctx) }},
		{"cleanup", firstNonEmpty(opts.CleanupSpec, defaultCleanupSpec), func(ctx context.Context) { s.TriggerCleanup(ctx) }},
		{"heartbeat", opts.HeartbeatSpec, s.Heartbeat},
	}
	for _, sc := range schedules {
		if sc.spec == "" {
			continue
		}
		fn := sc.fn
		if _, err := driver.AddFunc(sc.spec, func() { fn(s.runContext()) }); err != nil {
			return nil, fmt.Errorf("schedule %s %q: %w", sc.name, sc.spec, err)
		}
	}

	log.InfoObj("scheduler configured", "scheduler_meta", map[string]any{
		"crawl":          firstNonEmpty(opts.CrawlSpec, defaultCrawlSpec),
		"cleanup":        firstNonEmpty(opts.CleanupSpec, defaultCleanupSpec),
		"heartbeat":      opts.HeartbeatSpec,
		"timezone":       loc.String(),
		"retention_days": retention,
	})
	return s, nil
}

// Run starts the driver and blocks until ctx is done, then waits for any
// running job to return.
func (s *Scheduler) Run(ctx context.Context) error {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	s.driver.Start()
	s.log.InfoObj("scheduler started", "scheduler_state", "running")

	<-ctx.Done()
	<-s.driver.Stop().Done()
	s.log.InfoObj("scheduler stopped", "reason", ctx.Err().Error())
	return nil
}

func (s *Scheduler) runContext() context.Context {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ctx
}

// TriggerCrawl is the crawl tick. It reports whether a crawl actually ran;
// a tick while crawling is disabled does nothing.
func (s *Scheduler) TriggerCrawl(ctx context.Context) bool {
	start := s.clock.Now()
	report, err := s.jobs.Crawl(ctx)
	if errors.Is(err, domain.ErrCrawlingDisabled) {
		s.log.InfoObj("scheduled crawl skipped", "crawl_schedule", "crawling disabled")
		return false
	}
	if err != nil {
		s.log.ErrorObj("scheduled crawl failed", "error", err.Error())
		return false
	}
	s.log.InfoObj("scheduled crawl finished", "crawl_schedule", map[string]any{
		"saved":      report.Saved,
		"failed":     report.FailedSources(),
		"elapsed_ms": s.clock.Now().Sub(start).Milliseconds(),
	})
	return true
}

// TriggerCleanup is the cleanup tick; it removes articles past retention.
func (s *Scheduler) TriggerCleanup(ctx context.Context) (int64, error) {
	n, err := s.jobs.Cleanup(ctx, s.retention)
	if err != nil {
		s.log.ErrorObj("scheduled cleanup failed", "error", err.Error())
		return 0, err
	}
	s.log.InfoObj("scheduled cleanup finished", "cleanup_schedule", map[string]any{
		"deleted":        n,
		"retention_days": s.retention,
	})
	return n, nil
}

// Heartbeat logs store counts so a long-idle daemon shows signs of life.
func (s *Scheduler) Heartbeat(ctx context.Context) {
	total, today, err := s.jobs.Counts(ctx)
	if err != nil {
		s.log.WarnObj("heartbeat count failed", "error", err.Error())
		return
	}
	s.log.InfoObj("heartbeat", "heartbeat", map[string]any{
		"total": total,
		"today": today,
		"at":    s.clock.Now().UTC(),
	})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
