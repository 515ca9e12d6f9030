package crawler

import (
	"context"
	"errors"

	"github.com/samvad-hq/news-ingestor/internal/domain"
	"github.com/samvad-hq/news-ingestor/internal/logger"
	"github.com/samvad-hq/news-ingestor/internal/storage"
	"github.com/samvad-hq/news-ingestor/pkg/publishers"
)

// Deduplicator drops already-known articles and writes the rest one at a time.
type Deduplicator struct {
	store storage.Store
	pub   EventPublisher
	log   logger.Logger
}

// NewDeduplicator builds a deduplicator; pub may be nil.
func NewDeduplicator(store storage.Store, pub EventPublisher, log logger.Logger) *Deduplicator {
	return &Deduplicator{store: store, pub: pub, log: logger.Ensure(log)}
}

// PersistResult tallies one persist pass.
type PersistResult struct {
	Saved      []domain.Article
	Duplicates int
	Failed     int
	Errors     []error
}

// Filter returns the items whose (title, source) is neither stored nor seen
// earlier in the same batch, preserving input order. A failed lookup keeps the
// item; Save's unique key is the final arbiter.
func (d *Deduplicator) Filter(ctx context.Context, items []domain.Article) []domain.Article {
	seen := make(map[domain.DedupKey]struct{}, len(items))
	out := make([]domain.Article, 0, len(items))
	for _, a := range items {
		key := a.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		exists, err := d.store.Exists(ctx, a.Title, a.Source)
		if err != nil {
			d.log.WarnObj("dedup lookup failed", "dedup_error", map[string]any{
				"title":  a.Title,
				"source": a.Source,
				"error":  err.Error(),
			})
		}
		if exists {
			continue
		}
		out = append(out, a)
	}
	return out
}

// Persist saves items sequentially. A duplicate or a failed write is counted
// and the batch continues.
func (d *Deduplicator) Persist(ctx context.Context, items []domain.Article) PersistResult {
	var res PersistResult
	for i := range items {
		a := items[i]
		err := d.store.Save(ctx, &a)
		switch {
		case err == nil:
			res.Saved = append(res.Saved, a)
			d.publish(ctx, a)
		case errors.Is(err, storage.ErrDuplicate):
			res.Duplicates++
		default:
			perr := &domain.PersistenceError{Title: a.Title, Source: a.Source, Err: err}
			res.Failed++
			res.Errors = append(res.Errors, perr)
			d.log.ErrorObj("article save failed", "persist_error", map[string]any{
				"title":  a.Title,
				"source": a.Source,
				"error":  err.Error(),
			})
		}
	}
	return res
}

func (d *Deduplicator) publish(ctx context.Context, a domain.Article) {
	if d.pub == nil {
		return
	}
	if _, err := d.pub.Publish(ctx, publishers.NewEvent(a)); err != nil {
		d.log.WarnObj("article event publish failed", "publish_error", map[string]any{
			"article_id": a.ID,
			"source":     a.Source,
			"error":      err.Error(),
		})
	}
}
