package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/samvad-hq/news-ingestor/internal/domain"
)

// Package storage provides the article store abstraction and its backends.

// ErrDuplicate is returned by Save when the (title, source) pair already exists.
var ErrDuplicate = errors.New("article already stored")

// Store persists normalized articles.
type Store interface {
	// Exists reports whether an article with this title and source is stored.
	Exists(ctx context.Context, title, source string) (bool, error)
	// Save assigns ID and CreatedAt and writes the article. A key clash yields ErrDuplicate.
	Save(ctx context.Context, a *domain.Article) error
	// DeleteOlderThan removes articles created strictly before cutoff.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
	// CountSince counts articles created at or after since; the zero time counts all.
	CountSince(ctx context.Context, since time.Time) (int64, error)
	// DistinctSources lists stored source names in ascending order.
	DistinctSources(ctx context.Context) ([]string, error)
	Close() error
}

// Options selects and configures a backend.
type Options struct {
	Type        string
	BBoltPath   string
	PostgresDSN string
	// Now stamps CreatedAt; defaults to time.Now.
	Now func() time.Time
}

// NewStore creates the configured storage backend.
func NewStore(opts Options) (Store, error) {
	typ := strings.TrimSpace(strings.ToLower(opts.Type))
	if opts.Now == nil {
		opts.Now = time.Now
	}

	switch typ {
	case "", "bbolt":
		if strings.TrimSpace(opts.BBoltPath) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(opts.BBoltPath, opts.Now)
	case "postgres":
		if strings.TrimSpace(opts.PostgresDSN) == "" {
			return nil, fmt.Errorf("postgres storage requires a dsn")
		}
		return openGorm(context.Background(), opts.PostgresDSN, opts.Now)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func validArticle(a *domain.Article) error {
	if a == nil {
		return errors.New("article is nil")
	}
	if strings.TrimSpace(a.Title) == "" {
		return errors.New("article title is empty")
	}
	return nil
}
