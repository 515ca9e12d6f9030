package providers

import (
	"context"
	"errors"
	"fmt"

	"github.com/samvad-hq/news-ingestor/internal/domain"
)

type boundSource struct {
	cfg     Provider
	fetcher Fetcher
}

// Bind pairs a provider with the fetcher that knows its format.
func Bind(cfg Provider, fetcher Fetcher) Source {
	return &boundSource{cfg: cfg, fetcher: fetcher}
}

// BindAll resolves a fetcher for every provider, preserving order.
func BindAll(reg FetcherRegistry, cfgs []Provider) ([]Source, error) {
	if reg == nil {
		return nil, errors.New("fetcher registry is nil")
	}
	out := make([]Source, 0, len(cfgs))
	for _, cfg := range cfgs {
		f, err := reg.FetcherFor(cfg)
		if err != nil {
			return nil, fmt.Errorf("resolve fetcher for provider %s: %w", cfg.ID, err)
		}
		out = append(out, Bind(cfg, f))
	}
	return out, nil
}

func (s *boundSource) Key() string  { return s.cfg.ID }
func (s *boundSource) Name() string { return s.cfg.Name }

// Aliases lists the alternate names callers may use for this source.
func (s *boundSource) Aliases() []string {
	out := make([]string, len(s.cfg.Aliases))
	copy(out, s.cfg.Aliases)
	return out
}

// Fetch runs the fetcher under the provider deadline and applies the item cap.
func (s *boundSource) Fetch(ctx context.Context) ([]domain.RawItem, error) {
	if s.fetcher == nil {
		return nil, fmt.Errorf("provider %q has no fetcher", s.cfg.ID)
	}
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout())
	defer cancel()

	items, err := s.fetcher.Fetch(ctx, s.cfg)
	if err != nil {
		return nil, err
	}
	if limit := s.cfg.ItemLimit(); len(items) > limit {
		items = items[:limit]
	}
	for i := range items {
		if items[i].Source == "" {
			items[i].Source = s.cfg.Name
		}
		if items[i].Category == "" {
			items[i].Category = s.cfg.Category
		}
	}
	return items, nil
}
