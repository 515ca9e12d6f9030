package providers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/samvad-hq/news-ingestor/internal/domain"
	"github.com/samvad-hq/news-ingestor/pkg/httpclient"
)

func responseSnippet(body []byte) string {
	const maxLen = 512
	s := strings.TrimSpace(string(body))
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	if s == "" {
		return "<empty>"
	}
	return s
}

// fetchBody GETs url and rejects non-200 responses.
func fetchBody(ctx context.Context, client httpclient.Client, url, providerID string, headers map[string]string) ([]byte, error) {
	resp, err := client.Get(ctx, url, headers)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", providerID, err)
	}

	body := resp.Body()
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("%s returned status %d body: %s", providerID, resp.StatusCode(), responseSnippet(body))
	}

	return body, nil
}

// finishItems resolves images for accepted items and logs the rejected ones.
// The cap is applied before any article page is requested.
func finishItems(ctx context.Context, cfg Provider, images *ImageResolver, log Logger, items []domain.RawItem, rejected []error) []domain.RawItem {
	for _, err := range rejected {
		log.WarnObj("item skipped", "item_parse_error", map[string]any{
			"provider_id": cfg.ID,
			"error":       err.Error(),
		})
	}

	if limit := cfg.ItemLimit(); len(items) > limit {
		items = items[:limit]
	}
	headers := Headers(cfg)
	for i := range items {
		items[i].ImageURL = images.Resolve(ctx, items[i], headers)
	}
	return items
}

// timeOrZero leaves the zero time for items without a date; normalization
// stamps those with the crawl time.
func timeOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
