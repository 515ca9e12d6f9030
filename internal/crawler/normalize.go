package crawler

import (
	"errors"
	"strings"
	"time"

	"github.com/samvad-hq/news-ingestor/internal/domain"
	"github.com/samvad-hq/news-ingestor/internal/textclean"
	"github.com/samvad-hq/news-ingestor/pkg/providers"
)

const defaultSummaryMaxLength = 300

// normalizer turns raw items into articles ready for dedup.
type normalizer struct {
	summaryMax int
	now        func() time.Time
}

func (n normalizer) normalize(item domain.RawItem) (domain.Article, error) {
	title := textclean.CleanTitle(item.Title)
	if title == "" {
		return domain.Article{}, &domain.ItemParseError{
			Source: item.Source,
			Link:   item.Link,
			Err:    errors.New("title is empty after cleaning"),
		}
	}

	max := n.summaryMax
	if max <= 0 {
		max = defaultSummaryMaxLength
	}

	published := item.PublishedAt
	if published.IsZero() {
		published = n.now()
	}

	image := strings.TrimSpace(item.ImageURL)
	if image == "" {
		image = providers.Placeholder(item.Category)
	}

	return domain.Article{
		Title:       title,
		Summary:     textclean.Truncate(textclean.CleanSummary(item.Description), max),
		ImageURL:    image,
		Source:      strings.TrimSpace(item.Source),
		Category:    strings.TrimSpace(item.Category),
		Link:        strings.TrimSpace(item.Link),
		PublishedAt: published,
	}, nil
}

// normalizeAll keeps the items that normalize and returns the rejects separately.
func (n normalizer) normalizeAll(items []domain.RawItem) ([]domain.Article, []error) {
	out := make([]domain.Article, 0, len(items))
	var rejected []error
	for _, item := range items {
		a, err := n.normalize(item)
		if err != nil {
			rejected = append(rejected, err)
			continue
		}
		out = append(out, a)
	}
	return out, rejected
}
