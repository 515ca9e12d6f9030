package publishers

import (
	"time"

	"github.com/samvad-hq/news-ingestor/internal/domain"
)

// EventArticleIngested is emitted once per newly stored article.
const EventArticleIngested = "article.ingested"

// Event represents the payload published downstream.
type Event struct {
	Type       string         `json:"type"`
	Source     string         `json:"source"`
	Category   string         `json:"category"`
	Article    domain.Article `json:"article"`
	IngestedAt time.Time      `json:"ingested_at"`
}

// NewEvent wraps a stored article in an ingestion event.
func NewEvent(article domain.Article) Event {
	return Event{
		Type:       EventArticleIngested,
		Source:     article.Source,
		Category:   article.Category,
		Article:    article,
		IngestedAt: time.Now().UTC(),
	}
}
