package domain

import "time"

// Domain contains core models and interfaces.

// RawItem is a source-native record extracted by a fetcher, before any cleanup.
type RawItem struct {
	Title       string
	Link        string
	Description string
	ImageURL    string
	Source      string
	Category    string
	PublishedAt time.Time
}

// Article is the normalized, dedup-eligible record handed to the store.
type Article struct {
	ID          uint64     `json:"id"`
	Title       string     `json:"title"`
	Summary     string     `json:"summary"`
	ImageURL    string     `json:"image_url"`
	Source      string     `json:"source"`
	Category    string     `json:"category"`
	Link        string     `json:"link"`
	PublishedAt time.Time  `json:"published_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// DedupKey is the (title, source) pair that identifies an article across crawls.
type DedupKey struct {
	Title  string
	Source string
}

// Key returns the article's dedup key.
func (a Article) Key() DedupKey {
	return DedupKey{Title: a.Title, Source: a.Source}
}

// FetchOutcome reports the result of crawling one source.
type FetchOutcome struct {
	Source  string
	Items   []Article
	Err     error
	Elapsed time.Duration
}

// OK reports whether the source was fetched without error.
func (o FetchOutcome) OK() bool { return o.Err == nil }
