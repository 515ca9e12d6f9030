package crawler

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/samvad-hq/news-ingestor/internal/domain"
	"github.com/samvad-hq/news-ingestor/pkg/providers"
)

func TestNormalizeCleansAndDefaults(t *testing.T) {
	n := normalizer{now: fixedNow}
	a, err := n.normalize(domain.RawItem{
		Title:       "[속보] 금리 동결 &amp; 발표 - ",
		Description: "- <b>한국은행</b>이 금리를 동결했다 •",
		Source:      "연합뉴스",
		Category:    "경제",
		Link:        " https://yna.co.kr/1 ",
	})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if a.Title != "금리 동결 & 발표" {
		t.Fatalf("title = %q", a.Title)
	}
	if a.Summary != "한국은행이 금리를 동결했다" {
		t.Fatalf("summary = %q", a.Summary)
	}
	if !a.PublishedAt.Equal(fixedNow()) {
		t.Fatalf("zero publish time should default to now, got %v", a.PublishedAt)
	}
	if a.ImageURL != providers.Placeholder("경제") {
		t.Fatalf("missing image should use category placeholder, got %q", a.ImageURL)
	}
	if a.Link != "https://yna.co.kr/1" {
		t.Fatalf("link = %q", a.Link)
	}
}

func TestNormalizeRejectsEmptyTitle(t *testing.T) {
	n := normalizer{now: fixedNow}
	_, err := n.normalize(domain.RawItem{Title: "<b></b> [단독]", Source: "KBS 뉴스"})
	var perr *domain.ItemParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ItemParseError, got %v", err)
	}
}

func TestNormalizeTruncatesSummary(t *testing.T) {
	n := normalizer{now: fixedNow, summaryMax: 10}
	a, err := n.normalize(domain.RawItem{Title: "제목", Description: strings.Repeat("가", 25)})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if utf8.RuneCountInString(a.Summary) != 13 || !strings.HasSuffix(a.Summary, "...") {
		t.Fatalf("summary not truncated to 10 runes plus ellipsis: %q", a.Summary)
	}
}

func TestNormalizeAllSplitsRejects(t *testing.T) {
	n := normalizer{now: fixedNow}
	items, rejected := n.normalizeAll([]domain.RawItem{raw("한겨레", "하나"), {Title: "  "}, raw("한겨레", "둘")})
	if len(items) != 2 || len(rejected) != 1 {
		t.Fatalf("expected 2 items and 1 reject, got %d/%d", len(items), len(rejected))
	}
}
