package textclean

import (
	"regexp"
	"strings"
	"testing"
	"unicode/utf8"
)

var (
	leftoverTag    = regexp.MustCompile(`<[^>]*>`)
	leftoverEntity = regexp.MustCompile(`&[#a-zA-Z0-9]+;`)
)

func TestCleanStripsMarkupAndDecodesEntities(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{name: "paragraph", in: "<p>Hello&nbsp;&amp;&nbsp;World</p>", want: "Hello & World"},
		{name: "script body", in: "<div>뉴스<script>alert(1)</script> 속보</div>", want: "뉴스 속보"},
		{name: "numeric", in: "Tom&#39;s &#x41;pp", want: "Tom's App"},
		{name: "quotes", in: "&ldquo;정상회담&rdquo; &mdash; 요약", want: `"정상회담" — 요약`},
		{name: "single quotes", in: "&lsquo;K&rsquo;", want: "'K'"},
		{name: "lone less-than", in: "3 < 5 이다", want: "3 < 5 이다"},
		{name: "decoded less-than", in: "a &lt; b", want: "a < b"},
		{name: "tag then comparison", in: "<b>bold</b> 1<2", want: "bold 1<2"},
		{name: "unknown named", in: "a&bogus;b", want: "a b"},
		{name: "out of range numeric", in: "a&#1;b", want: "a b"},
		{name: "nbsp numeric", in: "a&#160;b", want: "a b"},
		{name: "whitespace", in: "  line1\n\n\tline2  ", want: "line1 line2"},
		{name: "blank", in: " \n\t ", want: ""},
		{name: "empty", in: "", want: ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Clean(tc.in); got != tc.want {
				t.Fatalf("Clean(%q) = %q want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestCleanNeverLeavesTagsOrEntities(t *testing.T) {
	inputs := []string{
		"&lt;b&gt;bold&lt;/b&gt;",
		"&amp;lt;i&amp;gt;double&amp;lt;/i&amp;gt;",
		"<a href='x'>link &copy; 2024</a>",
		"x < y > z",
		"&amp;amp;amp;amp;amp;",
		"<<b>>nested<</b>>",
	}
	for _, in := range inputs {
		got := Clean(in)
		if leftoverTag.MatchString(got) {
			t.Errorf("Clean(%q) = %q still has a tag", in, got)
		}
		if leftoverEntity.MatchString(got) {
			t.Errorf("Clean(%q) = %q still has an entity", in, got)
		}
		if got != strings.TrimSpace(got) || strings.Contains(got, "  ") {
			t.Errorf("Clean(%q) = %q has uncollapsed whitespace", in, got)
		}
	}
}

func TestCleanIsIdempotent(t *testing.T) {
	inputs := []string{
		"<p>[속보] 한국 경제&nbsp;성장</p>",
		"Tom &amp; Jerry",
		"&lt;script&gt;",
		"평범한 문장",
	}
	for _, in := range inputs {
		once := Clean(in)
		if twice := Clean(once); twice != once {
			t.Errorf("Clean not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestCleanTitleRemovesAnnotations(t *testing.T) {
	cases := map[string]string{
		"[속보] 대통령 기자회견 (종합)":      "대통령 기자회견",
		"【단독】 「인터뷰」 신작 발표 -":       "신작 발표",
		"<b>경제</b> 성장률 상승 - ":      "경제 성장률 상승",
		"[사진]":                     "",
		"[단독] 속보입니다 (수정)":         "속보입니다",
		"Plain headline":            "Plain headline",
	}
	for in, want := range cases {
		if got := CleanTitle(in); got != want {
			t.Errorf("CleanTitle(%q) = %q want %q", in, got, want)
		}
	}
}

func TestCleanSummaryTrimsBullets(t *testing.T) {
	got := CleanSummary("  • - 요약 본문입니다 - •  ")
	if got != "요약 본문입니다" {
		t.Fatalf("CleanSummary = %q", got)
	}
	if CleanSummary("") != "" {
		t.Fatalf("blank summary should stay blank")
	}
}

func TestCleanForSpeech(t *testing.T) {
	cases := map[string]string{
		"CEO와 CTO가 AI API를 발표":  "씨이오와 씨티오가 에이아이 에이피아이를 발표",
		"IT 기업 10km 20kg 5%":    "아이티 기업 10킬로미터 20킬로그램 5퍼센트",
		"A&B @home #1":         "A 그리고 B at home 샵 1",
		"정말요?? 대박!! 그래서...": "정말요? 대박! 그래서.",
		"":                     "",
	}
	for in, want := range cases {
		if got := CleanForSpeech(in); got != want {
			t.Errorf("CleanForSpeech(%q) = %q want %q", in, got, want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("짧은 글", 10); got != "짧은 글" {
		t.Fatalf("short input changed: %q", got)
	}
	long := strings.Repeat("가", 305)
	got := Truncate(long, 300)
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("expected ellipsis suffix, got %q", got)
	}
	if n := utf8.RuneCountInString(got); n != 303 {
		t.Fatalf("rune count = %d want 303", n)
	}
	if got := Truncate(strings.Repeat("a", 300), 300); len(got) != 300 {
		t.Fatalf("exact-length input must not be cut")
	}
	if got := Truncate(strings.Repeat("가", 301), 300); got != strings.Repeat("가", 300)+"..." {
		t.Fatalf("max+1 input: rune count = %d", utf8.RuneCountInString(got))
	}
}
