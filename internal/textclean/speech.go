package textclean

import (
	"regexp"
	"strings"
)

type rewrite struct {
	re   *regexp.Regexp
	repl string
}

// speechRewrites turn abbreviations, units and symbols into forms a Korean
// speech engine reads naturally. Order matters: units before bare symbols.
var speechRewrites = []rewrite{
	{regexp.MustCompile(`\bCEO\b`), "씨이오"},
	{regexp.MustCompile(`\bCTO\b`), "씨티오"},
	{regexp.MustCompile(`\bAPI\b`), "에이피아이"},
	{regexp.MustCompile(`\bIT\b`), "아이티"},
	{regexp.MustCompile(`\bAI\b`), "에이아이"},
	{regexp.MustCompile(`(\d+)\s?km\b`), "${1}킬로미터"},
	{regexp.MustCompile(`(\d+)\s?kg\b`), "${1}킬로그램"},
	{regexp.MustCompile(`(\d+)\s?%`), "${1}퍼센트"},
	{regexp.MustCompile(`\.{2,}`), "."},
	{regexp.MustCompile(`\?{2,}`), "?"},
	{regexp.MustCompile(`!{2,}`), "!"},
}

var symbolWords = strings.NewReplacer(
	"&", " 그리고 ",
	"@", " at ",
	"#", " 샵 ",
)

// CleanForSpeech cleans raw and rewrites it for text-to-speech input.
func CleanForSpeech(raw string) (out string) {
	out = Clean(raw)
	if out == "" {
		return ""
	}
	defer func() {
		if recover() != nil {
			out = Clean(raw)
		}
	}()

	s := out
	for _, rw := range speechRewrites {
		s = rw.re.ReplaceAllString(s, rw.repl)
	}
	s = symbolWords.Replace(s)
	return collapse(s)
}
