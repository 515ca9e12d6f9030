// Package textclean normalizes scraped news text: markup removal, entity
// decoding, headline/summary tidying and text-to-speech friendly rewrites.
//
// Every function is total. Blank input yields "", and a failure inside any
// step returns the value produced by the steps before it.
package textclean

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

const (
	ellipsis = "..."
	// maxPasses bounds the strip/decode loop; nested encodings deeper than this are
	// dropped by the final sweep.
	maxPasses = 4
)

var (
	strictPolicy = bluemonday.StrictPolicy()

	tagPattern    = regexp.MustCompile(`<[^>]*>`)
	entityPattern = regexp.MustCompile(`&(#[0-9]+|#[xX][0-9a-fA-F]+|[a-zA-Z][a-zA-Z0-9]*);`)
	spacePattern  = regexp.MustCompile(`[\s\p{Cc}\x{00A0}]+`)

	titleNoise = []*regexp.Regexp{
		regexp.MustCompile(`\[.*?\]`),
		regexp.MustCompile(`\(.*?\)`),
		regexp.MustCompile(`【.*?】`),
		regexp.MustCompile(`「.*?」`),
	}
	trailingDash = regexp.MustCompile(`\s*-\s*$`)

	summaryLead  = regexp.MustCompile(`^[\s\-•]+`)
	summaryTrail = regexp.MustCompile(`[\s\-•]+$`)
)

var namedEntities = map[string]string{
	"amp":   "&",
	"lt":    "<",
	"gt":    ">",
	"quot":  `"`,
	"apos":  "'",
	"nbsp":  " ",
	"copy":  "©",
	"reg":   "®",
	"trade": "™",
	"rarr":  "→",
	"larr":  "←",
	"ldquo": `"`,
	"rdquo": `"`,
	"lsquo": "'",
	"rsquo": "'",
	"ndash": "–",
	"mdash": "—",
}

// Clean strips markup, decodes entities and collapses whitespace.
// The result never contains a `<...>` tag or an `&...;` entity.
func Clean(raw string) (out string) {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	out = raw
	defer func() {
		if recover() != nil {
			out = collapse(out)
		}
	}()

	s := raw
	for i := 0; i < maxPasses; i++ {
		stripped := stripMarkup(s)
		out = stripped
		decoded := decodeEntities(stripped)
		out = decoded
		if decoded == s {
			break
		}
		s = decoded
	}
	// Whatever survived the bounded loop is treated as noise.
	s = tagPattern.ReplaceAllString(out, " ")
	s = entityPattern.ReplaceAllString(s, " ")
	out = collapse(s)
	return out
}

// ampGuard hides source ampersands from the HTML tokenizer so entities are
// decoded by our table only.
const ampGuard = "\uE000"

func stripMarkup(s string) string {
	if !strings.Contains(s, "<") {
		return s
	}
	s = strings.ReplaceAll(s, "&", ampGuard)
	s = strictPolicy.Sanitize(s)
	s = strings.ReplaceAll(s, ampGuard, "&")
	return tagPattern.ReplaceAllString(s, " ")
}

func decodeEntities(s string) string {
	if !strings.Contains(s, "&") {
		return s
	}
	return entityPattern.ReplaceAllStringFunc(s, func(m string) string {
		body := m[1 : len(m)-1]
		if body[0] != '#' {
			if v, ok := namedEntities[body]; ok {
				return v
			}
			return " "
		}
		var (
			code int64
			err  error
		)
		if len(body) > 1 && (body[1] == 'x' || body[1] == 'X') {
			code, err = strconv.ParseInt(body[2:], 16, 32)
		} else {
			code, err = strconv.ParseInt(body[1:], 10, 32)
		}
		if err != nil {
			return " "
		}
		switch {
		case code == 160:
			return " "
		case code >= 32 && code <= 126, code >= 0x80 && code <= 0xFFFF:
			r := rune(code)
			if !utf8.ValidRune(r) {
				return " "
			}
			return string(r)
		default:
			return " "
		}
	})
}

func collapse(s string) string {
	return strings.TrimSpace(spacePattern.ReplaceAllString(s, " "))
}

// CleanTitle cleans a headline and drops bracketed annotations and a trailing dash.
func CleanTitle(raw string) (out string) {
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
	for _, re := range titleNoise {
		s = re.ReplaceAllString(s, "")
	}
	s = trailingDash.ReplaceAllString(s, "")
	return collapse(s)
}

// CleanSummary cleans a summary and trims leading/trailing bullets and dashes.
func CleanSummary(raw string) (out string) {
	out = Clean(raw)
	if out == "" {
		return ""
	}
	s := summaryLead.ReplaceAllString(out, "")
	return summaryTrail.ReplaceAllString(s, "")
}

// Truncate limits s to max characters, appending "..." when anything was cut.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max]) + ellipsis
}
