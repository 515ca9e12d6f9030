package providers

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/samvad-hq/news-ingestor/internal/domain"
)

const (
	maxHTMLBodyBytes      = 1 << 20 // 1 MiB
	defaultArticleTimeout = 10 * time.Second
)

var (
	articleImageSelectors = "article img, .article img, .news-content img, .content img, main img"
	skippedImageMarkers   = []string{"logo", "icon", "btn"}
)

// ImageResolverOptions configures article page lookups.
type ImageResolverOptions struct {
	Timeout  time.Duration
	Interval time.Duration
	Logger   Logger
}

// ImageResolver picks a representative image for an item. First hit wins:
// the feed-native image, an <img> in the description, og:image, twitter:image,
// the first image in the article body, then a category placeholder.
type ImageResolver struct {
	client  HTTPClient
	limiter *HostRateLimiter
	timeout time.Duration
	log     Logger
}

// NewImageResolver builds a resolver; a nil client disables page lookups.
func NewImageResolver(client HTTPClient, opts ImageResolverOptions) *ImageResolver {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultArticleTimeout
	}
	return &ImageResolver{
		client:  client,
		limiter: NewHostRateLimiter(opts.Interval),
		timeout: timeout,
		log:     ensureLogger(opts.Logger),
	}
}

// Resolve returns the best image URL for item. It never returns "".
func (r *ImageResolver) Resolve(ctx context.Context, item domain.RawItem, headers map[string]string) string {
	if u := absoluteImage(item.ImageURL, item.Link); u != "" {
		return u
	}
	if u := descriptionImage(item.Description, item.Link); u != "" {
		return u
	}
	if r != nil && r.client != nil && item.Link != "" && ctx.Err() == nil {
		u, err := r.pageImage(ctx, item.Link, headers)
		if err != nil {
			r.log.DebugObj("article image lookup failed", "image_lookup", map[string]any{
				"url":   item.Link,
				"error": err.Error(),
			})
		}
		if u != "" {
			return u
		}
	}
	return Placeholder(item.Category)
}

func (r *ImageResolver) pageImage(ctx context.Context, link string, headers map[string]string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := r.limiter.WaitForHost(ctx, link); err != nil {
		return "", fmt.Errorf("rate limit: %w", err)
	}

	resp, err := r.client.Get(ctx, link, headers)
	if err != nil {
		return "", fmt.Errorf("http fetch: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("status %d body: %s", resp.StatusCode(), responseSnippet(resp.Body()))
	}

	body := resp.Body()
	if len(body) > maxHTMLBodyBytes {
		body = body[:maxHTMLBodyBytes]
	}
	return extractPageImage(body, link)
}

// extractPageImage walks the page-level steps of the image policy.
func extractPageImage(body []byte, base string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	meta := func(sel string) string {
		if node := doc.Find(sel).First(); node.Length() > 0 {
			if val, ok := node.Attr("content"); ok {
				return strings.TrimSpace(val)
			}
		}
		return ""
	}

	candidates := []string{
		meta(`meta[property="og:image"]`),
		firstNonEmpty(meta(`meta[name="twitter:image"]`), meta(`meta[property="twitter:image"]`)),
		firstImage(doc.Find(articleImageSelectors)),
		firstImage(doc.Find("img[src]")),
	}
	for _, c := range candidates {
		if u := absoluteImage(c, base); u != "" {
			return u, nil
		}
	}
	return "", nil
}

// descriptionImage returns the first <img src> inside an HTML description fragment.
func descriptionImage(fragment, base string) string {
	if !strings.Contains(fragment, "<img") {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return ""
	}
	return absoluteImage(firstImage(doc.Find("img[src]")), base)
}

func firstImage(sel *goquery.Selection) string {
	var found string
	sel.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		src, _ := s.Attr("src")
		src = strings.TrimSpace(src)
		if src == "" || skippedImage(src) {
			return true
		}
		found = src
		return false
	})
	return found
}

func skippedImage(src string) bool {
	lower := strings.ToLower(src)
	for _, m := range skippedImageMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

// feedImage extracts the best image URL from a gofeed Item.
// Priority: Item.Image > media:thumbnail > media:content (medium=image) > enclosure (image/*).
func feedImage(item *gofeed.Item) string {
	if item == nil {
		return ""
	}
	if item.Image != nil && isHTTPURL(item.Image.URL) {
		return item.Image.URL
	}

	if mediaExt, ok := item.Extensions["media"]; ok {
		for _, thumb := range mediaExt["thumbnail"] {
			if u := thumb.Attrs["url"]; isHTTPURL(u) {
				return u
			}
		}
		for _, content := range mediaExt["content"] {
			if content.Attrs["medium"] == "image" || strings.HasPrefix(content.Attrs["type"], "image/") {
				if u := content.Attrs["url"]; isHTTPURL(u) {
					return u
				}
			}
		}
	}

	for _, enc := range item.Enclosures {
		if strings.HasPrefix(enc.Type, "image/") && isHTTPURL(enc.URL) {
			return enc.URL
		}
	}
	return ""
}

func isHTTPURL(raw string) bool {
	if raw == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

// absoluteImage resolves ref against base and keeps only http(s) results.
func absoluteImage(ref, base string) string {
	if u := resolveURL(ref, base); isHTTPURL(u) {
		return u
	}
	return ""
}

func resolveURL(ref, base string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	if refURL.IsAbs() {
		return refURL.String()
	}
	baseURL, err := url.Parse(strings.TrimSpace(base))
	if err != nil || !baseURL.IsAbs() {
		return ref
	}
	return baseURL.ResolveReference(refURL).String()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
