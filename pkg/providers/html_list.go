package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/samvad-hq/news-ingestor/internal/domain"
)

// htmlListFetcher scrapes a news listing page with CSS selectors taken from
// the provider config. It serves sources that publish no feed.
type htmlListFetcher struct {
	images *ImageResolver
	log    Logger
}

// NewHTMLListFetcher builds the listing-page strategy.
func NewHTMLListFetcher(images *ImageResolver, log Logger) Fetcher {
	return &htmlListFetcher{images: images, log: ensureLogger(log)}
}

func (f *htmlListFetcher) ID() string { return ProviderTypeHTMLList }

func (f *htmlListFetcher) Fetch(ctx context.Context, cfg Provider) ([]domain.RawItem, error) {
	if !strings.EqualFold(cfg.Type, ProviderTypeHTMLList) {
		return nil, fmt.Errorf("html list fetcher received incompatible provider type %q", cfg.Type)
	}
	if strings.TrimSpace(cfg.SourceURL) == "" {
		return nil, fmt.Errorf("provider %q source_url is empty", cfg.ID)
	}
	itemSel := ConfigString(cfg, ConfigItemSelectorKey, "")
	if itemSel == "" {
		return nil, fmt.Errorf("provider %q config.%s is required", cfg.ID, ConfigItemSelectorKey)
	}
	titleSel := ConfigString(cfg, ConfigTitleSelectorKey, "")
	linkSel := ConfigString(cfg, ConfigLinkSelectorKey, "a")
	summarySel := ConfigString(cfg, ConfigSummarySelectorKey, "")
	imageSel := ConfigString(cfg, ConfigImageSelectorKey, "img")

	c := colly.NewCollector(
		colly.UserAgent(ConfigString(cfg, ConfigUserAgentKey, "")),
		colly.AllowURLRevisit(),
	)
	timeout := cfg.Timeout()
	if dl, ok := ctx.Deadline(); ok {
		timeout = time.Until(dl)
	}
	c.SetRequestTimeout(timeout)

	headers := Headers(cfg)
	delete(headers, "User-Agent")
	c.OnRequest(func(r *colly.Request) {
		for k, v := range headers {
			r.Headers.Set(k, v)
		}
	})

	limit := cfg.ItemLimit()
	var (
		items    []domain.RawItem
		rejected []error
	)
	c.OnHTML(itemSel, func(e *colly.HTMLElement) {
		if len(items) >= limit {
			return
		}
		title := strings.TrimSpace(e.Text)
		if titleSel != "" {
			title = strings.TrimSpace(e.ChildText(titleSel))
		}
		href := e.ChildAttr(linkSel, "href")
		if href == "" {
			href = e.Attr("href")
		}
		link := e.Request.AbsoluteURL(strings.TrimSpace(href))
		if title == "" {
			rejected = append(rejected, &domain.ItemParseError{Source: cfg.Name, Link: link, Err: errors.New("missing title")})
			return
		}

		item := domain.RawItem{
			Title:    title,
			Link:     link,
			Source:   cfg.Name,
			Category: cfg.Category,
		}
		if summarySel != "" {
			item.Description = strings.TrimSpace(e.ChildText(summarySel))
		}
		if src := e.ChildAttr(imageSel, "src"); src != "" {
			item.ImageURL = e.Request.AbsoluteURL(src)
		}
		items = append(items, item)
	})

	done := make(chan error, 1)
	go func() {
		done <- c.Visit(cfg.SourceURL)
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case err := <-done:
		if err != nil {
			return nil, fmt.Errorf("fetch %s listing: %w", cfg.ID, err)
		}
	}

	return finishItems(ctx, cfg, f.images, f.log, items, rejected), nil
}
