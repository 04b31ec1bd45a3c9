package browser

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"

	"github.com/rahul/saarthi/internal/extract"
	"github.com/rahul/saarthi/pkg/config"
)

const maxScrapedItems = 10

// ScrapeItems reads structured result items off a search page using
// the engine's selector table. Parsing happens Go-side over the
// rendered HTML; the page never runs injected collection code.
func (s *Session) ScrapeItems(ctx context.Context, tabID int, engine config.EngineConfig) (*extract.Result, error) {
	tctx, err := s.tabCtx(tabID)
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithTimeout(tctx, stepTimeout)
	defer cancel()

	var title, location, html string
	err = chromedp.Run(runCtx,
		chromedp.Title(&title),
		chromedp.Location(&location),
		outerHTML(&html),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to read search page: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse search page: %w", err)
	}

	sel := engine.Selectors
	base, _ := url.Parse(location)

	var items []extract.Item
	total := 0
	doc.Find(sel.Item).Each(func(_ int, node *goquery.Selection) {
		total++
		if len(items) >= maxScrapedItems {
			return
		}

		itemTitle := strings.TrimSpace(node.Find(sel.Title).First().Text())
		if itemTitle == "" {
			return
		}

		link := ""
		if href, ok := node.Find(sel.Link).First().Attr("href"); ok {
			link = absolutize(base, href)
		}

		content := extract.ContentPending
		if sel.Snippet != "" {
			if snippet := strings.TrimSpace(node.Find(sel.Snippet).First().Text()); snippet != "" {
				content = snippet
			}
		}

		item := extract.Item{Title: itemTitle, Content: content, SourceLink: link}
		if sel.Metadata != "" {
			if meta := strings.TrimSpace(node.Find(sel.Metadata).First().Text()); meta != "" {
				item.Metadata = map[string]string{"source": meta}
			}
		}
		items = append(items, item)
	})

	res := &extract.Result{
		Success:    len(items) > 0,
		Items:      items,
		TotalFound: total,
		PageURL:    location,
		PageTitle:  title,
		Platform:   engine.Name,
	}
	if !res.Success {
		res.Items = []extract.Item{}
		res.Error = "no items matched the result selectors"
	}
	return res, nil
}

func absolutize(base *url.URL, href string) string {
	if base == nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
