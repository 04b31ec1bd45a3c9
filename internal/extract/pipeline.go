package extract

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/rahul/saarthi/internal/observability"
	"github.com/rahul/saarthi/pkg/config"
)

// Content sentinels. ContentPending marks an item whose body must be
// fetched from its source link; the fill pass replaces it in place.
const (
	ContentPending     = "[[pending-full-content]]"
	ContentTimeout     = "Content extraction timed out"
	ContentUnavailable = "No main content found"
	ContentCancelled   = "Content extraction cancelled"
)

// Item is one extracted result.
type Item struct {
	Title      string            `json:"title"`
	Content    string            `json:"content"`
	SourceLink string            `json:"source_link"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// Result is always fully formed, even on failure (Success false, empty
// Items), so callers never special-case "no result".
type Result struct {
	Success    bool   `json:"success"`
	Items      []Item `json:"items"`
	TotalFound int    `json:"total_found"`
	PageURL    string `json:"page_url"`
	PageTitle  string `json:"page_title"`
	Platform   string `json:"platform"`
	Error      string `json:"error,omitempty"`
}

// Scraper reads structured items off a page that is already open.
type Scraper interface {
	ScrapeItems(ctx context.Context, tabID int, engine config.EngineConfig) (*Result, error)
}

// EphemeralTab is a background tab opened solely to extract one detail
// page. WaitLoaded registers a one-shot load listener; implementations
// must remove it on every return path. Close must be safe to call at
// most once; the pipeline guarantees it is called exactly once.
type EphemeralTab interface {
	WaitLoaded(ctx context.Context) error
	ExtractMain(ctx context.Context, selectors []string) (string, error)
	Close()
}

// TabOpener opens background tabs.
type TabOpener interface {
	OpenBackground(ctx context.Context, url string) (EphemeralTab, error)
}

// Pipeline performs in-place extraction against existing tabs and
// full-content extraction through ephemeral tabs.
type Pipeline struct {
	Scraper     Scraper
	Tabs        TabOpener
	Logger      *observability.Logger
	LoadTimeout time.Duration // wall clock bound per ephemeral tab
	SettleDelay time.Duration // after load, before extraction
	RateDelay   time.Duration // before each platform scrape

	// One ephemeral tab at a time. A semaphore rather than a loop
	// shape so the bound is visible and testable on its own.
	tabSem *semaphore.Weighted
}

func NewPipeline(scraper Scraper, tabs TabOpener, logger *observability.Logger, cfg config.BrowserConfig) *Pipeline {
	return &Pipeline{
		Scraper:     scraper,
		Tabs:        tabs,
		Logger:      logger,
		LoadTimeout: time.Duration(cfg.LoadTimeoutSecs) * time.Second,
		SettleDelay: time.Duration(cfg.SettleDelayMillis) * time.Millisecond,
		RateDelay:   time.Duration(cfg.RateDelaySecs) * time.Second,
		tabSem:      semaphore.NewWeighted(1),
	}
}

// Extract scrapes items from an existing tab. It never returns an
// error: anything that goes wrong yields a well-formed failure Result.
// The rate delay runs first, as a scrape-level politeness policy, not
// a retry mechanism: there is no retry.
func (p *Pipeline) Extract(ctx context.Context, tabID int, engine config.EngineConfig) *Result {
	if p.RateDelay > 0 {
		select {
		case <-ctx.Done():
			return failed(engine.Name, "extraction cancelled")
		case <-time.After(p.RateDelay):
		}
	}

	res, err := p.Scraper.ScrapeItems(ctx, tabID, engine)
	if err != nil {
		p.Logger.LogExtract(tabID, engine.Name, 0, false)
		return failed(engine.Name, err.Error())
	}
	if res == nil {
		p.Logger.LogExtract(tabID, engine.Name, 0, false)
		return failed(engine.Name, "scraper returned no result")
	}
	if res.Items == nil {
		res.Items = []Item{}
	}
	if !res.Success && res.Error == "" {
		res.Error = "no items found"
	}
	p.Logger.LogExtract(tabID, engine.Name, res.TotalFound, res.Success)
	return res
}

// FillFullContent replaces pending-content sentinels by navigating an
// ephemeral tab to each item's source link, strictly one item after
// another. At most maxItems items are fetched; the rest keep their
// sentinel. Items never disappear: whatever happens, every item comes
// back with some content string.
func (p *Pipeline) FillFullContent(ctx context.Context, items []Item, selectors []string, maxItems int) {
	fetched := 0
	for i := range items {
		if items[i].Content != ContentPending {
			continue
		}
		if maxItems > 0 && fetched >= maxItems {
			continue
		}
		fetched++
		if items[i].SourceLink == "" {
			items[i].Content = ContentUnavailable
			continue
		}
		items[i].Content = p.fetchFull(ctx, items[i].SourceLink, selectors)
	}
}

// fetchFull opens one background tab, waits for load plus a settle
// delay, probes the content selectors, and closes the tab. The tab is
// closed exactly once on every path: success, script error, or
// timeout.
func (p *Pipeline) fetchFull(ctx context.Context, url string, selectors []string) string {
	if err := p.tabSem.Acquire(ctx, 1); err != nil {
		// The caller gave up while waiting for the tab slot; that is
		// a cancellation, not a load timeout.
		return ContentCancelled
	}
	defer p.tabSem.Release(1)

	tab, err := p.Tabs.OpenBackground(ctx, url)
	if err != nil {
		return fmt.Sprintf("Content extraction failed: %v", err)
	}

	var once sync.Once
	closeTab := func() { once.Do(tab.Close) }
	defer closeTab()

	observability.SetStatus(observability.RoleExtracting, url)
	defer observability.ClearStatus()

	p.Logger.LogTab(-1, "ephemeral_open", url)

	tctx, cancel := context.WithTimeout(ctx, p.LoadTimeout)
	defer cancel()

	if err := tab.WaitLoaded(tctx); err != nil {
		closeTab()
		if errors.Is(tctx.Err(), context.DeadlineExceeded) {
			p.Logger.LogTab(-1, "ephemeral_timeout", url)
			return ContentTimeout
		}
		if ctx.Err() != nil {
			return ContentCancelled
		}
		// The tab died under us before the deadline.
		return fmt.Sprintf("Content extraction failed: %v", err)
	}

	select {
	case <-tctx.Done():
		closeTab()
		if errors.Is(tctx.Err(), context.DeadlineExceeded) {
			p.Logger.LogTab(-1, "ephemeral_timeout", url)
			return ContentTimeout
		}
		return ContentCancelled
	case <-time.After(p.SettleDelay):
	}

	content, err := tab.ExtractMain(tctx, selectors)
	closeTab()
	p.Logger.LogTab(-1, "ephemeral_close", url)

	if err != nil {
		return fmt.Sprintf("Content extraction failed: %v", err)
	}
	if content == "" {
		return ContentUnavailable
	}
	return content
}

func failed(platform, msg string) *Result {
	return &Result{
		Success:  false,
		Items:    []Item{},
		Platform: platform,
		Error:    msg,
	}
}
