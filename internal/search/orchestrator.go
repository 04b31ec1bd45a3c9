package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rahul/saarthi/internal/bus"
	"github.com/rahul/saarthi/internal/extract"
	"github.com/rahul/saarthi/internal/intent"
	"github.com/rahul/saarthi/internal/observability"
	"github.com/rahul/saarthi/pkg/config"
)

// Tabs is the slice of the browser session the orchestrator needs.
type Tabs interface {
	Navigate(ctx context.Context, tabID int, url string) error
	OpenTab(ctx context.Context, url string, background bool) (int, error)
}

// Summarizer condenses extracted items; treated as a black box.
type Summarizer interface {
	Summarize(ctx context.Context, query string, items []extract.Item) (string, error)
}

// Orchestrator drives a search command end to end. The one response
// callback carries only the initial acknowledgment; every later step
// is an independent broadcast on the bus, because a search has more
// steps than the request/response cycle allows. Callers must not
// assume a 1:1 request/response mapping for searches.
type Orchestrator struct {
	Sites          *config.Sites
	Tabs           Tabs
	Pipeline       *extract.Pipeline
	Bus            *bus.Bus
	Summarizer     Summarizer
	Logger         *observability.Logger
	SettleDelay    time.Duration
	MaxFullContent int
}

// HandleSearch resolves the engine, acknowledges, then navigates,
// extracts, and summarizes, broadcasting progress along the way.
// It never panics or returns an error: failures become broadcasts.
func (o *Orchestrator) HandleSearch(ctx context.Context, it intent.Intent, originTab int, sessionID string, ack func(string)) {
	engine, ok := o.Sites.Engines[string(it.Engine)]
	if !ok {
		ack(fmt.Sprintf("I don't know how to search %s yet.", it.Engine))
		return
	}

	observability.TrackSearch(1)
	observability.SetStatus(observability.RoleSearching, it.Query)
	defer func() {
		observability.TrackSearch(-1)
		observability.ClearStatus()
	}()

	ack(fmt.Sprintf("🔍 Searching %s for %q…", engine.Name, it.Query))

	searchURL := BuildURL(engine, it.Query)

	// Engines we extract from get a background tab so the user's tab
	// stays put; plain engines take over the current tab, or a new
	// one when no tab originated the command.
	var tabID int
	var err error
	switch {
	case engine.SupportsExtraction || originTab < 0:
		tabID, err = o.Tabs.OpenTab(ctx, searchURL, engine.SupportsExtraction)
	default:
		tabID = originTab
		err = o.Tabs.Navigate(ctx, tabID, searchURL)
	}
	if err != nil {
		o.broadcast(sessionID, fmt.Sprintf("❌ Could not open %s: %v", engine.Name, err))
		return
	}
	o.Logger.LogTab(tabID, "search_navigate", searchURL)
	o.broadcast(sessionID, fmt.Sprintf("Opened %s results for %q.", engine.Name, it.Query))

	if !engine.SupportsExtraction {
		return
	}

	select {
	case <-ctx.Done():
		o.broadcast(sessionID, "❌ Search cancelled before extraction.")
		return
	case <-time.After(o.SettleDelay):
	}

	res := o.Pipeline.Extract(ctx, tabID, engine)
	if !res.Success {
		o.broadcast(sessionID, fmt.Sprintf("❌ Could not extract results from %s: %s", engine.Name, res.Error))
		return
	}

	o.broadcast(sessionID, fmt.Sprintf("Found %d results on %s, fetching details…", res.TotalFound, engine.Name))

	o.Pipeline.FillFullContent(ctx, res.Items, engine.Selectors.Content, o.MaxFullContent)

	o.broadcast(sessionID, FormatRanked(it.Query, res))

	if o.Summarizer == nil {
		return
	}
	summary, err := o.Summarizer.Summarize(ctx, it.Query, res.Items)
	if err != nil {
		o.broadcast(sessionID, fmt.Sprintf("⚠️ Could not summarize the results: %v", err))
		return
	}
	o.broadcast(sessionID, "📝 Summary:\n"+summary)
}

func (o *Orchestrator) broadcast(sessionID, text string) {
	o.Logger.LogBroadcast(sessionID, preview(text))
	o.Bus.Publish(sessionID, text)
}

// FormatRanked renders the extraction result as a numbered list.
func FormatRanked(query string, res *extract.Result) string {
	if len(res.Items) == 0 {
		return fmt.Sprintf("No results found for %q.", query)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Top results for %q on %s:\n", query, res.Platform)
	for i, item := range res.Items {
		fmt.Fprintf(&b, "\n%d. %s\n", i+1, item.Title)
		if item.SourceLink != "" {
			fmt.Fprintf(&b, "   %s\n", item.SourceLink)
		}
		if snippet := trimSnippet(item.Content); snippet != "" {
			fmt.Fprintf(&b, "   %s\n", snippet)
		}
	}
	return b.String()
}

// trimSnippet bounds a snippet for the ranked list. Truncation counts
// runes, not bytes: CJK content must never be cut mid-rune, or the
// broadcast carries invalid UTF-8 into the gateways.
func trimSnippet(content string) string {
	if content == extract.ContentPending {
		return ""
	}
	content = strings.TrimSpace(content)
	if r := []rune(content); len(r) > 200 {
		content = string(r[:200]) + "…"
	}
	return content
}

func preview(text string) string {
	if r := []rune(text); len(r) > 80 {
		return string(r[:80])
	}
	return text
}
