package extract

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/rahul/saarthi/internal/observability"
	"github.com/rahul/saarthi/pkg/config"
)

type fakeScraper struct {
	res *Result
	err error
}

func (f *fakeScraper) ScrapeItems(ctx context.Context, tabID int, engine config.EngineConfig) (*Result, error) {
	return f.res, f.err
}

type fakeTab struct {
	stall      bool
	waitErr    error
	content    string
	extractErr error
	closeCount int32
}

func (t *fakeTab) WaitLoaded(ctx context.Context) error {
	if t.waitErr != nil {
		return t.waitErr
	}
	if t.stall {
		<-ctx.Done()
		return ctx.Err()
	}
	return nil
}

func (t *fakeTab) ExtractMain(ctx context.Context, selectors []string) (string, error) {
	return t.content, t.extractErr
}

func (t *fakeTab) Close() {
	atomic.AddInt32(&t.closeCount, 1)
}

type fakeOpener struct {
	tabs    map[string]*fakeTab
	openErr error
	opened  []string
}

func (f *fakeOpener) OpenBackground(ctx context.Context, url string) (EphemeralTab, error) {
	f.opened = append(f.opened, url)
	if f.openErr != nil {
		return nil, f.openErr
	}
	return f.tabs[url], nil
}

func newTestPipeline(scraper Scraper, opener TabOpener) *Pipeline {
	return &Pipeline{
		Scraper:     scraper,
		Tabs:        opener,
		Logger:      observability.NewLogger(),
		LoadTimeout: 50 * time.Millisecond,
		SettleDelay: time.Millisecond,
		RateDelay:   0,
		tabSem:      semaphore.NewWeighted(1),
	}
}

func TestExtract_NeverReturnsMalformedResult(t *testing.T) {
	engine := config.DefaultSites().Engines["bilibili"]

	cases := []struct {
		name    string
		scraper *fakeScraper
	}{
		{"scraper error", &fakeScraper{err: errors.New("content script not ready")}},
		{"nil result", &fakeScraper{}},
		{"nil items", &fakeScraper{res: &Result{Success: false}}},
	}

	for _, tc := range cases {
		p := newTestPipeline(tc.scraper, &fakeOpener{})
		res := p.Extract(context.Background(), 1, engine)

		if res == nil {
			t.Fatalf("%s: result must never be nil", tc.name)
		}
		if res.Success {
			t.Errorf("%s: expected success=false", tc.name)
		}
		if res.Items == nil {
			t.Errorf("%s: items must be an empty slice, not nil", tc.name)
		}
		if len(res.Items) != 0 {
			t.Errorf("%s: expected no items", tc.name)
		}
		if res.Error == "" {
			t.Errorf("%s: failure must carry an error message", tc.name)
		}
	}
}

func TestFillFullContent_TabClosedExactlyOnce(t *testing.T) {
	okTab := &fakeTab{content: "full body"}
	errTab := &fakeTab{extractErr: errors.New("selector probe failed")}
	stallTab := &fakeTab{stall: true}

	opener := &fakeOpener{tabs: map[string]*fakeTab{
		"https://a.example/ok":    okTab,
		"https://a.example/err":   errTab,
		"https://a.example/stall": stallTab,
	}}
	p := newTestPipeline(&fakeScraper{}, opener)

	items := []Item{
		{Title: "ok", Content: ContentPending, SourceLink: "https://a.example/ok"},
		{Title: "err", Content: ContentPending, SourceLink: "https://a.example/err"},
		{Title: "stall", Content: ContentPending, SourceLink: "https://a.example/stall"},
	}
	p.FillFullContent(context.Background(), items, []string{"article"}, 0)

	for name, tab := range map[string]*fakeTab{"success": okTab, "script error": errTab, "timeout": stallTab} {
		if n := atomic.LoadInt32(&tab.closeCount); n != 1 {
			t.Errorf("%s path: tab closed %d times, want exactly 1", name, n)
		}
	}

	if items[0].Content != "full body" {
		t.Errorf("Expected full content, got %q", items[0].Content)
	}
	if items[1].Content == ContentPending {
		t.Error("Script error must replace the pending sentinel")
	}
	if items[2].Content != ContentTimeout {
		t.Errorf("Expected timeout sentinel, got %q", items[2].Content)
	}
}

func TestFillFullContent_StalledItemKeepsOthersIntact(t *testing.T) {
	// Three items, two of which need a full-content fetch; one detail
	// page never loads. The flow still ends with three items.
	opener := &fakeOpener{tabs: map[string]*fakeTab{
		"https://a.example/1": {content: "first body"},
		"https://a.example/2": {stall: true},
	}}
	p := newTestPipeline(&fakeScraper{}, opener)

	items := []Item{
		{Title: "inline", Content: "already has a snippet"},
		{Title: "one", Content: ContentPending, SourceLink: "https://a.example/1"},
		{Title: "two", Content: ContentPending, SourceLink: "https://a.example/2"},
	}
	p.FillFullContent(context.Background(), items, []string{"article"}, 0)

	if len(items) != 3 {
		t.Fatalf("Expected 3 items, got %d", len(items))
	}
	if items[0].Content != "already has a snippet" {
		t.Error("Inline content must be untouched")
	}
	if items[1].Content != "first body" {
		t.Errorf("Expected fetched body, got %q", items[1].Content)
	}
	if items[2].Content != ContentTimeout {
		t.Errorf("Expected timeout sentinel, got %q", items[2].Content)
	}
	if len(opener.opened) != 2 {
		t.Errorf("Expected 2 ephemeral tabs, got %d", len(opener.opened))
	}
}

func TestFillFullContent_RespectsMaxItems(t *testing.T) {
	opener := &fakeOpener{tabs: map[string]*fakeTab{
		"https://a.example/1": {content: "body"},
	}}
	p := newTestPipeline(&fakeScraper{}, opener)

	items := []Item{
		{Content: ContentPending, SourceLink: "https://a.example/1"},
		{Content: ContentPending, SourceLink: "https://a.example/2"},
	}
	p.FillFullContent(context.Background(), items, []string{"article"}, 1)

	if len(opener.opened) != 1 {
		t.Errorf("Expected 1 fetch with maxItems=1, got %d", len(opener.opened))
	}
	if items[1].Content != ContentPending {
		t.Error("Items beyond the cap keep their sentinel")
	}
}

func TestFillFullContent_CancellationIsNotATimeout(t *testing.T) {
	opener := &fakeOpener{tabs: map[string]*fakeTab{
		"https://a.example/x": {stall: true},
	}}
	p := newTestPipeline(&fakeScraper{}, opener)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	items := []Item{{Content: ContentPending, SourceLink: "https://a.example/x"}}
	p.FillFullContent(ctx, items, nil, 0)

	if items[0].Content != ContentCancelled {
		t.Errorf("Expected cancellation sentinel, got %q", items[0].Content)
	}
	if len(opener.opened) != 0 {
		t.Error("A cancelled caller must not open tabs")
	}
}

func TestFillFullContent_TabDeathIsNotATimeout(t *testing.T) {
	deadTab := &fakeTab{waitErr: errors.New("target crashed")}
	opener := &fakeOpener{tabs: map[string]*fakeTab{
		"https://a.example/dead": deadTab,
	}}
	p := newTestPipeline(&fakeScraper{}, opener)

	items := []Item{{Content: ContentPending, SourceLink: "https://a.example/dead"}}
	p.FillFullContent(context.Background(), items, nil, 0)

	if items[0].Content == ContentTimeout {
		t.Error("A dead tab before the deadline must not report a timeout")
	}
	if !strings.Contains(items[0].Content, "target crashed") {
		t.Errorf("Expected the tab failure to surface, got %q", items[0].Content)
	}
	if n := atomic.LoadInt32(&deadTab.closeCount); n != 1 {
		t.Errorf("Tab closed %d times, want exactly 1", n)
	}
}

func TestFillFullContent_OpenFailure(t *testing.T) {
	opener := &fakeOpener{openErr: errors.New("browser gone")}
	p := newTestPipeline(&fakeScraper{}, opener)

	items := []Item{{Content: ContentPending, SourceLink: "https://a.example/x"}}
	p.FillFullContent(context.Background(), items, nil, 0)

	if items[0].Content == ContentPending {
		t.Error("Open failure must still resolve the item's content")
	}
}
