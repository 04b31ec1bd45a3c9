package browser

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"

	"github.com/rahul/saarthi/internal/extract"
)

// ephemeralTab is a background tab opened solely to pull the main
// content of one detail page. It is never registered in the session's
// tab map: its whole lifecycle belongs to the extraction pipeline.
type ephemeralTab struct {
	ctx    context.Context
	cancel context.CancelFunc
	id     target.ID
}

// OpenBackground opens an unfocused tab at the URL and hands it to the
// caller, who owns closing it.
func (s *Session) OpenBackground(ctx context.Context, pageURL string) (extract.EphemeralTab, error) {
	if err := s.initBrowser(); err != nil {
		return nil, fmt.Errorf("failed to initialize browser: %w", err)
	}

	var id target.ID
	err := chromedp.Run(s.browserCtx, chromedp.ActionFunc(func(cctx context.Context) error {
		var err error
		id, err = target.CreateTarget(pageURL).WithBackground(true).Do(cctx)
		return err
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to open background tab: %w", err)
	}

	tabCtx, tabCancel := chromedp.NewContext(s.browserCtx, chromedp.WithTargetID(id))
	return &ephemeralTab{ctx: tabCtx, cancel: tabCancel, id: id}, nil
}

// WaitLoaded blocks until the tab fires its load event or ctx runs
// out. The load listener is one-shot and removed on every return path.
func (t *ephemeralTab) WaitLoaded(ctx context.Context) error {
	listenCtx, removeListener := context.WithCancel(t.ctx)
	defer removeListener()

	loaded := make(chan struct{}, 1)
	chromedp.ListenTarget(listenCtx, func(ev interface{}) {
		if _, ok := ev.(*page.EventLoadEventFired); ok {
			select {
			case loaded <- struct{}{}:
			default:
			}
		}
	})

	// The load event may already have fired between CreateTarget and
	// the listener attaching; check the document state once.
	go func() {
		var state string
		if err := chromedp.Run(listenCtx, chromedp.Evaluate("document.readyState", &state)); err == nil && state == "complete" {
			select {
			case loaded <- struct{}{}:
			default:
			}
		}
	}()

	select {
	case <-loaded:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-t.ctx.Done():
		return t.ctx.Err()
	}
}

// ExtractMain probes the content selectors in order and returns the
// text of the longest match.
func (t *ephemeralTab) ExtractMain(ctx context.Context, selectors []string) (string, error) {
	runCtx, cancel := context.WithCancel(t.ctx)
	defer cancel()
	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-runCtx.Done():
		}
	}()

	var html string
	if err := chromedp.Run(runCtx, outerHTML(&html)); err != nil {
		return "", fmt.Errorf("failed to read detail page: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse detail page: %w", err)
	}

	longest := ""
	for _, sel := range selectors {
		text := strings.TrimSpace(doc.Find(sel).First().Text())
		if len(text) > len(longest) {
			longest = text
		}
	}
	if len(longest) > 50000 {
		longest = longest[:50000] + "\n... (content truncated) ..."
	}
	return longest, nil
}

// Close tears the tab down. Safe against double cancellation at the
// chromedp level, but the pipeline guarantees a single call anyway.
func (t *ephemeralTab) Close() {
	t.cancel()
}
