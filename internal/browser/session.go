package browser

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
	"github.com/go-shiori/go-readability"
	"github.com/microcosm-cc/bluemonday"

	"github.com/rahul/saarthi/internal/action"
	"github.com/rahul/saarthi/internal/observability"
	"github.com/rahul/saarthi/internal/pagectx"
	"github.com/rahul/saarthi/pkg/config"
)

const stepTimeout = 15 * time.Second

type tab struct {
	ctx    context.Context
	cancel context.CancelFunc
	id     target.ID
}

// Session owns one Chrome instance and a registry of its tabs, keyed
// by small integer ids handed out at open time. The browser is started
// lazily on first use and restarted if it died in between.
type Session struct {
	mu            sync.Mutex
	cfg           config.BrowserConfig
	logger        *observability.Logger
	allocCtx      context.Context
	browserCtx    context.Context
	allocCancel   context.CancelFunc
	browserCancel context.CancelFunc
	tabs          map[int]*tab
	nextTabID     int
}

func NewSession(cfg config.BrowserConfig, logger *observability.Logger) *Session {
	return &Session{
		cfg:    cfg,
		logger: logger,
		tabs:   make(map[int]*tab),
	}
}

func (s *Session) initBrowser() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.browserCtx != nil {
		select {
		case <-s.browserCtx.Done():
			s.cleanupLocked()
		default:
			return nil
		}
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.Flag("headless", s.cfg.Headless),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("no-default-browser-check", true),
	)

	s.allocCtx, s.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
	s.browserCtx, s.browserCancel = chromedp.NewContext(s.allocCtx)

	return chromedp.Run(s.browserCtx)
}

func (s *Session) cleanupLocked() {
	for id, t := range s.tabs {
		t.cancel()
		observability.TrackTab(-1)
		delete(s.tabs, id)
	}
	if s.browserCancel != nil {
		s.browserCancel()
	}
	if s.allocCancel != nil {
		s.allocCancel()
	}
	s.browserCtx = nil
	s.allocCtx = nil
}

// Close shuts the browser down along with every tab it owns.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cleanupLocked()
}

// OpenTab opens a tab at the URL, optionally in the background (the
// window keeps its current tab focused), and returns its id.
func (s *Session) OpenTab(ctx context.Context, pageURL string, background bool) (int, error) {
	if err := s.initBrowser(); err != nil {
		return 0, fmt.Errorf("failed to initialize browser: %w", err)
	}

	var id target.ID
	err := chromedp.Run(s.browserCtx, chromedp.ActionFunc(func(cctx context.Context) error {
		var err error
		id, err = target.CreateTarget(pageURL).WithBackground(background).Do(cctx)
		return err
	}))
	if err != nil {
		return 0, fmt.Errorf("failed to open tab: %w", err)
	}

	tabCtx, tabCancel := chromedp.NewContext(s.browserCtx, chromedp.WithTargetID(id))

	s.mu.Lock()
	s.nextTabID++
	tabID := s.nextTabID
	s.tabs[tabID] = &tab{ctx: tabCtx, cancel: tabCancel, id: id}
	s.mu.Unlock()

	observability.TrackTab(1)
	s.logger.LogTab(tabID, "open", pageURL)
	return tabID, nil
}

// CloseTab closes the tab and forgets its id.
func (s *Session) CloseTab(tabID int) {
	s.mu.Lock()
	t, ok := s.tabs[tabID]
	if ok {
		delete(s.tabs, tabID)
	}
	s.mu.Unlock()
	if ok {
		t.cancel()
		observability.TrackTab(-1)
		s.logger.LogTab(tabID, "close", "")
	}
}

func (s *Session) tabCtx(tabID int) (context.Context, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tabs[tabID]
	if !ok {
		return nil, fmt.Errorf("no such tab: %d", tabID)
	}
	return t.ctx, nil
}

// Navigate points an existing tab at a URL.
func (s *Session) Navigate(ctx context.Context, tabID int, pageURL string) error {
	tctx, err := s.tabCtx(tabID)
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithTimeout(tctx, stepTimeout)
	defer cancel()

	if err := chromedp.Run(runCtx, chromedp.Navigate(pageURL)); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	s.logger.LogTab(tabID, "navigate", pageURL)
	return nil
}

// RunStep sends one plan step to the tab. Failures are reported in the
// StepResult, never as panics or errors, so a failed step cannot stop
// the plan.
func (s *Session) RunStep(ctx context.Context, tabID int, step action.Step) action.StepResult {
	tctx, err := s.tabCtx(tabID)
	if err != nil {
		return action.StepResult{Success: false, Error: err.Error()}
	}

	runCtx, cancel := context.WithTimeout(tctx, stepTimeout)
	defer cancel()

	switch step.Kind {
	case action.StepFill:
		err = chromedp.Run(runCtx,
			chromedp.WaitVisible(step.Selector, chromedp.ByQuery),
			chromedp.Clear(step.Selector, chromedp.ByQuery),
			chromedp.SendKeys(step.Selector, step.Value, chromedp.ByQuery),
		)
	case action.StepClick, action.StepSubmenu:
		err = chromedp.Run(runCtx,
			chromedp.WaitVisible(step.Selector, chromedp.ByQuery),
			chromedp.Click(step.Selector, chromedp.ByQuery),
		)
	default:
		return action.StepResult{Success: false, Error: fmt.Sprintf("unknown step kind: %s", step.Kind)}
	}

	if err != nil {
		return action.StepResult{Success: false, Error: err.Error()}
	}
	return action.StepResult{Success: true}
}

// PageInfo pulls the tab's title, URL, and readable main content.
func (s *Session) PageInfo(ctx context.Context, tabID int) (pagectx.PageInfo, error) {
	tctx, err := s.tabCtx(tabID)
	if err != nil {
		return pagectx.PageInfo{}, err
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
		return pagectx.PageInfo{}, fmt.Errorf("failed to read page: %w", err)
	}

	content, err := readableText(html, location)
	if err != nil {
		return pagectx.PageInfo{}, err
	}

	return pagectx.PageInfo{Title: title, URL: location, Content: content}, nil
}

func outerHTML(into *string) chromedp.Action {
	return chromedp.ActionFunc(func(cctx context.Context) error {
		node, err := dom.GetDocument().Do(cctx)
		if err != nil {
			return err
		}
		*into, err = dom.GetOuterHTML().WithNodeID(node.NodeID).Do(cctx)
		return err
	})
}

// readableText runs readability over raw HTML and sanitizes the text.
func readableText(html, pageURL string) (string, error) {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse page URL: %w", err)
	}

	article, err := readability.FromReader(strings.NewReader(html), parsed)
	if err != nil {
		return "", fmt.Errorf("failed to parse article: %w", err)
	}

	p := bluemonday.StrictPolicy()
	content := p.Sanitize(article.TextContent)

	// Heavy pages get truncated before they reach the model.
	if len(content) > 50000 {
		content = content[:50000] + "\n... (content truncated) ..."
	}
	return content, nil
}
