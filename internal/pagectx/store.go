package pagectx

import (
	"context"
	"sync"
)

// PageInfo is what a tab reports about its current page.
type PageInfo struct {
	Title        string
	URL          string
	Content      string
	UseAsContext bool
}

// PageContext is a stored PageInfo bound to the tab it came from.
// It is only trusted when OwnerTab matches the tab the caller is
// operating on.
type PageContext struct {
	OwnerTab     int
	Title        string
	URL          string
	Content      string
	UseAsContext bool
}

// InfoProvider pulls page info from a live tab.
type InfoProvider interface {
	PageInfo(ctx context.Context, tabID int) (PageInfo, error)
}

// Store tracks which tabs have a live in-page script and holds the
// most recently extracted page context. The context slot is
// deliberately single-valued: setting it for tab B discards tab A's.
// Readiness stays per-tab and is untouched by context replacement.
type Store struct {
	mu      sync.RWMutex
	ready   map[int]bool
	current *PageContext
}

func New() *Store {
	return &Store{ready: make(map[int]bool)}
}

// MarkReady records that the tab's in-page script announced itself.
func (s *Store) MarkReady(tabID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready[tabID] = true
}

// DropReady forgets a tab, typically after it closed.
func (s *Store) DropReady(tabID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.ready, tabID)
}

func (s *Store) IsReady(tabID int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready[tabID]
}

// SetContext stores the page info as the current context, replacing
// whatever tab owned the slot before.
func (s *Store) SetContext(info PageInfo, tabID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = &PageContext{
		OwnerTab:     tabID,
		Title:        info.Title,
		URL:          info.URL,
		Content:      info.Content,
		UseAsContext: info.UseAsContext,
	}
}

// AutoSetContext pulls page info from the tab and stores it when the
// extraction produced actual content. An empty pull leaves the slot
// untouched.
func (s *Store) AutoSetContext(ctx context.Context, tabID int, provider InfoProvider) error {
	info, err := provider.PageInfo(ctx, tabID)
	if err != nil {
		return err
	}
	if info.Content == "" {
		return nil
	}
	info.UseAsContext = true
	s.SetContext(info, tabID)
	return nil
}

// GetContext returns the stored context only when the given tab owns
// it; otherwise nil.
func (s *Store) GetContext(tabID int) *PageContext {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil || s.current.OwnerTab != tabID {
		return nil
	}
	ctx := *s.current
	return &ctx
}

// ClearContext empties the slot.
func (s *Store) ClearContext() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
}

// ClearContextFor empties the slot only when the tab owns it.
func (s *Store) ClearContextFor(tabID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil && s.current.OwnerTab == tabID {
		s.current = nil
	}
}
