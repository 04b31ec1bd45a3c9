package pagectx

import (
	"context"
	"errors"
	"testing"
)

type stubProvider struct {
	info PageInfo
	err  error
}

func (s *stubProvider) PageInfo(ctx context.Context, tabID int) (PageInfo, error) {
	return s.info, s.err
}

func TestStore_SingleSlot(t *testing.T) {
	s := New()

	s.SetContext(PageInfo{Title: "first", Content: "a"}, 1)
	s.SetContext(PageInfo{Title: "second", Content: "b"}, 2)

	if got := s.GetContext(1); got != nil {
		t.Errorf("Tab 1 lost ownership, expected nil, got %+v", got)
	}
	got := s.GetContext(2)
	if got == nil || got.Title != "second" {
		t.Fatalf("Tab 2 should own the slot, got %+v", got)
	}
}

func TestStore_GetContextReturnsCopy(t *testing.T) {
	s := New()
	s.SetContext(PageInfo{Title: "original"}, 1)

	got := s.GetContext(1)
	got.Title = "mutated"

	if again := s.GetContext(1); again.Title != "original" {
		t.Error("GetContext must return a copy, not the stored value")
	}
}

func TestStore_ReadinessSurvivesContextChanges(t *testing.T) {
	s := New()
	s.MarkReady(1)
	s.MarkReady(2)

	s.SetContext(PageInfo{Title: "x"}, 2)
	s.ClearContext()

	if !s.IsReady(1) || !s.IsReady(2) {
		t.Error("Readiness is per tab and untouched by context replacement")
	}

	s.DropReady(1)
	if s.IsReady(1) {
		t.Error("Dropped tab must not be ready")
	}
	if !s.IsReady(2) {
		t.Error("Dropping one tab must not affect another")
	}
}

func TestStore_ClearContextFor(t *testing.T) {
	s := New()
	s.SetContext(PageInfo{Title: "x"}, 3)

	s.ClearContextFor(4)
	if s.GetContext(3) == nil {
		t.Error("Clearing for a non-owning tab must keep the slot")
	}

	s.ClearContextFor(3)
	if s.GetContext(3) != nil {
		t.Error("Clearing for the owner must empty the slot")
	}
}

func TestStore_AutoSetContext(t *testing.T) {
	s := New()

	if err := s.AutoSetContext(context.Background(), 1, &stubProvider{info: PageInfo{Title: "t", Content: "body"}}); err != nil {
		t.Fatalf("AutoSetContext failed: %v", err)
	}
	got := s.GetContext(1)
	if got == nil || !got.UseAsContext {
		t.Fatalf("Auto-set context must be marked usable, got %+v", got)
	}

	// An empty pull leaves the slot untouched.
	if err := s.AutoSetContext(context.Background(), 2, &stubProvider{info: PageInfo{Title: "empty"}}); err != nil {
		t.Fatalf("Empty pull is not an error: %v", err)
	}
	if s.GetContext(1) == nil {
		t.Error("Empty extraction must not displace the stored context")
	}

	if err := s.AutoSetContext(context.Background(), 3, &stubProvider{err: errors.New("tab gone")}); err == nil {
		t.Error("Provider failure must surface as an error")
	}
}
