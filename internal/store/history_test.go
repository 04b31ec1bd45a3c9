package store

import (
	"path/filepath"
	"testing"

	"github.com/tmc/langchaingo/llms"
)

func newTestStore(t *testing.T) *HistoryStore {
	t.Helper()
	h, err := NewHistoryStore(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("NewHistoryStore failed: %v", err)
	}
	t.Cleanup(func() { h.DB.Close() })
	return h
}

func textOf(t *testing.T, msg llms.MessageContent) string {
	t.Helper()
	if len(msg.Parts) != 1 {
		t.Fatalf("Expected one content part, got %d", len(msg.Parts))
	}
	part, ok := msg.Parts[0].(llms.TextContent)
	if !ok {
		t.Fatalf("Expected a text part, got %T", msg.Parts[0])
	}
	return part.Text
}

func TestHistoryStore_ChronologicalOrder(t *testing.T) {
	h := newTestStore(t)

	turns := []struct{ role, content string }{
		{"human", "open example.com"},
		{"ai", "Done."},
		{"human", "what does the page say"},
		{"ai", "It is a placeholder domain."},
	}
	for _, turn := range turns {
		if err := h.AddMessage("tg:1", turn.role, turn.content); err != nil {
			t.Fatalf("AddMessage failed: %v", err)
		}
	}

	history, err := h.GetHistory("tg:1", 10)
	if err != nil {
		t.Fatalf("GetHistory failed: %v", err)
	}
	if len(history) != 4 {
		t.Fatalf("Expected 4 messages, got %d", len(history))
	}
	if textOf(t, history[0]) != "open example.com" {
		t.Errorf("History must be chronological, first was %q", textOf(t, history[0]))
	}
	if history[1].Role != llms.ChatMessageTypeAI {
		t.Errorf("Expected AI role, got %s", history[1].Role)
	}
}

func TestHistoryStore_LimitKeepsNewest(t *testing.T) {
	h := newTestStore(t)

	for i := 0; i < 5; i++ {
		if err := h.AddMessage("tg:1", "human", string(rune('a'+i))); err != nil {
			t.Fatal(err)
		}
	}

	history, err := h.GetHistory("tg:1", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(history))
	}
	if textOf(t, history[0]) != "d" || textOf(t, history[1]) != "e" {
		t.Errorf("Limit must keep the newest messages in order, got %q then %q", textOf(t, history[0]), textOf(t, history[1]))
	}
}

func TestHistoryStore_SessionsAreIsolated(t *testing.T) {
	h := newTestStore(t)

	if err := h.AddMessage("tg:1", "human", "telegram message"); err != nil {
		t.Fatal(err)
	}
	if err := h.AddMessage("dc:2", "human", "discord message"); err != nil {
		t.Fatal(err)
	}

	if err := h.ClearHistory("tg:1"); err != nil {
		t.Fatalf("ClearHistory failed: %v", err)
	}

	cleared, err := h.GetHistory("tg:1", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(cleared) != 0 {
		t.Errorf("Expected empty history after clear, got %d", len(cleared))
	}

	other, err := h.GetHistory("dc:2", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(other) != 1 {
		t.Errorf("Clearing one session must not touch another, got %d", len(other))
	}
}
