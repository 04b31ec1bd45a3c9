package agent

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestClip_RuneBoundary(t *testing.T) {
	long := strings.Repeat("知", 10)

	got := clip(long, 4)
	if !utf8.ValidString(got) {
		t.Fatalf("Clipped string is not valid UTF-8: %q", got)
	}
	if got != strings.Repeat("知", 4)+"…" {
		t.Errorf("Expected 4 runes plus ellipsis, got %q", got)
	}

	if got := clip("short", 10); got != "short" {
		t.Errorf("Strings under the limit must pass through, got %q", got)
	}
	if got := clip(strings.Repeat("知", 4), 4); got != strings.Repeat("知", 4) {
		t.Errorf("Strings at the limit must pass through, got %q", got)
	}
}
