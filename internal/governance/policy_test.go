package governance

import (
	"strings"
	"testing"
)

func TestEvaluate_SchemeAllowList(t *testing.T) {
	p := NewNavigationPolicy()

	allowed := []string{"https://example.com", "http://example.com/path?q=1", "HTTPS://UPPER.example"}
	for _, u := range allowed {
		if res := p.Evaluate(u); res.Effect != EffectAllow {
			t.Errorf("%s: expected allow, got %s (%s)", u, res.Effect, res.Reason)
		}
	}

	denied := []string{"javascript:alert(1)", "file:///etc/passwd", "chrome://settings", "data:text/html,x", "ftp://host"}
	for _, u := range denied {
		res := p.Evaluate(u)
		if res.Effect != EffectDeny {
			t.Errorf("%s: expected deny", u)
		}
		if !strings.Contains(res.Reason, "not allowed") {
			t.Errorf("%s: unexpected reason %q", u, res.Reason)
		}
	}
}

func TestEvaluate_DenyPattern(t *testing.T) {
	p := NewNavigationPolicy()
	if err := p.DenyPattern(`(?i)localhost|127\.0\.0\.1`); err != nil {
		t.Fatalf("DenyPattern failed: %v", err)
	}

	if res := p.Evaluate("http://localhost:8080/admin"); res.Effect != EffectDeny {
		t.Error("Expected localhost to be denied")
	}
	if res := p.Evaluate("https://example.com"); res.Effect != EffectAllow {
		t.Errorf("Pattern must not catch unrelated hosts: %s", res.Reason)
	}
}

func TestEvaluate_BadPattern(t *testing.T) {
	p := NewNavigationPolicy()
	if err := p.DenyPattern(`([`); err == nil {
		t.Error("Expected an error for an invalid pattern")
	}
}
