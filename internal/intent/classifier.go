package intent

import (
	"regexp"
	"strings"
)

// Classification is pure pattern matching tried in a fixed priority
// order: confirmation, action request, navigation, engine search, chat.
// Ties are broken by this order, not by specificity. Confirmation runs
// first so that confirming a pending plan is never misread as a new
// search, but it only fires when a plan actually exists for the tab.

var confirmationPhrases = []string{
	"do it",
	"execute",
	"go ahead",
	"confirm",
	"proceed",
	"run it",
	"yes do it",
	"go for it",
	"make it so",
}

var actionKeywords = []string{
	"search",
	"find",
	"look for",
	"filter",
	"select all",
	"bulk actions",
	"bulk action",
	"open the menu",
}

var navigationRe = regexp.MustCompile(`(?i)^(?:go to|navigate to|open)\s+(.+)$`)

var engineRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^(?:search|find|look up)\s+(?:for\s+)?(.+?)\s+on\s+(google|bilibili|zhihu)\s*$`),
	regexp.MustCompile(`(?i)^(?:search|look up)\s+(google|bilibili|zhihu)\s+for\s+(.+)$`),
}

// Classify maps free text to an Intent. hasPlan reports whether a
// stored action plan exists for the originating tab; without one a
// confirmation phrase falls through to the later classifiers.
func Classify(text string, hasPlan bool) Intent {
	trimmed := strings.TrimSpace(text)

	if hasPlan && IsConfirmation(trimmed) {
		return Intent{Kind: KindConfirmation, Text: text}
	}

	// Engine-pattern texts are carved out of IsActionRequest;
	// otherwise "search cats on bilibili" would stop at the "search"
	// keyword instead of reaching the engine match below.
	if IsActionRequest(trimmed) {
		return Intent{Kind: KindAction, Text: text}
	}

	if url, ok := matchNavigation(trimmed); ok {
		return Intent{Kind: KindNavigation, Text: text, URL: url}
	}

	if query, engine, ok := matchEngine(trimmed); ok {
		return Intent{Kind: KindSearch, Text: text, Query: query, Engine: engine}
	}

	return Intent{Kind: KindChat, Text: text}
}

// IsConfirmation reports whether the text is a plan-confirmation
// phrase. Punctuation and case are ignored.
func IsConfirmation(text string) bool {
	norm := normalize(text)
	for _, p := range confirmationPhrases {
		if norm == p {
			return true
		}
	}
	return false
}

// IsActionRequest reports whether the text asks for DOM actions on the
// current page. Texts matching an engine search pattern are excluded.
func IsActionRequest(text string) bool {
	if _, _, ok := matchEngine(text); ok {
		return false
	}
	norm := normalize(text)
	for _, kw := range actionKeywords {
		if strings.HasPrefix(norm, kw) || strings.Contains(norm, " "+kw) {
			return true
		}
	}
	return false
}

func matchEngine(text string) (query string, engine Engine, ok bool) {
	if m := engineRes[0].FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1]), Engine(strings.ToLower(m[2])), true
	}
	if m := engineRes[1].FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[2]), Engine(strings.ToLower(m[1])), true
	}
	return "", "", false
}

func matchNavigation(text string) (string, bool) {
	m := navigationRe.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	target := strings.TrimSpace(m[1])
	// "open the menu" style phrases are action requests, not URLs;
	// require something that looks like an address.
	if !strings.Contains(target, ".") && !strings.Contains(target, "://") {
		return "", false
	}
	return NormalizeURL(target), true
}

func normalize(text string) string {
	norm := strings.ToLower(strings.TrimSpace(text))
	norm = strings.TrimRight(norm, ".!?,")
	return strings.TrimSpace(norm)
}

// NormalizeURL prefixes a scheme when the user typed a bare host.
func NormalizeURL(target string) string {
	if strings.Contains(target, "://") {
		return target
	}
	return "https://" + target
}
