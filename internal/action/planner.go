package action

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rahul/saarthi/pkg/config"
)

// Confidence is static per step kind. It reflects how reliable a step
// of that shape tends to be, not anything inspected on the page.
const (
	confidenceFill    = 0.8
	confidenceClick   = 0.7
	confidenceSubmenu = 0.6
)

var targetRe = regexp.MustCompile(`(?i)^(?:search for|search|find|look for|filter by|filter)\s+(.+)$`)

// Planner builds action plans from command text and the platform
// detected from the tab's URL. Selector tables come from the site
// config, with a generic search-input fallback for unknown sites.
type Planner struct {
	Sites *config.Sites
	Store *Store
}

func NewPlanner(sites *config.Sites, store *Store) *Planner {
	return &Planner{Sites: sites, Store: store}
}

// Plan derives steps from the text, stores them keyed by tab, and
// returns the stored plan. A text that yields no step returns nil and
// leaves any previous plan in place. The second result reports whether
// an unconsumed plan was overwritten.
func (p *Planner) Plan(text string, tabID int, pageURL string) (*Plan, bool) {
	platform := p.Sites.PlatformFor(pageURL)

	var steps []Step

	if target := extractTarget(text); target != "" {
		selector := p.Sites.GenericSearchInput
		if platform != nil && platform.Selectors.SearchInput != "" {
			selector = platform.Selectors.SearchInput
		}
		steps = append(steps, Step{
			Kind:        StepFill,
			Selector:    selector,
			Value:       target,
			Description: fmt.Sprintf("Search this website for %q", target),
			Confidence:  confidenceFill,
		})
		if platform != nil && platform.Selectors.SearchButton != "" {
			steps = append(steps, Step{
				Kind:        StepClick,
				Selector:    platform.Selectors.SearchButton,
				Description: "Click the search button",
				Confidence:  confidenceClick,
			})
		}
	}

	lower := strings.ToLower(text)

	if strings.Contains(lower, "select all") && platform != nil && platform.Selectors.SelectAll != "" {
		steps = append(steps, Step{
			Kind:        StepClick,
			Selector:    platform.Selectors.SelectAll,
			Description: "Select all items",
			Confidence:  confidenceClick,
		})
	}

	if strings.Contains(lower, "bulk action") && platform != nil && platform.Selectors.BulkActions != "" {
		steps = append(steps, Step{
			Kind:        StepClick,
			Selector:    platform.Selectors.BulkActions,
			Description: "Open the bulk actions menu",
			Confidence:  confidenceClick,
		})
		steps = append(steps, Step{
			Kind:        StepSubmenu,
			Selector:    `[role="menuitem"]`,
			Description: "Choose the bulk action",
			Confidence:  confidenceSubmenu,
		})
	}

	if len(steps) == 0 {
		return nil, false
	}

	plan := &Plan{Steps: steps, OwnerTab: tabID, CreatedAt: time.Now()}
	overwrote := p.Store.Put(plan)
	return plan, overwrote
}

// extractTarget pulls the value a search step should type, stripping
// the leading verb and any quoting.
func extractTarget(text string) string {
	m := targetRe.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return ""
	}
	target := strings.TrimSpace(m[1])
	target = strings.Trim(target, `"'`)
	return target
}

// FormatProposal renders the plan as the numbered confirmation prompt
// shown to the user.
func FormatProposal(plan *Plan) string {
	var b strings.Builder
	b.WriteString("Here's what I can do:\n")
	for i, step := range plan.Steps {
		fmt.Fprintf(&b, "%d. %s (%.0f%% confidence)\n", i+1, step.Description, step.Confidence*100)
	}
	b.WriteString("\nSay \"do it\" to execute.")
	return b.String()
}
