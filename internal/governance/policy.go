package governance

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// Effect defines the result of a policy evaluation.
type Effect string

const (
	EffectAllow Effect = "allow"
	EffectDeny  Effect = "deny"
)

// Result contains the outcome of a policy evaluation.
type Result struct {
	Effect Effect
	Reason string
}

// NavigationPolicy evaluates URLs before the browser is asked to
// visit them. Denials surface as failed navigation results, never as
// crashes.
type NavigationPolicy struct {
	AllowedSchemes map[string]bool
	DeniedRegex    []*regexp.Regexp
}

func NewNavigationPolicy() *NavigationPolicy {
	return &NavigationPolicy{
		AllowedSchemes: map[string]bool{"http": true, "https": true},
	}
}

// DenyPattern blocks URLs matching the regular expression.
func (p *NavigationPolicy) DenyPattern(pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return err
	}
	p.DeniedRegex = append(p.DeniedRegex, re)
	return nil
}

// Evaluate checks a target URL against the policy.
func (p *NavigationPolicy) Evaluate(rawURL string) Result {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return Result{Effect: EffectDeny, Reason: fmt.Sprintf("unparseable URL: %v", err)}
	}

	if !p.AllowedSchemes[strings.ToLower(u.Scheme)] {
		return Result{
			Effect: EffectDeny,
			Reason: fmt.Sprintf("scheme '%s' is not allowed", u.Scheme),
		}
	}

	for _, re := range p.DeniedRegex {
		if re.MatchString(rawURL) {
			return Result{
				Effect: EffectDeny,
				Reason: fmt.Sprintf("URL matches restricted pattern: %s", re.String()),
			}
		}
	}

	return Result{Effect: EffectAllow, Reason: "Approved by default policy"}
}
