package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Site selectors live in engines.yaml, not in code: third-party markup
// changes, and swapping a selector must not require a rebuild.

// EngineConfig describes one search destination.
type EngineConfig struct {
	Name               string      `yaml:"name"`
	URLTemplate        string      `yaml:"url_template"` // %s is the escaped query
	SupportsExtraction bool        `yaml:"supports_extraction"`
	Selectors          SelectorSet `yaml:"selectors"`
}

// SelectorSet locates result items on a search page and the main
// content container on a detail page.
type SelectorSet struct {
	Item     string   `yaml:"item"`
	Title    string   `yaml:"title"`
	Link     string   `yaml:"link"`
	Snippet  string   `yaml:"snippet"`
	Metadata string   `yaml:"metadata"`
	Content  []string `yaml:"content"` // ordered probe for detail pages
}

// PlatformConfig describes the DOM targets of a site the action
// planner knows how to drive.
type PlatformConfig struct {
	Name      string          `yaml:"name"`
	Hosts     []string        `yaml:"hosts"`
	Selectors ActionSelectors `yaml:"selectors"`
}

type ActionSelectors struct {
	SearchInput  string `yaml:"search_input"`
	SearchButton string `yaml:"search_button"`
	BulkActions  string `yaml:"bulk_actions"`
	SelectAll    string `yaml:"select_all"`
}

type Sites struct {
	Engines   map[string]EngineConfig `yaml:"engines"`
	Platforms []PlatformConfig        `yaml:"platforms"`
	// Fallback selector used when no platform matches the tab URL.
	GenericSearchInput string `yaml:"generic_search_input"`
}

// LoadSites reads engines.yaml; a missing file yields the built-in
// tables so the binary runs without any site configuration.
func LoadSites(path string) (*Sites, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSites(), nil
		}
		return nil, fmt.Errorf("failed to read sites config: %w", err)
	}

	var s Sites
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse sites config: %w", err)
	}
	if s.Engines == nil {
		s.Engines = DefaultSites().Engines
	}
	if s.GenericSearchInput == "" {
		s.GenericSearchInput = DefaultSites().GenericSearchInput
	}
	return &s, nil
}

func DefaultSites() *Sites {
	return &Sites{
		GenericSearchInput: `input[type="search"], input[name="q"], input[type="text"]`,
		Engines: map[string]EngineConfig{
			"google": {
				Name:        "google",
				URLTemplate: "https://www.google.com/search?q=%s",
			},
			"bilibili": {
				Name:               "bilibili",
				URLTemplate:        "https://search.bilibili.com/all?keyword=%s",
				SupportsExtraction: true,
				Selectors: SelectorSet{
					Item:     ".bili-video-card",
					Title:    ".bili-video-card__info--tit",
					Link:     "a",
					Snippet:  ".bili-video-card__info--desc",
					Metadata: ".bili-video-card__info--owner",
					Content:  []string{".video-desc", ".basic-desc-info", "article", "main"},
				},
			},
			"zhihu": {
				Name:               "zhihu",
				URLTemplate:        "https://www.zhihu.com/search?type=content&q=%s",
				SupportsExtraction: true,
				Selectors: SelectorSet{
					Item:    ".SearchResult-Card",
					Title:   ".ContentItem-title",
					Link:    ".ContentItem-title a",
					Snippet: ".RichContent .RichText",
					Content: []string{".RichContent-inner", ".Post-RichTextContainer", "article", "main"},
				},
			},
		},
		Platforms: []PlatformConfig{
			{
				Name:  "shopify",
				Hosts: []string{"admin.shopify.com", "myshopify.com"},
				Selectors: ActionSelectors{
					SearchInput:  `input[placeholder*="Search"]`,
					SearchButton: `button[type="submit"]`,
					BulkActions:  `button[aria-label="Bulk actions"]`,
					SelectAll:    `input[type="checkbox"][aria-label*="Select all"]`,
				},
			},
			{
				Name:  "bilibili",
				Hosts: []string{"bilibili.com"},
				Selectors: ActionSelectors{
					SearchInput:  `.nav-search-input, input.search-input-el`,
					SearchButton: `.nav-search-btn`,
				},
			},
		},
	}
}

// PlatformFor matches a tab URL host against the configured platforms.
// It returns nil when nothing matches; callers fall back to
// GenericSearchInput.
func (s *Sites) PlatformFor(pageURL string) *PlatformConfig {
	for i := range s.Platforms {
		for _, h := range s.Platforms[i].Hosts {
			if h != "" && containsHost(pageURL, h) {
				return &s.Platforms[i]
			}
		}
	}
	return nil
}

func containsHost(pageURL, host string) bool {
	// Cheap substring match on purpose: tab URLs arrive already
	// normalized from the browser, and selector tables are advisory.
	return strings.Contains(pageURL, host)
}
