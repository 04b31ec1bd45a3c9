package search

import (
	"fmt"
	"net/url"

	"github.com/rahul/saarthi/pkg/config"
)

// BuildURL resolves an engine and query to the search-results address.
func BuildURL(engine config.EngineConfig, query string) string {
	return fmt.Sprintf(engine.URLTemplate, url.QueryEscape(query))
}
