package helpers

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var textPolicy = bluemonday.StripTagsPolicy()

// SanitiseText strips all HTML tags from text and trims surrounding
// whitespace. The policy escapes entities for HTML output; they are unescaped
// again as the result is served as JSON, not HTML.
func SanitiseText(s string) string {
	return strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(s)))
}
