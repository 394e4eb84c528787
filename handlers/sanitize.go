package handlers

import (
	"html"
	"regexp"
	"strings"
)

var scriptRe = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)

// SanitizeText HTML-escapes user input and strips script blocks so free
// text is inert by the time it reaches the store.
func SanitizeText(text string) string {
	text = html.EscapeString(text)
	text = scriptRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}
