package proxy

import (
	"regexp"
	"strings"
)

var (
	tagPattern  = regexp.MustCompile(`<[^>]*>`)
	handlerAttr = regexp.MustCompile(`(?i)on\w+="[^"]*"`)

	unsafeSchemes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)javascript:`),
		regexp.MustCompile(`(?i)vbscript:`),
		regexp.MustCompile(`(?i)data:`),
	}

	// None of the replacements contain a later target, so one pass equals encoding & first and the rest in turn.
	entities = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;", "'", "&#039;", "/", "&#x2F;")
)

const (
	scriptOpen  = "<script"
	scriptClose = "</script>"
)

// SanitizeHTML strips markup and script vectors from s and entity-encodes what is left.
//
// Steps run in a fixed order: script blocks, remaining tags, on*="..." attributes, javascript:/vbscript:/data:
// prefixes, entity encoding, then trimming. Encoding is not idempotent: "&lt;" becomes "&amp;lt;".
func SanitizeHTML(s string) string {
	s = stripScripts(s)
	s = tagPattern.ReplaceAllString(s, "")
	s = handlerAttr.ReplaceAllString(s, "")
	for _, p := range unsafeSchemes {
		s = p.ReplaceAllString(s, "")
	}
	return strings.TrimSpace(entities.Replace(s))
}

// stripScripts removes each "<script" (followed by a word boundary) through the first "</script>" after it,
// ignoring ASCII case. An opening tag with no closing tag is left for the tag pass.
func stripScripts(s string) string {
	lower := asciiLower(s)
	var b strings.Builder
	pos := 0

	for pos < len(s) {
		idx := strings.Index(lower[pos:], scriptOpen)
		if idx < 0 {
			break
		}
		start := pos + idx
		after := start + len(scriptOpen)

		if after < len(s) && isWordByte(s[after]) {
			b.WriteString(s[pos:after])
			pos = after
			continue
		}

		end := strings.Index(lower[after:], scriptClose)
		if end < 0 {
			break
		}

		b.WriteString(s[pos:start])
		pos = after + end + len(scriptClose)
	}

	b.WriteString(s[pos:])
	return b.String()
}

// asciiLower lowercases A-Z only, so byte offsets match the input.
func asciiLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

func isWordByte(c byte) bool {
	return c == '_' || ('0' <= c && c <= '9') || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}
