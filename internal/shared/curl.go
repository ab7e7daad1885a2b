// Utilities for lifting a browser session out of a "Copy as cURL" command.
package shared

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strings"
)

var (
	curlHeaderPattern = regexp.MustCompile(`-H\s+'([^']+)'|-H\s+"([^"]+)"`)
	curlCookiePattern = regexp.MustCompile(`(?:-b|--cookie)\s+'([^']+)'|(?:-b|--cookie)\s+"([^"]+)"`)
	curlURLPattern    = regexp.MustCompile(`'(https?://[^']+)'|"(https?://[^"]+)"|(https?://\S+)`)
)

// CurlSession is the request target, headers and cookie string recovered from a cURL command.
type CurlSession struct {
	URL     string
	Headers map[string]string
	Cookie  string
}

// ParseCurlFile reads a file containing a cURL command and parses it with [ParseCurlCommand].
func ParseCurlFile(path string) (*CurlSession, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read curl file: %w", err)
	}
	return ParseCurlCommand(string(content))
}

// ParseCurlCommand extracts the URL, headers and cookies from a cURL command.
//
// A -b/--cookie value takes precedence over a Cookie header. The Cookie header never appears in Headers.
func ParseCurlCommand(cmd string) (*CurlSession, error) {
	cmd = strings.ReplaceAll(cmd, "\\\n", " ")
	cmd = strings.ReplaceAll(cmd, "\\", "")

	session := &CurlSession{Headers: make(map[string]string)}
	var headerCookie string

	for _, match := range curlHeaderPattern.FindAllStringSubmatch(cmd, -1) {
		key, value, ok := strings.Cut(firstGroup(match), ":")
		if !ok {
			continue
		}
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		if strings.EqualFold(key, "cookie") {
			if headerCookie == "" {
				headerCookie = value
			}
			continue
		}
		session.Headers[key] = value
	}

	if match := curlCookiePattern.FindStringSubmatch(cmd); match != nil {
		session.Cookie = firstGroup(match)
	}
	if session.Cookie == "" {
		session.Cookie = headerCookie
	}

	if match := curlURLPattern.FindStringSubmatch(cmd); match != nil {
		session.URL = firstGroup(match)
	}

	if len(session.Headers) == 0 && session.Cookie == "" {
		return nil, fmt.Errorf("%w: no headers found in curl command", ErrInvalidInput)
	}
	return session, nil
}

// Cookies splits the cookie string into individual cookies, skipping malformed pairs.
func (c *CurlSession) Cookies() []*http.Cookie {
	if c.Cookie == "" {
		return nil
	}
	var cookies []*http.Cookie
	for _, pair := range strings.Split(c.Cookie, ";") {
		name, value, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || name == "" {
			continue
		}
		cookies = append(cookies, &http.Cookie{Name: name, Value: value})
	}
	return cookies
}

// CookieNamed returns the named cookie, or nil.
func (c *CurlSession) CookieNamed(name string) *http.Cookie {
	for _, ck := range c.Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}

// Origin returns scheme://host of the captured URL, or "" when none was found.
func (c *CurlSession) Origin() string {
	if c.URL == "" {
		return ""
	}
	u, err := url.Parse(c.URL)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

func firstGroup(match []string) string {
	for _, g := range match[1:] {
		if g != "" {
			return g
		}
	}
	return ""
}
