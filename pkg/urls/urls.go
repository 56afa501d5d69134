// Package urls provides utility functions for working with URLs.
package urls

import (
	"net/url"
	"regexp"
	"strings"
)

const (
	schemeHTTP  = "http"
	schemeHTTPS = "https"
)

var (
	reVideoURL = regexp.MustCompile(
		`^(https?://)?(www\.)?(youtube\.com/watch\?v=|youtu\.be/|youtube\.com/shorts/|music\.youtube\.com/watch\?v=)[\w-]+`)

	reVideoID = []*regexp.Regexp{
		regexp.MustCompile(`youtube\.com/watch\?v=([\w-]+)`),
		regexp.MustCompile(`youtu\.be/([\w-]+)`),
		regexp.MustCompile(`youtube\.com/shorts/([\w-]+)`),
	}
)

// IsURLValid checks if the given URL is valid.
func IsURLValid(raw string) bool {
	u, err := url.Parse(raw)

	return err == nil && u.Scheme != "" && u.Host != "" && (u.Scheme == schemeHTTP || u.Scheme == schemeHTTPS)
}

// IsVideoURL reports whether the text looks like a watchable video link on a
// supported host (watch pages, shorts, youtu.be and music variants).
func IsVideoURL(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}

	return reVideoURL.MatchString(text)
}

// ExtractVideoID extracts the video ID from a supported video URL.
// Returns an empty string when no ID can be found.
func ExtractVideoID(raw string) string {
	for _, re := range reVideoID {
		if m := re.FindStringSubmatch(raw); m != nil {
			return m[1]
		}
	}

	return ""
}

// Normalize trims spaces, parses and returns the URL in string format.
func Normalize(raw string) string {
	raw = strings.TrimSpace(raw)

	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	return u.String()
}
