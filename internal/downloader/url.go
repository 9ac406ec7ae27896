package downloader

import (
	"net/url"
	"strings"
)

var youtubeHosts = map[string]struct{}{
	"youtube.com":       {},
	"www.youtube.com":   {},
	"m.youtube.com":     {},
	"music.youtube.com": {},
	"youtu.be":          {},
}

// ValidateURL reports whether raw is an http(s) YouTube URL.
func ValidateURL(raw string) bool {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false
	}
	_, ok := youtubeHosts[strings.ToLower(parsed.Hostname())]
	return ok
}

// ExtractVideoID pulls the 11-character video ID out of a YouTube URL.
// It understands watch, short-link, shorts, embed, and live URL shapes.
func ExtractVideoID(raw string) string {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	host := strings.ToLower(parsed.Hostname())
	if _, ok := youtubeHosts[host]; !ok {
		return ""
	}

	if host == "youtu.be" {
		return firstPathSegment(parsed.Path)
	}
	if id := parsed.Query().Get("v"); id != "" {
		return id
	}
	segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if len(segments) >= 2 {
		switch segments[0] {
		case "shorts", "embed", "live", "v":
			return segments[1]
		}
	}
	return ""
}

func firstPathSegment(path string) string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return ""
	}
	if idx := strings.IndexByte(trimmed, '/'); idx >= 0 {
		return trimmed[:idx]
	}
	return trimmed
}
