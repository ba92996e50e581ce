package websocket

import (
	"net/url"
	"path"
	"strings"
)

// OriginValidator decides whether a websocket upgrade may proceed.
type OriginValidator interface {
	IsAllowedOrigin(origin, host string) bool
}

// OriginAllowList accepts same-host origins plus any origin whose host
// matches one of its patterns (path.Match syntax, e.g. "*.example.com").
type OriginAllowList struct {
	patterns []string
}

// NewOriginAllowList creates a validator for the given host patterns. Full
// origins such as "http://localhost:3000" are reduced to their host.
func NewOriginAllowList(patterns ...string) *OriginAllowList {
	list := &OriginAllowList{}
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if u, err := url.Parse(p); err == nil && u.Host != "" {
			p = u.Host
		}
		list.patterns = append(list.patterns, strings.ToLower(p))
	}

	return list
}

// IsAllowedOrigin implements OriginValidator.
func (l *OriginAllowList) IsAllowedOrigin(origin, host string) bool {
	if origin == "" {
		return true
	}

	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}

	originHost := strings.ToLower(u.Host)
	if strings.EqualFold(originHost, host) {
		return true
	}

	for _, pattern := range l.patterns {
		if ok, _ := path.Match(pattern, originHost); ok {
			return true
		}
	}

	return false
}
