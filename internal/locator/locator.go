// Package locator recognizes direct media locators (watch, short-link, embed
// and legacy /v/ URLs) and extracts their fixed-length opaque video id.
package locator

import (
	"regexp"
	"strings"
)

// IDLength is the length of the platform's opaque video id
const IDLength = 11

// URL parameters and separators
const (
	PlaylistParam  = "list="
	ParamSeparator = "&"
)

const idPattern = `([0-9A-Za-z_-]{11})`

// tail allows trailing query, fragment or path after the id but never a 12th id character
const tail = `(?:[?&#/].*)?$`

var idRegexp = regexp.MustCompile(`^` + idPattern + `$`)

// YouTube matches youtube.com, youtube-nocookie.com and youtu.be locators
var YouTube = NewMatcher(
	[]string{"youtube.com", "youtube-nocookie.com"},
	[]string{"youtu.be"},
)

// Matcher detects locators for one platform. Hosts are the full-site hosts
// (with optional www., m. or music. prefix); short hosts are link shorteners
// whose path is the bare id. Scheme and host match case-insensitively; the
// id keeps its case.
type Matcher struct {
	hosts []string
	long  *regexp.Regexp
	short *regexp.Regexp
}

// NewMatcher builds a matcher for the given hosts
func NewMatcher(hosts, shortHosts []string) *Matcher {
	m := &Matcher{hosts: hosts}
	if len(hosts) > 0 {
		m.long = regexp.MustCompile(`^(?i:(?:https?://)?(?:(?:www|m|music)\.)?(?:` + alternation(hosts) + `))/` +
			`(?:watch\?(?:[^#]*&)?v=|embed/|v/|shorts/)` + idPattern + tail)
	}
	if len(shortHosts) > 0 {
		m.short = regexp.MustCompile(`^(?i:(?:https?://)?(?:www\.)?(?:` + alternation(shortHosts) + `))/` + idPattern + tail)
	}
	return m
}

func alternation(hosts []string) string {
	quoted := make([]string, 0, len(hosts))
	for _, h := range hosts {
		quoted = append(quoted, regexp.QuoteMeta(strings.ToLower(h)))
	}
	return strings.Join(quoted, "|")
}

// IsLocator reports whether s is a direct locator for the platform
func (m *Matcher) IsLocator(s string) bool {
	_, ok := m.ExtractID(s)
	return ok
}

// ExtractID returns the opaque id carried by a locator
func (m *Matcher) ExtractID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	for _, re := range []*regexp.Regexp{m.long, m.short} {
		if re == nil {
			continue
		}
		if match := re.FindStringSubmatch(s); match != nil {
			return match[1], true
		}
	}
	return "", false
}

// Canonical returns the watch URL for an id on the platform's primary host
func (m *Matcher) Canonical(id string) string {
	host := "youtube.com"
	if len(m.hosts) > 0 {
		host = m.hosts[0]
	}
	return "https://www." + host + "/watch?v=" + id
}

// IsValidID reports whether id has the shape of an opaque video id
func IsValidID(id string) bool {
	return idRegexp.MatchString(id)
}

// PlaylistID extracts the list= parameter from a playlist URL
func PlaylistID(url string) (string, bool) {
	if !strings.Contains(url, PlaylistParam) {
		return "", false
	}
	parts := strings.SplitN(url, PlaylistParam, 2)
	id := parts[1]
	if idx := strings.Index(id, ParamSeparator); idx >= 0 {
		id = id[:idx]
	}
	if idx := strings.Index(id, "#"); idx >= 0 {
		id = id[:idx]
	}
	return id, id != ""
}
