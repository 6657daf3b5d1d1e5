package model

import (
	"net/url"
	"sort"
	"strings"

	"github.com/gobwas/glob"
	"golang.org/x/net/publicsuffix"
)

// UnknownDomain collects links whose URL has no parsable host.
const UnknownDomain = "Unknown"

// DomainGroup is the set of links sharing one hostname.
type DomainGroup struct {
	Domain string `json:"domain"`
	Count  int    `json:"count"`
	Links  []Node `json:"links"`
}

// Hostname extracts the lower-cased host of an absolute URL.
func Hostname(rawURL string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Hostname() == "" {
		return "", false
	}
	return strings.ToLower(u.Hostname()), true
}

// GroupByDomain groups links by hostname, largest group first. Groups with
// the same count keep the order in which their domain was first seen.
func GroupByDomain(links []Node) []DomainGroup {
	index := make(map[string]int)
	groups := []DomainGroup{}

	for _, link := range links {
		domain, ok := Hostname(link.URL)
		if !ok {
			domain = UnknownDomain
		}

		i, seen := index[domain]
		if !seen {
			i = len(groups)
			index[domain] = i
			groups = append(groups, DomainGroup{Domain: domain, Links: []Node{}})
		}
		groups[i].Count++
		groups[i].Links = append(groups[i].Links, link)
	}

	sort.SliceStable(groups, func(a, b int) bool {
		return groups[a].Count > groups[b].Count
	})

	return groups
}

// FilterGroups keeps the groups whose domain matches a glob pattern such as
// "*.github.com". An empty pattern keeps everything.
func FilterGroups(groups []DomainGroup, pattern string) ([]DomainGroup, error) {
	if pattern == "" {
		return groups, nil
	}

	g, err := glob.Compile(strings.ToLower(pattern), '.')
	if err != nil {
		return nil, err
	}

	result := []DomainGroup{}
	for _, group := range groups {
		if g.Match(strings.ToLower(group.Domain)) {
			result = append(result, group)
		}
	}
	return result, nil
}

// URLInfo is the decomposed form of a bookmark URL.
type URLInfo struct {
	Domain       string            `json:"domain"`
	Subdomain    string            `json:"subdomain,omitempty"`
	RootDomain   string            `json:"rootDomain"`
	Protocol     string            `json:"protocol"`
	Pathname     string            `json:"pathname"`
	SearchParams map[string]string `json:"searchParams"`
}

// ParseURLInfo splits a URL into the parts the dashboard displays. It
// returns false for anything that is not an absolute URL.
func ParseURLInfo(rawURL string) (URLInfo, bool) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Hostname() == "" {
		return URLInfo{}, false
	}

	host := strings.ToLower(u.Hostname())
	root, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		labels := strings.Split(host, ".")
		if len(labels) > 2 {
			labels = labels[len(labels)-2:]
		}
		root = strings.Join(labels, ".")
	}

	sub := ""
	if root != host && strings.HasSuffix(host, "."+root) {
		sub = strings.TrimSuffix(host, "."+root)
	}

	path := u.Path
	if path == "" {
		path = "/"
	}

	params := make(map[string]string)
	for key, values := range u.Query() {
		if len(values) > 0 {
			params[key] = values[len(values)-1]
		}
	}

	return URLInfo{
		Domain:       host,
		Subdomain:    sub,
		RootDomain:   root,
		Protocol:     u.Scheme + ":",
		Pathname:     path,
		SearchParams: params,
	}, true
}

// FaviconURL returns the favicon service URL for a link, or "" when the
// link has no host.
func FaviconURL(rawURL string) string {
	host, ok := Hostname(rawURL)
	if !ok {
		return ""
	}
	return "https://www.google.com/s2/favicons?domain=" + url.QueryEscape(host) + "&sz=64"
}
