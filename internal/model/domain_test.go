package model_test

import (
	"testing"

	"gotest.tools/v3/assert"

	"github.com/nikbrunner/linksaver/internal/model"
)

func link(id, url string) model.Node {
	return model.Node{ID: id, Title: id, URL: url}
}

func TestGroupByDomain(t *testing.T) {
	links := []model.Node{
		link("1", "https://go.dev/doc"),
		link("2", "https://github.com/a"),
		link("3", "not a url"),
		link("4", "https://github.com/b"),
		link("5", "https://go.dev/blog"),
		link("6", "https://news.ycombinator.com"),
		link("7", "https://github.com/c"),
	}

	groups := model.GroupByDomain(links)

	domains := make([]string, len(groups))
	total := 0
	for i, g := range groups {
		domains[i] = g.Domain
		total += g.Count
		assert.Equal(t, g.Count, len(g.Links))
		if i > 0 {
			assert.Assert(t, groups[i-1].Count >= g.Count, "groups must be non-increasing by count")
		}
	}

	assert.Equal(t, total, len(links))
	// github.com (3), go.dev (2), then ties in first-seen order.
	assert.DeepEqual(t, domains, []string{"github.com", "go.dev", model.UnknownDomain, "news.ycombinator.com"})
	assert.DeepEqual(t, ids(groups[0].Links), []string{"2", "4", "7"})
}

func TestGroupByDomain_FoldsHostCase(t *testing.T) {
	groups := model.GroupByDomain([]model.Node{
		link("1", "https://GitHub.com/x"),
		link("2", "https://github.com/y"),
	})

	assert.Equal(t, len(groups), 1)
	assert.Equal(t, groups[0].Domain, "github.com")
	assert.Equal(t, groups[0].Count, 2)
}

func TestGroupByDomain_Empty(t *testing.T) {
	assert.Equal(t, len(model.GroupByDomain(nil)), 0)
}

func TestHostname(t *testing.T) {
	tests := []struct {
		raw  string
		host string
		ok   bool
	}{
		{raw: "https://Docs.Go.dev:443/x?y=1", host: "docs.go.dev", ok: true},
		{raw: "http://localhost:3000", host: "localhost", ok: true},
		{raw: "javascript:void(0)", ok: false},
		{raw: "/relative/path", ok: false},
		{raw: "%zz", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			host, ok := model.Hostname(tt.raw)
			assert.Equal(t, ok, tt.ok)
			assert.Equal(t, host, tt.host)
		})
	}
}

func TestFilterGroups(t *testing.T) {
	groups := model.GroupByDomain([]model.Node{
		link("1", "https://api.github.com"),
		link("2", "https://gist.github.com"),
		link("3", "https://go.dev"),
	})

	got, err := model.FilterGroups(groups, "*.github.com")
	assert.NilError(t, err)
	assert.Equal(t, len(got), 2)

	all, err := model.FilterGroups(groups, "")
	assert.NilError(t, err)
	assert.Equal(t, len(all), 3)

	_, err = model.FilterGroups(groups, "[")
	assert.Assert(t, err != nil)
}

func TestParseURLInfo(t *testing.T) {
	info, ok := model.ParseURLInfo("https://blog.example.co.uk/posts?id=7")
	assert.Assert(t, ok)
	assert.Equal(t, info.Domain, "blog.example.co.uk")
	assert.Equal(t, info.RootDomain, "example.co.uk")
	assert.Equal(t, info.Subdomain, "blog")
	assert.Equal(t, info.Protocol, "https:")
	assert.Equal(t, info.Pathname, "/posts")
	assert.Equal(t, info.SearchParams["id"], "7")

	_, ok = model.ParseURLInfo("nope")
	assert.Assert(t, !ok)
}

func TestFaviconURL(t *testing.T) {
	assert.Equal(t, model.FaviconURL("https://go.dev/doc"), "https://www.google.com/s2/favicons?domain=go.dev&sz=64")
	assert.Equal(t, model.FaviconURL("garbage"), "")
}
