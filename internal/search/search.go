package search

import (
	"github.com/sahilm/fuzzy"

	"github.com/nikbrunner/linksaver/internal/model"
)

// Result represents a fuzzy search match.
type Result struct {
	Node           model.Node
	MatchedIndexes []int // positions in Node.Title
	Score          int
}

// linkTitles implements fuzzy.Source over link titles.
type linkTitles []model.Node

func (lt linkTitles) String(i int) string {
	return lt[i].Title
}

func (lt linkTitles) Len() int {
	return len(lt)
}

// linkURLs implements fuzzy.Source over link URLs.
type linkURLs []model.Node

func (lu linkURLs) String(i int) string {
	return lu[i].URL
}

func (lu linkURLs) Len() int {
	return len(lu)
}

// Fuzzy searches every link of the tree by title, then by URL for links
// whose title did not match. Title matches come first, each group sorted by
// score (best first).
func Fuzzy(roots []model.Node, query string) []Result {
	if query == "" {
		return nil
	}

	links := model.Links(model.Flatten(roots))

	results := []Result{}
	matched := make(map[int]bool)
	for _, m := range fuzzy.FindFrom(query, linkTitles(links)) {
		matched[m.Index] = true
		results = append(results, Result{
			Node:           links[m.Index],
			MatchedIndexes: m.MatchedIndexes,
			Score:          m.Score,
		})
	}

	for _, m := range fuzzy.FindFrom(query, linkURLs(links)) {
		if matched[m.Index] {
			continue
		}
		results = append(results, Result{
			Node:  links[m.Index],
			Score: m.Score,
		})
	}

	return results
}
