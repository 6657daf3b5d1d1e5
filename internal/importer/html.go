package importer

import (
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/nikbrunner/linksaver/internal/model"
)

// Netscape files from most browsers carry seconds; ours carry milliseconds.
// Anything above this is already in milliseconds (year 5138 in seconds).
const msThreshold = 100_000_000_000

// ParseHTML parses Netscape bookmark HTML into a detached tree. Nodes carry
// titles, URLs and dates but no ids; the store assigns those on import.
func ParseHTML(r io.Reader) ([]model.Node, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	root := &model.Node{Children: []model.Node{}}

	// Stack of open folders; the bottom entry is the detached root.
	stack := []*model.Node{root}
	var pending *model.Node // folder waiting for its <DL>

	var parse func(*html.Node)
	parse = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch strings.ToLower(n.Data) {
			case "h3":
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, model.Node{
					Title:             getTextContent(n),
					DateAdded:         parseDate(getAttr(n, "add_date")),
					DateGroupModified: parseDate(getAttr(n, "last_modified")),
					Children:          []model.Node{},
				})
				pending = &parent.Children[len(parent.Children)-1]
				return // Don't recurse into H3

			case "a":
				href := getAttr(n, "href")
				if href == "" {
					return
				}

				title := getTextContent(n)
				if title == "" {
					title = href
				}

				// A folder heading without a list of its own stays empty.
				pending = nil

				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, model.Node{
					Title:     title,
					URL:       href,
					DateAdded: parseDate(getAttr(n, "add_date")),
				})
				return

			case "dl":
				pushed := false
				if pending != nil {
					stack = append(stack, pending)
					pending = nil
					pushed = true
				}

				for c := n.FirstChild; c != nil; c = c.NextSibling {
					parse(c)
				}

				if pushed {
					stack = stack[:len(stack)-1]
				}
				return
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			parse(c)
		}
	}

	parse(doc)
	return root.Children, nil
}

// parseDate reads an ADD_DATE/LAST_MODIFIED attribute as epoch ms.
func parseDate(raw string) int64 {
	if raw == "" {
		return 0
	}
	ts, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || ts <= 0 {
		return 0
	}
	if ts < msThreshold {
		return ts * 1000
	}
	return ts
}

// getTextContent returns the text content of a node.
func getTextContent(n *html.Node) string {
	var text strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			text.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(text.String())
}

// getAttr returns the value of an attribute, case-insensitive.
func getAttr(n *html.Node, key string) string {
	key = strings.ToLower(key)
	for _, attr := range n.Attr {
		if strings.ToLower(attr.Key) == key {
			return attr.Val
		}
	}
	return ""
}
