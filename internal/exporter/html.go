package exporter

import (
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/nikbrunner/linksaver/internal/model"
)

// HTMLOptions tweaks the Netscape output.
type HTMLOptions struct {
	// Escape HTML-escapes titles and URLs. The default output writes them
	// verbatim, matching what browsers produced historically.
	Escape bool
}

// ExportHTML renders the tree in Netscape bookmark HTML format.
func ExportHTML(roots []model.Node, opts HTMLOptions) string {
	var b strings.Builder

	// Header
	b.WriteString("<!DOCTYPE NETSCAPE-Bookmark-file-1>\n")
	b.WriteString("<HTML>\n")
	b.WriteString("<META HTTP-EQUIV=\"Content-Type\" CONTENT=\"text/html; charset=UTF-8\">\n")
	b.WriteString("<TITLE>Bookmarks</TITLE>\n")
	b.WriteString("<H1>Bookmarks</H1>\n")

	writeList(&b, roots, "", opts)

	b.WriteString("</HTML>")

	return b.String()
}

// RenderList renders just the <DL><p> block for the given nodes.
func RenderList(nodes []model.Node, opts HTMLOptions) string {
	var b strings.Builder
	writeList(&b, nodes, "", opts)
	return b.String()
}

// writeList recursively writes one definition list. Entries sit two spaces
// deeper than their list; a nested list starts at its heading's indent.
func writeList(b *strings.Builder, nodes []model.Node, indent string, opts HTMLOptions) {
	fmt.Fprintf(b, "%s<DL><p>\n", indent)

	for _, node := range nodes {
		if node.IsLink() {
			fmt.Fprintf(b, "%s  <DT><A HREF=\"%s\" ADD_DATE=\"%s\">%s</A>\n",
				indent,
				text(node.URL, opts),
				timestamp(node.DateAdded),
				text(node.Title, opts),
			)
			continue
		}

		fmt.Fprintf(b, "%s  <DT><H3 ADD_DATE=\"%s\" LAST_MODIFIED=\"%s\">%s</H3>\n",
			indent,
			timestamp(node.DateAdded),
			timestamp(node.DateGroupModified),
			text(node.Title, opts),
		)
		writeList(b, node.Children, indent+"  ", opts)
	}

	fmt.Fprintf(b, "%s</DL><p>\n", indent)
}

func text(s string, opts HTMLOptions) string {
	if opts.Escape {
		return html.EscapeString(s)
	}
	return s
}

// timestamp renders an epoch-ms value, leaving unset dates empty.
func timestamp(ms int64) string {
	if ms == 0 {
		return ""
	}
	return strconv.FormatInt(ms, 10)
}
