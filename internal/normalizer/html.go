package normalizer

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var skippedElements = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Head:     true,
	atom.Title:    true,
	atom.Noscript: true,
}

var blockElements = map[atom.Atom]bool{
	atom.Br:         true,
	atom.P:          true,
	atom.Div:        true,
	atom.Tr:         true,
	atom.Td:         true,
	atom.Th:         true,
	atom.Li:         true,
	atom.Table:      true,
	atom.H1:         true,
	atom.H2:         true,
	atom.H3:         true,
	atom.H4:         true,
	atom.H5:         true,
	atom.H6:         true,
	atom.Blockquote: true,
	atom.Section:    true,
}

// StripHTML returns the visible text of an HTML document. Block elements and
// <br> become line breaks. Unparseable input is returned unchanged.
func StripHTML(body string) string {
	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return body
	}

	var b strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		switch node.Type {
		case html.TextNode:
			b.WriteString(node.Data)
			return
		case html.CommentNode:
			return
		case html.ElementNode:
			if skippedElements[node.DataAtom] {
				return
			}
		}

		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}

		if node.Type == html.ElementNode && blockElements[node.DataAtom] {
			b.WriteString("\n")
		}
	}
	walk(doc)

	return b.String()
}
