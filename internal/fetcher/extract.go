package fetcher

import (
	"bytes"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// strippedElements never contribute to the stored text.
var strippedElements = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Template: true,
	atom.Iframe:   true,
}

// extract returns the page title and its body as Markdown text.
func extract(body []byte) (string, string, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return "", "", err
	}

	title := findTitle(doc)
	removeElements(doc)

	root := findElement(doc, atom.Body)
	if root == nil {
		root = doc
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, root); err != nil {
		return "", "", err
	}

	text, err := htmltomarkdown.ConvertString(buf.String())
	if err != nil {
		return "", "", err
	}
	return title, strings.TrimSpace(text), nil
}

// findTitle prefers <title>, then og:title.
func findTitle(doc *html.Node) string {
	if t := findElement(doc, atom.Title); t != nil {
		if title := collapseSpace(textOf(t)); title != "" {
			return title
		}
	}

	var ogTitle string
	walk(doc, func(n *html.Node) bool {
		if n.Type != html.ElementNode || n.DataAtom != atom.Meta {
			return true
		}
		if attr(n, "property") == "og:title" || attr(n, "name") == "og:title" {
			ogTitle = collapseSpace(attr(n, "content"))
			return ogTitle == ""
		}
		return true
	})
	return ogTitle
}

func removeElements(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.ElementNode && strippedElements[c.DataAtom] {
			n.RemoveChild(c)
		} else {
			removeElements(c)
		}
		c = next
	}
}

func findElement(doc *html.Node, a atom.Atom) *html.Node {
	var found *html.Node
	walk(doc, func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.DataAtom == a {
			found = n
			return false
		}
		return true
	})
	return found
}

// walk visits nodes depth-first until visit returns false.
func walk(n *html.Node, visit func(*html.Node) bool) bool {
	if !visit(n) {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !walk(c, visit) {
			return false
		}
	}
	return true
}

func textOf(n *html.Node) string {
	var sb strings.Builder
	walk(n, func(c *html.Node) bool {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
		return true
	})
	return sb.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
