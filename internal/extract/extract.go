package extract

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// Document is the readable content of one page.
type Document struct {
	Title string
	Text  string
	// FromBody is true when no primary content elements were found and the
	// whole body text was used instead.
	FromBody bool
}

// dropTags never carry page content.
var dropTags = map[string]bool{
	"script": true, "style": true, "noscript": true, "iframe": true,
	"nav": true, "footer": true, "header": true, "aside": true, "form": true,
}

// contentTags are the primary content elements text is taken from.
var contentTags = map[string]bool{"p": true, "h1": true, "h2": true, "h3": true}

// FromHTML strips navigation and other chrome, then joins the text of
// paragraphs and top-level headings. When a page has none of those it falls
// back to the full body text. Whitespace is collapsed to single spaces.
func FromHTML(input []byte) Document {
	node, err := html.Parse(bytes.NewReader(input))
	if err != nil || node == nil {
		return Document{}
	}
	title := collapseSpaces(findTitle(node))
	prune(node)

	var parts []string
	found := false
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && contentTags[strings.ToLower(n.Data)] {
			found = true
			if s := collapseSpaces(textOf(n)); s != "" {
				parts = append(parts, s)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(node)
	if found {
		return Document{Title: title, Text: strings.Join(parts, " ")}
	}
	body := findFirst(node, "body")
	if body == nil {
		return Document{Title: title, FromBody: true}
	}
	return Document{Title: title, Text: collapseSpaces(textOf(body)), FromBody: true}
}

// prune detaches dropped elements and cookie/consent containers in place.
func prune(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.ElementNode && (dropTags[strings.ToLower(c.Data)] || isBoilerplateContainer(c)) {
			n.RemoveChild(c)
		} else if c.Type == html.CommentNode {
			n.RemoveChild(c)
		} else {
			prune(c)
		}
		c = next
	}
}

// textOf concatenates descendant text nodes separated by spaces.
func textOf(n *html.Node) string {
	var b strings.Builder
	var dfs func(*html.Node)
	dfs = func(cur *html.Node) {
		if cur.Type == html.TextNode {
			b.WriteString(cur.Data)
			b.WriteByte(' ')
			return
		}
		if cur.Type == html.ElementNode && strings.EqualFold(cur.Data, "br") {
			b.WriteByte(' ')
		}
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			dfs(c)
		}
	}
	dfs(n)
	return b.String()
}

func findTitle(n *html.Node) string {
	head := findFirst(n, "head")
	if head == nil {
		return ""
	}
	t := findFirst(head, "title")
	if t == nil || t.FirstChild == nil {
		return ""
	}
	return t.FirstChild.Data
}

func findFirst(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && strings.EqualFold(n.Data, tag) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if res := findFirst(c, tag); res != nil {
			return res
		}
	}
	return nil
}

var bannerMarkers = []string{"cookie-banner", "cookiebar", "consent-banner", "consent-manager"}

// isBoilerplateContainer reports whether the element is a cookie or consent
// banner. Only banner-specific markers count; content that merely mentions
// cookies, consent or GDPR is kept.
func isBoilerplateContainer(n *html.Node) bool {
	switch strings.ToLower(n.Data) {
	case "html", "body", "main", "article":
		return false
	}
	for _, attr := range n.Attr {
		key := strings.ToLower(attr.Key)
		if key != "id" && key != "class" && key != "role" && key != "aria-label" && !strings.HasPrefix(key, "data-") {
			continue
		}
		val := strings.ToLower(attr.Val)
		for _, marker := range bannerMarkers {
			if strings.Contains(val, marker) {
				return true
			}
		}
	}
	return false
}

// collapseSpaces trims s and replaces every whitespace run with one space.
func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
