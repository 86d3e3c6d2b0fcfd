package scrape

import (
	"strings"

	"golang.org/x/net/html"
)

// Parts enumerates the style/script surfaces of a document in document
// order: inline fragment text and the raw link targets of external files.
type Parts struct {
	InlineCSS []string
	InlineJS  []string
	CSSLinks  []string
	JSLinks   []string
}

// ExtractParts walks the HTML tree and collects <style> bodies, bodies of
// <script> tags without src, hrefs of <link rel="stylesheet">, and srcs of
// <script src>. A document that fails to parse yields empty parts; the
// x/net/html parser is lenient enough that this only happens on truly
// broken input.
func ExtractParts(input string) Parts {
	var parts Parts
	root, err := html.Parse(strings.NewReader(input))
	if err != nil || root == nil {
		return parts
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch strings.ToLower(n.Data) {
			case "style":
				parts.InlineCSS = append(parts.InlineCSS, textContent(n))
			case "script":
				if src := attr(n, "src"); src != "" {
					parts.JSLinks = append(parts.JSLinks, src)
				} else {
					parts.InlineJS = append(parts.InlineJS, textContent(n))
				}
			case "link":
				if strings.EqualFold(attr(n, "rel"), "stylesheet") {
					if href := attr(n, "href"); href != "" {
						parts.CSSLinks = append(parts.CSSLinks, href)
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return parts
}

func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, name) {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return b.String()
}
