package extract

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// Page is the readable text of a recipe page, used as model input when a
// page carries no structured recipe data.
type Page struct {
	Title       string
	Description string
	Text        string
}

// FromHTML extracts readable text from a recipe page. It prefers the first
// element whose id or class names a recipe card, then <main>, <article> and
// finally <body>. Lists and headings keep their line breaks; site chrome,
// comment threads and consent banners are skipped.
func FromHTML(input []byte) Page {
	root, err := html.Parse(bytes.NewReader(input))
	if err != nil || root == nil {
		return Page{}
	}
	p := Page{}
	if head := findFirst(root, isTag("head")); head != nil {
		if t := findFirst(head, isTag("title")); t != nil && t.FirstChild != nil {
			p.Title = strings.TrimSpace(t.FirstChild.Data)
		}
		if m := findFirst(head, isDescriptionMeta); m != nil {
			p.Description = strings.TrimSpace(attr(m, "content"))
		}
	}

	content := findFirst(root, isRecipeCard)
	for _, tag := range []string{"main", "article", "body"} {
		if content != nil {
			break
		}
		content = findFirst(root, isTag(tag))
	}
	if content == nil {
		return p
	}
	var b strings.Builder
	collectText(&b, content)
	p.Text = normalizeWhitespace(b.String())
	return p
}

// Truncate cuts s to at most max runes on a line boundary when one exists.
func Truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)[:max]
	cut := string(runes)
	if i := strings.LastIndexByte(cut, '\n'); i > len(cut)/2 {
		cut = cut[:i]
	}
	return strings.TrimSpace(cut)
}

func isTag(tag string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		return n.Type == html.ElementNode && strings.EqualFold(n.Data, tag)
	}
}

func isDescriptionMeta(n *html.Node) bool {
	if n.Type != html.ElementNode || n.Data != "meta" {
		return false
	}
	name := strings.ToLower(attr(n, "name") + attr(n, "property"))
	return name == "description" || name == "og:description"
}

// Recipe plugins (WP Recipe Maker, Tasty Recipes, Mediavine Create) wrap the
// card in a container named after the recipe.
func isRecipeCard(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	switch n.Data {
	case "div", "section", "article":
	default:
		return false
	}
	v := strings.ToLower(attr(n, "id") + " " + attr(n, "class"))
	return strings.Contains(v, "recipe-container") || strings.Contains(v, "wprm-recipe-container") ||
		strings.Contains(v, "tasty-recipes") || strings.Contains(v, "mv-create-card") ||
		strings.Contains(v, "recipe-card")
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

func findFirst(n *html.Node, match func(*html.Node) bool) *html.Node {
	if match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if res := findFirst(c, match); res != nil {
			return res
		}
	}
	return nil
}

func collectText(b *strings.Builder, n *html.Node) {
	if n.Type == html.ElementNode {
		if isSkipped(n) {
			return
		}
		switch strings.ToLower(n.Data) {
		case "br", "p", "h1", "h2", "h3", "h4", "h5", "h6", "li", "ul", "ol", "tr":
			b.WriteString("\n")
		}
	}
	if n.Type == html.TextNode {
		b.WriteString(strings.NewReplacer("\t", " ", "\r", " ").Replace(n.Data))
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(b, c)
	}
	if n.Type == html.ElementNode {
		switch strings.ToLower(n.Data) {
		case "p", "h1", "h2", "h3", "h4", "h5", "h6":
			b.WriteString("\n\n")
		case "td", "th":
			b.WriteString(" ")
		}
	}
}

func isSkipped(n *html.Node) bool {
	switch strings.ToLower(n.Data) {
	case "script", "style", "noscript", "nav", "footer", "aside", "iframe", "form", "svg", "button":
		return true
	}
	v := strings.ToLower(attr(n, "id") + " " + attr(n, "class"))
	for _, marker := range []string{"cookie", "consent", "gdpr", "comments", "newsletter", "share-buttons"} {
		if strings.Contains(v, marker) {
			return true
		}
	}
	return false
}

func normalizeWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			// Keep at most one consecutive blank
			if len(out) == 0 || out[len(out)-1] == "" {
				continue
			}
		}
		out = append(out, line)
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return strings.Join(out, "\n")
}
