// Package converter turns story html into the markdown chapters are stored as.
package converter

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// Markdown converts an html document or fragment to markdown.
func Markdown(body string) (string, error) {
	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to parse html: %w", err)
	}

	buf := &strings.Builder{}
	buf.Grow(len(body) / 6)
	convert(buf, doc)

	return strings.TrimSpace(buf.String()), nil
}

var headings = map[string]string{
	"h1": "# ",
	"h2": "## ",
	"h3": "### ",
	"h4": "#### ",
	"h5": "##### ",
	"h6": "###### ",
}

func convert(buf *strings.Builder, node *html.Node) {
	switch node.Type {
	case html.DocumentNode:
		children(buf, node)
	case html.TextNode:
		text(buf, node.Data)
	case html.ElementNode:
		tag := strings.ToLower(node.Data)

		switch tag {
		case "head", "style", "script":
			return
		case "a":
			buf.WriteString("[")
		case "b", "strong":
			buf.WriteString("**")
		case "i", "em":
			buf.WriteString("*")
		case "p", "div", "br":
			doubleNewline(buf)
		case "hr":
			newline(buf)
			buf.WriteString("---")
			newline(buf)
		case "img":
			alt := attr(node, "alt")
			if alt == "" {
				alt = "no alt text"
			}
			fmt.Fprintf(buf, "![%s](%s)", alt, attr(node, "src"))
		default:
			if prefix, ok := headings[tag]; ok {
				buf.WriteString(prefix)
			}
		}

		children(buf, node)

		switch tag {
		case "a":
			fmt.Fprintf(buf, "](%s)", attr(node, "href"))
		case "b", "strong":
			buf.WriteString("**")
		case "i", "em":
			buf.WriteString("*")
		}
	}
}

func children(buf *strings.Builder, node *html.Node) {
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		convert(buf, child)
	}
}

// text collapses runs of spaces and newlines into a single space.
func text(buf *strings.Builder, data string) {
	s := buf.String()
	prev := s == "" || strings.HasSuffix(s, " ") || strings.HasSuffix(s, "\n")

	for _, c := range data {
		if c == ' ' || c == '\n' {
			if !prev {
				prev = true
				buf.WriteByte(' ')
			}
			continue
		}
		prev = false
		buf.WriteRune(c)
	}
}

func attr(node *html.Node, name string) string {
	for _, a := range node.Attr {
		if strings.EqualFold(a.Key, name) {
			return a.Val
		}
	}
	return ""
}

func trimEnd(buf *strings.Builder) {
	s := buf.String()
	trimmed := strings.TrimRight(s, " \t")
	if len(trimmed) != len(s) {
		buf.Reset()
		buf.WriteString(trimmed)
	}
}

func doubleNewline(buf *strings.Builder) {
	trimEnd(buf)

	s := buf.String()
	switch {
	case s == "", strings.HasSuffix(s, "\n\n"):
	case strings.HasSuffix(s, "\n"):
		buf.WriteByte('\n')
	default:
		buf.WriteString("\n\n")
	}
}

func newline(buf *strings.Builder) {
	trimEnd(buf)

	s := buf.String()
	if s != "" && !strings.HasSuffix(s, "\n") {
		buf.WriteByte('\n')
	}
}

// WordCount counts the words of a markdown body, skipping markup tokens.
func WordCount(s string) int {
	count := 0
	for _, word := range strings.Fields(s) {
		switch word {
		case "---", "#", "##", "###", "####", "#####", "######", "*", "**":
			continue
		}
		count++
	}
	return count
}

// Quotes replaces curly double quotes with straight ones.
func Quotes(s string) string {
	return strings.NewReplacer("“", `"`, "”", `"`).Replace(s)
}
