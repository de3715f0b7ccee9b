package client

import (
	"bytes"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"golang.org/x/net/html"
)

// maxSummaryLen bounds the body text folded into error messages.
const maxSummaryLen = 300

var (
	headingRe    = regexp.MustCompile(`(?m)^#+\s*`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// summarizeBody turns an unexpected response body into one short line.
// HTML error pages, such as the CSRF failure page, are reduced to their title
// and text.
func summarizeBody(contentType string, body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return ""
	}

	text := string(trimmed)
	if isHTML(contentType, trimmed) {
		text = htmlText(trimmed)
	}
	return truncate(collapse(text), maxSummaryLen)
}

func isHTML(contentType string, body []byte) bool {
	if strings.Contains(strings.ToLower(contentType), "html") {
		return true
	}
	return len(body) > 0 && body[0] == '<'
}

func htmlText(body []byte) string {
	title := htmlTitle(body)

	converter := md.NewConverter("", true, nil)
	converter.Remove("head", "script", "style")
	markdown, err := converter.ConvertString(string(body))
	if err != nil {
		markdown = ""
	}
	markdown = headingRe.ReplaceAllString(markdown, "")

	switch {
	case markdown == "":
		return title
	case title == "" || strings.Contains(markdown, title):
		return markdown
	default:
		return title + ": " + markdown
	}
}

// htmlTitle extracts the <title> text, if any.
func htmlTitle(content []byte) string {
	doc, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return ""
	}

	var title string
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "title" && n.FirstChild != nil {
			title = strings.TrimSpace(n.FirstChild.Data)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if title != "" {
				return
			}
			extract(c)
		}
	}
	extract(doc)

	return title
}

func collapse(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "…"
}
