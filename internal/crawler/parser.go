package crawler

import (
	"io"
	"net/url"
	"strings"

	"github.com/nao1215/qcrawl/internal/model"
	"golang.org/x/net/html"
)

// Parser extracts links, the title, and visible text from HTML content.
// It uses golang.org/x/net/html rather than regex because it correctly
// handles the malformed HTML that is common on the web and gives a
// proper DOM-like structure to walk.
type Parser struct {
	// baseURL is the URL of the page being parsed, used for resolving
	// relative URLs.
	baseURL *url.URL

	// baseDomain is the slot domain of the page, used to mark links that
	// stay on the same domain.
	baseDomain string
}

// ParseResult contains everything extracted from one HTML page in a
// single parsing pass.
type ParseResult struct {
	// Title is the page title from the <title> tag.
	Title string

	// Text is the visible body text with whitespace collapsed. Script and
	// style contents are excluded.
	Text string

	// Links are the deduplicated outgoing anchors, in document order.
	Links []model.Link
}

// NewParser creates a new HTML parser with the given base URL.
// The base URL is used to resolve relative links and to decide which
// links stay on the same domain.
func NewParser(baseURL string) (*Parser, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	return &Parser{baseURL: u, baseDomain: model.DomainOf(baseURL)}, nil
}

// Parse parses HTML content and extracts the title, visible text, and
// outgoing links. Links are deduplicated by normalized URL within the
// page; the first occurrence wins, keeping its anchor text.
func (p *Parser) Parse(content io.Reader) (*ParseResult, error) {
	doc, err := html.Parse(content)
	if err != nil {
		return nil, err
	}

	result := &ParseResult{
		Links: make([]model.Link, 0),
	}

	seen := make(map[string]bool)
	var textContent strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.ElementNode:
			switch n.Data {
			case "title":
				if result.Title == "" && n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
					result.Title = strings.TrimSpace(n.FirstChild.Data)
				}
			case "a":
				if href := getAttr(n, "href"); href != "" {
					p.addLink(href, anchorText(n), seen, result)
				}
			case "script", "style":
				// Not visible text; skip the subtree's text nodes.
				return
			}
		case html.TextNode:
			textContent.WriteString(n.Data)
			textContent.WriteString(" ")
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(doc)

	result.Text = collapseWhitespace(textContent.String())
	return result, nil
}

// addLink resolves, filters, and records one anchor.
func (p *Parser) addLink(href, text string, seen map[string]bool, result *ParseResult) {
	resolved := p.resolveURL(href)
	if resolved == "" {
		return
	}

	key := NormalizeURL(resolved)
	if seen[key] {
		return
	}
	seen[key] = true

	domain := model.DomainOf(resolved)
	result.Links = append(result.Links, model.Link{
		URL:        resolved,
		Text:       text,
		Domain:     domain,
		SameDomain: domain == p.baseDomain,
	})
}

// resolveURL resolves a relative URL against the base URL. Non-HTTP
// schemes and pure fragments yield an empty string; fragments are
// stripped from the result because they never change the fetched page.
func (p *Parser) resolveURL(href string) string {
	href = strings.TrimSpace(href)
	if href == "" || href == "#" {
		return ""
	}
	if strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "mailto:") ||
		strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "data:") {
		return ""
	}

	u, err := url.Parse(href)
	if err != nil {
		return ""
	}

	resolved := p.baseURL.ResolveReference(u)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	resolved.Fragment = ""
	return resolved.String()
}

// NormalizeURL normalizes a URL for deduplication: the fragment is
// dropped, scheme and host are lowercased, and an empty path becomes "/"
// so that http://example.com and http://example.com/ collapse to one key.
func NormalizeURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	u.Fragment = ""
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	if u.Path == "" {
		u.Path = "/"
	}

	return u.String()
}

// anchorText collects the text nodes under an anchor element with
// whitespace collapsed.
func anchorText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return collapseWhitespace(b.String())
}

// collapseWhitespace trims the string and collapses runs of whitespace
// into single spaces.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
