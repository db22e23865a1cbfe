// Package crawler fetches pages and extracts the raw material the
// learning controller works with: outgoing links with their anchor text,
// the page title, and the visible body text.
//
// # Components
//
//   - Fetcher: performs one HTTP fetch and classifies the result. A
//     network failure or binary content type is not an error; it becomes
//     a response with no text, which the controller records as a terminal
//     zero-reward transition.
//   - Parser: HTML parser built on golang.org/x/net/html. It resolves
//     relative URLs against the page URL, drops non-HTTP schemes and
//     fragments, and deduplicates links within a page.
//
// # Politeness
//
// The fetcher itself performs single fetches; pacing between fetches and
// the page budget are enforced by the engine driving it.
//
// # Usage
//
//	fetcher := crawler.NewFetcher(httpClient, crawler.WithUserAgent(ua))
//	resp, links, err := fetcher.Fetch(ctx, req)
package crawler
