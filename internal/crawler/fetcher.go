package crawler

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/nao1215/qcrawl/internal/model"
)

// Fetcher fetches single pages over HTTP and classifies the results.
// It requires an external *http.Client so that timeout, redirect, and
// proxy policy stay with the caller and tests can inject their own.
type Fetcher struct {
	// client is the HTTP client used for all fetches.
	client *http.Client

	// userAgent is the User-Agent header to use.
	userAgent string

	// maxBodySize limits the size of response bodies to read.
	maxBodySize int64
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithUserAgent sets a custom User-Agent header.
func WithUserAgent(ua string) FetcherOption {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithMaxBodySize sets the maximum response body size.
func WithMaxBodySize(size int64) FetcherOption {
	return func(f *Fetcher) {
		f.maxBodySize = size
	}
}

// NewFetcher creates a new Fetcher with the given HTTP client.
func NewFetcher(client *http.Client, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		client:      client,
		userAgent:   "qcrawl/1.0",
		maxBodySize: 5 * 1024 * 1024,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Fetch performs one fetch for a pending request and returns the
// processed response plus any links found on the page.
//
// A network failure or a non-textual content type is not an error: the
// returned response has TextAvailable false and no links, which the
// controller treats as a terminal zero-reward transition. An error is
// returned only when the context was cancelled or the request could not
// be constructed.
func (f *Fetcher) Fetch(ctx context.Context, pending *model.PendingRequest) (*model.Response, []model.Link, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pending.URL, nil)
	if err != nil {
		return nil, nil, err
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, nil, ctx.Err()
		}
		return f.failureResponse(pending), nil, nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		if ctx.Err() != nil {
			return nil, nil, ctx.Err()
		}
		return f.failureResponse(pending), nil, nil
	}

	finalURL := pending.URL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	response := &model.Response{
		Request:     pending,
		URL:         finalURL,
		Domain:      pending.Domain,
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
	}

	switch {
	case isHTML(response.ContentType):
		parser, perr := NewParser(finalURL)
		if perr != nil {
			return response, nil, nil
		}
		result, perr := parser.Parse(strings.NewReader(string(body)))
		if perr != nil {
			return response, nil, nil
		}
		response.TextAvailable = true
		response.Text = result.Text
		response.Title = result.Title
		return response, result.Links, nil

	case isTextual(response.ContentType):
		response.TextAvailable = true
		response.Text = string(body)
		return response, nil, nil

	default:
		return response, nil, nil
	}
}

// failureResponse builds the terminal response for a failed fetch.
func (f *Fetcher) failureResponse(pending *model.PendingRequest) *model.Response {
	return &model.Response{
		Request: pending,
		URL:     pending.URL,
		Domain:  pending.Domain,
	}
}

// isHTML reports whether the content type carries HTML.
func isHTML(contentType string) bool {
	return strings.Contains(contentType, "text/html") ||
		strings.Contains(contentType, "application/xhtml+xml")
}

// isTextual reports whether the content type carries usable plain text.
func isTextual(contentType string) bool {
	return strings.HasPrefix(contentType, "text/") ||
		strings.Contains(contentType, "application/xml") ||
		strings.Contains(contentType, "+xml")
}
