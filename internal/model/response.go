package model

// Response is the processed outcome of fetching one pending request.
// It is handed to the controller exactly once, synchronously, in the
// order responses are processed.
type Response struct {
	// Request is the pending request that produced this response.
	// Never nil: seed responses carry a seed request.
	Request *PendingRequest `json:"request"`

	// URL is the final URL after redirects.
	URL string `json:"url"`

	// Domain is the domain slot the response belongs to.
	Domain string `json:"domain"`

	// StatusCode is the HTTP status code, or 0 when the fetch failed
	// before receiving a response.
	StatusCode int `json:"status_code"`

	// ContentType is the MIME type from the Content-Type header.
	ContentType string `json:"content_type"`

	// Text is the decoded textual body. Empty when the response carried
	// no usable text; check TextAvailable rather than len(Text), since a
	// valid HTML page can be empty.
	Text string `json:"-"`

	// TextAvailable reports whether the fetch produced textual content.
	// False for network failures and binary content types; such responses
	// are recorded as terminal zero-reward transitions, not errors.
	TextAvailable bool `json:"text_available"`

	// Title is the page title, when the body was parsed as HTML.
	Title string `json:"title,omitempty"`
}

// IsSeed reports whether this response came from a seed request.
func (r *Response) IsSeed() bool { return r.Request == nil || r.Request.IsSeed() }
