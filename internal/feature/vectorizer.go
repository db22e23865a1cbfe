package feature

import (
	"fmt"
	"math"
	"net/url"

	"github.com/nao1215/qcrawl/internal/model"
	"github.com/nao1215/qcrawl/internal/sparse"
)

// DefaultHashBits sets the hashed token space to 2^18 columns.
// Large enough that collisions are rare for crawl-scale vocabularies,
// small enough that dense weight vectors stay a few megabytes.
const DefaultHashBits = 18

// maxPageTokens caps how much page text the page vectorizer consumes.
// Pages can be arbitrarily long; the head of the document carries most
// of the topical signal.
const maxPageTokens = 2000

// urlTokenPrefix namespaces URL-derived tokens so that a word appearing
// in a URL path and the same word in anchor text hash to different columns.
const urlTokenPrefix = "url:"

// Params describes a vectorizer's fitted-at-construction configuration.
// Persisted with every checkpoint so that a restored model scores vectors
// built the same way.
type Params struct {
	// HashBits is log2 of the hashed token space size.
	HashBits int `json:"hash_bits"`

	// UseURL reports whether URL path/query tokens are included.
	UseURL bool `json:"use_url"`

	// UseSameDomain reports whether the same-domain indicator is written.
	UseSameDomain bool `json:"use_same_domain"`
}

// LinkVectorizer turns discovered links into sparse state-action vectors.
// It is a pure transform: no state is updated during Transform, so vectors
// built at different times are directly comparable.
type LinkVectorizer struct {
	hashDim       int
	useURL        bool
	useSameDomain bool
}

// LinkOption configures a LinkVectorizer.
type LinkOption func(*LinkVectorizer)

// WithURLFeatures enables URL path/query tokens as features.
func WithURLFeatures(enabled bool) LinkOption {
	return func(v *LinkVectorizer) {
		v.useURL = enabled
	}
}

// WithSameDomainFeature enables the same-domain indicator column.
func WithSameDomainFeature(enabled bool) LinkOption {
	return func(v *LinkVectorizer) {
		v.useSameDomain = enabled
	}
}

// WithHashBits overrides the hashed token space size (2^bits columns).
func WithHashBits(bits int) LinkOption {
	return func(v *LinkVectorizer) {
		v.hashDim = 1 << bits
	}
}

// NewLinkVectorizer creates a LinkVectorizer with the given options.
// Defaults: 2^18 hashed columns, same-domain feature on, URL features off.
func NewLinkVectorizer(opts ...LinkOption) *LinkVectorizer {
	v := &LinkVectorizer{
		hashDim:       1 << DefaultHashBits,
		useURL:        false,
		useSameDomain: true,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Dim returns the vector dimension: the hashed token space plus the
// same-domain indicator column, which is always reserved.
func (v *LinkVectorizer) Dim() int { return v.hashDim + 1 }

// Params returns the vectorizer configuration for checkpointing.
func (v *LinkVectorizer) Params() Params {
	return Params{
		HashBits:      log2(v.hashDim),
		UseURL:        v.useURL,
		UseSameDomain: v.useSameDomain,
	}
}

// Transform vectorizes a batch of links into one matrix, one row per link
// in input order.
func (v *LinkVectorizer) Transform(links []model.Link) (*sparse.Matrix, error) {
	m := sparse.NewMatrix(v.Dim())
	for _, link := range links {
		vec, err := v.Vectorize(link)
		if err != nil {
			return nil, err
		}
		if err := m.AppendRow(vec); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Vectorize converts a single link into a sparse vector: L2-normalized
// hashed token counts from the anchor text (and optionally the URL path
// and query), plus the same-domain indicator when enabled.
func (v *LinkVectorizer) Vectorize(link model.Link) (sparse.Vector, error) {
	counts := make(map[int]float64)
	for _, token := range tokenize(link.Text) {
		counts[hashToken(token, v.hashDim)]++
	}

	if v.useURL {
		for _, token := range urlTokens(link.URL) {
			counts[hashToken(urlTokenPrefix+token, v.hashDim)]++
		}
	}

	normalizeCounts(counts)

	if v.useSameDomain && link.SameDomain {
		counts[v.hashDim] = 1
	}

	vec, err := sparse.FromMap(v.Dim(), counts)
	if err != nil {
		return sparse.Vector{}, fmt.Errorf("feature: vectorize link %q: %w", link.URL, err)
	}
	return vec, nil
}

// PageVectorizer turns page text into a sparse feature vector, used to
// augment link vectors when page-content features are enabled.
type PageVectorizer struct {
	hashDim int
}

// NewPageVectorizer creates a PageVectorizer with the given hash bits.
// Bits <= 0 selects the default.
func NewPageVectorizer(bits int) *PageVectorizer {
	if bits <= 0 {
		bits = DefaultHashBits
	}
	return &PageVectorizer{hashDim: 1 << bits}
}

// Dim returns the page vector dimension.
func (v *PageVectorizer) Dim() int { return v.hashDim }

// Params returns the vectorizer configuration for checkpointing.
func (v *PageVectorizer) Params() Params {
	return Params{HashBits: log2(v.hashDim)}
}

// Transform vectorizes page text: L2-normalized hashed token counts over
// at most maxPageTokens leading tokens.
func (v *PageVectorizer) Transform(text string) (sparse.Vector, error) {
	tokens := tokenize(text)
	if len(tokens) > maxPageTokens {
		tokens = tokens[:maxPageTokens]
	}

	counts := make(map[int]float64)
	for _, token := range tokens {
		counts[hashToken(token, v.hashDim)]++
	}
	normalizeCounts(counts)

	vec, err := sparse.FromMap(v.hashDim, counts)
	if err != nil {
		return sparse.Vector{}, fmt.Errorf("feature: vectorize page: %w", err)
	}
	return vec, nil
}

// urlTokens extracts tokens from a URL's path and query.
func urlTokens(rawURL string) []string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil
	}
	return tokenize(u.Path + " " + u.RawQuery)
}

// normalizeCounts scales token counts in place to unit L2 norm.
func normalizeCounts(counts map[int]float64) {
	var sum float64
	for _, c := range counts {
		sum += c * c
	}
	if sum == 0 {
		return
	}
	scale := 1 / math.Sqrt(sum)
	for idx := range counts {
		counts[idx] *= scale
	}
}

// log2 returns log2 of a power-of-two dimension.
func log2(dim int) int {
	bits := 0
	for dim > 1 {
		dim >>= 1
		bits++
	}
	return bits
}
