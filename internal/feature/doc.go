// Package feature converts links and page text into sparse state-action
// vectors for the value function.
//
// Both vectorizers use the hashing trick: tokens are hashed into a fixed
// column space, so no vocabulary is fitted and the vector dimension is
// static for the lifetime of a crawl. That property matters because the
// frontier retains each request's vector for later re-scoring; a growing
// vocabulary would invalidate retained vectors.
//
// The link vectorizer reserves one extra column past the hashed token
// space for the same-domain indicator, so the dimension is identical
// whether or not that feature group is enabled.
package feature
