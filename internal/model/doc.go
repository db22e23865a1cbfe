// Package model defines the data types exchanged between the crawl engine,
// the frontier queues, and the adaptive controller.
//
// The types here are deliberately plain: they carry no behavior beyond
// small accessors, so every other package can depend on them without
// creating import cycles. The only non-stdlib dependency is the sparse
// package, which provides the feature-vector representation retained on
// pending requests for later re-scoring.
package model
