// Package controller coordinates the adaptive crawl: it owns the value
// function, the domain-balanced frontier, the goal, and the vectorizers,
// and processes each fetched page through a fixed sequence.
//
// For every response the controller records a learning transition,
// commits the goal observation, closes the domain's slot when the goal
// is achieved there, derives new pending requests from the page's links,
// refreshes frontier priorities when the model changed, and checkpoints
// on the configured step interval.
//
// The controller is single-threaded by design: responses are processed
// exactly once, synchronously, in the order they arrive. Nothing in this
// package takes a lock; the engine serializes all calls.
package controller
