// Package graph records the crawl as a directed graph: one node per
// discovered URL, one edge per followed link.
//
// Graph tracking is optional. The controller holds a *Graph that is
// either present or nil, decided once at construction; there is no
// half-enabled state. When enabled, the graph is persisted with each
// checkpoint for offline analysis of what the policy explored.
package graph
