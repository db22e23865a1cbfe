// Package main provides the entry point for the qcrawl CLI.
//
// qcrawl is an adaptive focused web crawler. It learns online which
// links lead to relevant pages and reorders its crawl frontier
// accordingly.
//
// Usage:
//
//	qcrawl crawl <seed-url> [seed-url...]
//	qcrawl crawl --keywords jazz,vinyl <seed-url>
//
// See --help for all available options.
package main

// main is the entry point for qcrawl.
func main() {
	Execute()
}
