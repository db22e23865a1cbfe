// Package engine drives crawl runs. The single-run Engine owns the
// fetch-process loop: it pops a pending request from the controller's
// frontier, fetches it, hands the response back to the controller, and
// paces itself with the politeness delay until the page budget is spent,
// the frontier drains, or the context is cancelled.
//
// The loop is deliberately single-threaded: the controller's learning
// step and frontier refresh assume responses arrive one at a time, in
// order. Concurrency lives one level up in the BatchRunner, which runs
// several independent crawl runs at once (for example a learning run
// and a baseline run over the same seeds) with errgroup.
package engine
