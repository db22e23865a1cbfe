// Package database provides SQLite-based storage for qcrawl checkpoints.
//
// A checkpoint is a step-indexed snapshot of everything needed to resume
// or analyze a crawl: the value-function weights, the vectorizer
// configurations, the active hyperparameter set, and (when graph tracking
// is enabled) the crawl graph. All of it lives in a single database file
// in the checkpoint directory.
//
// We use SQLite (via modernc.org/sqlite) because the database is a single
// file, the driver is CGO-free, and WAL mode gives good read performance
// for offline inspection while a crawl is still writing.
package database
