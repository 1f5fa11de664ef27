// Package fileutil resolves command-line path arguments into the list of
// documents to process.
//
// Files named explicitly are always included. Directories are walked,
// optionally recursively, and contribute every file whose extension is in
// the configured set. Hidden directories and the configured exclusions are
// skipped. Results are de-duplicated and sorted so runs are deterministic.
//
// Scanning is error tolerant: unreadable subdirectories are collected in
// ScanResult.Errors and the walk continues. A missing argument is fatal.
package fileutil
