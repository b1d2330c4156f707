// Package checkpoint persists per-job pipeline progress so interrupted
// jobs can resume at the stage after the last one that completed. The
// store is backed by SQLite with transactional whole-record replacement;
// a lock file enforces the single-writer rule per store directory.
package checkpoint
