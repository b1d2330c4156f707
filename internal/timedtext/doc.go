// Package timedtext models timestamped text segments and cleans the
// artifacts speech-to-text engines and caption rips leave behind:
// phantom fragments, overlapping spans, and near-duplicate repeats.
package timedtext
