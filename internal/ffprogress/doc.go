// Package ffprogress incrementally parses the line-oriented key=value
// progress stream emitted by an external encoder into structured render
// progress snapshots, including ETA computation and total-duration
// extraction from free-text log lines.
package ffprogress
