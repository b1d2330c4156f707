// Package subtitles renders a timed-text track plus a style descriptor
// into Advanced SubStation Alpha (ASS) markup for the rendering stage.
// Formatting is deterministic and performs no I/O.
package subtitles
