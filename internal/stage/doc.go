// Package stage defines the ordered pipeline stages and their sequencing
// rules. The stage order is the single source of truth for both execution
// and checkpoint resumption.
package stage
