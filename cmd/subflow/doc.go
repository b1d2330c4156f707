// Command subflow is the command-line front end for the subtitle
// pipeline: subtitle deduplication and conversion, checkpoint
// inspection, and configuration utilities.
package main
