// Package config loads, validates, and normalizes the TOML configuration
// for the subtitle translation pipeline.
package config
