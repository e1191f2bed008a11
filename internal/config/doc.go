// Package config loads, normalizes, and validates the urlstash configuration.
//
// Configuration lives in a TOML file (default ~/.config/urlstash/config.toml,
// falling back to ./urlstash.toml). Load applies defaults, expands ~ in path
// fields, pulls the Stash API key from the environment when unset, and
// validates the result before anything else runs.
package config
