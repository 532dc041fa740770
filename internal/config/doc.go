// Package config loads, normalizes, and validates imagemill configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and centralizes every knob the CLI and
// pipeline need: source/publish directories, the rendition width/quality
// matrix, filter tables, external command templates, dependency lists,
// plugin hooks, and Google Doc settings.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
