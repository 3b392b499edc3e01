// Package config loads, normalizes, and validates scribe configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// SCRIBE_MODELS_DIR and SCRIBE_ENGINE_BINARY. The Config type centralizes the
// models directory, the engine command contract, and the HTTP surface so the
// transcription pipeline receives every path explicitly.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
