// Package config loads, normalizes, and validates videoqa configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// VIDEOQA_API_URL. A .env file in the working directory is applied before the
// fallbacks are read.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
