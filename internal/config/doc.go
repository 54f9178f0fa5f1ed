// Package config loads, normalizes, and validates issuegrid configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// GITHUB_TOKEN. Profiles bind a repository to an organize scope declared either
// inline as nested [[profiles.organize]] tables or in a YAML organize file.
// Scopes are compiled during Load so an invalid regular expression is reported
// with its location before anything runs.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
