// Package file provides file-based configuration for the CLI.
//
// Two TOML files live under the config directory (~/.titlegrid by
// default):
//   - config.toml: runtime settings (concurrency, timeouts, cache TTL)
//   - sources.toml: source descriptors seeding the registry
//
// The sources file can be watched for edits so new jurisdictions become
// searchable without a restart.
package file
