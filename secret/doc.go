// Package secret resolves credential references in configuration values.
//
// A value is expanded with ExpandEnvStrict first, then inspected for a
// reference prefix:
//   - env:NAME reads the environment variable NAME
//   - file:/path reads a file, trimming one trailing newline
//   - secretref:<provider>:<ref> asks a registered Provider
//
// Anything else is returned as-is, so a literal token works unchanged.
// Resolved values are never logged.
package secret
