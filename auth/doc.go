// Package auth decides which credential is attached to outgoing API requests.
//
// Two credential forms are accepted. An OAuth access token is sent with the
// Bearer scheme; a personal access token is sent verbatim with no scheme
// prefix, as the upstream expects. When both are configured the OAuth token
// wins. When neither is configured New fails with ErrMissingCredentials
// before any request can be built.
//
// Inspect reads the claims of JWT-shaped tokens without verifying them, so
// callers can warn about tokens that have already expired.
package auth
