package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Authenticator names.
const (
	MethodOAuth         = "oauth"
	MethodPersonalToken = "personal_token"
)

// Credentials holds the configured tokens. At most one is used; OAuth wins.
type Credentials struct {
	OAuthToken    string
	PersonalToken string
}

// Authenticator produces the Authorization header value for a request.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Side effects: none; credentials are never mutated.
// - Errors: a non-nil error means no request may be sent.
type Authenticator interface {
	// Name returns the credential method, MethodOAuth or MethodPersonalToken.
	Name() string

	// AuthorizationHeader returns the full header value.
	AuthorizationHeader(ctx context.Context) (string, error)
}

// New selects the authenticator for creds: OAuth first, then personal token.
func New(creds Credentials) (Authenticator, error) {
	if token := strings.TrimSpace(creds.OAuthToken); token != "" {
		return NewOAuthAuthenticator(token), nil
	}
	if token := strings.TrimSpace(creds.PersonalToken); token != "" {
		return NewPersonalTokenAuthenticator(token), nil
	}
	return nil, ErrMissingCredentials
}

// OAuthAuthenticator sends an OAuth access token with the Bearer scheme.
type OAuthAuthenticator struct {
	token string
}

// NewOAuthAuthenticator creates an OAuth authenticator.
func NewOAuthAuthenticator(token string) *OAuthAuthenticator {
	return &OAuthAuthenticator{token: token}
}

// Name implements Authenticator.
func (a *OAuthAuthenticator) Name() string { return MethodOAuth }

// AuthorizationHeader implements Authenticator.
func (a *OAuthAuthenticator) AuthorizationHeader(_ context.Context) (string, error) {
	return "Bearer " + a.token, nil
}

// Token returns the raw access token.
func (a *OAuthAuthenticator) Token() string { return a.token }

// PersonalTokenAuthenticator sends a personal token as-is.
type PersonalTokenAuthenticator struct {
	token string
}

// NewPersonalTokenAuthenticator creates a personal token authenticator.
func NewPersonalTokenAuthenticator(token string) *PersonalTokenAuthenticator {
	return &PersonalTokenAuthenticator{token: token}
}

// Name implements Authenticator.
func (a *PersonalTokenAuthenticator) Name() string { return MethodPersonalToken }

// AuthorizationHeader implements Authenticator.
func (a *PersonalTokenAuthenticator) AuthorizationHeader(_ context.Context) (string, error) {
	return a.token, nil
}

// Fingerprint returns a short stable digest of an Authorization header
// value. It identifies the caller in cache keys without storing the secret.
func Fingerprint(header string) string {
	sum := sha256.Sum256([]byte(header))
	return hex.EncodeToString(sum[:8])
}

var (
	_ Authenticator = (*OAuthAuthenticator)(nil)
	_ Authenticator = (*PersonalTokenAuthenticator)(nil)
)
