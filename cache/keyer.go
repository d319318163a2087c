package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
)

// Keyer derives cache keys for API requests.
//
// Contract:
// - Determinism: equal requests produce equal keys regardless of query
//   parameter order.
// - Concurrency: implementations must be safe for concurrent use.
type Keyer interface {
	// Key derives a key from the HTTP method, the absolute request URL and
	// an opaque credential fingerprint.
	Key(method, rawURL, credential string) (string, error)
}

// RequestKeyer hashes the canonical request into a fixed-size key.
type RequestKeyer struct {
	// Prefix namespaces the keys. Default: "clickup".
	Prefix string
}

// NewRequestKeyer creates a keyer with the given prefix.
func NewRequestKeyer(prefix string) *RequestKeyer {
	return &RequestKeyer{Prefix: prefix}
}

// Key returns <prefix>:<METHOD>:<hash>, where hash is the first 16 hex
// characters of SHA-256 over the method, canonical URL and credential.
func (k *RequestKeyer) Key(method, rawURL, credential string) (string, error) {
	canonical, err := canonicalURL(rawURL)
	if err != nil {
		return "", fmt.Errorf("cache: canonicalize url: %w", err)
	}

	prefix := k.Prefix
	if prefix == "" {
		prefix = "clickup"
	}
	method = strings.ToUpper(method)

	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte{'\n'})
	h.Write([]byte(canonical))
	h.Write([]byte{'\n'})
	h.Write([]byte(credential))
	sum := h.Sum(nil)

	key := fmt.Sprintf("%s:%s:%s", prefix, method, hex.EncodeToString(sum[:8]))
	return key, ValidateKey(key)
}

// canonicalURL lowercases scheme and host, drops the fragment and sorts
// the query.
func canonicalURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	if u.Host == "" {
		return "", fmt.Errorf("%q is not absolute", rawURL)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawQuery = u.Query().Encode()
	return u.String(), nil
}

var _ Keyer = (*RequestKeyer)(nil)
