package secret

import (
	"context"
	"fmt"
	"strings"
)

// Resolver resolves configuration values that may hold references.
type Resolver struct {
	providers map[string]Provider
	strict    bool
}

// NewResolver creates a resolver with the env and file providers plus any
// extra providers, which are reachable through secretref:<name>:<ref>.
// A strict resolver rejects references that resolve to "".
func NewResolver(strict bool, providers ...Provider) *Resolver {
	r := &Resolver{
		providers: map[string]Provider{
			"env":  EnvProvider{},
			"file": FileProvider{},
		},
		strict: strict,
	}
	for _, p := range providers {
		r.Register(p)
	}
	return r
}

// Register adds or replaces a provider.
func (r *Resolver) Register(provider Provider) {
	if provider == nil {
		return
	}
	r.providers[provider.Name()] = provider
}

// ResolveValue expands value and follows a reference if it is one.
// A nil Resolver only expands.
func (r *Resolver) ResolveValue(ctx context.Context, value string) (string, error) {
	expanded, err := ExpandEnvStrict(value)
	if err != nil {
		return "", err
	}
	if r == nil {
		return expanded, nil
	}

	if provider, ref, ok := ParseSecretRef(expanded); ok {
		return r.resolve(ctx, provider, ref)
	}
	for _, scheme := range []string{"env", "file"} {
		if ref, ok := strings.CutPrefix(expanded, scheme+":"); ok && ref != "" {
			return r.resolve(ctx, scheme, ref)
		}
	}
	return expanded, nil
}

// ResolveAll resolves each pointed-to value in place and stops at the
// first failure.
func (r *Resolver) ResolveAll(ctx context.Context, values ...*string) error {
	for _, v := range values {
		if v == nil || *v == "" {
			continue
		}
		out, err := r.ResolveValue(ctx, *v)
		if err != nil {
			return err
		}
		*v = out
	}
	return nil
}

// ParseSecretRef parses a full secret reference of the form:
//
//	secretref:<provider>:<ref>
func ParseSecretRef(value string) (provider string, ref string, ok bool) {
	rest, found := strings.CutPrefix(value, "secretref:")
	if !found {
		return "", "", false
	}
	provider, ref, found = strings.Cut(rest, ":")
	if !found || provider == "" || ref == "" {
		return "", "", false
	}
	return provider, ref, true
}

func (r *Resolver) resolve(ctx context.Context, name, ref string) (string, error) {
	provider, ok := r.providers[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
	out, err := provider.Resolve(ctx, ref)
	if err != nil {
		return "", err
	}
	if r.strict && out == "" {
		return "", fmt.Errorf("%w: %s:%s", ErrEmptySecret, name, ref)
	}
	return out, nil
}
