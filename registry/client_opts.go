package registry

import (
	"log/slog"

	"oras.land/oras-go/v2"
	orasregistry "oras.land/oras-go/v2/registry"
	"oras.land/oras-go/v2/registry/remote/credentials"
)

// Option configures a Client.
type Option func(*Client)

// WithPlainHTTP enables plain HTTP (no TLS) for registries.
// This is useful for local development registries.
func WithPlainHTTP(enabled bool) Option {
	return func(c *Client) {
		c.plainHTTP = enabled
	}
}

// WithCredentialStore sets the credential store for authentication.
func WithCredentialStore(store credentials.Store) Option {
	return func(c *Client) {
		c.creds = store
	}
}

// WithStaticCredentials sets username/password credentials for one registry.
func WithStaticCredentials(registry, username, password string) Option {
	return func(c *Client) {
		c.creds = staticCredentials(registry, username, password)
	}
}

// WithStaticToken sets a bearer token for one registry.
func WithStaticToken(registry, token string) Option {
	return func(c *Client) {
		c.creds = staticToken(registry, token)
	}
}

// WithDockerConfig reads credentials from the docker config file.
// If the docker config cannot be loaded the client uses no credentials.
func WithDockerConfig() Option {
	return func(c *Client) {
		store, err := dockerCredentials()
		if err != nil {
			return
		}
		c.creds = store
	}
}

// WithAnonymous disables all authentication, including credential lookups.
func WithAnonymous() Option {
	return func(c *Client) {
		c.anonymous = true
	}
}

// WithUserAgent sets the User-Agent header for requests.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithLogger sets the logger for push and pull events.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithTarget resolves every reference against target instead of a remote
// registry. Only the tag or digest of a reference is used. This serves OCI
// image layouts on disk and in-memory stores.
func WithTarget(target oras.Target) Option {
	return func(c *Client) {
		c.target = func(orasregistry.Reference) (oras.Target, error) {
			return target, nil
		}
	}
}
