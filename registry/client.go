package registry

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"oras.land/oras-go/v2"
	orasregistry "oras.land/oras-go/v2/registry"
	"oras.land/oras-go/v2/registry/remote"
	"oras.land/oras-go/v2/registry/remote/auth"
	"oras.land/oras-go/v2/registry/remote/retry"
)

// Client pushes and pulls vaults.
type Client struct {
	plainHTTP bool
	userAgent string
	anonymous bool
	creds     credentialSource
	logger    *slog.Logger

	authClient *auth.Client

	// target opens the repository of a parsed reference.
	target func(ref orasregistry.Reference) (oras.Target, error)
}

// log returns the logger, falling back to a discard logger if nil.
func (c *Client) log() *slog.Logger {
	if c.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.logger
}

// New creates a registry client with the given options.
func New(opts ...Option) *Client {
	c := &Client{
		userAgent: "vault/1.0",
	}
	for _, opt := range opts {
		opt(c)
	}

	// Shared auth client so tokens are reused across requests.
	c.authClient = &auth.Client{
		Client: retry.DefaultClient,
		Cache:  auth.NewCache(),
		Credential: func(ctx context.Context, hostport string) (auth.Credential, error) {
			if c.anonymous || c.creds == nil {
				return auth.EmptyCredential, nil
			}
			return c.creds.Get(ctx, hostport)
		},
		Header: http.Header{
			"User-Agent": []string{c.userAgent},
		},
	}
	if c.target == nil {
		c.target = c.remoteTarget
	}
	return c
}

// remoteTarget returns a Repository for the reference's repository.
func (c *Client) remoteTarget(ref orasregistry.Reference) (oras.Target, error) {
	repo, err := remote.NewRepository(ref.Registry + "/" + ref.Repository)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidReference, err)
	}
	repo.PlainHTTP = c.plainHTTP
	repo.Client = c.authClient
	return repo, nil
}

// parseRef parses a full reference into registry, repository, and tag or digest.
func parseRef(ref string) (orasregistry.Reference, error) {
	r, err := orasregistry.ParseReference(ref)
	if err != nil {
		return orasregistry.Reference{}, fmt.Errorf("%w: %v", ErrInvalidReference, err)
	}
	if r.Reference == "" {
		return orasregistry.Reference{}, fmt.Errorf("%w: %q has no tag or digest", ErrInvalidReference, ref)
	}
	return r, nil
}

func isDigest(reference string) bool {
	return strings.Contains(reference, ":")
}
