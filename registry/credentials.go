package registry

import (
	"context"
	"strings"

	"oras.land/oras-go/v2/registry/remote/auth"
	"oras.land/oras-go/v2/registry/remote/credentials"
)

// credentialSource looks up the credential for a registry host.
// credentials.Store satisfies it.
type credentialSource interface {
	Get(ctx context.Context, serverAddress string) (auth.Credential, error)
}

// credentialFunc adapts a function to credentialSource.
type credentialFunc func(ctx context.Context, serverAddress string) (auth.Credential, error)

func (f credentialFunc) Get(ctx context.Context, serverAddress string) (auth.Credential, error) {
	return f(ctx, serverAddress)
}

func staticCredentials(registry, username, password string) credentialSource {
	return static(registry, auth.Credential{Username: username, Password: password})
}

func staticToken(registry, token string) credentialSource {
	return static(registry, auth.Credential{AccessToken: token})
}

// static returns cred for registry and the empty credential for every other host.
func static(registry string, cred auth.Credential) credentialSource {
	registry = normalizeServerAddress(registry)
	return credentialFunc(func(_ context.Context, serverAddress string) (auth.Credential, error) {
		server := normalizeServerAddress(serverAddress)
		if server == registry || (isDockerHubHost(server) && isDockerHubHost(registry)) {
			return cred, nil
		}
		return auth.EmptyCredential, nil
	})
}

// dockerCredentials loads the docker config store and retries Docker Hub
// lookups under the legacy index addresses docker login writes.
func dockerCredentials() (credentialSource, error) {
	store, err := credentials.NewStoreFromDocker(credentials.StoreOptions{})
	if err != nil {
		return nil, err
	}
	return credentialFunc(func(ctx context.Context, serverAddress string) (auth.Credential, error) {
		cred, err := store.Get(ctx, serverAddress)
		if err == nil && cred != auth.EmptyCredential {
			return cred, nil
		}
		if isDockerHubHost(normalizeServerAddress(serverAddress)) {
			for _, alt := range []string{"https://index.docker.io/v1/", "index.docker.io", "registry-1.docker.io", "docker.io"} {
				if alt == serverAddress {
					continue
				}
				if c, altErr := store.Get(ctx, alt); altErr == nil && c != auth.EmptyCredential {
					return c, nil
				}
			}
		}
		return cred, err
	}), nil
}

// isDockerHubHost reports whether hostport names Docker Hub.
func isDockerHubHost(hostport string) bool {
	switch extractHost(hostport) {
	case "docker.io", "registry-1.docker.io", "index.docker.io":
		return true
	default:
		return false
	}
}

// extractHost returns the hostname from a host[:port] string.
func extractHost(hostport string) string {
	if strings.HasPrefix(hostport, "[") {
		if idx := strings.LastIndex(hostport, "]"); idx != -1 {
			return hostport[:idx+1]
		}
		return hostport
	}
	if idx := strings.LastIndex(hostport, ":"); idx != -1 {
		return hostport[:idx]
	}
	return hostport
}

// normalizeServerAddress strips the scheme and path from a server address.
func normalizeServerAddress(addr string) string {
	addr = strings.TrimPrefix(addr, "http://")
	addr = strings.TrimPrefix(addr, "https://")
	addr, _, _ = strings.Cut(addr, "/")
	return addr
}
