//go:build integration

package integration

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/meigma/vault"
	"github.com/meigma/vault/internal/testutil"
	"github.com/meigma/vault/registry"
)

var (
	registryOnce sync.Once
	registryAddr string
	registryErr  error
)

// getRegistry returns the shared registry address, starting the container if needed.
func getRegistry(tb testing.TB) string {
	tb.Helper()

	if os.Getenv("SKIP_DOCKER_TESTS") == "1" {
		tb.Skip("SKIP_DOCKER_TESTS is set")
	}

	registryOnce.Do(func() {
		registryAddr, registryErr = startRegistryContainer(context.Background())
	})
	if registryErr != nil {
		tb.Fatalf("start registry container: %v", registryErr)
	}
	return registryAddr
}

// startRegistryContainer starts a registry:2 container and returns the host:port address.
func startRegistryContainer(ctx context.Context) (string, error) {
	req := testcontainers.ContainerRequest{
		Image:        "registry:2",
		ExposedPorts: []string{"5000/tcp"},
		WaitingFor:   wait.ForHTTP("/v2/").WithPort("5000/tcp").WithStatusCodeMatcher(isOKStatus),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return "", fmt.Errorf("start registry container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return "", fmt.Errorf("resolve registry host: %w", err)
	}
	port, err := container.MappedPort(ctx, "5000/tcp")
	if err != nil {
		return "", fmt.Errorf("resolve registry port: %w", err)
	}
	return fmt.Sprintf("%s:%s", host, port.Port()), nil
}

func isOKStatus(status int) bool {
	return status >= 200 && status < 300
}

// newTestClient creates a client configured for the local test registry.
func newTestClient(opts ...registry.Option) *registry.Client {
	return registry.New(append([]registry.Option{registry.WithPlainHTTP(true), registry.WithAnonymous()}, opts...)...)
}

// testRef generates a unique reference for a test to avoid collisions.
func testRef(addr, testName, tag string) string {
	return fmt.Sprintf("%s/test/%s:%s", addr, testName, tag)
}

// createVault writes a saved vault holding files and returns its path.
func createVault(tb testing.TB, files map[string][]byte, opts ...vault.Option) string {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "integration.vault")
	v, err := vault.Open(path, testutil.PublicKeys(tb), opts...)
	require.NoError(tb, err)
	defer v.Close()
	for name, data := range files {
		_, err := v.AddBytes(name, testutil.Mtime, data)
		require.NoError(tb, err)
	}
	require.NoError(tb, v.Save())
	return path
}

// assertVaultContents opens path with the private key and checks every entry.
func assertVaultContents(tb testing.TB, path string, expected map[string][]byte) {
	tb.Helper()

	v, err := vault.Open(path, testutil.Keys(tb))
	require.NoError(tb, err)
	defer v.Close()

	require.Len(tb, v.List(), len(expected))
	for name, want := range expected {
		e, ok := v.Lookup(name)
		require.True(tb, ok, "entry %q", name)
		got, err := v.ReadEntry(e)
		require.NoError(tb, err, "read %q", name)
		require.Equal(tb, want, got, "content mismatch for %q", name)
	}
}

var smallVault = map[string][]byte{
	"hello.txt":   []byte("Hello, World!"),
	"readme.md":   []byte("# Test Vault\n\nThis is a test."),
	"config.json": []byte(`{"version": 1, "name": "test"}`),
}
