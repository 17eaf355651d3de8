// Package testutil holds shared fixtures for vault tests.
package testutil

import (
	"crypto/rand"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/meigma/vault/keys"
)

var (
	keyOnce sync.Once
	keyPair *keys.RSA
	keyErr  error
)

// Keys returns a process-wide RSA-4096 keypair with full capability.
// Generating 4096-bit keys is slow, so every test in a package shares one.
func Keys(tb testing.TB) *keys.RSA {
	tb.Helper()
	keyOnce.Do(func() {
		keyPair, keyErr = keys.Generate()
	})
	if keyErr != nil {
		tb.Fatalf("generate keys: %v", keyErr)
	}
	return keyPair
}

// PublicKeys returns the write-only view of Keys.
func PublicKeys(tb testing.TB) *keys.RSA {
	tb.Helper()
	return Keys(tb).PublicOnly()
}

// Mtime is a fixed modification time with second precision.
var Mtime = time.Date(2024, time.March, 14, 15, 9, 26, 0, time.UTC)

// WriteFile writes data to dir/name with Mtime as its modification time and
// returns the full path.
func WriteFile(tb testing.TB, dir, name string, data []byte) string {
	tb.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		tb.Fatalf("write %s: %v", path, err)
	}
	if err := os.Chtimes(path, Mtime, Mtime); err != nil {
		tb.Fatalf("chtimes %s: %v", path, err)
	}
	return path
}

// RandomBytes returns n bytes of random data.
func RandomBytes(tb testing.TB, n int) []byte {
	tb.Helper()
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		tb.Fatalf("random: %v", err)
	}
	return b
}

// VaultPath returns a path for a vault file that does not exist yet.
func VaultPath(tb testing.TB) string {
	tb.Helper()
	return filepath.Join(tb.TempDir(), "test.vault")
}
