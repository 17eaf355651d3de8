package main

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/vault"
	"github.com/meigma/vault/internal/testutil"
	"github.com/meigma/vault/keys"
	"github.com/meigma/vault/registry"
)

// setup isolates the command from the user's config and environment and
// writes the shared test keys as PEM files.
func setup(t *testing.T) (privPath, pubPath string) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("VAULT_KEY", "")
	t.Setenv("VAULT_LOG_LEVEL", "")

	dir := t.TempDir()
	k := testutil.Keys(t)
	priv, err := k.MarshalPrivatePEM()
	require.NoError(t, err)
	pub, err := k.MarshalPublicPEM()
	require.NoError(t, err)
	privPath = filepath.Join(dir, "vault.pem")
	pubPath = filepath.Join(dir, "vault.pem.pub")
	require.NoError(t, os.WriteFile(privPath, priv, 0o600))
	require.NoError(t, os.WriteFile(pubPath, pub, 0o600))
	return privPath, pubPath
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestAddListExtract(t *testing.T) {
	priv, _ := setup(t)
	src := t.TempDir()
	a := testutil.WriteFile(t, src, "a.txt", []byte("alpha"))
	b := testutil.WriteFile(t, src, "b.txt", []byte("bravo"))
	vaultPath := filepath.Join(t.TempDir(), "x.vault")

	out, err := run(t, "--key", priv, "add", vaultPath, a, b)
	require.NoError(t, err)
	assert.Contains(t, out, "added a.txt (slot 0)")
	assert.Contains(t, out, "added b.txt (slot 1)")

	out, err = run(t, "--key", priv, "list", "--digest", vaultPath)
	require.NoError(t, err)
	assert.Contains(t, out, "a.txt")
	assert.Contains(t, out, "b.txt")
	assert.Contains(t, out, "sha256:")

	dst := t.TempDir()
	_, err = run(t, "--key", priv, "extract", vaultPath, "--out", dst)
	require.NoError(t, err)
	got, err := os.ReadFile(filepath.Join(dst, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "alpha", string(got))

	one := t.TempDir()
	_, err = run(t, "--key", priv, "extract", vaultPath, "b.txt", "-o", one)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(one, "b.txt"))
	assert.NoFileExists(t, filepath.Join(one, "a.txt"))

	_, err = run(t, "--key", priv, "extract", vaultPath, "missing.txt", "-o", one)
	require.ErrorIs(t, err, vault.ErrNoEntry)
}

func TestWriteOnlyKey(t *testing.T) {
	priv, pub := setup(t)
	src := testutil.WriteFile(t, t.TempDir(), "secret.txt", []byte("s3cr3t"))
	vaultPath := filepath.Join(t.TempDir(), "x.vault")

	t.Setenv("VAULT_KEY", pub)
	_, err := run(t, "add", vaultPath, src)
	require.NoError(t, err)

	out, err := run(t, "list", vaultPath)
	require.NoError(t, err)
	assert.Contains(t, out, vault.Sealed)
	assert.NotContains(t, out, "secret.txt")

	_, err = run(t, "extract", vaultPath, "-o", t.TempDir())
	require.ErrorIs(t, err, vault.ErrNoPrivateKey)

	out, err = run(t, "--key", priv, "list", vaultPath)
	require.NoError(t, err)
	assert.Contains(t, out, "secret.txt")
}

func TestMeta(t *testing.T) {
	priv, pub := setup(t)
	vaultPath := filepath.Join(t.TempDir(), "x.vault")

	_, err := run(t, "--key", priv, "meta", "set", vaultPath, "owner", "platform")
	require.NoError(t, err)
	_, err = run(t, "--key", priv, "meta", "set", vaultPath, "ticket", "SEC-42", "--encrypt")
	require.NoError(t, err)

	out, err := run(t, "--key", priv, "meta", "list", vaultPath)
	require.NoError(t, err)
	assert.Contains(t, out, "owner")
	assert.Contains(t, out, "SEC-42")

	out, err = run(t, "--key", pub, "meta", "list", vaultPath)
	require.NoError(t, err)
	assert.Contains(t, out, "platform")
	assert.NotContains(t, out, "SEC-42")
	assert.Contains(t, out, vault.Sealed)

	_, err = run(t, "--key", pub, "meta", "set", vaultPath, "k", "v")
	require.ErrorIs(t, err, vault.ErrNoPrivateKey)
}

func TestFlags(t *testing.T) {
	priv, _ := setup(t)
	vaultPath := filepath.Join(t.TempDir(), "x.vault")

	out, err := run(t, "--key", priv, "flags", vaultPath, "--compress")
	require.NoError(t, err)
	assert.Contains(t, out, "compressed: true")

	src := testutil.WriteFile(t, t.TempDir(), "big.txt", bytes.Repeat([]byte("squash "), 10_000))
	_, err = run(t, "--key", priv, "add", vaultPath, src)
	require.NoError(t, err)

	_, err = run(t, "--key", priv, "flags", vaultPath, "--compress=false")
	require.ErrorIs(t, err, vault.ErrFlagsLocked)

	out, err = run(t, "flags", vaultPath)
	require.NoError(t, err)
	assert.Contains(t, out, "version: 1")
	assert.Contains(t, out, "compressed: true")
}

func TestConfigFile(t *testing.T) {
	priv, _ := setup(t)
	src := testutil.WriteFile(t, t.TempDir(), "c.txt", []byte("charlie"))
	vaultPath := filepath.Join(t.TempDir(), "x.vault")

	cfg := filepath.Join(t.TempDir(), "vault.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("key: "+priv+"\nlog-level: debug\n"), 0o600))

	_, err := run(t, "--config", cfg, "add", vaultPath, src)
	require.NoError(t, err)
	out, err := run(t, "--config", cfg, "list", vaultPath)
	require.NoError(t, err)
	assert.Contains(t, out, "c.txt")

	_, err = run(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "list", vaultPath)
	require.Error(t, err)
}

func TestInvalidLogLevel(t *testing.T) {
	setup(t)
	_, err := run(t, "--log-level", "loud", "list", filepath.Join(t.TempDir(), "x.vault"))
	require.Error(t, err)
}

func TestPushInvalidReference(t *testing.T) {
	setup(t)
	_, err := run(t, "push", filepath.Join(t.TempDir(), "x.vault"), "not a reference")
	require.ErrorIs(t, err, registry.ErrInvalidReference)
}

func TestKeygen(t *testing.T) {
	if testing.Short() {
		t.Skip("RSA-4096 generation is slow")
	}
	setup(t)
	out := filepath.Join(t.TempDir(), "new.pem")

	_, err := run(t, "keygen", "--out", out)
	require.NoError(t, err)

	k, err := keys.LoadFile(out)
	require.NoError(t, err)
	assert.True(t, k.HasPrivate())
	pub, err := keys.LoadFile(out + ".pub")
	require.NoError(t, err)
	assert.True(t, pub.HasPublic())
	assert.False(t, pub.HasPrivate())

	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	_, err = run(t, "keygen", "--out", out)
	require.ErrorIs(t, err, os.ErrExist)
}

func TestReadOnlyCommandsRequireVault(t *testing.T) {
	priv, _ := setup(t)

	tests := []struct {
		name string
		args func(path string) []string
	}{
		{name: "list", args: func(p string) []string { return []string{"list", p} }},
		{name: "meta list", args: func(p string) []string { return []string{"meta", "list", p} }},
		{name: "extract", args: func(p string) []string { return []string{"extract", p, "-o", t.TempDir()} }},
		{name: "flags", args: func(p string) []string { return []string{"flags", p} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "missing.vault")
			_, err := run(t, append([]string{"--key", priv}, tt.args(path)...)...)
			require.ErrorIs(t, err, fs.ErrNotExist)
			assert.NoFileExists(t, path)
		})
	}
}
