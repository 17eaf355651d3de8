//go:build integration

package integration

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/vault"
	"github.com/meigma/vault/internal/testutil"
	"github.com/meigma/vault/registry"
)

func TestPushPullRoundTrip(t *testing.T) {
	t.Parallel()

	addr := getRegistry(t)
	ctx := context.Background()
	client := newTestClient()
	ref := testRef(addr, "roundtrip", "v1")

	src := createVault(t, smallVault)
	desc, err := client.Push(ctx, ref, src, registry.WithTags("latest"))
	require.NoError(t, err)

	dst := filepath.Join(t.TempDir(), "pulled.vault")
	manifest, err := client.Pull(ctx, testRef(addr, "roundtrip", "latest"), dst)
	require.NoError(t, err)
	assert.Equal(t, desc.Digest, manifest.Digest())

	assertVaultContents(t, dst, smallVault)
}

func TestPushAppendPush(t *testing.T) {
	t.Parallel()

	addr := getRegistry(t)
	ctx := context.Background()
	client := newTestClient()

	src := createVault(t, smallVault)
	_, err := client.Push(ctx, testRef(addr, "append", "v1"), src)
	require.NoError(t, err)

	v, err := vault.Open(src, testutil.PublicKeys(t))
	require.NoError(t, err)
	_, err = v.AddBytes("later.txt", testutil.Mtime, []byte("appended after first push"))
	require.NoError(t, err)
	require.NoError(t, v.Save())
	require.NoError(t, v.Close())

	_, err = client.Push(ctx, testRef(addr, "append", "v2"), src)
	require.NoError(t, err)

	v1 := filepath.Join(t.TempDir(), "v1.vault")
	_, err = client.Pull(ctx, testRef(addr, "append", "v1"), v1)
	require.NoError(t, err)
	assertVaultContents(t, v1, smallVault)

	v2 := filepath.Join(t.TempDir(), "v2.vault")
	_, err = client.Pull(ctx, testRef(addr, "append", "v2"), v2)
	require.NoError(t, err)
	want := map[string][]byte{"later.txt": []byte("appended after first push")}
	for k, val := range smallVault {
		want[k] = val
	}
	assertVaultContents(t, v2, want)
}

func TestPullMissingTag(t *testing.T) {
	t.Parallel()

	addr := getRegistry(t)
	dst := filepath.Join(t.TempDir(), "missing.vault")
	_, err := newTestClient().Pull(context.Background(), testRef(addr, "missing", "nope"), dst)
	require.ErrorIs(t, err, registry.ErrNotFound)

	_, statErr := os.Stat(dst)
	assert.True(t, os.IsNotExist(statErr))
}

func TestFetchManifest(t *testing.T) {
	t.Parallel()

	addr := getRegistry(t)
	ctx := context.Background()
	client := newTestClient()
	ref := testRef(addr, "fetch", "v1")

	_, err := client.Push(ctx, ref, createVault(t, smallVault, vault.WithMaxFileSize(1<<20)))
	require.NoError(t, err)

	manifest, err := client.Fetch(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, registry.MediaTypeVault, manifest.Layer().MediaType)
	assert.Equal(t, "integration.vault", manifest.Title())
}
