package platform

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenNoFollow(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	target := filepath.Join(dir, "target.txt")
	require.NoError(t, os.WriteFile(target, []byte("data"), 0o600))

	f, err := OpenNoFollow(target)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	link := filepath.Join(dir, "link.txt")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	_, err = OpenNoFollow(link)
	require.ErrorIs(t, err, ErrSymlink)
}

func TestOpenNoFollowMissing(t *testing.T) {
	t.Parallel()

	_, err := OpenNoFollow(filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
