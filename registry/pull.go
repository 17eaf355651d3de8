package registry

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"oras.land/oras-go/v2"
	"oras.land/oras-go/v2/content"

	"github.com/meigma/vault/internal/section"
	"github.com/meigma/vault/internal/vaulttype"
)

// Fetch resolves ref and returns its vault manifest without downloading the vault.
func (c *Client) Fetch(ctx context.Context, ref string) (*Manifest, error) {
	parsed, err := parseRef(ref)
	if err != nil {
		return nil, err
	}
	target, err := c.target(parsed)
	if err != nil {
		return nil, err
	}
	return c.fetchManifest(ctx, target, parsed.Reference, defaultMaxManifestSize)
}

// Pull downloads the vault at ref and writes it to path.
//
// The layer is verified against its digest and the vault signature before it
// replaces path, so a failed pull never leaves a partial file behind.
func (c *Client) Pull(ctx context.Context, ref, path string, opts ...PullOption) (*Manifest, error) {
	cfg := pullConfig{
		maxManifestSize: defaultMaxManifestSize,
		maxVaultSize:    defaultMaxVaultSize,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	parsed, err := parseRef(ref)
	if err != nil {
		return nil, err
	}
	target, err := c.target(parsed)
	if err != nil {
		return nil, err
	}

	c.log().Info("pulling vault", "ref", ref, "path", path)

	manifest, err := c.fetchManifest(ctx, target, parsed.Reference, cfg.maxManifestSize)
	if err != nil {
		return nil, err
	}
	layer := manifest.Layer()
	if cfg.maxVaultSize > 0 && layer.Size > cfg.maxVaultSize {
		return nil, fmt.Errorf("%w: vault layer %d > %d", ErrTooLarge, layer.Size, cfg.maxVaultSize)
	}

	if err := c.download(ctx, target, layer, path); err != nil {
		return nil, err
	}
	c.log().Info("pulled vault", "ref", ref, "digest", layer.Digest.String(), "size", layer.Size)
	return manifest, nil
}

// fetchManifest resolves reference on target and parses the vault manifest.
func (c *Client) fetchManifest(ctx context.Context, target oras.Target, reference string, maxSize int64) (*Manifest, error) {
	desc, err := target.Resolve(ctx, reference)
	if err != nil {
		return nil, fmt.Errorf("resolve %q: %w", reference, mapError(err))
	}
	if desc.MediaType != ocispec.MediaTypeImageManifest {
		return nil, fmt.Errorf("%w: unexpected media type %q", ErrInvalidManifest, desc.MediaType)
	}
	if desc.Size > maxSize {
		return nil, fmt.Errorf("%w: manifest %d > %d", ErrTooLarge, desc.Size, maxSize)
	}
	data, err := content.FetchAll(ctx, target, desc)
	if err != nil {
		return nil, fmt.Errorf("fetch manifest: %w", mapError(err))
	}
	c.log().Debug("fetched manifest", "digest", desc.Digest.String(), "size", len(data))
	return parseManifest(data, desc.Digest)
}

// download streams layer into a temporary file next to path, verifies it,
// then renames it into place.
func (c *Client) download(ctx context.Context, target oras.Target, layer ocispec.Descriptor, path string) (err error) {
	rc, err := target.Fetch(ctx, layer)
	if err != nil {
		return fmt.Errorf("fetch vault layer: %w", mapError(err))
	}
	defer rc.Close()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".vault-pull-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	verifier := layer.Digest.Verifier()
	n, err := io.Copy(io.MultiWriter(tmp, verifier), io.LimitReader(rc, layer.Size+1))
	if err != nil {
		return fmt.Errorf("download vault layer: %w", err)
	}
	if n != layer.Size {
		return fmt.Errorf("%w: expected %d bytes, got %d", ErrDigestMismatch, layer.Size, n)
	}
	if !verifier.Verified() {
		c.log().Warn("vault digest verification failed", "expected", layer.Digest.String())
		return fmt.Errorf("%w: expected %s", ErrDigestMismatch, layer.Digest)
	}
	if err := checkMagic(tmp); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// checkMagic verifies the downloaded file starts with the vault signature.
func checkMagic(f *os.File) error {
	var magic [len(section.Magic)]byte
	if _, err := f.ReadAt(magic[:], 0); err != nil || magic != section.Magic {
		return fmt.Errorf("pulled layer: %w", vaulttype.ErrSignatureMismatch)
	}
	return nil
}
