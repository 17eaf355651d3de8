package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/opencontainers/go-digest"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"oras.land/oras-go/v2"

	"github.com/meigma/vault/internal/section"
	"github.com/meigma/vault/internal/vaulttype"
)

// Push uploads the vault file at path to an OCI registry.
//
// The vault is pushed as a single layer with an empty config and a manifest
// tagged with the ref's tag. The ref must include a tag
// (e.g., "registry.com/repo:v1.0.0"). Blobs the registry already holds are
// not uploaded again.
//
// Use WithTags to apply additional tags to the same manifest.
func (c *Client) Push(ctx context.Context, ref, path string, opts ...PushOption) (ocispec.Descriptor, error) {
	cfg := pushConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	parsed, err := parseRef(ref)
	if err != nil {
		return ocispec.Descriptor{}, err
	}
	tag := parsed.Reference
	if isDigest(tag) {
		return ocispec.Descriptor{}, fmt.Errorf("%w: reference must include a tag", ErrInvalidReference)
	}

	target, err := c.target(parsed)
	if err != nil {
		return ocispec.Descriptor{}, err
	}

	f, err := os.Open(path)
	if err != nil {
		return ocispec.Descriptor{}, err
	}
	defer f.Close()

	c.log().Info("pushing vault", "ref", ref, "path", path)

	layerDesc, err := describeVault(f)
	if err != nil {
		return ocispec.Descriptor{}, err
	}
	layerDesc.Annotations = map[string]string{
		ocispec.AnnotationTitle: filepath.Base(path),
	}

	configDesc, err := pushIfMissing(ctx, target, ocispec.DescriptorEmptyJSON, bytes.NewReader(ocispec.DescriptorEmptyJSON.Data))
	if err != nil {
		return ocispec.Descriptor{}, fmt.Errorf("push config: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return ocispec.Descriptor{}, err
	}
	if _, err := pushIfMissing(ctx, target, layerDesc, f); err != nil {
		return ocispec.Descriptor{}, fmt.Errorf("push vault layer: %w", err)
	}
	c.log().Debug("pushed vault layer", "digest", layerDesc.Digest.String(), "size", layerDesc.Size)

	manifest := buildManifest(configDesc, layerDesc, cfg.annotations, time.Now())
	manifestBytes, err := json.Marshal(manifest)
	if err != nil {
		return ocispec.Descriptor{}, fmt.Errorf("encode manifest: %w", err)
	}
	manifestDesc, err := oras.TagBytes(ctx, target, ocispec.MediaTypeImageManifest, manifestBytes, tag)
	if err != nil {
		return ocispec.Descriptor{}, fmt.Errorf("push manifest: %w", mapError(err))
	}

	for _, additional := range cfg.tags {
		if err := target.Tag(ctx, manifestDesc, additional); err != nil {
			return ocispec.Descriptor{}, fmt.Errorf("tag %q: %w", additional, mapError(err))
		}
	}

	c.log().Info("pushed vault", "ref", ref, "digest", manifestDesc.Digest.String())
	return manifestDesc, nil
}

// describeVault checks the vault signature and computes the layer descriptor.
func describeVault(f *os.File) (ocispec.Descriptor, error) {
	var magic [len(section.Magic)]byte
	if _, err := io.ReadFull(f, magic[:]); err != nil || magic != section.Magic {
		return ocispec.Descriptor{}, fmt.Errorf("%s: %w", f.Name(), vaulttype.ErrSignatureMismatch)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return ocispec.Descriptor{}, err
	}
	digester := digest.SHA256.Digester()
	n, err := io.Copy(digester.Hash(), f)
	if err != nil {
		return ocispec.Descriptor{}, fmt.Errorf("hash %s: %w", f.Name(), err)
	}
	return ocispec.Descriptor{
		MediaType: MediaTypeVault,
		Digest:    digester.Digest(),
		Size:      n,
	}, nil
}

// pushIfMissing pushes content unless the target already has it.
func pushIfMissing(ctx context.Context, target oras.Target, desc ocispec.Descriptor, r io.Reader) (ocispec.Descriptor, error) {
	exists, err := target.Exists(ctx, desc)
	if err != nil {
		return ocispec.Descriptor{}, mapError(err)
	}
	if exists {
		return desc, nil
	}
	if err := target.Push(ctx, desc, r); err != nil {
		return ocispec.Descriptor{}, mapError(err)
	}
	return desc, nil
}
