package registry

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/opencontainers/go-digest"
	specs "github.com/opencontainers/image-spec/specs-go"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
)

// Manifest wraps an OCI manifest for a vault artifact.
type Manifest struct {
	raw     ocispec.Manifest
	digest  digest.Digest
	layer   ocispec.Descriptor
	created time.Time
}

// Digest returns the manifest digest.
func (m *Manifest) Digest() digest.Digest {
	return m.digest
}

// Layer returns the descriptor of the vault file layer.
func (m *Manifest) Layer() ocispec.Descriptor {
	return m.layer
}

// Title returns the file name recorded when the vault was pushed.
func (m *Manifest) Title() string {
	return m.layer.Annotations[ocispec.AnnotationTitle]
}

// Annotations returns the manifest annotations.
func (m *Manifest) Annotations() map[string]string {
	return m.raw.Annotations
}

// Created returns the creation timestamp from annotations.
//
// Returns zero time if the annotation is not present or cannot be parsed.
func (m *Manifest) Created() time.Time {
	return m.created
}

// Raw returns the underlying OCI manifest.
func (m *Manifest) Raw() ocispec.Manifest {
	return m.raw
}

// parseManifest decodes and validates a vault manifest.
func parseManifest(data []byte, dgst digest.Digest) (*Manifest, error) {
	var manifest ocispec.Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}
	if manifest.MediaType != ocispec.MediaTypeImageManifest {
		return nil, fmt.Errorf("%w: unexpected manifest media type %q", ErrInvalidManifest, manifest.MediaType)
	}
	if manifest.ArtifactType != ArtifactType {
		return nil, fmt.Errorf("%w: unexpected artifact type %q", ErrInvalidManifest, manifest.ArtifactType)
	}
	if len(manifest.Layers) != 1 {
		return nil, fmt.Errorf("%w: expected 1 layer, got %d", ErrInvalidManifest, len(manifest.Layers))
	}
	layer := manifest.Layers[0]
	if layer.MediaType != MediaTypeVault {
		return nil, fmt.Errorf("%w: unexpected layer media type %q", ErrInvalidManifest, layer.MediaType)
	}
	if err := layer.Digest.Validate(); err != nil {
		return nil, fmt.Errorf("%w: invalid layer digest %q: %v", ErrInvalidManifest, layer.Digest, err)
	}
	if layer.Size < 0 {
		return nil, fmt.Errorf("%w: negative layer size", ErrInvalidManifest)
	}

	var created time.Time
	if ts, ok := manifest.Annotations[ocispec.AnnotationCreated]; ok {
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			created = t
		}
	}

	return &Manifest{
		raw:     manifest,
		digest:  dgst,
		layer:   layer,
		created: created,
	}, nil
}

// buildManifest creates the OCI manifest for a vault layer.
func buildManifest(config, layer ocispec.Descriptor, annotations map[string]string, now time.Time) ocispec.Manifest {
	merged := map[string]string{
		ocispec.AnnotationCreated: now.UTC().Format(time.RFC3339),
	}
	for k, v := range annotations {
		merged[k] = v
	}
	return ocispec.Manifest{
		Versioned:    specs.Versioned{SchemaVersion: 2},
		MediaType:    ocispec.MediaTypeImageManifest,
		ArtifactType: ArtifactType,
		Config:       config,
		Layers:       []ocispec.Descriptor{layer},
		Annotations:  merged,
	}
}
