// Package registry pushes and pulls vault files to and from OCI registries.
//
// A vault is stored as a single-layer OCI artifact: an empty JSON config, the
// vault file as one layer, and an image manifest carrying ArtifactType. The
// vault is already encrypted, so the registry only ever sees ciphertext.
package registry
