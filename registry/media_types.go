package registry

// Media types for vaults in OCI registries.
const (
	// ArtifactType identifies vaults as an OCI 1.1 artifact type.
	ArtifactType = "application/vnd.meigma.vault"

	// MediaTypeVault is the media type of the vault file layer.
	MediaTypeVault = "application/vnd.meigma.vault.v1"
)
