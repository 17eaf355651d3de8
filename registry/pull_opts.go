package registry

const (
	defaultMaxManifestSize int64 = 4 << 20
	defaultMaxVaultSize    int64 = 4 << 30
)

// PullOption configures a Pull operation.
type PullOption func(*pullConfig)

type pullConfig struct {
	maxManifestSize int64
	maxVaultSize    int64
}

// WithMaxVaultSize limits the size of the vault layer a pull will download.
// Values <= 0 disable the limit.
func WithMaxVaultSize(n int64) PullOption {
	return func(cfg *pullConfig) {
		cfg.maxVaultSize = n
	}
}

// WithMaxManifestSize limits the size of the manifest a pull will read.
// Values <= 0 fall back to the default.
func WithMaxManifestSize(n int64) PullOption {
	return func(cfg *pullConfig) {
		if n > 0 {
			cfg.maxManifestSize = n
		}
	}
}
