package vault

import "log/slog"

// Option configures a Vault.
type Option func(*Vault)

// WithLogger sets the logger for open, save, and extraction events.
// Key material, sealed names, and metadata values are never logged.
func WithLogger(logger *slog.Logger) Option {
	return func(v *Vault) {
		v.logger = logger
	}
}

// WithMaxFileSize limits the plaintext size of a single entry, which is held
// in memory while it is added or extracted. Set limit to 0 to disable the limit.
func WithMaxFileSize(limit uint64) Option {
	return func(v *Vault) {
		v.maxFileSize = limit
	}
}

// WithMaxDecoderMemory limits the memory used by the zstd decoder for
// compressed vaults.
func WithMaxDecoderMemory(limit uint64) Option {
	return func(v *Vault) {
		v.maxDecoderMemory = limit
	}
}

// WithWorkers sets how many pending entries Save encrypts in parallel.
// Values < 0 force serial processing. Zero uses GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(v *Vault) {
		v.workers = n
	}
}

// WithProgress sets a callback for save and extraction progress.
// Callbacks are never invoked concurrently.
func WithProgress(fn ProgressFunc) Option {
	return func(v *Vault) {
		v.progress = fn
	}
}
