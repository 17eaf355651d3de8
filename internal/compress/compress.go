// Package compress wraps zstd for whole-payload compression of vault entries.
package compress

import (
	"errors"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/meigma/vault/internal/vaulttype"
)

var errClosed = errors.New("vault: codec closed")

// DefaultMaxDecoderMemory bounds the decoded size of a single payload.
const DefaultMaxDecoderMemory = 256 << 20

// Codec compresses and decompresses complete payloads.
// Compress and Decompress are safe for concurrent use until Close.
type Codec struct {
	maxDecoderMemory uint64

	once   sync.Once
	enc    *zstd.Encoder
	dec    *zstd.Decoder
	setErr error
}

// New returns a Codec. If maxDecoderMemory is 0, DefaultMaxDecoderMemory
// is used.
func New(maxDecoderMemory uint64) *Codec {
	if maxDecoderMemory == 0 {
		maxDecoderMemory = DefaultMaxDecoderMemory
	}
	return &Codec{maxDecoderMemory: maxDecoderMemory}
}

func (c *Codec) init() error {
	c.once.Do(func() {
		enc, err := zstd.NewWriter(nil,
			zstd.WithEncoderConcurrency(1),
			zstd.WithLowerEncoderMem(true),
		)
		if err != nil {
			c.setErr = fmt.Errorf("create zstd encoder: %w", err)
			return
		}
		dec, err := zstd.NewReader(nil,
			zstd.WithDecoderConcurrency(1),
			zstd.WithDecoderMaxMemory(c.maxDecoderMemory),
		)
		if err != nil {
			enc.Close()
			c.setErr = fmt.Errorf("create zstd decoder: %w", err)
			return
		}
		c.enc, c.dec = enc, dec
	})
	return c.setErr
}

// Compress returns src compressed as a single zstd frame.
func (c *Codec) Compress(src []byte) ([]byte, error) {
	if err := c.init(); err != nil {
		return nil, err
	}
	if c.enc == nil {
		return nil, errClosed
	}
	return c.enc.EncodeAll(src, make([]byte, 0, len(src)/2)), nil
}

// Decompress reverses Compress.
func (c *Codec) Decompress(src []byte) ([]byte, error) {
	if err := c.init(); err != nil {
		return nil, err
	}
	if c.dec == nil {
		return nil, errClosed
	}
	out, err := c.dec.DecodeAll(src, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", vaulttype.ErrDecompression, err)
	}
	return out, nil
}

// Close releases the encoder and decoder. The Codec is unusable afterwards.
func (c *Codec) Close() {
	if c == nil {
		return
	}
	c.once.Do(func() {})
	if c.enc != nil {
		_ = c.enc.Close() //nolint:errcheck // EncodeAll-only encoder has nothing to flush
		c.dec.Close()
		c.enc, c.dec = nil, nil
	}
}
