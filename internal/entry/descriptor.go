package entry

import (
	"bytes"
	"fmt"
	"hash/crc32"

	"github.com/meigma/vault/internal/cbc"
	"github.com/meigma/vault/internal/section"
	"github.com/meigma/vault/internal/vaulttype"
	"github.com/meigma/vault/keys"
)

// Local descriptor layout.
const (
	SignatureSize  = 16
	DescriptorSize = SignatureSize + keys.WrappedKeySize + 8 + 8 + cbc.IVSize + 4
)

// Signature opens every local descriptor.
var Signature = [SignatureSize]byte{
	0x10, 0xF4, 0xE8, 0x0C, 0x18, 0x72, 0xA3, 0x5D,
	0x30, 0x66, 0xCB, 0xE3, 0x62, 0xA5, 0xCF, 0x31,
}

// descriptor is the fixed header written immediately before a ciphertext.
type descriptor struct {
	wrappedKey []byte
	length     uint64
	mtime      uint64
	iv         []byte
	crc        uint32
}

func (d *descriptor) write(w *section.Window) error {
	if len(d.wrappedKey) != keys.WrappedKeySize {
		return fmt.Errorf("%w: wrapped key is %d bytes", vaulttype.ErrCorruptRow, len(d.wrappedKey))
	}
	if err := w.Write(Signature[:]); err != nil {
		return err
	}
	if err := w.Write(d.wrappedKey); err != nil {
		return err
	}
	if err := w.WriteUint64(d.length); err != nil {
		return err
	}
	if err := w.WriteUint64(d.mtime); err != nil {
		return err
	}
	if err := w.WritePadded("iv", d.iv, cbc.IVSize); err != nil {
		return err
	}
	return w.WriteUint32(d.crc)
}

func readDescriptor(w *section.Window) (*descriptor, error) {
	sig, err := w.Read(SignatureSize)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(sig, Signature[:]) {
		return nil, fmt.Errorf("%w: bad signature at %d", vaulttype.ErrDescriptorMismatch, w.Section().Start+w.Pos()-SignatureSize)
	}
	d := &descriptor{}
	if d.wrappedKey, err = w.Read(keys.WrappedKeySize); err != nil {
		return nil, err
	}
	if d.length, err = w.ReadUint64(); err != nil {
		return nil, err
	}
	if d.mtime, err = w.ReadUint64(); err != nil {
		return nil, err
	}
	if d.iv, err = w.Read(cbc.IVSize); err != nil {
		return nil, err
	}
	if d.crc, err = w.ReadUint32(); err != nil {
		return nil, err
	}
	return d, nil
}

func checksum(ciphertext []byte) uint32 {
	return crc32.ChecksumIEEE(ciphertext)
}
