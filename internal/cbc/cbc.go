// Package cbc implements the vault's stateless AES-256-CBC primitive.
//
// Every call starts from the given IV, so encrypting several plaintexts with
// one key/IV pair yields independent ciphertexts that can each be decrypted
// on their own. That reuse leaks equality of identical leading blocks; it is
// kept for on-disk compatibility.
package cbc

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
)

const (
	// KeySize is the AES-256 key length.
	KeySize = 32

	// IVSize is the CBC initialization vector length.
	IVSize = aes.BlockSize
)

// ErrPadding is returned when decrypted data has invalid PKCS#7 padding,
// which usually means the wrong key or IV.
var ErrPadding = errors.New("vault: invalid padding")

// NewKey returns a fresh random 256-bit key.
func NewKey() ([]byte, error) {
	return random(KeySize)
}

// NewIV returns a fresh random 128-bit IV.
func NewIV() ([]byte, error) {
	return random(IVSize)
}

// CiphertextLen returns the ciphertext length for n plaintext bytes.
func CiphertextLen(n int) int {
	return (n/aes.BlockSize + 1) * aes.BlockSize
}

// MaxPlaintext returns the longest plaintext whose ciphertext fits in limit bytes.
func MaxPlaintext(limit int) int {
	if limit < aes.BlockSize {
		return -1
	}
	return limit - limit%aes.BlockSize - 1
}

// Encrypt pads plaintext with PKCS#7 and encrypts it.
func Encrypt(key, iv, plaintext []byte) ([]byte, error) {
	block, err := newBlock(key, iv)
	if err != nil {
		return nil, err
	}
	pad := aes.BlockSize - len(plaintext)%aes.BlockSize
	out := make([]byte, len(plaintext)+pad)
	copy(out, plaintext)
	copy(out[len(plaintext):], bytes.Repeat([]byte{byte(pad)}, pad))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, out)
	return out, nil
}

// Decrypt decrypts ciphertext and strips its PKCS#7 padding.
func Decrypt(key, iv, ciphertext []byte) ([]byte, error) {
	block, err := newBlock(key, iv)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("%w: ciphertext length %d", ErrPadding, len(ciphertext))
	}
	out := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, ciphertext)

	pad := int(out[len(out)-1])
	if pad == 0 || pad > aes.BlockSize {
		return nil, ErrPadding
	}
	for _, b := range out[len(out)-pad:] {
		if int(b) != pad {
			return nil, ErrPadding
		}
	}
	return out[:len(out)-pad], nil
}

func newBlock(key, iv []byte) (cipher.Block, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("vault: invalid key length %d", len(key))
	}
	if len(iv) != IVSize {
		return nil, fmt.Errorf("vault: invalid iv length %d", len(iv))
	}
	return aes.NewCipher(key)
}

func random(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("read random: %w", err)
	}
	return b, nil
}
