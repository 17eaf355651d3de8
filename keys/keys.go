package keys

import (
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"fmt"
)

const (
	// Bits is the required RSA modulus size.
	Bits = 4096

	// WrappedKeySize is the length of a key wrapped under a public key.
	WrappedKeySize = Bits / 8
)

// Capability errors.
var (
	// ErrNoPublicKey is returned when an operation needs public-encrypt capability.
	ErrNoPublicKey = errors.New("vault: public key capability required")

	// ErrNoPrivateKey is returned when an operation needs private-decrypt capability.
	ErrNoPrivateKey = errors.New("vault: private key capability required")
)

var (
	// ErrKeySize is returned for RSA keys that are not 4096 bits.
	ErrKeySize = errors.New("vault: rsa key must be 4096 bits")

	// ErrNoKey is returned when PEM data holds no usable RSA key.
	ErrNoKey = errors.New("vault: no rsa key found")
)

// Capability is the keypair a vault encrypts for and decrypts from.
type Capability interface {
	// HasPublic reports whether PublicEncrypt is available.
	HasPublic() bool

	// HasPrivate reports whether PrivateDecrypt is available.
	HasPrivate() bool

	// PublicEncrypt wraps plaintext under the public key.
	PublicEncrypt(plaintext []byte) ([]byte, error)

	// PrivateDecrypt unwraps ciphertext produced by PublicEncrypt.
	PrivateDecrypt(ciphertext []byte) ([]byte, error)
}

// RSA is a Capability backed by an RSA-4096 key using PKCS #1 v1.5 padding.
type RSA struct {
	pub  *rsa.PublicKey
	priv *rsa.PrivateKey
}

var _ Capability = (*RSA)(nil)

// Generate creates a new RSA-4096 keypair.
func Generate() (*RSA, error) {
	priv, err := rsa.GenerateKey(rand.Reader, Bits)
	if err != nil {
		return nil, fmt.Errorf("generate rsa key: %w", err)
	}
	return FromPrivateKey(priv)
}

// FromPrivateKey wraps a private key; the public half is derived from it.
func FromPrivateKey(priv *rsa.PrivateKey) (*RSA, error) {
	if priv == nil {
		return nil, ErrNoKey
	}
	if priv.N.BitLen() != Bits {
		return nil, fmt.Errorf("%w: got %d", ErrKeySize, priv.N.BitLen())
	}
	return &RSA{pub: &priv.PublicKey, priv: priv}, nil
}

// FromPublicKey wraps a public key. The result can only encrypt.
func FromPublicKey(pub *rsa.PublicKey) (*RSA, error) {
	if pub == nil {
		return nil, ErrNoKey
	}
	if pub.N.BitLen() != Bits {
		return nil, fmt.Errorf("%w: got %d", ErrKeySize, pub.N.BitLen())
	}
	return &RSA{pub: pub}, nil
}

// PublicOnly returns a copy of k without the private half.
func (k *RSA) PublicOnly() *RSA {
	return &RSA{pub: k.pub}
}

// HasPublic implements Capability.
func (k *RSA) HasPublic() bool {
	return k != nil && k.pub != nil
}

// HasPrivate implements Capability.
func (k *RSA) HasPrivate() bool {
	return k != nil && k.priv != nil
}

// PublicEncrypt implements Capability.
func (k *RSA) PublicEncrypt(plaintext []byte) ([]byte, error) {
	if !k.HasPublic() {
		return nil, ErrNoPublicKey
	}
	out, err := rsa.EncryptPKCS1v15(rand.Reader, k.pub, plaintext)
	if err != nil {
		return nil, fmt.Errorf("wrap key: %w", err)
	}
	return out, nil
}

// PrivateDecrypt implements Capability.
func (k *RSA) PrivateDecrypt(ciphertext []byte) ([]byte, error) {
	if !k.HasPrivate() {
		return nil, ErrNoPrivateKey
	}
	out, err := rsa.DecryptPKCS1v15(nil, k.priv, ciphertext)
	if err != nil {
		return nil, fmt.Errorf("unwrap key: %w", err)
	}
	return out, nil
}
