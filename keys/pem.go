package keys

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
)

// PEM block types.
const (
	pemRSAPrivate = "RSA PRIVATE KEY"
	pemPrivate    = "PRIVATE KEY"
	pemRSAPublic  = "RSA PUBLIC KEY"
	pemPublic     = "PUBLIC KEY"
)

// LoadFile reads a PEM-encoded key from path. See ParsePEM.
func LoadFile(path string) (*RSA, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided path is intentional
	if err != nil {
		return nil, fmt.Errorf("read key file: %w", err)
	}
	k, err := ParsePEM(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return k, nil
}

// ParsePEM parses the first RSA key in data. Private keys may be PKCS #1 or
// PKCS #8; public keys may be PKCS #1 or PKIX. A private key yields full
// capability, a public key yields write-only capability.
func ParsePEM(data []byte) (*RSA, error) {
	for {
		var block *pem.Block
		block, data = pem.Decode(data)
		if block == nil {
			return nil, ErrNoKey
		}
		switch block.Type {
		case pemRSAPrivate:
			priv, err := x509.ParsePKCS1PrivateKey(block.Bytes)
			if err != nil {
				return nil, fmt.Errorf("parse private key: %w", err)
			}
			return FromPrivateKey(priv)
		case pemPrivate:
			key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
			if err != nil {
				return nil, fmt.Errorf("parse private key: %w", err)
			}
			priv, ok := key.(*rsa.PrivateKey)
			if !ok {
				return nil, fmt.Errorf("%w: private key is %T", ErrNoKey, key)
			}
			return FromPrivateKey(priv)
		case pemRSAPublic:
			pub, err := x509.ParsePKCS1PublicKey(block.Bytes)
			if err != nil {
				return nil, fmt.Errorf("parse public key: %w", err)
			}
			return FromPublicKey(pub)
		case pemPublic:
			key, err := x509.ParsePKIXPublicKey(block.Bytes)
			if err != nil {
				return nil, fmt.Errorf("parse public key: %w", err)
			}
			pub, ok := key.(*rsa.PublicKey)
			if !ok {
				return nil, fmt.Errorf("%w: public key is %T", ErrNoKey, key)
			}
			return FromPublicKey(pub)
		}
	}
}

// MarshalPrivatePEM encodes the private key as a PKCS #1 PEM block.
func (k *RSA) MarshalPrivatePEM() ([]byte, error) {
	if !k.HasPrivate() {
		return nil, ErrNoPrivateKey
	}
	return pem.EncodeToMemory(&pem.Block{
		Type:  pemRSAPrivate,
		Bytes: x509.MarshalPKCS1PrivateKey(k.priv),
	}), nil
}

// MarshalPublicPEM encodes the public key as a PKIX PEM block.
func (k *RSA) MarshalPublicPEM() ([]byte, error) {
	if !k.HasPublic() {
		return nil, ErrNoPublicKey
	}
	der, err := x509.MarshalPKIXPublicKey(k.pub)
	if err != nil {
		return nil, fmt.Errorf("marshal public key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: pemPublic, Bytes: der}), nil
}
