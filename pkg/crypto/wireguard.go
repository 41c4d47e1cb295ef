// Package crypto implements WireGuard key handling on Curve25519.
package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/curve25519"
)

// KeyPair holds a base64-encoded WireGuard key pair. The private key
// never leaves the process that generated it; only the public key is
// written to the ledger or pushed to a device.
type KeyPair struct {
	PrivateKey string `json:"private_key"`
	PublicKey  string `json:"public_key"`
}

// GenerateKeyPair generates a fresh WireGuard key pair.
func GenerateKeyPair() (*KeyPair, error) {
	private := make([]byte, 32)
	if _, err := rand.Read(private); err != nil {
		return nil, fmt.Errorf("failed to generate random bytes for private key: %w", err)
	}
	clampPrivateKey(private)

	public, err := curve25519.X25519(private, curve25519.Basepoint)
	if err != nil {
		return nil, fmt.Errorf("failed to generate public key: %w", err)
	}

	return &KeyPair{
		PrivateKey: base64.StdEncoding.EncodeToString(private),
		PublicKey:  base64.StdEncoding.EncodeToString(public),
	}, nil
}

// DerivePublicKey computes the public key matching a private key.
func DerivePublicKey(privateKey string) (string, error) {
	private, err := decodeKey(privateKey)
	if err != nil {
		return "", fmt.Errorf("invalid private key: %w", err)
	}
	clampPrivateKey(private)

	public, err := curve25519.X25519(private, curve25519.Basepoint)
	if err != nil {
		return "", fmt.Errorf("failed to derive public key: %w", err)
	}

	return base64.StdEncoding.EncodeToString(public), nil
}

// IsValidWireGuardKey reports whether key is a well-formed WireGuard key:
// base64 text decoding to exactly 32 bytes.
func IsValidWireGuardKey(key string) bool {
	_, err := decodeKey(key)
	return err == nil
}

func decodeKey(key string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(key)
	if err != nil {
		return nil, fmt.Errorf("not valid base64: %w", err)
	}
	if len(raw) != 32 {
		return nil, fmt.Errorf("decoded length %d, want 32", len(raw))
	}
	return raw, nil
}

// Clamping per the Curve25519 requirements WireGuard inherits: clear the
// low 3 bits, clear the top bit, set the second-highest bit.
func clampPrivateKey(key []byte) {
	key[0] &= 248
	key[31] &= 127
	key[31] |= 64
}
