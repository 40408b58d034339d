// Package htlc implements the commitment primitives of a hashed-timelock
// swap: random secrets, sha256 hashlocks and absolute timelocks.
package htlc

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/lightningnetwork/lnd/clock"
)

// SecretSize is the byte length of a swap secret.
const SecretSize = 32

// Secret is the pre-image committed to by a hashlock. It is generated by the
// initiator at offer creation and stays private until the initiator claims.
type Secret [SecretSize]byte

// GenerateSecret returns a cryptographically random secret.
func GenerateSecret() (Secret, error) {
	var secret Secret
	if _, err := rand.Read(secret[:]); err != nil {
		return Secret{}, fmt.Errorf("failed to generate secret: %w", err)
	}

	return secret, nil
}

// ParseSecret decodes a hex-encoded secret.
func ParseSecret(s string) (Secret, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return Secret{}, fmt.Errorf("invalid secret encoding: %w", err)
	}
	if len(raw) != SecretSize {
		return Secret{}, fmt.Errorf("invalid secret length: got %d, want %d", len(raw), SecretSize)
	}

	var secret Secret
	copy(secret[:], raw)

	return secret, nil
}

func (s Secret) Hex() string {
	return hex.EncodeToString(s[:])
}

// Hashlock returns the hex-encoded sha256 digest of the secret. This is the
// public commitment both legs of the swap lock against.
func (s Secret) Hashlock() string {
	digest := sha256.Sum256(s[:])

	return hex.EncodeToString(digest[:])
}

// Verify reports whether secret is the pre-image of hashlock.
func Verify(secret Secret, hashlock string) bool {
	return secret.Hashlock() == hashlock
}

// NewTimelock returns an absolute expiry as unix seconds, duration from now.
// Timelocks are stored absolute so later expiry checks are unambiguous.
func NewTimelock(c clock.Clock, duration time.Duration) int64 {
	return c.Now().Add(duration).Unix()
}

// Expired reports whether the current instant is past the timelock.
func Expired(c clock.Clock, timelock int64) bool {
	return c.Now().Unix() > timelock
}
