package security

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"
	"fmt"
)

const KeySize = 16

var (
	ErrDecipherUnavailable = errors.New("security: no usable decipher key configured")
	ErrDecipherFailed      = errors.New("security: decipher failed")
)

// Direction is the link direction bit of the counter block.
type Direction uint8

const (
	DirectionUplink   Direction = 0
	DirectionDownlink Direction = 1
)

func (d Direction) String() string {
	if d == DirectionDownlink {
		return "downlink"
	}
	return "uplink"
}

// counterBlock builds the initial AES-CTR counter for one message:
// NAS COUNT in bytes 0-3 with the overflow half fixed at zero, then
// the direction bit, then zeroes. Overflow tracking across a security
// context lifetime is a known simplification carried from the original
// behavior, not full NAS COUNT maintenance.
func counterBlock(seq byte, dir Direction) [aes.BlockSize]byte {
	var iv [aes.BlockSize]byte
	iv[3] = seq
	iv[4] = byte(dir) << 2
	return iv
}

// Decipher decrypts a ciphered NAS body with AES-128-CTR. The input is
// left untouched; the cleartext is a fresh buffer. Fails closed when no
// key is configured or the key length is wrong, so the caller can fall
// back to reporting the body as an opaque ciphered span.
func Decipher(key []byte, dir Direction, seq byte, ciphertext []byte) ([]byte, error) {
	return applyCTR(key, dir, seq, ciphertext)
}

// Encipher is the encrypting counterpart; CTR mode is symmetric, so it
// is the same keystream application.
func Encipher(key []byte, dir Direction, seq byte, plaintext []byte) ([]byte, error) {
	return applyCTR(key, dir, seq, plaintext)
}

func applyCTR(key []byte, dir Direction, seq byte, in []byte) ([]byte, error) {
	if len(key) == 0 {
		return nil, ErrDecipherUnavailable
	}
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: key length %d", ErrDecipherUnavailable, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecipherFailed, err)
	}
	iv := counterBlock(seq, dir)
	out := make([]byte, len(in))
	cipher.NewCTR(block, iv[:]).XORKeyStream(out, in)
	return out, nil
}
