package util

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

const (
	keyCodePrefix     = "SCO"
	keyCodeSegments   = 3
	keyCodeSegmentLen = 4
	keyCodeSeparator  = "-"
	// 0/O and 1/I are excluded so codes survive being read over the phone.
	keyCodeCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// GenerateKeyCode produces a fresh license key code of the form
// SCO-XXXX-XXXX-XXXX using crypto/rand. Uniqueness is enforced by the
// store's unique constraint, not here.
func GenerateKeyCode() (string, error) {
	parts := make([]string, 0, keyCodeSegments+1)
	parts = append(parts, keyCodePrefix)

	for i := 0; i < keyCodeSegments; i++ {
		segment, err := randomSegment(keyCodeSegmentLen)
		if err != nil {
			return "", fmt.Errorf("failed to generate key code segment: %w", err)
		}
		parts = append(parts, segment)
	}

	return strings.Join(parts, keyCodeSeparator), nil
}

func randomSegment(length int) (string, error) {
	var b strings.Builder
	b.Grow(length)
	max := big.NewInt(int64(len(keyCodeCharset)))
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(keyCodeCharset[n.Int64()])
	}
	return b.String(), nil
}

// GenerateGrantToken returns an opaque token handed to the download portal
// after a successful quota check.
func GenerateGrantToken() (string, error) {
	var b strings.Builder
	b.Grow(32)
	max := big.NewInt(int64(len(keyCodeCharset)))
	for i := 0; i < 32; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(keyCodeCharset[n.Int64()])
	}
	return b.String(), nil
}
