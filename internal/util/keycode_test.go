package util

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var keyCodePattern = regexp.MustCompile(`^SCO-[A-HJ-NP-Z2-9]{4}-[A-HJ-NP-Z2-9]{4}-[A-HJ-NP-Z2-9]{4}$`)

func TestGenerateKeyCodeFormat(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := GenerateKeyCode()
		require.NoError(t, err)
		assert.Regexp(t, keyCodePattern, code)
	}
}

func TestGenerateKeyCodeUniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		code, err := GenerateKeyCode()
		require.NoError(t, err)
		assert.False(t, seen[code], "duplicate key code generated: %s", code)
		seen[code] = true
	}
}

func TestGenerateGrantToken(t *testing.T) {
	a, err := GenerateGrantToken()
	require.NoError(t, err)
	b, err := GenerateGrantToken()
	require.NoError(t, err)

	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
}
