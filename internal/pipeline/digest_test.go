package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDigestDeterministic(t *testing.T) {
	first, err := Digest([]byte("hello duplicate world"))
	require.NoError(t, err)

	second, err := Digest([]byte("hello duplicate world"))
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestDigestLowercaseHex(t *testing.T) {
	digest, err := Digest([]byte("ABC"))
	require.NoError(t, err)

	assert.Len(t, digest, 16)
	assert.Regexp(t, "^[0-9a-f]{16}$", digest)
}

func TestDigestDistinguishesContent(t *testing.T) {
	a, err := Digest([]byte("ABC"))
	require.NoError(t, err)

	b, err := Digest([]byte("XYZ"))
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestDigestEmptyContentIsValid(t *testing.T) {
	// Empty files are legitimate candidates; only a missing buffer fails.
	digest, err := Digest([]byte{})
	require.NoError(t, err)
	assert.NotEmpty(t, digest)
}

func TestDigestUnreadableContent(t *testing.T) {
	_, err := Digest(nil)
	assert.ErrorIs(t, err, ErrUnreadableContent)
}
