package token

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProducesDecodableTokens(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		tok := New()
		assert.False(t, seen[tok], "duplicate token %s", tok)
		seen[tok] = true

		id, err := Decode(tok)
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, id)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	for _, tok := range []string{"", "not a token!", "0OIl"} {
		_, err := Decode(tok)
		assert.Error(t, err, "token %q", tok)
	}
}
