package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashToken_Deterministic(t *testing.T) {
	assert.Equal(t, HashToken("some-token"), HashToken("some-token"))
	assert.NotEqual(t, HashToken("some-token"), HashToken("other-token"))
}

func TestHashToken_NeverContainsInput(t *testing.T) {
	token := "eyJhbGciOiJSUzI1NiJ9.payload.signature"
	hash := HashToken(token)
	assert.False(t, strings.Contains(hash, token))
	assert.NotEmpty(t, hash)
}
