// Package token generates the short, URL-safe identifiers that every
// externally visible resource is addressed by.
package token

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/lithammer/shortuuid/v4"
)

// New returns a fresh short token backed by a random UUID.
func New() string {
	return shortuuid.New()
}

// Decode recovers the UUID a short token encodes. Fails on malformed
// or truncated tokens.
func Decode(token string) (uuid.UUID, error) {
	id, err := shortuuid.DefaultEncoder.Decode(token)
	if err != nil {
		return uuid.Nil, fmt.Errorf("decode token %q: %w", token, err)
	}
	return id, nil
}
