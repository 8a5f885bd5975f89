// Package gameid generates sortable game identifiers: a UUIDv7 encoded as 26
// characters of Crockford base32.
package gameid

import (
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
)

const alphabet = "0123456789abcdefghjkmnpqrstvwxyz"

// Generate returns a new game id. Ids generated later sort after earlier ones
// at millisecond resolution.
func Generate() string {
	return Encode(uuid.Must(uuid.NewV7()))
}

// GenerateFrom draws the random part of the id from r, for reproducible ids
// in tests.
func GenerateFrom(r io.Reader) (string, error) {
	id, err := uuid.NewV7FromReader(r)
	if err != nil {
		return "", fmt.Errorf("generate game id: %w", err)
	}
	return Encode(id), nil
}

// Encode renders a UUID as 26 base32 characters, most significant bits first.
// The 128 bits are padded with two leading zero bits, so the first character
// is always 0-7.
func Encode(id uuid.UUID) string {
	var out [26]byte
	// Treat the id as a 130-bit big-endian number and emit 5 bits at a time
	// from the least significant end.
	var hi, lo uint64
	for i := 0; i < 8; i++ {
		hi = hi<<8 | uint64(id[i])
		lo = lo<<8 | uint64(id[i+8])
	}
	for i := 25; i >= 0; i-- {
		out[i] = alphabet[lo&0x1f]
		lo = lo>>5 | (hi&0x1f)<<59
		hi >>= 5
	}
	return string(out[:])
}

// Decode parses an id produced by Encode.
func Decode(s string) (uuid.UUID, error) {
	var id uuid.UUID
	if err := Validate(s); err != nil {
		return id, err
	}
	var hi, lo uint64
	for i := 0; i < len(s); i++ {
		v := uint64(strings.IndexByte(alphabet, s[i]))
		hi = hi<<5 | lo>>59
		lo = lo<<5 | v
	}
	for i := 7; i >= 0; i-- {
		id[i] = byte(hi)
		id[i+8] = byte(lo)
		hi >>= 8
		lo >>= 8
	}
	return id, nil
}

// Validate checks that id is 26 characters of the base32 alphabet with a
// leading character of at most '7'.
func Validate(id string) error {
	if len(id) != 26 {
		return fmt.Errorf("game ID must be exactly 26 characters, got %d", len(id))
	}
	if id[0] > '7' {
		return fmt.Errorf("game ID first character must be 0-7, got %c", id[0])
	}
	for i := 0; i < len(id); i++ {
		if strings.IndexByte(alphabet, id[i]) < 0 {
			return fmt.Errorf("invalid character %c at position %d", id[i], i)
		}
	}
	return nil
}
