package confession

import (
	"crypto/rand"
	"regexp"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	// AudioExt is the fixed extension for stored audio blobs.
	AudioExt = ".webm"

	// codeAlphabet has 64 url-safe characters so that a random byte maps to
	// a character without rejection sampling.
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

	// codeLength of 12 over a 64 character alphabet gives 72 bits of
	// entropy. Collisions across any realistic record volume are
	// astronomically unlikely, so inserts rely on the unique constraint
	// instead of a lookup-before-insert.
	codeLength = 12
)

var audioKeyPattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}\.webm$`)

// NewAudioKey returns a globally unique blob key. UUIDv4 keys are collision
// safe by construction, no existence check is required before writing.
func NewAudioKey() string {
	return uuid.New().String() + AudioExt
}

// ValidAudioKey reports whether key has the shape of a generated audio key.
// The audio endpoint rejects anything else so it cannot be used to probe
// arbitrary storage paths.
func ValidAudioKey(key string) bool {
	return audioKeyPattern.MatchString(key)
}

// NewDeletionCode returns the secret token that authorizes deletion of a
// single confession.
func NewDeletionCode() (string, error) {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, "failed to read random bytes")
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[b&0x3f]
	}
	return string(buf), nil
}
