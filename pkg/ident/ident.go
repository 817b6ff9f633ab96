// Package ident provides the identifier scheme and event secrets: time-ordered
// UUIDv7 identifiers whose creation time can be read back without a separate
// timestamp field, and the random token that gates host access to an event.
package ident

import (
	"crypto/rand"
	"math/big"
	"time"

	"github.com/google/uuid"
)

// SecretLength is the length of a generated event secret.
const SecretLength = 30

const alphanumeric = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// New returns a fresh time-ordered identifier. Identifiers sort
// lexicographically in creation order.
func New() uuid.UUID {
	id, err := uuid.NewV7()
	if err != nil {
		// only fails when the process's random source does
		panic(err)
	}
	return id
}

// Parse parses an identifier from its canonical string form.
func Parse(s string) (uuid.UUID, error) {
	return uuid.Parse(s)
}

// CreatedAt extracts the creation time embedded in a time-ordered identifier.
func CreatedAt(id uuid.UUID) time.Time {
	sec, nsec := id.Time().UnixTime()
	return time.Unix(sec, nsec)
}

// NewSecret returns a random alphanumeric token for a new event. The secret
// is issued once at event creation and never changes.
func NewSecret() string {
	buf := make([]byte, SecretLength)
	max := big.NewInt(int64(len(alphanumeric)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic(err)
		}
		buf[i] = alphanumeric[n.Int64()]
	}
	return string(buf)
}
