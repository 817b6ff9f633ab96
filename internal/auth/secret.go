// Package auth gates host operations behind the per-event secret.
package auth

import (
	"context"
	"crypto/subtle"
	"errors"

	"github.com/liveq-app/backend/internal/store"
)

// ErrWrongSecret means the event exists but the presented secret does not
// match; distinguish it from store.ErrEventNotFound, which means the event
// itself is unknown.
var ErrWrongSecret = errors.New("secret does not match")

// CheckSecret verifies a candidate secret against the event's stored one.
func CheckSecret(ctx context.Context, s store.Store, eid, candidate string) error {
	secret, err := s.GetSecret(ctx, eid)
	if err != nil {
		return err
	}
	if subtle.ConstantTimeCompare([]byte(secret), []byte(candidate)) != 1 {
		return ErrWrongSecret
	}
	return nil
}
