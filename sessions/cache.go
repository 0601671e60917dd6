// Package sessions caches which user an access token belongs to, so that
// authenticated requests can skip the access_tokens lookup.
package sessions

import (
	"context"
	"errors"
	"time"
)

// ErrRevoked is returned by Get for a token that was logged out.
var ErrRevoked = errors.New("access token revoked")

// Cache maps access token ids to user ids. Implementations must treat a
// missing entry as a miss (ok == false), not as an error.
type Cache interface {
	Get(ctx context.Context, tokenID string) (userID int, ok bool, err error)
	// Set stores the owner only when no entry exists yet, so a concurrent
	// lookup can never overwrite a revocation.
	Set(ctx context.Context, tokenID string, userID int, ttl time.Duration) error
	// Revoke replaces any entry with a revocation marker that lives for ttl.
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	Close() error
}

type noopCache struct{}

// NewNoopCache returns a Cache that never stores anything; every Get is a miss.
func NewNoopCache() Cache {
	return noopCache{}
}

func (noopCache) Get(context.Context, string) (int, bool, error)        { return 0, false, nil }
func (noopCache) Set(context.Context, string, int, time.Duration) error { return nil }
func (noopCache) Revoke(context.Context, string, time.Duration) error   { return nil }
func (noopCache) Close() error                                          { return nil }
