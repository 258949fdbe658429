package revocation

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "revoked:access:"

// List is a Redis-backed set of bearer tokens rejected before their expiry.
// A nil List, or one without a client, revokes nothing.
type List struct {
	client *redis.Client
}

func New(client *redis.Client) *List {
	return &List{client: client}
}

// Revoke stores token for ttl. Shorter TTLs are raised to one second so a token
// that is about to expire is still rejected for its last moments.
func (l *List) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	if l == nil || l.client == nil {
		return nil
	}
	if ttl < time.Second {
		ttl = time.Second
	}
	return l.client.Set(ctx, keyPrefix+token, "1", ttl).Err()
}

// IsRevoked returns true when the token is on the list.
func (l *List) IsRevoked(ctx context.Context, token string) (bool, error) {
	if l == nil || l.client == nil {
		return false, nil
	}
	exists, err := l.client.Exists(ctx, keyPrefix+token).Result()
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}
