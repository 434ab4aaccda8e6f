package redis

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/MedRemind/pkg/errors"
)

// ScanLease grants one holder per key until the TTL elapses. Workers on
// several replicas use it so a given scan tick runs once.
type ScanLease struct {
	client *Client
	prefix string
	owner  string
}

func NewScanLease(client *Client, prefix string) *ScanLease {
	if prefix == "" {
		prefix = "medremind:lease:"
	}
	return &ScanLease{client: client, prefix: prefix, owner: uuid.NewString()}
}

// Acquire reports whether this process now holds key.
func (l *ScanLease) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		return false, errors.InvalidParam("lease ttl must be positive")
	}
	ok, err := l.client.SetNX(ctx, l.prefix+key, l.owner, ttl).Result()
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeCacheError, "lease acquire failed")
	}
	return ok, nil
}

// Owner is the value stored under held keys.
func (l *ScanLease) Owner() string {
	return l.owner
}

//Personal.AI order the ending
