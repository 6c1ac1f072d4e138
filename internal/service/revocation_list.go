package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RevocationList tracks accounts whose outstanding tokens must be
// rejected before natural expiry. Status checks happen per-login only,
// so without this list a blocked account could keep using an already
// issued token until it expires.
//
// Entries live for the access token lifetime; after that the token is
// dead anyway. A nil list (Redis unavailable) degrades to expiry-only
// invalidation.
type RevocationList struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRevocationList builds a revocation list over the given Redis client.
func NewRevocationList(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RevocationList {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RevocationList{client: client, ttl: ttl, logger: logger}
}

func revocationKey(accountID int64) string {
	return fmt.Sprintf("revoked:account:%d", accountID)
}

// RevokeAccount marks every token issued to the account up to now as invalid.
func (l *RevocationList) RevokeAccount(ctx context.Context, accountID int64) error {
	if l == nil || l.client == nil {
		return nil
	}
	value := time.Now().UTC().Format(time.RFC3339Nano)
	if err := l.client.Set(ctx, revocationKey(accountID), value, l.ttl).Err(); err != nil {
		return fmt.Errorf("revoke account %d: %w", accountID, err)
	}
	return nil
}

// IsRevoked reports whether a token issued at the given time has been
// revoked. Redis errors are logged and treated as not revoked so an
// outage does not lock everyone out.
func (l *RevocationList) IsRevoked(ctx context.Context, accountID int64, issuedAt time.Time) bool {
	if l == nil || l.client == nil {
		return false
	}
	value, err := l.client.Get(ctx, revocationKey(accountID)).Result()
	if errors.Is(err, redis.Nil) {
		return false
	}
	if err != nil {
		l.logger.Warn("revocation lookup failed", zap.Int64("account_id", accountID), zap.Error(err))
		return false
	}
	revokedAt, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return true
	}
	return revokedSince(issuedAt, revokedAt)
}

// revokedSince reports whether a token issued at issuedAt falls under a
// revocation recorded at revokedAt. Tokens issued at exactly the
// revocation instant are rejected too.
func revokedSince(issuedAt, revokedAt time.Time) bool {
	return !issuedAt.After(revokedAt)
}
