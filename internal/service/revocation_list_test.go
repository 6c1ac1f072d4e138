package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRevocationListNilBackendDegrades(t *testing.T) {
	var list *RevocationList

	assert.NoError(t, list.RevokeAccount(context.Background(), 1))
	assert.False(t, list.IsRevoked(context.Background(), 1, time.Now()))
}

func TestRevocationListNoClientDegrades(t *testing.T) {
	list := NewRevocationList(nil, time.Hour, nil)

	assert.NoError(t, list.RevokeAccount(context.Background(), 1))
	assert.False(t, list.IsRevoked(context.Background(), 1, time.Now()))
}

func TestRevokedSince(t *testing.T) {
	revokedAt := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	assert.True(t, revokedSince(revokedAt.Add(-time.Second), revokedAt))
	assert.True(t, revokedSince(revokedAt, revokedAt))
	assert.False(t, revokedSince(revokedAt.Add(time.Second), revokedAt))
}
