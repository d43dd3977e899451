// Copyright (c) 2026 VTES Biased. All rights reserved.
// Author: rulings@vtes-biased.org

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vtes-biased/rulings-website/internal/platform/constants"
)

// # Denied Token Repository

// RedisDeniedTokenRepository implements DeniedTokenRepository using Redis.
//
// Entries expire with the token they revoke, the denylist never needs
// explicit cleanup.
type RedisDeniedTokenRepository struct {
	client *redis.Client
}

// NewDeniedTokenRepository creates a new Redis-backed DeniedTokenRepository.
func NewDeniedTokenRepository(client *redis.Client) *RedisDeniedTokenRepository {
	return &RedisDeniedTokenRepository{client: client}
}

/*
Deny marks a token hash as revoked until the token's natural expiry.

Parameters:
  - context: context.Context
  - tokenHash: string
  - ttl: time.Duration

Returns:
  - error: Execution errors
*/
func (repository *RedisDeniedTokenRepository) Deny(context context.Context, tokenHash string, ttl time.Duration) error {
	key := constants.RedisPrefixDenied + tokenHash
	if err := repository.client.Set(context, key, "1", ttl).Err(); err != nil {
		return fmt.Errorf("redis_denied_token_set_failed: %w", err)
	}
	return nil
}

/*
IsDenied reports whether a token hash has been revoked.

Parameters:
  - context: context.Context
  - tokenHash: string

Returns:
  - bool: true when the token is on the denylist
  - error: Connectivity errors
*/
func (repository *RedisDeniedTokenRepository) IsDenied(context context.Context, tokenHash string) (bool, error) {
	key := constants.RedisPrefixDenied + tokenHash
	_, err := repository.client.Get(context, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("redis_denied_token_get_failed: %w", err)
	}
	return true, nil
}
