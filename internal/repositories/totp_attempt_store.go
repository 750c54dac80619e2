package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/BradenHooton/fieldauth/internal/models"
	"github.com/redis/go-redis/v9"
)

const totpAttemptKeyPrefix = "fieldauth:totp_attempts:"

// TOTPAttemptStore counts wrong two-factor codes per user. The counter
// starts its window on the first failure and is independent of the
// password lockout counter.
type TOTPAttemptStore struct {
	client      *redis.Client
	maxAttempts int
	window      time.Duration
}

func NewTOTPAttemptStore(client *redis.Client, maxAttempts int, window time.Duration) *TOTPAttemptStore {
	return &TOTPAttemptStore{client: client, maxAttempts: maxAttempts, window: window}
}

func (s *TOTPAttemptStore) key(userID string) string {
	return totpAttemptKeyPrefix + userID
}

// Check returns models.ErrLimitExceeded once userID used up its attempts
// for the current window
func (s *TOTPAttemptStore) Check(ctx context.Context, userID string) error {
	count, err := s.client.Get(ctx, s.key(userID)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("failed to read two-factor attempts: %w", err)
	}
	if count >= int64(s.maxAttempts) {
		return models.ErrLimitExceeded
	}
	return nil
}

// RecordFailure counts one wrong code for userID
func (s *TOTPAttemptStore) RecordFailure(ctx context.Context, userID string) error {
	count, err := s.client.Incr(ctx, s.key(userID)).Result()
	if err != nil {
		return fmt.Errorf("failed to record two-factor attempt: %w", err)
	}
	if count == 1 {
		if err := s.client.Expire(ctx, s.key(userID), s.window).Err(); err != nil {
			return fmt.Errorf("failed to set two-factor attempt window: %w", err)
		}
	}
	return nil
}

// Reset clears the counter after a correct code
func (s *TOTPAttemptStore) Reset(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, s.key(userID)).Err(); err != nil {
		return fmt.Errorf("failed to reset two-factor attempts: %w", err)
	}
	return nil
}
