package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/BradenHooton/fieldauth/internal/models"
	"github.com/redis/go-redis/v9"
)

const enrollmentKeyPrefix = "fieldauth:enroll:"

// EnrollmentStore keeps pending two-factor secrets between setup and
// verification. Entries expire after ttl.
type EnrollmentStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewEnrollmentStore(client *redis.Client, ttl time.Duration) *EnrollmentStore {
	return &EnrollmentStore{client: client, ttl: ttl}
}

func (s *EnrollmentStore) key(userID string) string {
	return enrollmentKeyPrefix + userID
}

// Put stores sealedSecret for userID, replacing any previous pending enrollment
func (s *EnrollmentStore) Put(ctx context.Context, userID, sealedSecret string) error {
	if err := s.client.Set(ctx, s.key(userID), sealedSecret, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store pending enrollment: %w", err)
	}
	return nil
}

// Get returns the pending secret or models.ErrNotFound once it expired
func (s *EnrollmentStore) Get(ctx context.Context, userID string) (string, error) {
	value, err := s.client.Get(ctx, s.key(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", models.ErrNotFound
		}
		return "", fmt.Errorf("failed to load pending enrollment: %w", err)
	}
	return value, nil
}

func (s *EnrollmentStore) Delete(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, s.key(userID)).Err(); err != nil {
		return fmt.Errorf("failed to delete pending enrollment: %w", err)
	}
	return nil
}
