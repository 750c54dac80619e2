package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/BradenHooton/fieldauth/internal/models"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEnrollmentStore(t *testing.T, ttl time.Duration) (*EnrollmentStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewEnrollmentStore(client, ttl), mr
}

func TestEnrollmentStore_PutGetDelete(t *testing.T) {
	store, mr := newTestEnrollmentStore(t, 10*time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "user-1", "sealed-secret"))
	assert.True(t, mr.Exists("fieldauth:enroll:user-1"))
	assert.Equal(t, 10*time.Minute, mr.TTL("fieldauth:enroll:user-1"))

	got, err := store.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "sealed-secret", got)

	require.NoError(t, store.Delete(ctx, "user-1"))
	_, err = store.Get(ctx, "user-1")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestEnrollmentStore_PutReplacesPending(t *testing.T) {
	store, _ := newTestEnrollmentStore(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "user-1", "first"))
	require.NoError(t, store.Put(ctx, "user-1", "second"))

	got, err := store.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "second", got)
}

func TestEnrollmentStore_Expires(t *testing.T) {
	store, mr := newTestEnrollmentStore(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "user-1", "sealed"))
	mr.FastForward(2 * time.Minute)

	_, err := store.Get(ctx, "user-1")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestEnrollmentStore_BackendDown(t *testing.T) {
	store, mr := newTestEnrollmentStore(t, time.Minute)
	mr.Close()

	_, err := store.Get(context.Background(), "user-1")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, models.ErrNotFound)
}
