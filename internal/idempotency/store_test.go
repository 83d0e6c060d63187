package idempotency

import (
	"context"
	"fmt"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*RedisStore, *miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client), mr, client
}

func TestReserve(t *testing.T) {
	ctx := context.Background()

	t.Run("first_claim_wins", func(t *testing.T) {
		store, _, client := newTestStore(t)

		rec, ok, err := store.Reserve(ctx, "k1", "fp", time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Nil(t, rec)

		raw, err := client.Get(ctx, store.prefix+"k1").Result()
		require.NoError(t, err)
		assert.JSONEq(t, `{"fingerprint":"fp","pending":true}`, raw)
	})

	t.Run("second_claim_sees_pending", func(t *testing.T) {
		store, _, _ := newTestStore(t)

		_, ok, err := store.Reserve(ctx, "k1", "fp", time.Minute)
		require.NoError(t, err)
		require.True(t, ok)

		rec, ok, err := store.Reserve(ctx, "k1", "fp", time.Minute)
		require.NoError(t, err)
		assert.False(t, ok)
		require.NotNil(t, rec)
		assert.True(t, rec.Pending)
		assert.Equal(t, "fp", rec.Fingerprint)
	})

	t.Run("completed_record_is_returned", func(t *testing.T) {
		store, _, _ := newTestStore(t)

		_, _, err := store.Reserve(ctx, "k1", "fp", time.Minute)
		require.NoError(t, err)
		require.NoError(t, store.Complete(ctx, "k1", Record{Fingerprint: "fp", Status: 201, Body: []byte(`{"ok":true}`)}, time.Minute))

		rec, ok, err := store.Reserve(ctx, "k1", "fp", time.Minute)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.False(t, rec.Pending)
		assert.Equal(t, 201, rec.Status)
		assert.Equal(t, `{"ok":true}`, string(rec.Body))
	})

	t.Run("expired_key_can_be_claimed", func(t *testing.T) {
		store, mr, _ := newTestStore(t)

		_, _, err := store.Reserve(ctx, "k1", "fp", time.Second)
		require.NoError(t, err)
		mr.FastForward(2 * time.Second)

		_, ok, err := store.Reserve(ctx, "k1", "fp2", time.Second)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("release_allows_retry", func(t *testing.T) {
		store, _, _ := newTestStore(t)

		_, _, err := store.Reserve(ctx, "k1", "fp", time.Minute)
		require.NoError(t, err)
		require.NoError(t, store.Release(ctx, "k1"))

		_, ok, err := store.Reserve(ctx, "k1", "fp", time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestNewClient(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		mr := miniredis.RunT(t)

		client, err := NewClient(context.Background(), fmt.Sprintf("redis://%s", mr.Addr()))
		require.NoError(t, err)
		defer client.Close()
	})

	t.Run("invalid_url", func(t *testing.T) {
		_, err := NewClient(context.Background(), "://bad-url")
		assert.Error(t, err)
	})

	t.Run("server_down", func(t *testing.T) {
		mr := miniredis.RunT(t)
		url := fmt.Sprintf("redis://%s", mr.Addr())
		mr.Close()

		_, err := NewClient(context.Background(), url)
		assert.Error(t, err)
	})
}
