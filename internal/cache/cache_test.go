package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreGetSet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, s.Set(ctx, "k", []byte("v1"), 0))
	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v1", string(got))

	require.NoError(t, s.Del(ctx, "k"))
	_, err = s.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	require.NoError(t, s.Set(ctx, "k", []byte("v"), time.Minute))
	_, err := s.Get(ctx, "k")
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = s.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestMemoryStoreSetNX(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	ok, err := s.SetNX(ctx, "lock", []byte("a"), time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.SetNX(ctx, "lock", []byte("b"), time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	got, _ := s.Get(ctx, "lock")
	assert.Equal(t, "a", string(got))

	now = now.Add(time.Hour)
	ok, err = s.SetNX(ctx, "lock", []byte("c"), time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	type draft struct {
		ProductID string   `json:"product_id"`
		Consumed  []string `json:"consumed"`
	}
	require.NoError(t, SetJSON(ctx, s, "draft:p1", draft{ProductID: "p1", Consumed: []string{"m1"}}, time.Hour))

	var got draft
	require.NoError(t, GetJSON(ctx, s, "draft:p1", &got))
	assert.Equal(t, "p1", got.ProductID)
	assert.Equal(t, []string{"m1"}, got.Consumed)

	assert.ErrorIs(t, GetJSON(ctx, s, "draft:none", &got), ErrMiss)
}
