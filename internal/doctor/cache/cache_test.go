package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medix/internal/doctor/models"
)

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMemoryCache(30*time.Second, WithClock(func() time.Time { return now }))

	_, ok, err := c.Get(ctx, "all")
	require.NoError(t, err)
	assert.False(t, ok)

	doctors := []models.Doctor{{ID: "d1", FullName: "Dr. Silva"}}
	require.NoError(t, c.Set(ctx, "all", doctors))
	doctors[0].FullName = "mutated"

	got, ok, err := c.Get(ctx, "all")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Dr. Silva", got[0].FullName, "cache must hold its own copy")

	now = now.Add(31 * time.Second)
	_, ok, _ = c.Get(ctx, "all")
	assert.False(t, ok, "expired snapshot must not be served")
}

func TestMemoryCache_Invalidate(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Minute)
	require.NoError(t, c.Set(ctx, "all", []models.Doctor{{ID: "d1"}}))

	require.NoError(t, c.Invalidate(ctx))

	_, ok, err := c.Get(ctx, "all")
	require.NoError(t, err)
	assert.False(t, ok)
}
