// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCacheGetSet(t *testing.T) {
	c := NewMemoryCache(MemoryOptions{DefaultTTL: time.Minute})
	defer c.Close()
	ctx := context.Background()

	_, err := c.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))
	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	// The cache hands back copies, not aliases.
	got[0] = 'x'
	again, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), again)
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := NewMemoryCache(MemoryOptions{DefaultTTL: time.Minute})
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "short", []byte("v"), 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)
	_, err := c.Get(ctx, "short")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryCacheDeleteAndClear(t *testing.T) {
	c := NewMemoryCache(MemoryOptions{DefaultTTL: time.Minute})
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", []byte("1"), 0))
	require.NoError(t, c.Set(ctx, "b", []byte("2"), 0))

	require.NoError(t, c.Delete(ctx, "a"))
	_, err := c.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, c.Clear(ctx))
	_, err = c.Get(ctx, "b")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryCacheClosed(t *testing.T) {
	c := NewMemoryCache(MemoryOptions{DefaultTTL: time.Minute})
	require.NoError(t, c.Close())
	require.NoError(t, c.Close()) // idempotent

	ctx := context.Background()
	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheClosed)
	assert.ErrorIs(t, c.Set(ctx, "k", nil, 0), ErrCacheClosed)
	assert.ErrorIs(t, c.Delete(ctx, "k"), ErrCacheClosed)
	assert.ErrorIs(t, c.Clear(ctx), ErrCacheClosed)
}

func TestMemoryCacheStats(t *testing.T) {
	c := NewMemoryCache(MemoryOptions{DefaultTTL: time.Minute})
	defer c.Close()
	ctx := context.Background()

	c.Set(ctx, "k", []byte("v"), 0)
	c.Get(ctx, "k")
	c.Get(ctx, "absent")

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(1), stats.Sets)
}

func TestMemoryCacheEvictsExpiredWhenFull(t *testing.T) {
	c := NewMemoryCache(MemoryOptions{DefaultTTL: time.Minute, MaxSize: 2})
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "old", []byte("v"), time.Millisecond))
	require.NoError(t, c.Set(ctx, "keep", []byte("v"), time.Minute))
	time.Sleep(10 * time.Millisecond)

	// At capacity: the expired entry is swept to make room.
	require.NoError(t, c.Set(ctx, "new", []byte("v"), time.Minute))
	_, err := c.Get(ctx, "keep")
	assert.NoError(t, err)
	_, err = c.Get(ctx, "new")
	assert.NoError(t, err)
}

func TestNewSelectsMemoryBackend(t *testing.T) {
	c, err := New(DefaultConfig())
	require.NoError(t, err)
	defer c.Close()
	_, ok := c.(*MemoryCache)
	assert.True(t, ok)
}

func TestTranslationMemoryRoundTrip(t *testing.T) {
	c := NewMemoryCache(MemoryOptions{DefaultTTL: time.Minute})
	defer c.Close()
	tm := NewTranslationMemory(c, nil)
	ctx := context.Background()

	_, ok := tm.Lookup(ctx, "de", "h1", "Hello")
	assert.False(t, ok)

	tm.Store(ctx, "de", "h1", "Hello", "Hallo")
	got, ok := tm.Lookup(ctx, "de", "h1", "Hello")
	require.True(t, ok)
	assert.Equal(t, "Hallo", got)
}

func TestTranslationMemoryKeyIsolation(t *testing.T) {
	c := NewMemoryCache(MemoryOptions{DefaultTTL: time.Minute})
	defer c.Close()
	tm := NewTranslationMemory(c, nil)
	ctx := context.Background()

	tm.Store(ctx, "de", "h1", "Hello", "Hallo")

	// A different language, rule set, or source text never hits.
	_, ok := tm.Lookup(ctx, "fr", "h1", "Hello")
	assert.False(t, ok)
	_, ok = tm.Lookup(ctx, "de", "h2", "Hello")
	assert.False(t, ok)
	_, ok = tm.Lookup(ctx, "de", "h1", "Goodbye")
	assert.False(t, ok)
}

func TestTranslationMemorySwallowsBackendErrors(t *testing.T) {
	c := NewMemoryCache(MemoryOptions{DefaultTTL: time.Minute})
	c.Close()
	tm := NewTranslationMemory(c, nil)
	ctx := context.Background()

	// A closed backend degrades to cache-off, never an error.
	tm.Store(ctx, "de", "h1", "Hello", "Hallo")
	_, ok := tm.Lookup(ctx, "de", "h1", "Hello")
	assert.False(t, ok)
}
