package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCacheSeparatesLanguages(t *testing.T) {
	ctx := context.Background()
	c := NewTranslationCache(nil)
	require.NoError(t, c.EnsureSchema(ctx))

	require.NoError(t, c.Set(ctx, "ko_kr", "Hello", "안녕"))
	require.NoError(t, c.Set(ctx, "ja_jp", "Hello", "こんにちは"))

	got, ok := c.Get(ctx, "ko_kr", "Hello")
	require.True(t, ok)
	assert.Equal(t, "안녕", got)

	got, ok = c.Get(ctx, "ja_jp", "Hello")
	require.True(t, ok)
	assert.Equal(t, "こんにちは", got)

	_, ok = c.Get(ctx, "de_de", "Hello")
	assert.False(t, ok)
}

func TestMemoryCacheSetBatch(t *testing.T) {
	ctx := context.Background()
	c := NewTranslationCache(nil)

	require.NoError(t, c.SetBatch(ctx, "ko_kr", map[string]string{"a": "가", "b": "나"}))
	require.NoError(t, c.Preload(ctx, "ko_kr"))
	assert.Equal(t, 2, c.Len())

	got, ok := c.Get(ctx, "ko_kr", "b")
	require.True(t, ok)
	assert.Equal(t, "나", got)
}
