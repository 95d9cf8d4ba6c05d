package textutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecode(t *testing.T) {
	assert.Equal(t, "café", Decode([]byte("café")))
	assert.Equal(t, "title", Decode([]byte("\xef\xbb\xbftitle")))
	// 0xE9 alone is not valid UTF-8 and is é in Latin-1.
	assert.Equal(t, "café", Decode([]byte{'c', 'a', 'f', 0xE9}))
}

func TestHash(t *testing.T) {
	assert.Len(t, Hash("a"), 64)
	assert.Equal(t, Hash("ko_kr", "Hello"), Hash("ko_kr", "Hello"))
	assert.NotEqual(t, Hash("ab", "c"), Hash("a", "bc"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "héll...", Truncate("héllo world", 4))
}
