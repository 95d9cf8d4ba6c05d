package interpolation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProtectRestore(t *testing.T) {
	text := `&aGreen&r items: %d of %1$s (100%%) \"quoted\" {@pagebreak}`
	safe, mappings := Protect(text)

	assert.NotContains(t, safe, "&a")
	assert.NotContains(t, safe, "%d")
	assert.NotContains(t, safe, "{@pagebreak}")
	assert.Equal(t, text, Restore(safe, mappings))
	assert.Len(t, mappings, 8)
}

func TestProtectWithoutTokens(t *testing.T) {
	safe, mappings := Protect("Plain text")
	assert.Equal(t, "Plain text", safe)
	assert.Nil(t, mappings)
}

func TestRestoreAcceptsLoosePlaceholders(t *testing.T) {
	_, mappings := Protect("&lBold")
	assert.Equal(t, "&l굵게", Restore("{ {var_1} }굵게", mappings))
}

func TestMissing(t *testing.T) {
	_, mappings := Protect("&aHi %s")
	assert.Equal(t, []string{"%s"}, Missing("&aBonjour", mappings))
	assert.Empty(t, Missing("&aBonjour %s", mappings))
}

func TestEscapeStrayAmpersands(t *testing.T) {
	assert.Equal(t, `Salt \& Pepper`, EscapeStrayAmpersands("Salt & Pepper"))
	assert.Equal(t, `&aGreen`, EscapeStrayAmpersands("&aGreen"))
	assert.Equal(t, `already \& escaped`, EscapeStrayAmpersands(`already \& escaped`))
	assert.Equal(t, `end\&`, EscapeStrayAmpersands("end&"))
	assert.Equal(t, "none", EscapeStrayAmpersands("none"))
}
