package langfile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quest-localizer/internal/dict"
)

func TestParseBackslashN(t *testing.T) {
	d, err := Parse([]byte("a.b=Hello\\nWorld\n"), BackslashN)
	require.NoError(t, err)

	v, ok := d.Get("a.b")
	require.True(t, ok)
	assert.Equal(t, "Hello\nWorld", v.String())

	out := Encode(d, BackslashN, false)
	assert.Equal(t, "#PARSE_ESCAPES\n\na.b=Hello\\nWorld\n", string(out))
}

func TestParsePercentN(t *testing.T) {
	d, err := Parse([]byte("a.b=Hello%nWorld\n"), PercentN)
	require.NoError(t, err)

	v, _ := d.Get("a.b")
	assert.Equal(t, "Hello\nWorld", v.String())
	assert.Equal(t, "a.b=Hello%nWorld\n", string(Encode(d, PercentN, false)))
}

func TestParseSkipsCommentsAndBlankLines(t *testing.T) {
	src := "\xef\xbb\xbf#PARSE_ESCAPES\r\n\r\n# comment\r\npack.quests1.name=Gather wood\r\nnot a pair\r\npack.quests1.desc=a=b\r\n"
	d, err := Parse([]byte(src), BackslashN)
	require.NoError(t, err)

	assert.Equal(t, []string{"pack.quests1.name", "pack.quests1.desc"}, d.Keys())
	v, _ := d.Get("pack.quests1.desc")
	assert.Equal(t, "a=b", v.String())
}

func TestEncodeDropsBlanksUnlessTemplate(t *testing.T) {
	d := dict.New()
	d.SetText("k1", "v1")
	d.SetText("k2", "")

	assert.Equal(t, "k1=v1\n", string(Encode(d, PercentN, false)))
	assert.Equal(t, "k1=v1\nk2=\n", string(Encode(d, PercentN, true)))
}

func TestRoundTrip(t *testing.T) {
	for _, dialect := range []Dialect{BackslashN, PercentN} {
		d := dict.New()
		d.SetText("pack.quests0.name", "First")
		d.SetText("pack.quests0.desc", "Line 1\nLine 2\n\nLine 4")
		d.SetText("pack.questlines3.name", "Ünïcode ✓")

		got, err := Parse(Encode(d, dialect, false), dialect)
		require.NoError(t, err, dialect.Name)
		assert.True(t, d.Equal(got), dialect.Name)
	}
}

func TestDialectByName(t *testing.T) {
	d, err := DialectByName("%n")
	require.NoError(t, err)
	assert.Equal(t, PercentN, d)

	d, err = DialectByName("")
	require.NoError(t, err)
	assert.Equal(t, BackslashN, d)

	_, err = DialectByName("bogus")
	assert.Error(t, err)
}
