package translation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quest-localizer/internal/dict"
	"quest-localizer/internal/locale"
)

type fakeTranslator struct {
	mu    sync.Mutex
	calls map[string]int
	fn    func(batch *dict.Dictionary) (*dict.Dictionary, error)
}

func newFakeTranslator(fn func(batch *dict.Dictionary) (*dict.Dictionary, error)) *fakeTranslator {
	return &fakeTranslator{calls: make(map[string]int), fn: fn}
}

func (f *fakeTranslator) Name() string { return "fake" }

func (f *fakeTranslator) TranslateBatch(_ context.Context, batch *dict.Dictionary, _ locale.Locale) (*dict.Dictionary, error) {
	f.mu.Lock()
	for _, k := range batch.Keys() {
		f.calls[k]++
	}
	f.mu.Unlock()
	return f.fn(batch)
}

func (f *fakeTranslator) callsFor(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[key]
}

func upper(batch *dict.Dictionary) (*dict.Dictionary, error) {
	out := dict.New()
	batch.Each(func(k string, v dict.Value) bool {
		lines := make([]string, len(v.Lines))
		for i, l := range v.Lines {
			lines[i] = strings.ToUpper(l)
		}
		out.Set(k, dict.Value{Lines: lines, List: v.List})
		return true
	})
	return out, nil
}

func noSleep(context.Context, time.Duration) error { return nil }

func testOptions() Options {
	return Options{
		Concurrency:     2,
		MaxBatchEntries: 1,
		Retry:           RetryPolicy{MaxAttempts: 3, sleep: noSleep},
	}
}

func korean(t *testing.T) locale.Locale {
	t.Helper()
	l, err := locale.Parse("ko_kr")
	require.NoError(t, err)
	return l
}

func TestTranslateFailingBatchLeavesKeysAbsent(t *testing.T) {
	source := dict.New()
	source.SetText("a", "first")
	source.SetText("b", "second")
	source.SetText("c", "third")

	boom := errors.New("provider down")
	fake := newFakeTranslator(func(batch *dict.Dictionary) (*dict.Dictionary, error) {
		if batch.Has("b") {
			return nil, boom
		}
		return upper(batch)
	})

	report, err := NewAdapter(fake, testOptions()).Translate(context.Background(), source, korean(t), nil)
	require.NoError(t, err)

	out := report.Target
	assert.False(t, out.Has("b"))
	a, _ := out.Get("a")
	c, _ := out.Get("c")
	assert.Equal(t, "FIRST", a.String())
	assert.Equal(t, "THIRD", c.String())

	assert.Equal(t, 3, fake.callsFor("b"))
	assert.Equal(t, 1, fake.callsFor("a"))
	require.Len(t, report.Failures, 1)
	assert.Equal(t, []string{"b"}, report.Failures[0].Keys)
	assert.ErrorIs(t, report.Err(), boom)
	assert.Equal(t, 3, report.Batches)
	assert.Equal(t, 2, report.Translated)
}

func TestTranslateRetriesNilReply(t *testing.T) {
	source := dict.New()
	source.SetText("a", "first")

	fake := newFakeTranslator(func(*dict.Dictionary) (*dict.Dictionary, error) { return nil, nil })

	report, err := NewAdapter(fake, testOptions()).Translate(context.Background(), source, korean(t), nil)
	require.NoError(t, err)

	assert.False(t, report.Target.Has("a"))
	assert.Equal(t, 3, fake.callsFor("a"))
	require.Len(t, report.Failures, 1)
	var pe *ProviderError
	require.ErrorAs(t, report.Failures[0].Err, &pe)
	assert.Equal(t, "empty reply", pe.Message)
}

func TestTranslateCopySourceKeepsFailedKeys(t *testing.T) {
	source := dict.New()
	source.SetText("a", "first")
	source.SetText("b", "second")

	fake := newFakeTranslator(func(batch *dict.Dictionary) (*dict.Dictionary, error) {
		if batch.Has("b") {
			return nil, Permanent(errors.New("rejected"))
		}
		return upper(batch)
	})

	opts := testOptions()
	opts.Fallback = CopySource
	report, err := NewAdapter(fake, opts).Translate(context.Background(), source, korean(t), nil)
	require.NoError(t, err)

	b, ok := report.Target.Get("b")
	require.True(t, ok)
	assert.Equal(t, "second", b.String())
	assert.Equal(t, 1, fake.callsFor("b"))
	assert.Equal(t, []string{"a", "b"}, report.Target.Keys())
}

func TestTranslateRejectsShapeMismatch(t *testing.T) {
	source := dict.New()
	source.Set("lines", dict.Lines("one", "two"))
	source.SetText("text", "hello")

	fake := newFakeTranslator(func(batch *dict.Dictionary) (*dict.Dictionary, error) {
		out := dict.New()
		out.Set("lines", dict.Lines("ONE"))
		out.SetText("text", "HELLO")
		return out, nil
	})

	opts := testOptions()
	opts.MaxBatchEntries = 10
	report, err := NewAdapter(fake, opts).Translate(context.Background(), source, korean(t), nil)
	require.NoError(t, err)

	assert.False(t, report.Target.Has("lines"))
	assert.True(t, report.Target.Has("text"))
	require.Len(t, report.Failures, 1)
	var se *ShapeError
	require.ErrorAs(t, report.Failures[0], &se)
	assert.Equal(t, "lines", se.Key)
	assert.Equal(t, []string{"lines"}, report.FailedKeys())
}

func TestTranslateSkipsLiterals(t *testing.T) {
	source := dict.New()
	source.SetText("img", "{image:foo.png}")
	source.SetText("link", "[ \"\", {\"text\": \"x\"} ]")
	source.SetText("text", "hello")

	fake := newFakeTranslator(upper)
	report, err := NewAdapter(fake, testOptions()).Translate(context.Background(), source, korean(t), nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"img", "link"}, report.Skipped)
	assert.Equal(t, 0, fake.callsFor("img"))
	img, _ := report.Target.Get("img")
	assert.Equal(t, "{image:foo.png}", img.String())
	assert.Equal(t, 1, report.Batches)
}

func TestTranslateOnlyMissing(t *testing.T) {
	source := dict.New()
	source.SetText("done", "hello")
	source.SetText("todo", "world")

	into := dict.New()
	into.SetText("done", "안녕")
	into.SetText("todo", "world")

	fake := newFakeTranslator(upper)
	opts := testOptions()
	opts.OnlyMissing = true
	report, err := NewAdapter(fake, opts).Translate(context.Background(), source, korean(t), into)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Kept)
	assert.Equal(t, 0, fake.callsFor("done"))
	done, _ := report.Target.Get("done")
	todo, _ := report.Target.Get("todo")
	assert.Equal(t, "안녕", done.String())
	assert.Equal(t, "WORLD", todo.String())
}

type mapCache struct {
	mu sync.Mutex
	m  map[string]string
}

func (c *mapCache) Get(_ context.Context, lang, source string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.m[lang+"\x00"+source]
	return v, ok
}

func (c *mapCache) Set(_ context.Context, lang, source, translated string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[lang+"\x00"+source] = translated
	return nil
}

type recordingMemory struct {
	pairs []Pair
}

func (m *recordingMemory) Remember(_ context.Context, _ locale.Locale, pairs []Pair) error {
	m.pairs = append(m.pairs, pairs...)
	return nil
}

func TestTranslateUsesCacheAndMemory(t *testing.T) {
	source := dict.New()
	source.SetText("a", "hello")
	source.Set("b", dict.Lines("one", "", "two"))

	cache := &mapCache{m: make(map[string]string)}
	memory := &recordingMemory{}
	fake := newFakeTranslator(upper)
	adapter := NewAdapter(fake, testOptions()).WithCache(cache).WithMemory(memory)

	_, err := adapter.Translate(context.Background(), source, korean(t), nil)
	require.NoError(t, err)
	assert.Len(t, memory.pairs, 4)

	report, err := adapter.Translate(context.Background(), source, korean(t), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Cached)
	assert.Equal(t, 0, report.Batches)
	assert.Equal(t, 1, fake.callsFor("a"))
	b, _ := report.Target.Get("b")
	assert.Equal(t, dict.Lines("ONE", "", "TWO"), b)
}

func TestTranslateReportsProgress(t *testing.T) {
	source := dict.New()
	for _, k := range []string{"a", "b", "c", "d"} {
		source.SetText(k, k)
	}

	var mu sync.Mutex
	var seen []int
	opts := testOptions()
	opts.OnProgress = func(done, total int) {
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, 4, total)
		seen = append(seen, done)
	}

	_, err := NewAdapter(newFakeTranslator(upper), opts).Translate(context.Background(), source, korean(t), nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{1, 2, 3, 4}, seen)
}

func TestTranslateCancelled(t *testing.T) {
	source := dict.New()
	source.SetText("a", "hello")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := NewAdapter(newFakeTranslator(upper), testOptions()).Translate(ctx, source, korean(t), nil)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, report)
	assert.False(t, report.Target.Has("a"))
}
