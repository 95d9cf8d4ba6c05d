package translation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quest-localizer/internal/dict"
)

func TestParseReply(t *testing.T) {
	for _, reply := range []string{
		`{"a": "x", "b": ["1", "2"]}`,
		"```json\n{\"a\": \"x\", \"b\": [\"1\", \"2\"]}\n```",
		"Here you go:\n{\"a\": \"x\", \"b\": [\"1\", \"2\"]}",
	} {
		d, err := ParseReply(reply)
		require.NoError(t, err, reply)
		assert.Equal(t, []string{"a", "b"}, d.Keys())
		b, _ := d.Get("b")
		assert.Equal(t, dict.Lines("1", "2"), b)
	}

	_, err := ParseReply("no json here")
	assert.Error(t, err)
}

func TestBuildBatchUserPrompt(t *testing.T) {
	pb := NewPromptBuilder()
	batch := dict.New()
	batch.SetText("k", "Stone Age")

	prompt, err := pb.BuildBatchUserPrompt(batch, korean(t), "")
	require.NoError(t, err)
	assert.Equal(t, "Target language: Korean (ko_kr)\n\nJSON to translate:\n{\n    \"k\": \"Stone Age\"\n}", prompt)

	system := pb.GetSystemPrompt(korean(t))
	assert.Contains(t, system, "into Korean (ko_kr)")
	assert.Contains(t, system, "%s, %d and %%")
}

func TestValidate(t *testing.T) {
	request := dict.New()
	request.SetText("single", "a")
	request.Set("list", dict.Lines("a", "b"))
	request.SetText("slip", "a")
	request.SetText("gone", "a")
	request.SetText("blank", "a")

	reply := dict.New()
	reply.SetText("blank", "")
	reply.SetText("single", "A")
	reply.Set("list", dict.Lines("A", "B"))
	reply.Set("slip", dict.Lines("A"))
	reply.SetText("extra", "?")

	accepted, rejected := validate(request, reply)
	assert.Equal(t, []string{"single", "list", "slip"}, accepted.Keys())
	slip, _ := accepted.Get("slip")
	assert.Equal(t, dict.Text("A"), slip)

	require.Len(t, rejected, 2)
	assert.Equal(t, "gone", rejected[0].Key)
	assert.Equal(t, "blank", rejected[1].Key)
}

func TestValidateRejectsNullValues(t *testing.T) {
	request := dict.New()
	request.SetText("pack.c.title", "Welcome")
	request.SetText("pack.c.subtitle", "Start")

	reply, err := ParseReply(`{"pack.c.title": null, "pack.c.subtitle": "시작"}`)
	require.NoError(t, err)

	accepted, rejected := validate(request, reply)
	assert.Equal(t, []string{"pack.c.subtitle"}, accepted.Keys())
	require.Len(t, rejected, 1)
	assert.Equal(t, "pack.c.title", rejected[0].Key)
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, entryOverhead+1+2, EstimateTokens("k", dict.Text("Hello")))
	assert.Equal(t, entryOverhead+1+2, EstimateTokens("k", dict.Text("안녕")))
	assert.Equal(t, entryOverhead+1+1+1, EstimateTokens("k", dict.Lines("a", "b")))
}
