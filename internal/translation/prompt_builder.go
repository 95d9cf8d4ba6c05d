package translation

import (
	"bytes"
	"fmt"
	"strings"

	"quest-localizer/internal/dict"
	"quest-localizer/internal/locale"
)

// PromptBuilder constructs system and user prompts for translation.
type PromptBuilder struct{}

// NewPromptBuilder creates a new prompt builder.
func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

const systemPrompt = `You are a professional game localizer translating Minecraft modpack quests.

You receive a JSON object whose values are quest titles, subtitles and descriptions.

Rules:
1. Translate every value into %s. Keep every key exactly as given.
2. A value that is an array must stay an array with the same number of elements, in the same order. Translate element by element.
3. Preserve ALL placeholders like {{var_1}}, {{var_2}} and tokens like {pack.key}, {@pagebreak}, %%s, %%d and %%%% exactly as-is.
4. Preserve Minecraft color and format codes such as &a, &l, §6 and escapes such as \" and \&.
5. Values wrapped in [ ] or { } are literals. Copy them unchanged.
6. Empty strings stay empty.
7. Use the terminology reference when it is provided.
8. Output ONLY the translated JSON object. No explanations, no code fences.`

// GetSystemPrompt returns the system prompt for translating into target.
func (pb *PromptBuilder) GetSystemPrompt(target locale.Locale) string {
	return fmt.Sprintf(systemPrompt, targetName(target))
}

// BuildBatchUserPrompt renders the batch as a JSON object, preceded by the
// reference section when there is one.
func (pb *PromptBuilder) BuildBatchUserPrompt(batch *dict.Dictionary, target locale.Locale, references string) (string, error) {
	body, err := dict.EncodeJSON(batch)
	if err != nil {
		return "", fmt.Errorf("encode batch: %w", err)
	}

	var sb strings.Builder
	if references != "" {
		sb.WriteString(references)
		if !strings.HasSuffix(references, "\n\n") {
			sb.WriteString("\n")
		}
	}
	sb.WriteString(fmt.Sprintf("Target language: %s\n\n", targetName(target)))
	sb.WriteString("JSON to translate:\n")
	sb.Write(bytes.TrimSpace(body))
	return sb.String(), nil
}

func targetName(target locale.Locale) string {
	return fmt.Sprintf("%s (%s)", target.DisplayName(), target.Code)
}

// ParseReply extracts the JSON object from a model reply, tolerating code
// fences and text around it.
func ParseReply(reply string) (*dict.Dictionary, error) {
	text := strings.TrimSpace(reply)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end < start {
		return nil, fmt.Errorf("reply holds no JSON object")
	}
	d, err := dict.ParseJSON([]byte(text[start : end+1]))
	if err != nil {
		return nil, fmt.Errorf("parse reply: %w", err)
	}
	return d, nil
}
