package translation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"quest-localizer/internal/dict"
	"quest-localizer/internal/locale"
)

const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"

// ReferenceProvider supplies glossary terms and earlier translations that
// match the texts of a batch, formatted for a prompt.
type ReferenceProvider interface {
	References(ctx context.Context, texts []string, target locale.Locale) (string, error)
}

// GeminiClient translates batches through the Google Gemini API.
type GeminiClient struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	prompts    *PromptBuilder
	references ReferenceProvider
}

// NewGeminiClient creates a new Gemini translation client.
func NewGeminiClient(apiKey, model string) *GeminiClient {
	return &GeminiClient{
		apiKey:  apiKey,
		model:   model,
		baseURL: geminiBaseURL,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		prompts: NewPromptBuilder(),
	}
}

// WithReferences adds a reference section to every prompt.
func (gc *GeminiClient) WithReferences(p ReferenceProvider) *GeminiClient {
	gc.references = p
	return gc
}

// Name implements Translator.
func (gc *GeminiClient) Name() string {
	return "gemini"
}

// --- Gemini API request/response types ---

type geminiRequest struct {
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
	Contents          []geminiContent `json:"contents"`
	GenerationConfig  *genConfig      `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
	Role  string       `json:"role,omitempty"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type genConfig struct {
	MaxOutputTokens  int     `json:"maxOutputTokens,omitempty"`
	Temperature      float64 `json:"temperature,omitempty"`
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
}

type geminiResponse struct {
	Candidates    []geminiCandidate `json:"candidates"`
	UsageMetadata *geminiUsage      `json:"usageMetadata,omitempty"`
	Error         *geminiError      `json:"error,omitempty"`
}

type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason,omitempty"`
}

type geminiUsage struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

type geminiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// TranslateBatch implements Translator. The batch goes out as one JSON object
// and the reply must be one JSON object with the same keys.
func (gc *GeminiClient) TranslateBatch(ctx context.Context, batch *dict.Dictionary, target locale.Locale) (*dict.Dictionary, error) {
	if batch.Len() == 0 {
		return dict.New(), nil
	}

	p := protect(batch)

	var references string
	if gc.references != nil {
		_, texts := translatableLines(batch)
		refs, err := gc.references.References(ctx, texts, target)
		if err != nil {
			log.Warn().Err(err).Msg("Reference lookup failed, translating without")
		} else {
			references = refs
		}
	}

	userPrompt, err := gc.prompts.BuildBatchUserPrompt(p.safe, target, references)
	if err != nil {
		return nil, Permanent(err)
	}

	reply, err := gc.Translate(ctx, gc.prompts.GetSystemPrompt(target), userPrompt)
	if err != nil {
		return nil, err
	}

	parsed, err := ParseReply(reply)
	if err != nil {
		return nil, &ProviderError{Provider: gc.Name(), Message: err.Error(), Retryable: true}
	}
	return p.restore(parsed), nil
}

// Translate sends one request to Gemini and returns the reply text.
func (gc *GeminiClient) Translate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	reqBody := geminiRequest{
		SystemInstruction: &geminiContent{
			Parts: []geminiPart{{Text: systemPrompt}},
		},
		Contents: []geminiContent{
			{
				Role:  "user",
				Parts: []geminiPart{{Text: userPrompt}},
			},
		},
		GenerationConfig: &genConfig{
			MaxOutputTokens:  8192,
			Temperature:      0.3,
			ResponseMimeType: "application/json",
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", Permanent(fmt.Errorf("marshal translation request: %w", err))
	}

	return gc.doRequest(ctx, bodyBytes)
}

func (gc *GeminiClient) doRequest(ctx context.Context, bodyBytes []byte) (string, error) {
	url := fmt.Sprintf("%s/%s:generateContent?key=%s", gc.baseURL, gc.model, gc.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", Permanent(fmt.Errorf("create request: %w", err))
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := gc.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("API call: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", classifyStatus(gc.Name(), resp.StatusCode, respBody)
	}

	var apiResp geminiResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}

	if apiResp.Error != nil {
		return "", &ProviderError{
			Provider:  gc.Name(),
			Status:    apiResp.Error.Code,
			Message:   fmt.Sprintf("[%s] %s", apiResp.Error.Status, apiResp.Error.Message),
			Retryable: apiResp.Error.Code == http.StatusTooManyRequests || apiResp.Error.Code >= 500,
		}
	}

	if len(apiResp.Candidates) == 0 {
		return "", &ProviderError{Provider: gc.Name(), Message: "empty response: no candidates", Retryable: true}
	}

	// Extract text from the first candidate.
	var result strings.Builder
	for _, p := range apiResp.Candidates[0].Content.Parts {
		result.WriteString(p.Text)
	}

	if apiResp.UsageMetadata != nil {
		log.Debug().
			Int("prompt_tokens", apiResp.UsageMetadata.PromptTokenCount).
			Int("output_tokens", apiResp.UsageMetadata.CandidatesTokenCount).
			Str("finish_reason", apiResp.Candidates[0].FinishReason).
			Msg("Translation complete")
	}

	return strings.TrimSpace(result.String()), nil
}
