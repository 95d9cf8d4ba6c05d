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
	"quest-localizer/internal/interpolation"
	"quest-localizer/internal/locale"
)

const (
	deepLBaseURL     = "https://api.deepl.com"
	deepLFreeBaseURL = "https://api-free.deepl.com"
)

// DeepLClient translates a batch in one /v2/translate call.
type DeepLClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewDeepLClient creates a DeepL client. Keys ending in ":fx" use the free API.
func NewDeepLClient(apiKey string) *DeepLClient {
	base := deepLBaseURL
	if strings.HasSuffix(apiKey, ":fx") {
		base = deepLFreeBaseURL
	}
	return &DeepLClient{
		apiKey:     apiKey,
		baseURL:    base,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// Name implements Translator.
func (dc *DeepLClient) Name() string {
	return "deepl"
}

type deepLRequest struct {
	Text               []string `json:"text"`
	TargetLang         string   `json:"target_lang"`
	Context            string   `json:"context,omitempty"`
	PreserveFormatting bool     `json:"preserve_formatting"`
}

type deepLResponse struct {
	Translations []struct {
		DetectedSourceLanguage string `json:"detected_source_language"`
		Text                   string `json:"text"`
	} `json:"translations"`
}

// TranslateBatch implements Translator.
func (dc *DeepLClient) TranslateBatch(ctx context.Context, batch *dict.Dictionary, target locale.Locale) (*dict.Dictionary, error) {
	lang, err := target.DeepL()
	if err != nil {
		return nil, Permanent(err)
	}

	refs, texts := translatableLines(batch)
	if len(texts) == 0 {
		return batch.Clone(), nil
	}

	safe := make([]string, len(texts))
	mappings := make([][]interpolation.Mapping, len(texts))
	for i, t := range texts {
		safe[i], mappings[i] = interpolation.Protect(t)
	}

	reqBody, err := json.Marshal(deepLRequest{
		Text:               safe,
		TargetLang:         lang,
		Context:            "Minecraft modpack quest text",
		PreserveFormatting: true,
	})
	if err != nil {
		return nil, Permanent(fmt.Errorf("marshal translation request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, dc.baseURL+"/v2/translate", bytes.NewReader(reqBody))
	if err != nil {
		return nil, Permanent(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "DeepL-Auth-Key "+dc.apiKey)

	resp, err := dc.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API call: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		// 456 is DeepL's quota exceeded.
		return nil, classifyStatus(dc.Name(), resp.StatusCode, body)
	}

	var apiResp deepLResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if len(apiResp.Translations) != len(texts) {
		return nil, &ProviderError{
			Provider:  dc.Name(),
			Message:   fmt.Sprintf("sent %d texts, got %d translations", len(texts), len(apiResp.Translations)),
			Retryable: true,
		}
	}

	translated := make([]string, len(texts))
	for i, tr := range apiResp.Translations {
		translated[i] = interpolation.EscapeStrayAmpersands(interpolation.Restore(tr.Text, mappings[i]))
	}
	log.Debug().Int("texts", len(texts)).Str("target", lang).Msg("DeepL batch translated")

	return fillLines(batch, refs, translated), nil
}
