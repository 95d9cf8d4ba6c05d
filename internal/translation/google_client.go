package translation

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/valyala/fastjson"

	"quest-localizer/internal/dict"
	"quest-localizer/internal/interpolation"
	"quest-localizer/internal/locale"
)

const googleBaseURL = "https://translate.googleapis.com/translate_a/single"

// GoogleClient translates line by line through the public Google Translate
// endpoint. It needs no key.
type GoogleClient struct {
	baseURL    string
	httpClient *http.Client
	parsers    fastjson.ParserPool
}

// NewGoogleClient creates a Google Translate client.
func NewGoogleClient() *GoogleClient {
	return &GoogleClient{
		baseURL:    googleBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Name implements Translator.
func (gc *GoogleClient) Name() string {
	return "google"
}

// TranslateBatch implements Translator with one request per line.
func (gc *GoogleClient) TranslateBatch(ctx context.Context, batch *dict.Dictionary, target locale.Locale) (*dict.Dictionary, error) {
	if !target.Translatable() {
		return nil, Permanent(fmt.Errorf("google cannot translate into %s", target.Code))
	}

	refs, texts := translatableLines(batch)
	translated := make([]string, len(texts))
	for i, text := range texts {
		safe, mappings := interpolation.Protect(text)
		out, err := gc.translateText(ctx, safe, target.Google)
		if err != nil {
			return nil, err
		}
		translated[i] = interpolation.EscapeStrayAmpersands(interpolation.Restore(out, mappings))
	}
	return fillLines(batch, refs, translated), nil
}

func (gc *GoogleClient) translateText(ctx context.Context, text, lang string) (string, error) {
	q := url.Values{}
	q.Set("client", "gtx")
	q.Set("sl", "auto")
	q.Set("tl", lang)
	q.Set("dt", "t")
	q.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, gc.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return "", Permanent(fmt.Errorf("create request: %w", err))
	}

	resp, err := gc.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("API call: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", classifyStatus(gc.Name(), resp.StatusCode, body)
	}

	return gc.parseReply(body)
}

// parseReply joins the sentence segments of a reply shaped like
// [[["Hola","Hello",...],["mundo","world",...]],null,"en"].
func (gc *GoogleClient) parseReply(body []byte) (string, error) {
	p := gc.parsers.Get()
	defer gc.parsers.Put(p)

	v, err := p.ParseBytes(body)
	if err != nil {
		return "", fmt.Errorf("parse reply: %w", err)
	}
	segments := v.GetArray("0")
	if segments == nil {
		return "", &ProviderError{Provider: gc.Name(), Message: "reply holds no sentences", Retryable: true}
	}
	var sb strings.Builder
	for _, seg := range segments {
		sb.Write(seg.GetStringBytes("0"))
	}
	return sb.String(), nil
}
