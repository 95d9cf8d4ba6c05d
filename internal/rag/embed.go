package rag

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"slices"
	"time"

	"github.com/rs/zerolog/log"

	"quest-localizer/internal/textutil"
)

// EmbeddingClient generates text embeddings via an OpenAI-compatible
// /embeddings endpoint.
type EmbeddingClient struct {
	apiKey     string
	model      string
	baseURL    string
	dimensions int
	httpClient *http.Client
}

// NewEmbeddingClient creates a new embedding client. baseURL is the API root,
// e.g. https://api.openai.com/v1.
func NewEmbeddingClient(apiKey, model, baseURL string, dimensions int) *EmbeddingClient {
	if dimensions <= 0 {
		dimensions = 768
	}
	return &EmbeddingClient{
		apiKey:     apiKey,
		model:      model,
		baseURL:    baseURL,
		dimensions: dimensions,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Dimensions is the vector length the client asks for.
func (ec *EmbeddingClient) Dimensions() int {
	return ec.dimensions
}

// --- OpenAI-compatible request/response types ---

type embeddingRequest struct {
	Input      []string `json:"input"`
	Model      string   `json:"model"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type embeddingResponse struct {
	Data  []embeddingData `json:"data"`
	Usage embeddingUsage  `json:"usage"`
}

type embeddingData struct {
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

type embeddingUsage struct {
	TotalTokens int `json:"total_tokens"`
}

// Embed generates embeddings for texts, in input order. Repeated texts are
// sent once.
func (ec *EmbeddingClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	unique, slots := dedupe(texts)
	vectors, err := ec.request(ctx, unique)
	if err != nil {
		return nil, err
	}

	results := make([][]float32, len(texts))
	for i, slot := range slots {
		results[i] = vectors[slot]
	}
	return results, nil
}

// dedupe returns the distinct texts and, per input, the index of its text among them.
func dedupe(texts []string) ([]string, []int) {
	index := make(map[string]int, len(texts))
	var unique []string
	slots := make([]int, len(texts))
	for i, t := range texts {
		slot, ok := index[t]
		if !ok {
			slot = len(unique)
			index[t] = slot
			unique = append(unique, t)
		}
		slots[i] = slot
	}
	return unique, slots
}

func (ec *EmbeddingClient) request(ctx context.Context, inputs []string) ([][]float32, error) {
	body, err := json.Marshal(embeddingRequest{
		Input:      inputs,
		Model:      ec.model,
		Dimensions: ec.dimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal embedding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ec.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create embedding request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+ec.apiKey)

	resp, err := ec.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding API call: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read embedding response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding API error (status %d): %s", resp.StatusCode, textutil.Truncate(string(payload), 300))
	}

	var decoded embeddingResponse
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil, fmt.Errorf("unmarshal embedding response: %w", err)
	}

	vectors := make([][]float32, len(inputs))
	for _, d := range decoded.Data {
		if d.Index < 0 || d.Index >= len(vectors) {
			continue
		}
		if len(d.Embedding) != ec.dimensions {
			return nil, fmt.Errorf("embedding %d has %d dimensions, want %d", d.Index, len(d.Embedding), ec.dimensions)
		}
		vectors[d.Index] = d.Embedding
	}
	for i, v := range vectors {
		if v == nil {
			return nil, fmt.Errorf("no embedding returned for text %d", i)
		}
	}

	log.Debug().
		Int("texts", len(inputs)).
		Int("tokens", decoded.Usage.TotalTokens).
		Msg("Generated embeddings")
	return vectors, nil
}

// EmbedBatch embeds texts in requests of at most batchSize inputs.
func (ec *EmbeddingClient) EmbedBatch(ctx context.Context, texts []string, batchSize int) ([][]float32, error) {
	if batchSize <= 0 {
		batchSize = 32
	}

	all := make([][]float32, 0, len(texts))
	start := 0
	for chunk := range slices.Chunk(texts, batchSize) {
		vectors, err := ec.Embed(ctx, chunk)
		if err != nil {
			return nil, fmt.Errorf("embed texts %d-%d: %w", start, start+len(chunk)-1, err)
		}
		all = append(all, vectors...)
		start += len(chunk)
	}
	return all, nil
}
