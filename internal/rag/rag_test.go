package rag

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quest-localizer/internal/glossary"
	"quest-localizer/internal/locale"
	"quest-localizer/internal/translation"
)

var (
	_ translation.ReferenceProvider = (*Retriever)(nil)
	_ translation.Memory            = (*Retriever)(nil)
)

func TestBuildContextString(t *testing.T) {
	got := BuildContextString(&RetrievalResult{
		Terms: []glossary.Term{{Source: "Ender Pearl", Target: "엔더 진주", Category: "item"}},
		Relationships: []glossary.RelationshipResult{
			{From: "Ender Pearl", Type: "CRAFTS_INTO", To: "Eye of Ender"},
		},
		SimilarTexts: []SearchResult{{Source: "Craft a pearl", Translated: "진주 제작", Score: 0.91}},
	})

	want := "=== Glossary (ALWAYS USE THESE TRANSLATIONS) ===\n" +
		"• Ender Pearl → 엔더 진주 [item]\n\n" +
		"=== Term Relationships ===\n" +
		"• Ender Pearl -[CRAFTS_INTO]-> Eye of Ender\n\n" +
		"=== Earlier Translations ===\n" +
		"1. [Score: 0.910] Craft a pearl → 진주 제작\n\n"
	assert.Equal(t, want, got)
	assert.Empty(t, BuildContextString(&RetrievalResult{}))
}

func TestRetrieverReferencesFromStaticTerms(t *testing.T) {
	ko, err := locale.Parse("ko_kr")
	require.NoError(t, err)

	r := NewRetriever(nil, nil, StaticTerms{"Nether Star": "네더의 별"})
	refs, err := r.References(context.Background(), []string{"Kill the Wither", "Get a nether star"}, ko)
	require.NoError(t, err)
	assert.Contains(t, refs, "• Nether Star → 네더의 별\n")

	// Without a vector store there is nothing to remember into.
	assert.NoError(t, r.Remember(context.Background(), ko, []translation.Pair{{Key: "k", Source: "a", Translated: "b"}}))
}

func TestEmbeddingClientOrdersByIndex(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))

		var req embeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 3, req.Dimensions)

		_ = json.NewEncoder(w).Encode(embeddingResponse{Data: []embeddingData{
			{Index: 1, Embedding: []float32{0, 1, 0}},
			{Index: 0, Embedding: []float32{1, 0, 0}},
		}})
	}))
	defer srv.Close()

	ec := NewEmbeddingClient("key", "m", srv.URL, 3)
	vectors, err := ec.Embed(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 0, 0}, {0, 1, 0}}, vectors)
}

func TestEmbeddingClientMissingVector(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(embeddingResponse{Data: []embeddingData{{Index: 0, Embedding: []float32{1}}}})
	}))
	defer srv.Close()

	_, err := NewEmbeddingClient("key", "m", srv.URL, 1).Embed(context.Background(), []string{"a", "b"})
	assert.Error(t, err)
}

func TestEmbedBatchSendsRepeatedTextsOnce(t *testing.T) {
	var inputs [][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req embeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		inputs = append(inputs, req.Input)

		resp := embeddingResponse{}
		for i, in := range req.Input {
			resp.Data = append(resp.Data, embeddingData{Index: i, Embedding: []float32{float32(len(in)), 0}})
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	ec := NewEmbeddingClient("key", "m", srv.URL, 2)
	vectors, err := ec.EmbedBatch(context.Background(), []string{"a", "bb", "a", "ccc"}, 3)
	require.NoError(t, err)

	assert.Equal(t, [][]string{{"a", "bb"}, {"ccc"}}, inputs)
	assert.Equal(t, [][]float32{{1, 0}, {2, 0}, {1, 0}, {3, 0}}, vectors)
}

func TestEmbeddingClientDimensionMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(embeddingResponse{Data: []embeddingData{{Index: 0, Embedding: []float32{1, 2}}}})
	}))
	defer srv.Close()

	_, err := NewEmbeddingClient("key", "m", srv.URL, 3).Embed(context.Background(), []string{"a"})
	assert.ErrorContains(t, err, "want 3")
}
