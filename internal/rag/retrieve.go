package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"quest-localizer/internal/glossary"
	"quest-localizer/internal/locale"
	"quest-localizer/internal/textutil"
	"quest-localizer/internal/translation"
)

// maxQueries bounds the lines of one batch that go through vector search.
const maxQueries = 8

// RetrievalResult combines glossary and translation memory context for one batch.
type RetrievalResult struct {
	// Terms are agreed translations from the glossary (highest priority).
	Terms []glossary.Term
	// Relationships link the matched terms.
	Relationships []glossary.RelationshipResult
	// SimilarTexts are earlier translations of similar lines.
	SimilarTexts []SearchResult
}

// TermFinder looks up glossary terms occurring in a text.
type TermFinder interface {
	FindTerms(ctx context.Context, text, lang string) (*glossary.QueryResult, error)
}

// Retriever combines the glossary and the translation memory. Every part is
// optional; a Retriever without any of them returns empty references.
type Retriever struct {
	vectorStore     *VectorStore
	embeddingClient *EmbeddingClient
	terms           TermFinder
	topK            int
}

// NewRetriever creates a new combined retriever.
func NewRetriever(vs *VectorStore, ec *EmbeddingClient, terms TermFinder) *Retriever {
	return &Retriever{
		vectorStore:     vs,
		embeddingClient: ec,
		terms:           terms,
		topK:            2,
	}
}

func (r *Retriever) hasMemory() bool {
	return r.vectorStore != nil && r.embeddingClient != nil
}

// Retrieve fetches context for the lines of one batch.
// Priority order: glossary terms > translation memory.
func (r *Retriever) Retrieve(ctx context.Context, texts []string, target locale.Locale) (*RetrievalResult, error) {
	result := &RetrievalResult{}
	if len(texts) == 0 {
		return result, nil
	}

	if r.terms != nil {
		found, err := r.terms.FindTerms(ctx, strings.Join(texts, "\n"), target.Code)
		if err != nil {
			log.Warn().Err(err).Msg("Glossary query failed")
		} else if found != nil {
			result.Terms = found.Terms
			result.Relationships = found.Relationships
		}
	}

	if r.hasMemory() {
		queries := texts
		if len(queries) > maxQueries {
			queries = queries[:maxQueries]
		}
		vectors, err := r.embeddingClient.Embed(ctx, queries)
		if err != nil {
			log.Warn().Err(err).Str("text", textutil.Truncate(queries[0], 50)).Msg("Failed to embed queries, skipping memory search")
			return result, nil
		}
		seen := make(map[string]bool)
		for _, v := range vectors {
			similar, err := r.vectorStore.Search(ctx, target.Code, v, r.topK)
			if err != nil {
				log.Warn().Err(err).Msg("Vector search failed")
				break
			}
			for _, s := range similar {
				if !seen[s.Source] {
					seen[s.Source] = true
					result.SimilarTexts = append(result.SimilarTexts, s)
				}
			}
		}
	}

	return result, nil
}

// References implements translation.ReferenceProvider.
func (r *Retriever) References(ctx context.Context, texts []string, target locale.Locale) (string, error) {
	result, err := r.Retrieve(ctx, texts, target)
	if err != nil {
		return "", err
	}
	return BuildContextString(result), nil
}

// Remember implements translation.Memory by embedding and storing every
// accepted line.
func (r *Retriever) Remember(ctx context.Context, target locale.Locale, pairs []translation.Pair) error {
	if !r.hasMemory() {
		return nil
	}

	var kept []translation.Pair
	for _, p := range pairs {
		if strings.TrimSpace(p.Source) != "" && p.Source != p.Translated {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		return nil
	}

	texts := make([]string, len(kept))
	for i, p := range kept {
		texts[i] = p.Source
	}
	vectors, err := r.embeddingClient.EmbedBatch(ctx, texts, 64)
	if err != nil {
		return fmt.Errorf("embed translation memory: %w", err)
	}

	records := make([]MemoryRecord, len(kept))
	for i, p := range kept {
		records[i] = MemoryRecord{
			Hash:       textutil.Hash(target.Code, p.Source),
			Lang:       target.Code,
			Key:        p.Key,
			Source:     p.Source,
			Translated: p.Translated,
			Vector:     vectors[i],
		}
	}
	return r.vectorStore.Store(ctx, records)
}

// BuildContextString formats retrieval results for the prompt. Glossary
// terms appear first.
func BuildContextString(result *RetrievalResult) string {
	var sb strings.Builder

	if len(result.Terms) > 0 {
		sb.WriteString("=== Glossary (ALWAYS USE THESE TRANSLATIONS) ===\n")
		for _, term := range result.Terms {
			sb.WriteString(fmt.Sprintf("• %s → %s", term.Source, term.Target))
			if term.Category != "" {
				sb.WriteString(fmt.Sprintf(" [%s]", term.Category))
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")

		if len(result.Relationships) > 0 {
			sb.WriteString("=== Term Relationships ===\n")
			for _, rel := range result.Relationships {
				sb.WriteString(fmt.Sprintf("• %s -[%s]-> %s\n", rel.From, rel.Type, rel.To))
			}
			sb.WriteString("\n")
		}
	}

	if len(result.SimilarTexts) > 0 {
		sb.WriteString("=== Earlier Translations ===\n")
		for i, st := range result.SimilarTexts {
			sb.WriteString(fmt.Sprintf("%d. [Score: %.3f] %s → %s\n", i+1, st.Score, st.Source, st.Translated))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// StaticTerms serves a glossary loaded into memory, for runs without Neo4j.
type StaticTerms map[string]string

// FindTerms implements TermFinder.
func (s StaticTerms) FindTerms(_ context.Context, text, _ string) (*glossary.QueryResult, error) {
	return &glossary.QueryResult{Terms: glossary.Match(s, text)}, nil
}
