package rag

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"
	"github.com/rs/zerolog/log"
)

// VectorStore keeps accepted translations with the embedding of their source
// line in PostgreSQL (pgvector) for similarity search.
type VectorStore struct {
	pool *pgxpool.Pool
}

// NewVectorStore creates a new vector store.
func NewVectorStore(pool *pgxpool.Pool) *VectorStore {
	return &VectorStore{pool: pool}
}

// MemoryRecord is one remembered translation.
type MemoryRecord struct {
	Hash       string
	Lang       string
	Key        string
	Source     string
	Translated string
	Vector     []float32
}

// SearchResult represents a similarity search match.
type SearchResult struct {
	Source     string
	Translated string
	Score      float64
}

// EnsureSchema creates the vector extension and the memory table.
func (vs *VectorStore) EnsureSchema(ctx context.Context, dimensions int) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS translation_memory (
    hash       TEXT PRIMARY KEY,
    lang       TEXT NOT NULL,
    key        TEXT NOT NULL,
    source     TEXT NOT NULL,
    translated TEXT NOT NULL,
    embedding  vector(%d) NOT NULL
)`, dimensions),
		`CREATE INDEX IF NOT EXISTS translation_memory_embedding_idx
    ON translation_memory USING hnsw (embedding vector_cosine_ops)`,
	}
	for _, s := range stmts {
		if _, err := vs.pool.Exec(ctx, s); err != nil {
			return fmt.Errorf("create memory schema: %w", err)
		}
	}
	return nil
}

// Store upserts memory records in one batch.
func (vs *VectorStore) Store(ctx context.Context, records []MemoryRecord) error {
	if len(records) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, r := range records {
		batch.Queue(`
INSERT INTO translation_memory (hash, lang, key, source, translated, embedding)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (hash) DO UPDATE SET translated = EXCLUDED.translated, key = EXCLUDED.key`,
			r.Hash, r.Lang, r.Key, r.Source, r.Translated, pgvector.NewVector(r.Vector))
	}
	if err := vs.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert memory records: %w", err)
	}

	log.Info().Int("count", len(records)).Msg("Stored translation memory")
	return nil
}

// Search finds the topK remembered translations into lang whose source is
// closest to the query vector.
func (vs *VectorStore) Search(ctx context.Context, lang string, queryVector []float32, topK int) ([]SearchResult, error) {
	rows, err := vs.pool.Query(ctx, `
SELECT source, translated, 1 - (embedding <=> $1) AS similarity
FROM translation_memory
WHERE lang = $2
ORDER BY embedding <=> $1
LIMIT $3`, pgvector.NewVector(queryVector), lang, topK)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.Source, &r.Translated, &r.Score); err != nil {
			return nil, fmt.Errorf("vector search: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	return results, nil
}
