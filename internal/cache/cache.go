package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"quest-localizer/internal/textutil"
)

const schema = `
CREATE TABLE IF NOT EXISTS translation_cache (
    hash       TEXT PRIMARY KEY,
    lang       TEXT NOT NULL,
    source     TEXT NOT NULL,
    translated TEXT NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS translation_cache_lang_idx ON translation_cache (lang);`

// TranslationCache provides in-memory + PostgreSQL-backed caching of line
// translations per target language.
type TranslationCache struct {
	pool   *pgxpool.Pool
	mu     sync.RWMutex
	memory map[string]string // hash → translated text
}

// NewTranslationCache creates a new cache backed by PostgreSQL. A nil pool
// gives a cache that lives in memory only.
func NewTranslationCache(pool *pgxpool.Pool) *TranslationCache {
	return &TranslationCache{
		pool:   pool,
		memory: make(map[string]string),
	}
}

func key(lang, source string) string {
	return textutil.Hash(lang, source)
}

// EnsureSchema creates the cache table.
func (c *TranslationCache) EnsureSchema(ctx context.Context) error {
	if c.pool == nil {
		return nil
	}
	if _, err := c.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create cache schema: %w", err)
	}
	return nil
}

// Get retrieves a cached translation. Returns empty string and false if not found.
func (c *TranslationCache) Get(ctx context.Context, lang, sourceText string) (string, bool) {
	hash := key(lang, sourceText)

	// Check in-memory cache first.
	c.mu.RLock()
	if v, ok := c.memory[hash]; ok {
		c.mu.RUnlock()
		return v, true
	}
	c.mu.RUnlock()

	if c.pool == nil {
		return "", false
	}

	var translated string
	err := c.pool.QueryRow(ctx, `SELECT translated FROM translation_cache WHERE hash = $1`, hash).Scan(&translated)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			log.Debug().Err(err).Msg("Cache lookup failed")
		}
		return "", false
	}

	// Populate in-memory cache.
	c.mu.Lock()
	c.memory[hash] = translated
	c.mu.Unlock()

	return translated, true
}

// Set stores a translation in both in-memory and PostgreSQL cache.
func (c *TranslationCache) Set(ctx context.Context, lang, sourceText, translated string) error {
	hash := key(lang, sourceText)

	c.mu.Lock()
	c.memory[hash] = translated
	c.mu.Unlock()

	if c.pool == nil {
		return nil
	}

	_, err := c.pool.Exec(ctx, `
INSERT INTO translation_cache (hash, lang, source, translated)
VALUES ($1, $2, $3, $4)
ON CONFLICT (hash) DO UPDATE SET translated = EXCLUDED.translated, updated_at = now()`,
		hash, lang, sourceText, translated)
	if err != nil {
		return fmt.Errorf("cache set: %w", err)
	}

	return nil
}

// SetBatch stores multiple translations for one language in a single round trip.
func (c *TranslationCache) SetBatch(ctx context.Context, lang string, pairs map[string]string) error {
	c.mu.Lock()
	for source, translated := range pairs {
		c.memory[key(lang, source)] = translated
	}
	c.mu.Unlock()

	if c.pool == nil || len(pairs) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for source, translated := range pairs {
		batch.Queue(`
INSERT INTO translation_cache (hash, lang, source, translated)
VALUES ($1, $2, $3, $4)
ON CONFLICT (hash) DO UPDATE SET translated = EXCLUDED.translated, updated_at = now()`,
			key(lang, source), lang, source, translated)
	}
	if err := c.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("cache set batch: %w", err)
	}
	return nil
}

// Preload loads every cached translation for lang into memory.
func (c *TranslationCache) Preload(ctx context.Context, lang string) error {
	if c.pool == nil {
		return nil
	}

	rows, err := c.pool.Query(ctx, `SELECT hash, translated FROM translation_cache WHERE lang = $1`, lang)
	if err != nil {
		return fmt.Errorf("preload cache: %w", err)
	}
	defer rows.Close()

	c.mu.Lock()
	defer c.mu.Unlock()

	count := 0
	for rows.Next() {
		var hash, translated string
		if err := rows.Scan(&hash, &translated); err != nil {
			return fmt.Errorf("preload cache: %w", err)
		}
		c.memory[hash] = translated
		count++
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("preload cache: %w", err)
	}

	log.Info().Int("count", count).Str("lang", lang).Msg("Preloaded translation cache")
	return nil
}

// Len returns the number of translations held in memory.
func (c *TranslationCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.memory)
}
