// Package seed loads translations made earlier, for example a modpack's
// shipped ko_kr.json next to its en_us.json, into the translation cache and
// memory so new runs reuse them.
package seed

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"quest-localizer/internal/dict"
	"quest-localizer/internal/document"
	"quest-localizer/internal/locale"
	"quest-localizer/internal/textutil"
	"quest-localizer/internal/translation"
)

// SeedEntry is one source line and its known translation.
type SeedEntry struct {
	Key            string `json:"key"`
	SourceText     string `json:"source_text"`
	TranslatedText string `json:"translated_text"`
	Lang           string `json:"lang"`
	Hash           string `json:"hash"`
}

// Pairs aligns source and target dictionaries by key and line. Keys missing
// from target, values whose line counts differ and lines left untranslated
// are dropped. Entries are unique per source line.
func Pairs(source, target *dict.Dictionary, lang locale.Locale) []SeedEntry {
	seen := make(map[string]bool)
	var entries []SeedEntry
	skipped := 0

	source.Each(func(key string, sv dict.Value) bool {
		tv, ok := target.Get(key)
		if !ok {
			return true
		}
		if len(sv.Lines) != len(tv.Lines) {
			skipped++
			log.Debug().Str("key", key).Msg("Skipping seed value with mismatched lines")
			return true
		}
		for i, src := range sv.Lines {
			dst := tv.Lines[i]
			if strings.TrimSpace(src) == "" || strings.TrimSpace(dst) == "" || src == dst || document.IsWrapped(src) {
				continue
			}
			hash := textutil.Hash(lang.Code, src)
			if seen[hash] {
				continue
			}
			seen[hash] = true
			entries = append(entries, SeedEntry{
				Key:            key,
				SourceText:     src,
				TranslatedText: dst,
				Lang:           lang.Code,
				Hash:           hash,
			})
		}
		return true
	})

	log.Info().Int("pairs", len(entries)).Int("skipped", skipped).Str("lang", lang.Code).Msg("Aligned seed dictionaries")
	return entries
}

// BatchCache is a translation cache that takes many entries at once.
type BatchCache interface {
	SetBatch(ctx context.Context, lang string, pairs map[string]string) error
}

// Seeder writes seed entries to the cache and the translation memory. Either
// may be nil.
type Seeder struct {
	cache  BatchCache
	memory translation.Memory
}

// NewSeeder creates a new seeder.
func NewSeeder(cache BatchCache, memory translation.Memory) *Seeder {
	return &Seeder{cache: cache, memory: memory}
}

// Ingest stores entries for the target language.
func (s *Seeder) Ingest(ctx context.Context, target locale.Locale, entries []SeedEntry) error {
	if len(entries) == 0 {
		return nil
	}

	if s.cache != nil {
		m := make(map[string]string, len(entries))
		for _, e := range entries {
			m[e.SourceText] = e.TranslatedText
		}
		if err := s.cache.SetBatch(ctx, target.Code, m); err != nil {
			return fmt.Errorf("cache seed translations: %w", err)
		}
	}

	if s.memory != nil {
		pairs := make([]translation.Pair, len(entries))
		for i, e := range entries {
			pairs[i] = translation.Pair{Key: e.Key, Source: e.SourceText, Translated: e.TranslatedText}
		}
		if err := s.memory.Remember(ctx, target, pairs); err != nil {
			return fmt.Errorf("store seed memory: %w", err)
		}
	}

	log.Info().Int("entries", len(entries)).Str("lang", target.Code).Msg("Seed translations stored")
	return nil
}
