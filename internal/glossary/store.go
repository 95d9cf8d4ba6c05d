// Package glossary keeps modpack terminology (item, mob and place names with
// their agreed translations) in a Neo4j graph.
package glossary

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/rs/zerolog/log"
)

// Term maps a source-language term to its translation in one language.
type Term struct {
	Source   string `json:"source"`
	Target   string `json:"target"`
	Category string `json:"category,omitempty"` // item, mob, place, mechanic, mod
}

// Relationship is a directed edge between two terms of the same language.
type Relationship struct {
	From string `json:"from"`
	Type string `json:"type"`
	To   string `json:"to"`
}

// File is the glossary import format.
type File struct {
	Lang          string         `json:"lang"`
	Terms         []Term         `json:"terms"`
	Relationships []Relationship `json:"relationships,omitempty"`
}

var relTypePattern = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)

// ParseFile reads and checks a glossary import file.
func ParseFile(data []byte) (*File, error) {
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse glossary: %w", err)
	}
	if f.Lang == "" {
		return nil, fmt.Errorf("glossary has no lang")
	}
	for i, t := range f.Terms {
		if strings.TrimSpace(t.Source) == "" || strings.TrimSpace(t.Target) == "" {
			return nil, fmt.Errorf("glossary term %d: source and target are required", i)
		}
	}
	for i, r := range f.Relationships {
		if !relTypePattern.MatchString(r.Type) {
			return nil, fmt.Errorf("glossary relationship %d: type %q must be UPPER_SNAKE_CASE", i, r.Type)
		}
	}
	return &f, nil
}

// termID identifies a term per language, case-insensitively.
func termID(lang, source string) string {
	return lang + ":" + normalize(source)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Store seeds and updates the Neo4j terminology graph.
type Store struct {
	driver neo4j.DriverWithContext
}

// NewStore creates a new glossary store.
func NewStore(driver neo4j.DriverWithContext) *Store {
	return &Store{driver: driver}
}

// EnsureSchema creates constraints and indexes on the Neo4j database.
func (s *Store) EnsureSchema(ctx context.Context) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	constraints := []string{
		"CREATE CONSTRAINT IF NOT EXISTS FOR (t:Term) REQUIRE t.id IS UNIQUE",
		"CREATE INDEX IF NOT EXISTS FOR (t:Term) ON (t.lang)",
	}

	for _, c := range constraints {
		if _, err := session.Run(ctx, c, nil); err != nil {
			return fmt.Errorf("create constraint: %w", err)
		}
	}

	log.Info().Msg("Glossary schema ensured")
	return nil
}

// Import upserts the terms and relationships of f.
func (s *Store) Import(ctx context.Context, f *File) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	for _, t := range f.Terms {
		_, err := session.Run(ctx, `
			MERGE (t:Term {id: $id})
			SET t.lang = $lang,
			    t.source = $source,
			    t.match = $match,
			    t.target = $target,
			    t.category = $category
		`, map[string]any{
			"id":       termID(f.Lang, t.Source),
			"lang":     f.Lang,
			"source":   t.Source,
			"match":    normalize(t.Source),
			"target":   t.Target,
			"category": t.Category,
		})
		if err != nil {
			return fmt.Errorf("upsert term %s: %w", t.Source, err)
		}
	}

	log.Info().Int("terms", len(f.Terms)).Str("lang", f.Lang).Msg("Imported glossary terms")

	for _, r := range f.Relationships {
		// Relationship types cannot be parameters; ParseFile restricts them.
		_, err := session.Run(ctx, fmt.Sprintf(`
			MATCH (a:Term {id: $from})
			MATCH (b:Term {id: $to})
			MERGE (a)-[:%s]->(b)
		`, r.Type), map[string]any{
			"from": termID(f.Lang, r.From),
			"to":   termID(f.Lang, r.To),
		})
		if err != nil {
			log.Warn().Err(err).
				Str("from", r.From).
				Str("to", r.To).
				Str("rel", r.Type).
				Msg("Failed to create relationship")
		}
	}

	log.Info().Int("relationships", len(f.Relationships)).Msg("Imported glossary relationships")
	return nil
}
