package glossary

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/rs/zerolog/log"
)

// RelationshipResult represents a graph relationship.
type RelationshipResult struct {
	From string
	Type string
	To   string
}

// QueryResult holds the combined results from a glossary query.
type QueryResult struct {
	Terms         []Term
	Relationships []RelationshipResult
}

// FindTerms finds the terms of lang that occur in text, longest first, with
// their one-hop relationships.
func (s *Store) FindTerms(ctx context.Context, text, lang string) (*QueryResult, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result := &QueryResult{}
	params := map[string]any{"text": normalize(text), "lang": lang}

	termsResult, err := session.Run(ctx, `
		MATCH (t:Term {lang: $lang})
		WHERE $text CONTAINS t.match
		RETURN t.source AS source, t.target AS target, t.category AS category
		ORDER BY size(t.match) DESC
	`, params)
	if err != nil {
		return nil, fmt.Errorf("query terms: %w", err)
	}

	for termsResult.Next(ctx) {
		record := termsResult.Record()
		source, _ := record.Get("source")
		target, _ := record.Get("target")
		category, _ := record.Get("category")

		result.Terms = append(result.Terms, Term{
			Source:   asString(source),
			Target:   asString(target),
			Category: asString(category),
		})
	}

	if len(result.Terms) == 0 {
		return result, nil
	}

	relsResult, err := session.Run(ctx, `
		MATCH (t:Term {lang: $lang})
		WHERE $text CONTAINS t.match
		MATCH (t)-[r]->(neighbor:Term)
		RETURN t.source AS from_node, type(r) AS rel_type, neighbor.source AS to_node
		UNION
		MATCH (t:Term {lang: $lang})
		WHERE $text CONTAINS t.match
		MATCH (neighbor:Term)-[r]->(t)
		RETURN neighbor.source AS from_node, type(r) AS rel_type, t.source AS to_node
	`, params)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to query relationships")
		return result, nil
	}

	for relsResult.Next(ctx) {
		record := relsResult.Record()
		from, _ := record.Get("from_node")
		relType, _ := record.Get("rel_type")
		to, _ := record.Get("to_node")

		result.Relationships = append(result.Relationships, RelationshipResult{
			From: asString(from),
			Type: asString(relType),
			To:   asString(to),
		})
	}

	log.Debug().
		Int("terms", len(result.Terms)).
		Int("relationships", len(result.Relationships)).
		Msg("Glossary query complete")

	return result, nil
}

// All returns every term of lang as a source → target map.
func (s *Store) All(ctx context.Context, lang string) (map[string]string, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.Run(ctx, `
		MATCH (t:Term {lang: $lang})
		RETURN t.source AS source, t.target AS target
	`, map[string]any{"lang": lang})
	if err != nil {
		return nil, fmt.Errorf("get all terms: %w", err)
	}

	terms := make(map[string]string)
	for result.Next(ctx) {
		record := result.Record()
		source, _ := record.Get("source")
		target, _ := record.Get("target")
		terms[asString(source)] = asString(target)
	}

	log.Info().Int("count", len(terms)).Str("lang", lang).Msg("Loaded glossary")
	return terms, nil
}

// Match finds the terms of a loaded glossary that occur in text, longest first.
// It serves runs without a graph database.
func Match(terms map[string]string, text string) []Term {
	lower := normalize(text)
	var found []Term
	for source, target := range terms {
		if m := normalize(source); m != "" && strings.Contains(lower, m) {
			found = append(found, Term{Source: source, Target: target})
		}
	}
	sort.Slice(found, func(i, j int) bool {
		if len(found[i].Source) != len(found[j].Source) {
			return len(found[i].Source) > len(found[j].Source)
		}
		return found[i].Source < found[j].Source
	})
	return found
}

func asString(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
