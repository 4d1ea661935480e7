// Package rag retrieves knowledge-base snippets for information
// questions so the renderer can answer with real product facts instead
// of guessing.
package rag

import (
	"context"
	"fmt"
	"strings"

	"prospectchat_backend/platform/logger"
	"prospectchat_backend/platform/qdrant"
)

// Embedder turns a question into a query vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Searcher is the vector store lookup.
type Searcher interface {
	Search(ctx context.Context, vector []float32, limit int, minScore float64) ([]qdrant.SearchResult, error)
}

const (
	defaultLimit    = 3
	defaultMinScore = 0.55
	payloadTextKey  = "text"
)

// Service implements the engine's ContextProvider on Qdrant.
type Service struct {
	embedder Embedder
	searcher Searcher
	log      *logger.Logger
}

func New(embedder Embedder, searcher Searcher, log *logger.Logger) *Service {
	return &Service{embedder: embedder, searcher: searcher, log: log}
}

// RetrieveContext returns the most relevant snippets joined into one
// block, or "" when nothing clears the relevance bar.
func (s *Service) RetrieveContext(ctx context.Context, question string) (string, error) {
	vector, err := s.embedder.Embed(ctx, question)
	if err != nil {
		return "", fmt.Errorf("embed question: %w", err)
	}

	results, err := s.searcher.Search(ctx, vector, defaultLimit, defaultMinScore)
	if err != nil {
		return "", fmt.Errorf("search knowledge base: %w", err)
	}

	var snippets []string
	for _, r := range results {
		text, ok := r.Payload[payloadTextKey].(string)
		if !ok || strings.TrimSpace(text) == "" {
			continue
		}
		snippets = append(snippets, strings.TrimSpace(text))
	}
	if len(snippets) == 0 {
		return "", nil
	}
	return strings.Join(snippets, "\n\n"), nil
}
