package rag

import (
	"context"
	"errors"
	"testing"

	"prospectchat_backend/platform/logger"
	"prospectchat_backend/platform/qdrant"
)

type fakeEmbedder struct {
	err error
}

func (f *fakeEmbedder) Embed(context.Context, string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []float32{0.1, 0.2}, nil
}

type fakeSearcher struct {
	results []qdrant.SearchResult
	err     error
}

func (f *fakeSearcher) Search(context.Context, []float32, int, float64) ([]qdrant.SearchResult, error) {
	return f.results, f.err
}

func TestRetrieveContextJoinsSnippets(t *testing.T) {
	svc := New(&fakeEmbedder{}, &fakeSearcher{results: []qdrant.SearchResult{
		{Score: 0.9, Payload: map[string]interface{}{"text": "We offer a 14 day trial."}},
		{Score: 0.7, Payload: map[string]interface{}{"text": "Plans start at the Basic tier."}},
		{Score: 0.6, Payload: map[string]interface{}{"other": "no text key"}},
	}}, logger.New("development"))

	got, err := svc.RetrieveContext(context.Background(), "do you have a trial?")
	if err != nil {
		t.Fatalf("RetrieveContext: %v", err)
	}
	want := "We offer a 14 day trial.\n\nPlans start at the Basic tier."
	if got != want {
		t.Fatalf("context = %q, want %q", got, want)
	}
}

func TestRetrieveContextEmptyWhenNoHits(t *testing.T) {
	svc := New(&fakeEmbedder{}, &fakeSearcher{}, logger.New("development"))

	got, err := svc.RetrieveContext(context.Background(), "anything")
	if err != nil || got != "" {
		t.Fatalf("got %q, %v; want empty, nil", got, err)
	}
}

func TestRetrieveContextPropagatesErrors(t *testing.T) {
	svc := New(&fakeEmbedder{err: errors.New("model down")}, &fakeSearcher{}, logger.New("development"))
	if _, err := svc.RetrieveContext(context.Background(), "q"); err == nil {
		t.Fatal("embedder failure should surface so the engine can skip retrieval")
	}

	svc = New(&fakeEmbedder{}, &fakeSearcher{err: errors.New("qdrant down")}, logger.New("development"))
	if _, err := svc.RetrieveContext(context.Background(), "q"); err == nil {
		t.Fatal("search failure should surface so the engine can skip retrieval")
	}
}
