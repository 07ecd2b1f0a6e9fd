package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// ErrEmbeddingCount is returned when an embedder answers a batch with a
// different number of vectors than texts.
var ErrEmbeddingCount = errors.New("embedding count does not match input")

// CachedEmbedder memoizes embeddings by text in an expiring LRU.
// Embeddings are deterministic for a fixed model, so cached vectors stay valid
// until the TTL passes.
type CachedEmbedder struct {
	next   Embedder
	cache  *expirable.LRU[string, []float32]
	logger *slog.Logger
}

var _ Embedder = (*CachedEmbedder)(nil)

// NewCachedEmbedder wraps next with an LRU cache.
// It returns next unchanged when size or ttl is not positive.
func NewCachedEmbedder(next Embedder, size int, ttl time.Duration) Embedder {
	if next == nil || size <= 0 || ttl <= 0 {
		return next
	}
	return &CachedEmbedder{
		next:   next,
		cache:  expirable.NewLRU[string, []float32](size, nil, ttl),
		logger: slog.Default().With("component", "embedding-cache"),
	}
}

// EmbedText implements Embedder.
func (c *CachedEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if cached, ok := c.cache.Get(text); ok {
		c.logger.Debug("embedding cache hit")
		return cloneEmbedding(cached), nil
	}
	vec, err := c.next.EmbedText(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Add(text, cloneEmbedding(vec))
	return vec, nil
}

// EmbedTexts implements Embedder. Only cache misses reach the wrapped embedder,
// in a single batch.
func (c *CachedEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var missing []string
	var missingIdx []int
	for i, text := range texts {
		if cached, ok := c.cache.Get(text); ok {
			out[i] = cloneEmbedding(cached)
			continue
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}
	if len(missing) == 0 {
		return out, nil
	}

	vecs, err := c.next.EmbedTexts(ctx, missing)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(missing) {
		return nil, fmt.Errorf("%w: got %d vectors for %d texts", ErrEmbeddingCount, len(vecs), len(missing))
	}
	for j, vec := range vecs {
		out[missingIdx[j]] = vec
		c.cache.Add(missing[j], cloneEmbedding(vec))
	}
	return out, nil
}

// Len returns the number of cached entries.
func (c *CachedEmbedder) Len() int {
	return c.cache.Len()
}

func cloneEmbedding(values []float32) []float32 {
	if len(values) == 0 {
		return nil
	}
	clone := make([]float32, len(values))
	copy(clone, values)
	return clone
}
