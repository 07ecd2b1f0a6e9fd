package ai

import (
	"context"
	"time"
)

// TimeoutGenerator bounds every Generate call of gen by d.
// It returns gen unchanged when d is not positive.
func TimeoutGenerator(gen Generator, d time.Duration) Generator {
	if gen == nil || d <= 0 {
		return gen
	}
	return &timeoutGenerator{next: gen, timeout: d}
}

type timeoutGenerator struct {
	next    Generator
	timeout time.Duration
}

func (t *timeoutGenerator) Generate(ctx context.Context, req Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.Generate(ctx, req)
}

// TimeoutEmbedder bounds every call of e by d.
// It returns e unchanged when d is not positive.
func TimeoutEmbedder(e Embedder, d time.Duration) Embedder {
	if e == nil || d <= 0 {
		return e
	}
	return &timeoutEmbedder{next: e, timeout: d}
}

type timeoutEmbedder struct {
	next    Embedder
	timeout time.Duration
}

func (t *timeoutEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.EmbedText(ctx, text)
}

func (t *timeoutEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.EmbedTexts(ctx, texts)
}
