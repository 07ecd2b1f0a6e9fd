package ai

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type blockingGenerator struct{}

func (blockingGenerator) Generate(ctx context.Context, req Request) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestTimeoutGenerator(t *testing.T) {
	t.Run("zero timeout returns generator unchanged", func(t *testing.T) {
		gen := &stubGenerator{text: "x"}
		assert.Same(t, gen, TimeoutGenerator(gen, 0))
	})

	t.Run("bounds blocking call", func(t *testing.T) {
		gen := TimeoutGenerator(blockingGenerator{}, 20*time.Millisecond)

		start := time.Now()
		_, err := gen.Generate(context.Background(), Request{})
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Less(t, time.Since(start), 2*time.Second)
	})
}

func TestTimeoutEmbedder(t *testing.T) {
	next := &countingEmbedder{}
	assert.Same(t, next, TimeoutEmbedder(next, 0))

	wrapped := TimeoutEmbedder(next, time.Second)
	_, err := wrapped.EmbedTexts(context.Background(), []string{"a"})
	assert.NoError(t, err)
	assert.Equal(t, 1, next.batch)
}
