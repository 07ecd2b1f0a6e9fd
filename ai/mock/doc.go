// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.Embedder, ai.Generator,
// and ai.AIProvider for use in unit tests. The mocks allow tests to run without
// external AI service dependencies and enable controlled, deterministic behavior.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	mockProvider := mock.NewMockProvider()
//	embeddings, err := mockProvider.Embedder().EmbedText(ctx, "test")
//
//	// Scripted completions keyed on the request
//	gen := &mock.MockGenerator{
//	    GenerateFunc: func(ctx context.Context, req ai.Request) (string, error) {
//	        if strings.Contains(req.Prompt, "great") {
//	            return "positive", nil
//	        }
//	        return "neutral", nil
//	    },
//	}
//
//	// Check call counts
//	count := gen.CallCount()
//
// # Default Behavior
//
//   - MockEmbedder: Returns deterministic unit vectors based on text hash
//   - MockGenerator: Returns its fixed Response
//   - MockProvider: Aggregates mock embedder and generator
package mock
