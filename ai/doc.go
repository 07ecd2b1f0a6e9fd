// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package ai provides abstractions for the AI services the meeting pipeline consumes.
//
// This package defines interfaces for text embeddings and text generation.
// Domain packages depend on these abstractions rather than on concrete
// providers.
//
// # Interfaces
//
//   - Embedder: Generates vector embeddings from text
//   - Generator: Produces one-shot completions from a prompt and system instruction
//   - AIProvider: Aggregates both for convenient initialization
//
// # Implementation Packages
//
//   - ai/openai: OpenAI-compatible APIs (Ollama, vLLM, OpenAI) via langchaingo
//   - ai/gemini: Google Gemini via google.golang.org/genai
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// # Decorators
//
// FallbackGenerator chains generators so a failing provider hands the same
// request to the next one. CachedEmbedder memoizes embeddings in an expiring
// LRU. TimeoutGenerator and TimeoutEmbedder bound every external call.
//
// # Constructor Return Type Pattern
//
// Public provider constructors (openai.NewProvider, gemini.NewProvider) return
// INTERFACE types. Test utility constructors (mock.NewMockEmbedder,
// mock.NewMockGenerator) return CONCRETE types so tests can inspect call
// counts and inject behavior.
//
// # Usage Example
//
//	config := ai.NewConfig(ai.WithHost("http://localhost:11434"))
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	vec, err := provider.Embedder().EmbedText(ctx, "Alice: we ship Friday")
//	text, err := provider.Generator().Generate(ctx, ai.Request{
//	    Prompt:      "Summarize the meeting",
//	    Temperature: 0.2,
//	})
package ai
