package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// ErrNoGenerators is returned when a fallback chain has nothing to call.
var ErrNoGenerators = errors.New("no generators configured")

// ErrEmptyCompletion is returned when a provider answers with only whitespace.
var ErrEmptyCompletion = errors.New("empty completion")

// GeneratorEntry names one link of a fallback chain.
type GeneratorEntry struct {
	Name      string
	Generator Generator
}

// FallbackGenerator tries each generator in order until one succeeds.
// Every attempt receives the same request.
type FallbackGenerator struct {
	entries []GeneratorEntry
	logger  *slog.Logger
}

var _ Generator = (*FallbackGenerator)(nil)

// NewFallbackGenerator creates a chain from the non-nil entries.
func NewFallbackGenerator(logger *slog.Logger, entries ...GeneratorEntry) *FallbackGenerator {
	if logger == nil {
		logger = slog.Default()
	}
	kept := make([]GeneratorEntry, 0, len(entries))
	for _, e := range entries {
		if e.Generator != nil {
			kept = append(kept, e)
		}
	}
	return &FallbackGenerator{
		entries: kept,
		logger:  logger.With("component", "fallback-generator"),
	}
}

// Names returns the chain order.
func (f *FallbackGenerator) Names() []string {
	names := make([]string, len(f.entries))
	for i, e := range f.entries {
		names[i] = e.Name
	}
	return names
}

// Generate implements Generator.
func (f *FallbackGenerator) Generate(ctx context.Context, req Request) (string, error) {
	text, _, err := f.GenerateNamed(ctx, req, nil)
	return text, err
}

// AttemptFunc observes each attempt of a chain; err is nil on success.
type AttemptFunc func(name string, elapsed time.Duration, err error)

// GenerateNamed runs the chain and reports which entry answered.
// Whitespace-only completions count as failures. When every entry fails the
// returned error joins all attempt errors.
func (f *FallbackGenerator) GenerateNamed(ctx context.Context, req Request, observe AttemptFunc) (string, string, error) {
	if len(f.entries) == 0 {
		return "", "", ErrNoGenerators
	}

	var errs []error
	for i, e := range f.entries {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		start := time.Now()
		text, err := e.Generator.Generate(ctx, req)
		if err == nil && strings.TrimSpace(text) == "" {
			err = ErrEmptyCompletion
		}
		if observe != nil {
			observe(e.Name, time.Since(start), err)
		}
		if err == nil {
			return text, e.Name, nil
		}
		f.logger.Warn("generator failed", "index", i, "name", e.Name, "err", err)
		errs = append(errs, fmt.Errorf("%s: %w", e.Name, err))
	}
	return "", "", errors.Join(errs...)
}
