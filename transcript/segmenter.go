package transcript

import (
	"bufio"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/poiesic/minutes/core"
)

const (
	// DefaultGap is the synthetic pause added before every turn.
	DefaultGap = 30 * time.Second

	// charsPerSecond is the speaking rate used to stretch long turns.
	charsPerSecond = 10
)

// Segmenter splits raw transcripts into utterances with synthetic offsets.
type Segmenter struct {
	base time.Duration
	gap  time.Duration
}

// SegmenterOption configures a Segmenter.
type SegmenterOption func(*Segmenter)

// WithBaseOffset sets the offset of the first utterance. Default is 0.
func WithBaseOffset(d time.Duration) SegmenterOption {
	return func(s *Segmenter) {
		if d >= 0 {
			s.base = d
		}
	}
}

// WithGap sets the per-turn gap. Default is DefaultGap.
func WithGap(d time.Duration) SegmenterOption {
	return func(s *Segmenter) {
		if d >= 0 {
			s.gap = d
		}
	}
}

// NewSegmenter creates a Segmenter.
func NewSegmenter(opts ...SegmenterOption) *Segmenter {
	s := &Segmenter{gap: DefaultGap}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Segment parses raw into utterances. Lines without a colon or without a
// speaker before it are dropped; the first colon separates speaker from
// text. The result is never nil.
func (s *Segmenter) Segment(raw string) []core.Utterance {
	utterances := make([]core.Utterance, 0)
	offset := s.base

	scanner := bufio.NewScanner(strings.NewReader(raw))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		speaker, text, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		speaker = strings.TrimSpace(speaker)
		text = strings.TrimSpace(text)
		if speaker == "" {
			continue
		}

		utterances = append(utterances, core.Utterance{
			SequenceIndex: len(utterances),
			Speaker:       speaker,
			Text:          text,
			Offset:        offset,
		})
		offset += s.gap + time.Duration(utf8.RuneCountInString(text)/charsPerSecond)*time.Second
	}
	return utterances
}

// Segment parses raw with the default gap and a zero base offset.
func Segment(raw string) []core.Utterance {
	return NewSegmenter().Segment(raw)
}
