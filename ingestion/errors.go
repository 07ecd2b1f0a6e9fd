package ingestion

import "errors"

var (
	// ErrMeetingRepositoryRequired is returned when a meeting repository is not provided.
	ErrMeetingRepositoryRequired = errors.New("meeting repository required")

	// ErrAnnotatorRequired is returned when a sentiment annotator is not provided.
	ErrAnnotatorRequired = errors.New("annotator required")

	// ErrExtractorRequired is returned when an insight extractor is not provided.
	ErrExtractorRequired = errors.New("extractor required")

	// ErrIngesterRequired is returned when a knowledge store is not provided.
	ErrIngesterRequired = errors.New("ingester required")

	// ErrEmptyTranscript is returned when a transcript contains no utterances.
	ErrEmptyTranscript = errors.New("transcript has no utterances")

	// ErrMeetingExists is returned when analyzing a meeting ID that is
	// already registered or being analyzed, without Replace.
	ErrMeetingExists = errors.New("meeting already exists")
)
