package search

import "errors"

var (
	// ErrMeetingRepositoryRequired is returned when a meeting repository is not provided.
	ErrMeetingRepositoryRequired = errors.New("meeting repository required")

	// ErrRetrieverRequired is returned when a retriever is not provided.
	ErrRetrieverRequired = errors.New("retriever required")
)
