package answer

import "errors"

var (
	// ErrMeetingRepositoryRequired is returned when a meeting repository is not provided.
	ErrMeetingRepositoryRequired = errors.New("meeting repository required")

	// ErrRetrieverRequired is returned when a retriever is not provided.
	ErrRetrieverRequired = errors.New("retriever required")

	// ErrGeneratorRequired is returned when no generator is provided.
	ErrGeneratorRequired = errors.New("generator required")

	// ErrMeetingRequired is returned when AnswerWithContext is given no meeting.
	ErrMeetingRequired = errors.New("meeting required")
)
