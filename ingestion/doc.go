// Package ingestion provides pipeline orchestration for analyzing meetings.
//
// The Pipeline type turns one raw transcript into a registered meeting:
//   - Segmenting the transcript into timed utterances
//   - Annotating every utterance with sentiment
//   - Extracting insights and classifying action item urgency
//   - Embedding utterances into the knowledge store
//   - Registering the meeting record
//
// Analyze runs these stages synchronously. Submit runs analyses of different
// meetings concurrently on a worker pool; each analysis still runs its
// stages in order.
//
// The Export type is the portable JSON summary of an analyzed meeting.
package ingestion
