// Package reembed rebuilds the knowledge store from the meeting registry.
//
// Registered meetings keep their utterances, so switching embedding models
// or recovering a damaged vector collection never requires re-running the
// language model stages. The Reembedder walks every meeting, re-ingests its
// utterances with retry and exponential backoff, and reports progress as it
// goes.
package reembed
