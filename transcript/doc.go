// Package transcript turns raw "Speaker: text" transcripts into timed
// utterances and annotates them with sentiment.
//
// Transcripts carry no real timing, so the Segmenter synthesizes a
// monotonically increasing offset for every utterance: a fixed gap per turn
// plus one second for every ten characters of text.
//
// The Annotator scores every utterance with one generation call. Failures
// never abort annotation; the utterance is scored neutral and the failure
// is logged and counted.
package transcript
