// Package insights extracts structured meeting insights from a transcript.
//
// An Extractor makes one JSON-mode generation call over the whole
// transcript and parses the answer into a core.MeetingInsights. Model output
// is cleaned before parsing: code fences are stripped, text around the
// outermost JSON object is dropped, and unquoted object keys are repaired.
// Output that still does not parse yields a neutral default rather than an
// error.
//
// Every parsed action item is then passed through an UrgencyClassifier,
// which assigns one of the four urgency tiers with a second, short
// generation call per item.
package insights
